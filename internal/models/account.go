package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountTypeChecking = "checking"
	AccountTypeSavings  = "savings"
	AccountTypeCredit   = "credit"
)

type Account struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UserID       uint   `gorm:"index" json:"user_id"`
	Name         string `json:"name"`
	Type         string `json:"type"` // checking, savings, credit
	LinkedItemID *uint  `gorm:"uniqueIndex:idx_accounts_item_external" json:"linked_item_id,omitempty"`
	// Provider-side account ID. At most one Account per external ID
	// within a LinkedItem.
	ExternalAccountID *string          `gorm:"uniqueIndex:idx_accounts_item_external" json:"external_account_id,omitempty"`
	CurrentBalance    *decimal.Decimal `gorm:"type:numeric(14,2)" json:"current_balance,omitempty"`
	LastSyncedAt      *time.Time       `json:"last_synced_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}
