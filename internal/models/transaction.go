package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DirectionInflow  = "inflow"
	DirectionOutflow = "outflow"
)

// Transaction stores amounts as a non-negative magnitude plus a direction.
// The provider's signed convention (negative = money in) is translated at
// sync time and never stored.
type Transaction struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	UserID    uint `gorm:"index" json:"user_id"`
	AccountID uint `gorm:"index" json:"account_id"`
	// Provider-side transaction ID. Null for manually entered or imported
	// rows; unique across the system when present.
	ExternalID     *string         `gorm:"uniqueIndex" json:"external_id,omitempty"`
	Date           time.Time       `gorm:"index" json:"date"`
	Description    string          `json:"description"`
	MerchantName   *string         `json:"merchant_name,omitempty"`
	Amount         decimal.Decimal `gorm:"type:numeric(14,2)" json:"amount"`
	Direction      string          `json:"direction"` // inflow, outflow
	Pending        bool            `json:"pending"`
	CategoryID     *uint           `gorm:"index" json:"category_id,omitempty"`
	StatementMonth int             `json:"statement_month"`
	StatementYear  int             `json:"statement_year"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
