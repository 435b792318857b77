package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceStatusDraft = "draft"
	InvoiceStatusSent  = "sent"
	InvoiceStatusPaid  = "paid"
)

type Invoice struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index" json:"user_id"`
	CustomerID uint            `gorm:"index" json:"customer_id"`
	Number     string          `json:"number"`
	Date       time.Time       `json:"date"`
	DueDate    time.Time       `json:"due_date"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	Status     string          `gorm:"default:draft" json:"status"` // draft, sent, paid
	Notes      string          `json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
