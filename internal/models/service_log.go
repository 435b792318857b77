package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ServiceLog struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index" json:"user_id"`
	CustomerID uint            `gorm:"index" json:"customer_id"`
	RouteID    *uint           `json:"route_id,omitempty"`
	Date       time.Time       `json:"date"`
	Work       string          `json:"work"`
	Price      decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	Completed  bool            `json:"completed"`
	Notes      string          `json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
