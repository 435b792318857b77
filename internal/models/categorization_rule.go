package models

import "time"

// CategorizationRule assigns a category to transactions whose description or
// merchant name matches Pattern (case-insensitive regex search). Rules run
// in Position order and the first match wins, so ordering is part of the
// contract, not a display preference.
type CategorizationRule struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index" json:"user_id"`
	Pattern    string    `json:"pattern"`
	CategoryID uint      `json:"category_id"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
