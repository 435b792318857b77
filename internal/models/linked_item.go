package models

import "time"

const (
	ItemStatusOK            = "ok"
	ItemStatusLoginRequired = "login_required"
	ItemStatusError         = "error"
)

// LinkedItem is one connection to an external institution via the
// aggregator. The cursor and status fields are mutated only by the sync
// engine.
type LinkedItem struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	UserID          uint   `gorm:"index" json:"user_id"`
	InstitutionName string `json:"institution_name"`
	AccessToken     string `json:"-"` // Opaque long-lived provider credential
	// Nil until the first sync has fetched full history.
	Cursor       *string    `json:"-"`
	Status       string     `gorm:"default:ok" json:"status"` // ok, login_required, error
	LastError    string     `json:"last_error"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
