package models

import "time"

// DeletedTransaction is a tombstone for an externally-sourced transaction
// the user removed. The provider feed has no concept of user-side deletion
// and will keep re-offering the row as "added"; the tombstone stops it from
// being reinserted. Tombstones never expire.
type DeletedTransaction struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex:idx_deleted_user_external" json:"user_id"`
	ExternalID string    `gorm:"uniqueIndex:idx_deleted_user_external" json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
}
