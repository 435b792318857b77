package models

import "time"

// Route is a recurring service run, e.g. "Tuesday North Side".
type Route struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Name      string    `json:"name"`
	DayOfWeek int       `json:"day_of_week"` // 0 = Sunday
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
