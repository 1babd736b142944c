package models

import (
	"time"
)

// LockoutRecord persists an active lockdown so it survives a restart or page
// reload. At most one live row exists; a record whose EndTime has passed is
// treated as absent and deleted on sight.
type LockoutRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EndTime   time.Time `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}
