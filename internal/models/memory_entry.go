package models

import (
	"time"
)

// MemoryEntry holds the free-text long-term context ("soul memory") appended
// to every model invocation. Singleton row.
type MemoryEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Content   string    `json:"content" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}
