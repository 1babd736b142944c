package models

import (
	"time"
)

// NotificationProvider is an external destination (shoutrrr URL) that receives
// security event notifications such as lockdown entry and emergency unlocks.
type NotificationProvider struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UUID           string    `json:"uuid" gorm:"uniqueIndex"`
	Name           string    `json:"name"`
	URL            string    `json:"url"` // shoutrrr service URL
	Enabled        bool      `json:"enabled" gorm:"default:true"`
	NotifySecurity bool      `json:"notify_security" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
