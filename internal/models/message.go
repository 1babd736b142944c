package models

import (
	"time"
)

// MessageRole distinguishes user turns from model turns.
type MessageRole string

const (
	RoleUser  MessageRole = "user"
	RoleModel MessageRole = "model"
)

// Message is a single transcript entry. Messages are immutable once written,
// except that a streaming model message grows in place (located by UUID) until
// the stream completes, and an emergency unlock may rewrite the most recent
// error message into a success notice.
type Message struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	UUID      string      `json:"uuid" gorm:"uniqueIndex"`
	SessionID uint        `json:"-" gorm:"index"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content" gorm:"type:text"`
	Mode      ChatMode    `json:"mode,omitempty"`
	Image     string      `json:"image,omitempty" gorm:"type:text"` // base64 data URL
	IsError   bool        `json:"is_error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
