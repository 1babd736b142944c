package models

import (
	"time"
)

// ChatMode selects the assistant persona and default temperature for a conversation.
type ChatMode string

const (
	ModeChat         ChatMode = "CHAT"
	ModeDeepThinking ChatMode = "DEEP_THINKING"
	ModeCoding       ChatMode = "CODING"
	ModeCreative     ChatMode = "CREATIVE"
	ModeStudy        ChatMode = "STUDY"
	ModeProductivity ChatMode = "PRODUCTIVITY"
)

// ChatSession groups an ordered message transcript under a derived title.
// Sessions are listed most-recently-active first; LastActiveAt is bumped on
// every appended message.
type ChatSession struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UUID         string    `json:"uuid" gorm:"uniqueIndex"`
	Title        string    `json:"title"`
	Mode         ChatMode  `json:"mode" gorm:"default:'CHAT'"`
	Messages     []Message `json:"messages,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	LastActiveAt time.Time `json:"last_active_at" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
