package models

import (
	"encoding/json"
	"time"
)

// DefenseStrategy selects the punitive response applied when the threat
// scanner flags an input.
type DefenseStrategy string

const (
	// StrategyLockdown suspends the chat interface on a timed countdown.
	StrategyLockdown DefenseStrategy = "LOCKDOWN"
	// StrategyHoneypot silently swaps in a deceptive, unhelpful persona.
	StrategyHoneypot DefenseStrategy = "HONEYPOT"
)

// AdminSettings is the single process-wide configuration row consumed by the
// response gate. Mutated only through the admin surface.
type AdminSettings struct {
	ID                   uint            `json:"id" gorm:"primaryKey"`
	SystemPromptOverride string          `json:"system_prompt_override" gorm:"type:text"`
	CreativityLevel      float64         `json:"creativity_level" gorm:"default:0.7"` // 0.0 - 2.0
	MaintenanceMode      bool            `json:"maintenance_mode"`
	BannedKeywords       string          `json:"-" gorm:"type:text"` // JSON string array
	NerfMode             bool            `json:"nerf_mode"`
	SlowMode             bool            `json:"slow_mode"`
	DefenseStrategy      DefenseStrategy `json:"defense_strategy" gorm:"default:'LOCKDOWN'"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// KeywordList decodes the banned keyword list. A corrupt value is treated as
// an empty list rather than propagated.
func (s *AdminSettings) KeywordList() []string {
	if s.BannedKeywords == "" {
		return nil
	}
	var words []string
	if err := json.Unmarshal([]byte(s.BannedKeywords), &words); err != nil {
		return nil
	}
	return words
}

// SetKeywordList encodes and stores the banned keyword list.
func (s *AdminSettings) SetKeywordList(words []string) {
	if len(words) == 0 {
		s.BannedKeywords = ""
		return
	}
	raw, err := json.Marshal(words)
	if err != nil {
		return
	}
	s.BannedKeywords = string(raw)
}
