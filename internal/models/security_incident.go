package models

import (
	"time"
)

// IncidentCategory classifies entries in the append-only security log.
type IncidentCategory string

const (
	IncidentInjection   IncidentCategory = "INJECTION"
	IncidentBannedWord  IncidentCategory = "BANNED_WORD"
	IncidentSystemError IncidentCategory = "SYSTEM_ERROR"
)

// SecurityIncident records a single defense-grid event so it can be audited
// and surfaced in the admin panel. Rows are never mutated; they are only
// filtered for display, forgiven on a successful override, or trimmed by the
// retention sweep.
type SecurityIncident struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UUID      string           `json:"uuid" gorm:"uniqueIndex"`
	Category  IncidentCategory `json:"category" gorm:"index"`
	Details   string           `json:"details" gorm:"type:text"`
	RawInput  string           `json:"raw_input" gorm:"type:text"`
	Score     int              `json:"score"` // 0-100
	Actor     string           `json:"actor"`
	CreatedAt time.Time        `json:"created_at" gorm:"index"`
}
