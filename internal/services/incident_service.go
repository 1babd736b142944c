package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aegisgrid/aegischat/backend/internal/logger"
	"github.com/aegisgrid/aegischat/backend/internal/models"
	"github.com/aegisgrid/aegischat/backend/internal/util"
)

type IncidentService struct {
	db *gorm.DB
}

// NewIncidentService returns an IncidentService using the provided DB.
func NewIncidentService(db *gorm.DB) *IncidentService {
	return &IncidentService{db: db}
}

// Record appends one incident to the security log. Failures are logged, not
// returned: the caller is mid-turn and an audit write must never break it.
func (s *IncidentService) Record(category models.IncidentCategory, details, rawInput string, score int, actor string) {
	if actor == "" {
		actor = "Anonymous"
	}
	incident := models.SecurityIncident{
		UUID:     uuid.NewString(),
		Category: category,
		Details:  details,
		RawInput: util.SanitizeForLog(rawInput),
		Score:    score,
		Actor:    actor,
	}
	if err := s.db.Create(&incident).Error; err != nil {
		logger.Log().WithError(err).Error("failed to record security incident")
	}
}

// List returns incidents newest first, optionally filtered by category,
// capped at limit (or 100 when limit is not positive).
func (s *IncidentService) List(category models.IncidentCategory, limit int) ([]models.SecurityIncident, error) {
	if limit <= 0 {
		limit = 100
	}
	q := s.db.Order("created_at DESC").Limit(limit)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var incidents []models.SecurityIncident
	if err := q.Find(&incidents).Error; err != nil {
		return nil, err
	}
	return incidents, nil
}

// IncidentStats summarizes the security log for the admin dashboard.
type IncidentStats struct {
	Total      int64            `json:"total"`
	ByCategory map[string]int64 `json:"by_category"`
	TopScore   int              `json:"top_score"`
}

// Stats aggregates incident counts per category and the highest score seen.
func (s *IncidentService) Stats() (*IncidentStats, error) {
	stats := &IncidentStats{ByCategory: map[string]int64{}}

	if err := s.db.Model(&models.SecurityIncident{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type row struct {
		Category string
		N        int64
	}
	var rows []row
	err := s.db.Model(&models.SecurityIncident{}).
		Select("category, COUNT(*) AS n").Group("category").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ByCategory[r.Category] = r.N
	}

	var top struct{ Top int }
	err = s.db.Model(&models.SecurityIncident{}).
		Select("COALESCE(MAX(score), 0) AS top").Scan(&top).Error
	if err != nil {
		return nil, err
	}
	stats.TopScore = top.Top
	return stats, nil
}

// TrimOlderThan deletes incidents created before the cutoff and returns how
// many rows were removed.
func (s *IncidentService) TrimOlderThan(cutoff time.Time) (int64, error) {
	res := s.db.Where("created_at < ?", cutoff).Delete(&models.SecurityIncident{})
	return res.RowsAffected, res.Error
}
