package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aegisgrid/aegischat/backend/internal/models"
)

func setupIncidentService(t *testing.T) *IncidentService {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.SecurityIncident{})
	assert.NoError(t, err)

	return NewIncidentService(db)
}

func TestIncidentService_RecordDefaultsAndSanitizes(t *testing.T) {
	svc := setupIncidentService(t)

	svc.Record(models.IncidentInjection, "details", "line one\nline two", 50, "")

	incidents, err := svc.List("", 0)
	assert.NoError(t, err)
	assert.Len(t, incidents, 1)
	assert.Equal(t, "Anonymous", incidents[0].Actor)
	assert.NotContains(t, incidents[0].RawInput, "\n")
	assert.NotEmpty(t, incidents[0].UUID)
}

func TestIncidentService_ListFilterAndLimit(t *testing.T) {
	svc := setupIncidentService(t)

	svc.Record(models.IncidentInjection, "a", "x", 50, "u")
	svc.Record(models.IncidentBannedWord, "b", "y", 0, "u")
	svc.Record(models.IncidentInjection, "c", "z", 60, "u")

	injections, err := svc.List(models.IncidentInjection, 0)
	assert.NoError(t, err)
	assert.Len(t, injections, 2)

	limited, err := svc.List("", 1)
	assert.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestIncidentService_Stats(t *testing.T) {
	svc := setupIncidentService(t)

	svc.Record(models.IncidentInjection, "a", "x", 50, "u")
	svc.Record(models.IncidentInjection, "b", "y", 95, "u")
	svc.Record(models.IncidentSystemError, "c", "z", 0, "u")

	stats, err := svc.Stats()
	assert.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByCategory[string(models.IncidentInjection)])
	assert.Equal(t, int64(1), stats.ByCategory[string(models.IncidentSystemError)])
	assert.Equal(t, 95, stats.TopScore)
}

func TestIncidentService_TrimOlderThan(t *testing.T) {
	svc := setupIncidentService(t)

	svc.db.Create(&models.SecurityIncident{UUID: "old", Category: models.IncidentInjection,
		CreatedAt: time.Now().Add(-48 * time.Hour)})
	svc.Record(models.IncidentInjection, "fresh", "x", 50, "u")

	removed, err := svc.TrimOlderThan(time.Now().Add(-24 * time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	incidents, err := svc.List("", 0)
	assert.NoError(t, err)
	assert.Len(t, incidents, 1)
	assert.Equal(t, "fresh", incidents[0].Details)
}
