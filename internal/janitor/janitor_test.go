package janitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aegisgrid/aegischat/backend/internal/models"
	"github.com/aegisgrid/aegischat/backend/internal/services"
)

func setupJanitor(t *testing.T) (*Janitor, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.LockoutRecord{}, &models.SecurityIncident{})
	assert.NoError(t, err)

	return New(db, services.NewIncidentService(db)), db
}

func TestJanitor_SweepLockouts(t *testing.T) {
	j, db := setupJanitor(t)

	db.Create(&models.LockoutRecord{EndTime: time.Now().Add(-time.Minute)})
	db.Create(&models.LockoutRecord{EndTime: time.Now().Add(time.Hour)})

	j.sweepLockouts()

	var records []models.LockoutRecord
	db.Find(&records)
	assert.Len(t, records, 1)
	assert.True(t, records[0].EndTime.After(time.Now()))
}

func TestJanitor_TrimIncidents(t *testing.T) {
	j, db := setupJanitor(t)

	db.Create(&models.SecurityIncident{UUID: "ancient", Category: models.IncidentInjection,
		CreatedAt: time.Now().Add(-40 * 24 * time.Hour)})
	db.Create(&models.SecurityIncident{UUID: "recent", Category: models.IncidentInjection,
		CreatedAt: time.Now().Add(-time.Hour)})

	j.trimIncidents()

	var incidents []models.SecurityIncident
	db.Find(&incidents)
	assert.Len(t, incidents, 1)
	assert.Equal(t, "recent", incidents[0].UUID)
}
