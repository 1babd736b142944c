package janitor

import (
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/aegisgrid/aegischat/backend/internal/logger"
	"github.com/aegisgrid/aegischat/backend/internal/models"
	"github.com/aegisgrid/aegischat/backend/internal/services"
)

// incidentRetention is how long security incidents are kept before the daily
// trim removes them.
const incidentRetention = 30 * 24 * time.Hour

// Janitor runs the periodic maintenance jobs: sweeping stale lockout records
// and trimming old incidents.
type Janitor struct {
	cron      *cron.Cron
	db        *gorm.DB
	incidents *services.IncidentService
}

// New returns a Janitor. Call Start to begin scheduling.
func New(db *gorm.DB, incidents *services.IncidentService) *Janitor {
	return &Janitor{cron: cron.New(), db: db, incidents: incidents}
}

// Start registers and launches the maintenance schedule.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("@every 1m", j.sweepLockouts); err != nil {
		return err
	}
	if _, err := j.cron.AddFunc("@daily", j.trimIncidents); err != nil {
		return err
	}
	j.cron.Start()
	logger.Log().Info("janitor started")
	return nil
}

// Stop halts the schedule. Running jobs finish first.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

// sweepLockouts deletes persisted lockout records whose end time has passed.
// The defense machine clears its own record on expiry; this catches records
// orphaned by a crash between expiry and cleanup.
func (j *Janitor) sweepLockouts() {
	res := j.db.Where("end_time < ?", time.Now()).Delete(&models.LockoutRecord{})
	if res.Error != nil {
		logger.Log().WithError(res.Error).Error("lockout sweep failed")
		return
	}
	if res.RowsAffected > 0 {
		logger.WithFields(map[string]interface{}{"removed": res.RowsAffected}).Info("swept stale lockout records")
	}
}

func (j *Janitor) trimIncidents() {
	removed, err := j.incidents.TrimOlderThan(time.Now().Add(-incidentRetention))
	if err != nil {
		logger.Log().WithError(err).Error("incident trim failed")
		return
	}
	if removed > 0 {
		logger.WithFields(map[string]interface{}{"removed": removed}).Info("trimmed old security incidents")
	}
}
