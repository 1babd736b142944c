package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aegisgrid/aegischat/backend/internal/models"
)

func setupSettingsService(t *testing.T) *SettingsService {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.AdminSettings{})
	assert.NoError(t, err)

	return NewSettingsService(db)
}

func TestSettingsService_DefaultsOnFirstAccess(t *testing.T) {
	svc := setupSettingsService(t)

	settings, err := svc.Current()
	assert.NoError(t, err)
	assert.Equal(t, 0.7, settings.CreativityLevel)
	assert.Equal(t, models.StrategyLockdown, settings.DefenseStrategy)
	assert.False(t, settings.MaintenanceMode)
	assert.Empty(t, settings.KeywordList())

	// Singleton: a second read returns the same row.
	again, err := svc.Current()
	assert.NoError(t, err)
	assert.Equal(t, settings.ID, again.ID)
}

func TestSettingsService_UpdateRoundTrip(t *testing.T) {
	svc := setupSettingsService(t)

	updated, err := svc.Update(SettingsUpdate{
		SystemPromptOverride: "be terse",
		CreativityLevel:      1.5,
		MaintenanceMode:      true,
		BannedKeywords:       []string{"homework", "essay"},
		NerfMode:             true,
		SlowMode:             true,
		DefenseStrategy:      models.StrategyHoneypot,
	})
	assert.NoError(t, err)
	assert.Equal(t, "be terse", updated.SystemPromptOverride)
	assert.Equal(t, models.StrategyHoneypot, updated.DefenseStrategy)
	assert.Equal(t, []string{"homework", "essay"}, updated.KeywordList())

	settings, err := svc.Current()
	assert.NoError(t, err)
	assert.True(t, settings.SlowMode)
	assert.True(t, settings.NerfMode)
}

func TestSettingsService_UpdateValidation(t *testing.T) {
	svc := setupSettingsService(t)

	_, err := svc.Update(SettingsUpdate{CreativityLevel: 2.5})
	assert.ErrorIs(t, err, ErrInvalidCreativity)

	// Unknown strategy falls back to lockdown.
	updated, err := svc.Update(SettingsUpdate{CreativityLevel: 1, DefenseStrategy: "CHAOS"})
	assert.NoError(t, err)
	assert.Equal(t, models.StrategyLockdown, updated.DefenseStrategy)
}

func TestSettingsService_CorruptKeywordsTreatedAsEmpty(t *testing.T) {
	svc := setupSettingsService(t)

	settings, err := svc.Current()
	assert.NoError(t, err)

	settings.BannedKeywords = "{not json"
	assert.NoError(t, svc.db.Save(settings).Error)

	settings, err = svc.Current()
	assert.NoError(t, err)
	assert.Empty(t, settings.KeywordList())
}
