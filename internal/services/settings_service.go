package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/aegisgrid/aegischat/backend/internal/models"
)

var ErrInvalidCreativity = errors.New("creativity level out of range")

type SettingsService struct {
	db *gorm.DB
}

// NewSettingsService returns a SettingsService using the provided DB.
func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// Current returns the singleton settings row, creating it with defaults on
// first access.
func (s *SettingsService) Current() (*models.AdminSettings, error) {
	var settings models.AdminSettings
	if err := s.db.First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			settings = models.AdminSettings{
				CreativityLevel: 0.7,
				DefenseStrategy: models.StrategyLockdown,
			}
			if err := s.db.Create(&settings).Error; err != nil {
				return nil, err
			}
			return &settings, nil
		}
		return nil, err
	}
	return &settings, nil
}

// SettingsUpdate carries one full settings write from the admin panel.
type SettingsUpdate struct {
	SystemPromptOverride string                 `json:"system_prompt_override"`
	CreativityLevel      float64                `json:"creativity_level"`
	MaintenanceMode      bool                   `json:"maintenance_mode"`
	BannedKeywords       []string               `json:"banned_keywords"`
	NerfMode             bool                   `json:"nerf_mode"`
	SlowMode             bool                   `json:"slow_mode"`
	DefenseStrategy      models.DefenseStrategy `json:"defense_strategy"`
}

// Update overwrites the singleton settings row.
func (s *SettingsService) Update(upd SettingsUpdate) (*models.AdminSettings, error) {
	if upd.CreativityLevel < 0 || upd.CreativityLevel > 2 {
		return nil, ErrInvalidCreativity
	}
	if upd.DefenseStrategy != models.StrategyHoneypot {
		upd.DefenseStrategy = models.StrategyLockdown
	}

	settings, err := s.Current()
	if err != nil {
		return nil, err
	}
	settings.SystemPromptOverride = upd.SystemPromptOverride
	settings.CreativityLevel = upd.CreativityLevel
	settings.MaintenanceMode = upd.MaintenanceMode
	settings.NerfMode = upd.NerfMode
	settings.SlowMode = upd.SlowMode
	settings.DefenseStrategy = upd.DefenseStrategy
	settings.SetKeywordList(upd.BannedKeywords)

	if err := s.db.Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}
