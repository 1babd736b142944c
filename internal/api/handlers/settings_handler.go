package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aegisgrid/aegischat/backend/internal/services"
)

type SettingsHandler struct {
	settings *services.SettingsService
}

func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

type settingsResponse struct {
	SystemPromptOverride string   `json:"system_prompt_override"`
	CreativityLevel      float64  `json:"creativity_level"`
	MaintenanceMode      bool     `json:"maintenance_mode"`
	BannedKeywords       []string `json:"banned_keywords"`
	NerfMode             bool     `json:"nerf_mode"`
	SlowMode             bool     `json:"slow_mode"`
	DefenseStrategy      string   `json:"defense_strategy"`
}

// Get returns the current admin settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.Current()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, settingsResponse{
		SystemPromptOverride: settings.SystemPromptOverride,
		CreativityLevel:      settings.CreativityLevel,
		MaintenanceMode:      settings.MaintenanceMode,
		BannedKeywords:       settings.KeywordList(),
		NerfMode:             settings.NerfMode,
		SlowMode:             settings.SlowMode,
		DefenseStrategy:      string(settings.DefenseStrategy),
	})
}

// Update overwrites the admin settings.
func (h *SettingsHandler) Update(c *gin.Context) {
	var upd services.SettingsUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}

	settings, err := h.settings.Update(upd)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCreativity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "creativity level must be between 0 and 2"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, settingsResponse{
		SystemPromptOverride: settings.SystemPromptOverride,
		CreativityLevel:      settings.CreativityLevel,
		MaintenanceMode:      settings.MaintenanceMode,
		BannedKeywords:       settings.KeywordList(),
		NerfMode:             settings.NerfMode,
		SlowMode:             settings.SlowMode,
		DefenseStrategy:      string(settings.DefenseStrategy),
	})
}
