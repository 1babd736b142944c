package services

import (
	"fmt"

	"github.com/containrrr/shoutrrr"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aegisgrid/aegischat/backend/internal/logger"
	"github.com/aegisgrid/aegischat/backend/internal/models"
)

type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService returns a NotificationService using the provided DB.
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// CreateProvider registers an external notification destination.
func (s *NotificationService) CreateProvider(name, url string, notifySecurity bool) (*models.NotificationProvider, error) {
	provider := models.NotificationProvider{
		UUID:           uuid.NewString(),
		Name:           name,
		URL:            url,
		Enabled:        true,
		NotifySecurity: notifySecurity,
	}
	if err := s.db.Create(&provider).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

// ListProviders returns all registered destinations.
func (s *NotificationService) ListProviders() ([]models.NotificationProvider, error) {
	var providers []models.NotificationProvider
	if err := s.db.Order("id ASC").Find(&providers).Error; err != nil {
		return nil, err
	}
	return providers, nil
}

// DeleteProvider removes a destination by UUID.
func (s *NotificationService) DeleteProvider(providerUUID string) error {
	return s.db.Where("uuid = ?", providerUUID).Delete(&models.NotificationProvider{}).Error
}

// SendSecurityEvent pushes a security notification to every enabled provider
// that opted into security events. Delivery failures are logged and skipped;
// one broken webhook must not block the rest.
func (s *NotificationService) SendSecurityEvent(title, body string) {
	var providers []models.NotificationProvider
	err := s.db.Where("enabled = ? AND notify_security = ?", true, true).Find(&providers).Error
	if err != nil {
		logger.Log().WithError(err).Error("failed to fetch notification providers")
		return
	}

	message := fmt.Sprintf("%s\n%s", title, body)
	for _, provider := range providers {
		if err := shoutrrr.Send(provider.URL, message); err != nil {
			logger.WithFields(map[string]interface{}{
				"provider": provider.Name,
			}).WithError(err).Error("failed to send notification")
		}
	}
}
