package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/aegisgrid/aegischat/backend/internal/models"
)

type MemoryService struct {
	db *gorm.DB
}

// NewMemoryService returns a MemoryService using the provided DB.
func NewMemoryService(db *gorm.DB) *MemoryService {
	return &MemoryService{db: db}
}

// Current returns the long-term memory text, or "" when none is stored.
func (s *MemoryService) Current() string {
	var entry models.MemoryEntry
	if err := s.db.First(&entry).Error; err != nil {
		return ""
	}
	return entry.Content
}

// Set overwrites the singleton memory row. An empty string clears it.
func (s *MemoryService) Set(content string) error {
	var entry models.MemoryEntry
	if err := s.db.First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.db.Create(&models.MemoryEntry{Content: content}).Error
		}
		return err
	}
	entry.Content = content
	return s.db.Save(&entry).Error
}
