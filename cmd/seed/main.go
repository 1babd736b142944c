package main

import (
	"fmt"
	"log"

	"github.com/aegisgrid/aegischat/backend/internal/config"
	"github.com/aegisgrid/aegischat/backend/internal/database"
	"github.com/aegisgrid/aegischat/backend/internal/models"
	"github.com/aegisgrid/aegischat/backend/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.ChatSession{},
		&models.Message{},
		&models.SecurityIncident{},
		&models.LockoutRecord{},
		&models.AdminAccount{},
		&models.AdminSettings{},
		&models.MemoryEntry{},
		&models.NotificationProvider{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	fmt.Println("✓ Database migrated successfully")

	accounts := services.NewAccountService(db, cfg.JWTSecret, cfg.AdminSecretKey)
	if err := accounts.Seed(); err != nil {
		log.Fatal("Failed to seed accounts:", err)
	}
	fmt.Println("✓ Owner accounts seeded")

	settings := services.NewSettingsService(db)
	if _, err := settings.Current(); err != nil {
		log.Fatal("Failed to initialize settings:", err)
	}
	fmt.Println("✓ Default settings initialized")
}
