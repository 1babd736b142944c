package routes

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/aegisgrid/aegischat/backend/internal/api/handlers"
	"github.com/aegisgrid/aegischat/backend/internal/api/middleware"
	"github.com/aegisgrid/aegischat/backend/internal/config"
	"github.com/aegisgrid/aegischat/backend/internal/defense"
	"github.com/aegisgrid/aegischat/backend/internal/gate"
	"github.com/aegisgrid/aegischat/backend/internal/llm"
	"github.com/aegisgrid/aegischat/backend/internal/logger"
	"github.com/aegisgrid/aegischat/backend/internal/metrics"
	"github.com/aegisgrid/aegischat/backend/internal/models"
	"github.com/aegisgrid/aegischat/backend/internal/services"
)

// App holds the long-lived pieces routes construct, so the caller can hand
// them to background jobs and shut them down cleanly.
type App struct {
	Machine   *defense.Machine
	Incidents *services.IncidentService

	llmClient *llm.Client
}

// Close releases the defense timers and the model connection.
func (a *App) Close() {
	if a.Machine != nil {
		a.Machine.Close()
	}
	if a.llmClient != nil {
		if err := a.llmClient.Close(); err != nil {
			logger.Log().WithError(err).Warn("failed to close model client")
		}
	}
}

// Register runs migrations, wires every service and handler, and mounts the
// API routes.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config) (*App, error) {
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
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	sessionService := services.NewSessionService(db)
	incidentService := services.NewIncidentService(db)
	settingsService := services.NewSettingsService(db)
	accountService := services.NewAccountService(db, cfg.JWTSecret, cfg.AdminSecretKey)
	memoryService := services.NewMemoryService(db)
	notificationService := services.NewNotificationService(db)
	controlService := services.NewControlService()

	if err := accountService.Seed(); err != nil {
		return nil, fmt.Errorf("seed accounts: %w", err)
	}
	if _, err := settingsService.Current(); err != nil {
		return nil, fmt.Errorf("init settings: %w", err)
	}

	machine := defense.NewMachine(db, defense.SystemClock(),
		defense.WithRestoredNotice(func(notice string) {
			if err := sessionService.AppendSystemNotice(notice); err != nil {
				logger.Log().WithError(err).Error("failed to append restoration notice")
			}
		}),
		defense.WithNotifier(notificationService.SendSecurityEvent),
	)
	if err := machine.Restore(); err != nil {
		return nil, fmt.Errorf("restore defense state: %w", err)
	}

	app := &App{Machine: machine, Incidents: incidentService}

	var streamer llm.Streamer
	client, err := llm.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Log().WithError(err).Warn("model backend unavailable, serving apologies")
		streamer = llm.Unavailable{}
	} else {
		streamer = client
		app.llmClient = client
	}

	responseGate := gate.New(streamer, incidentService, gate.WithDelays(
		time.Duration(cfg.SlowModeDelay)*time.Second,
		time.Duration(cfg.HoneypotDelay)*time.Second,
	))

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	chatHandler := handlers.NewChatHandler(machine, responseGate, sessionService, settingsService, memoryService, controlService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	defenseHandler := handlers.NewDefenseHandler(machine, sessionService, controlService)
	controlHandler := handlers.NewControlHandler(controlService, responseGate)
	adminHandler := handlers.NewAdminHandler(accountService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	incidentHandler := handlers.NewIncidentHandler(incidentService, machine)
	memoryHandler := handlers.NewMemoryHandler(memoryService)
	providerHandler := handlers.NewProviderHandler(notificationService)

	authMiddleware := middleware.AuthMiddleware(accountService)

	router.GET("/api/v1/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")

	// Public surface
	api.GET("/chat/stream", chatHandler.Stream)
	api.GET("/sessions", sessionHandler.List)
	api.GET("/sessions/:uuid", sessionHandler.Get)
	api.DELETE("/sessions/:uuid", sessionHandler.Delete)
	api.GET("/defense", defenseHandler.State)
	api.POST("/defense/unlock", defenseHandler.Unlock)
	api.GET("/control", controlHandler.Poll)

	api.POST("/admin/login", adminHandler.Login)
	api.POST("/admin/register", adminHandler.Register)

	admin := api.Group("/admin")
	admin.Use(authMiddleware, middleware.RequireRank(models.RankAdmin))
	{
		admin.GET("/me", adminHandler.Me)
		admin.GET("/accounts", adminHandler.ListAccounts)
		admin.DELETE("/accounts/:username", adminHandler.DeleteAccount)

		admin.GET("/settings", settingsHandler.Get)
		admin.PUT("/settings", settingsHandler.Update)

		admin.GET("/incidents", incidentHandler.List)
		admin.GET("/incidents/stats", incidentHandler.Stats)
		admin.GET("/defense", incidentHandler.DefenseState)

		admin.POST("/control/forced-response", controlHandler.QueueForced)
		admin.POST("/control/broadcast", controlHandler.Broadcast)
		admin.POST("/control/effects", middleware.RequireRank(models.RankOwner), controlHandler.TriggerEffect)

		admin.GET("/memory", memoryHandler.Get)
		admin.PUT("/memory", memoryHandler.Set)

		admin.GET("/providers", providerHandler.List)
		admin.POST("/providers", providerHandler.Create)
		admin.DELETE("/providers/:uuid", providerHandler.Delete)
	}

	return app, nil
}
