package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aegisgrid/aegischat/backend/internal/config"
	"github.com/aegisgrid/aegischat/backend/internal/database"
	"github.com/aegisgrid/aegischat/backend/internal/janitor"
	"github.com/aegisgrid/aegischat/backend/internal/logger"
	"github.com/aegisgrid/aegischat/backend/internal/server"
	"github.com/aegisgrid/aegischat/backend/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(false, nil)
		logger.Log().WithError(err).Fatal("load config")
	}

	logDir := filepath.Join(filepath.Dir(cfg.DatabasePath), "logs")
	_ = os.MkdirAll(logDir, 0o755)
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "aegischat.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	logger.Init(cfg.Environment == "development", io.MultiWriter(os.Stdout, rotator))

	logger.WithFields(map[string]interface{}{
		"version": version.Full(),
		"port":    cfg.HTTPPort,
	}).Info("starting backend")

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Log().WithError(err).Fatal("open database")
	}

	srv, err := server.New(db, cfg)
	if err != nil {
		logger.Log().WithError(err).Fatal("build server")
	}
	defer srv.App.Close()

	jan := janitor.New(db, srv.App.Incidents)
	if err := jan.Start(); err != nil {
		logger.Log().WithError(err).Fatal("start janitor")
	}
	defer jan.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Log().WithError(err).Fatal("server exited")
	}
	logger.Log().Info("shutdown complete")
}
