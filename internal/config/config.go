package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment    string
	HTTPPort       string
	DatabasePath   string
	FrontendDir    string
	GeminiAPIKey   string
	GeminiModel    string
	JWTSecret      string
	AdminSecretKey string
	SlowModeDelay  int // seconds
	HoneypotDelay  int // seconds
}

// Load reads env vars and falls back to defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:    getEnv("AEGIS_ENV", "development"),
		HTTPPort:       getEnv("AEGIS_HTTP_PORT", "8080"),
		DatabasePath:   getEnv("AEGIS_DB_PATH", filepath.Join("data", "aegischat.db")),
		FrontendDir:    getEnv("AEGIS_FRONTEND_DIR", filepath.Clean(filepath.Join("..", "frontend", "dist"))),
		GeminiAPIKey:   getEnv("AEGIS_GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("AEGIS_GEMINI_MODEL", "gemini-2.0-flash-exp"),
		JWTSecret:      getEnv("AEGIS_JWT_SECRET", "aegischat-dev-secret"),
		AdminSecretKey: getEnv("AEGIS_ADMIN_SECRET_KEY", "DhairyaIsGod"),
		SlowModeDelay:  getEnvInt("AEGIS_SLOW_MODE_DELAY", 5),
		HoneypotDelay:  getEnvInt("AEGIS_HONEYPOT_DELAY", 2),
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return fallback
}
