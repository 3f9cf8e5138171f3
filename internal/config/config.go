package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/GB163/student-led-initiative-sub002/internal/storage"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// WebSocket timeouts
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration

	// Presence
	RedisAddr       string // empty disables the presence store
	HeartbeatWindow time.Duration
	SweepInterval   time.Duration

	// Auth for operational HTTP surfaces; empty issuer disables verification
	AuthIssuerURL string

	Storage storage.Config
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		AuthIssuerURL:  getEnv("AUTH_ISSUER_URL", ""),
		Storage:        storage.LoadConfig(),
	}

	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	heartbeatWindow, err := strconv.Atoi(getEnv("HEARTBEAT_WINDOW", "90"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEARTBEAT_WINDOW: %w", err)
	}
	config.HeartbeatWindow = time.Duration(heartbeatWindow) * time.Second

	sweepInterval, err := strconv.Atoi(getEnv("SWEEP_INTERVAL", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}
	config.SweepInterval = time.Duration(sweepInterval) * time.Second

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
