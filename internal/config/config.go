package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	// DefaultAPIURL is the backend origin used when DONEZO_API_URL is unset
	DefaultAPIURL = "https://task-api-eight-flax.vercel.app"

	configDirName = "donezo"
)

// Config holds all configuration for the application
type Config struct {
	// API Configuration
	API APIConfig

	// Session persistence
	Session SessionConfig

	// Local web UI
	UI UIConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds the remote backend settings
type APIConfig struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gte=0"` // zero keeps the transport default
}

// SessionConfig selects where the session is persisted
type SessionConfig struct {
	Backend string `validate:"required,oneof=file keyring sqlite memory"`
	Dir     string `validate:"required"`
}

// UIConfig holds the local web UI settings
type UIConfig struct {
	Addr           string `validate:"required"`
	AllowedOrigins []string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `validate:"required"`
	Format string `validate:"required,oneof=json console"`
}

// Load loads configuration from environment variables.
// defaultLogLevel applies when LOG_LEVEL is unset; the CLI is quieter than the server.
func Load(defaultLogLevel string) (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	baseURL := getEnv("DONEZO_API_URL", DefaultAPIURL)

	var timeout time.Duration
	if raw := os.Getenv("DONEZO_HTTP_TIMEOUT"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid DONEZO_HTTP_TIMEOUT: %w", err)
		}
		timeout = parsed
	}

	sessionDir := os.Getenv("DONEZO_CONFIG_DIR")
	if sessionDir == "" {
		dir, err := defaultConfigDir()
		if err != nil {
			return nil, err
		}
		sessionDir = dir
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(baseURL, "/"),
			Timeout: timeout,
		},
		Session: SessionConfig{
			Backend: strings.ToLower(getEnv("DONEZO_SESSION_BACKEND", "file")),
			Dir:     sessionDir,
		},
		UI: UIConfig{
			Addr:           getEnv("DONEZO_UI_ADDR", "127.0.0.1:8080"),
			AllowedOrigins: splitList(os.Getenv("DONEZO_UI_ALLOWED_ORIGINS")),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", defaultLogLevel),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "console")),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfigDir returns ~/.config/donezo
func defaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName), nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
