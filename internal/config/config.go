/**
 * Configuration for the docscan client
 *
 * Loaded once at startup from environment variables (optionally seeded from
 * .env.docscan) and handed to the rest of the program as a single value.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// FallbackAPIURL is used when neither the local override nor DOCSCAN_API_URL is set.
	FallbackAPIURL = "https://w4z95g8ig9.execute-api.us-east-1.amazonaws.com/prod"

	// DefaultLocalServerURL is the development OCR server used with DOCSCAN_USE_LOCAL_SERVER.
	DefaultLocalServerURL = "http://localhost:8900"
)

// History backends
const (
	HistoryBackendFile     = "file"
	HistoryBackendSQLite   = "sqlite"
	HistoryBackendPostgres = "postgres"
	HistoryBackendRedis    = "redis"
)

// Config holds client configuration
type Config struct {
	// Backend URL resolution inputs
	UseLocalServer bool
	LocalServerURL string
	RemoteAPIURL   string

	// BackendURL is the resolved OCR endpoint
	BackendURL string

	// Timing
	RequestTimeout   time.Duration
	ProgressInterval time.Duration
	DownloadTimeout  time.Duration

	// Validate 2xx bodies against the OCR response schema
	ValidateResponses bool

	// Directory for generated and downloaded documents
	OutputDir string

	// Share surface command; empty means no share surface
	ShareCommand string

	// History storage
	HistoryBackend string
	HistoryPath    string
	DatabaseURL    string
	RedisURL       string
	RedisKeyPrefix string

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		UseLocalServer:    getEnvAsBoolOrDefault("DOCSCAN_USE_LOCAL_SERVER", false),
		LocalServerURL:    getEnvOrDefault("DOCSCAN_LOCAL_SERVER_URL", DefaultLocalServerURL),
		RemoteAPIURL:      os.Getenv("DOCSCAN_API_URL"),
		RequestTimeout:    getEnvAsDurationOrDefault("DOCSCAN_REQUEST_TIMEOUT", 60*time.Second),
		ProgressInterval:  getEnvAsDurationOrDefault("DOCSCAN_PROGRESS_INTERVAL", 800*time.Millisecond),
		DownloadTimeout:   getEnvAsDurationOrDefault("DOCSCAN_DOWNLOAD_TIMEOUT", 120*time.Second),
		ValidateResponses: getEnvAsBoolOrDefault("DOCSCAN_VALIDATE_RESPONSES", true),
		OutputDir:         getEnvOrDefault("DOCSCAN_OUTPUT_DIR", "./documents"),
		ShareCommand:      getEnvOrDefault("DOCSCAN_SHARE_COMMAND", ""),
		HistoryBackend:    strings.ToLower(getEnvOrDefault("DOCSCAN_HISTORY_BACKEND", HistoryBackendFile)),
		HistoryPath:       getEnvOrDefault("DOCSCAN_HISTORY_PATH", "./ocr_history.json"),
		DatabaseURL:       getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		RedisKeyPrefix:    getEnvOrDefault("DOCSCAN_REDIS_PREFIX", "docscan:history"),
		LogLevel:          getEnvOrDefault("DOCSCAN_LOG_LEVEL", "info"),
		LogFormat:         getEnvOrDefault("DOCSCAN_LOG_FORMAT", "text"),
	}

	cfg.BackendURL = ResolveBackendURL(cfg.UseLocalServer, cfg.LocalServerURL, cfg.RemoteAPIURL)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ResolveBackendURL applies the precedence: local override, then the
// environment URL, then the built-in fallback.
func ResolveBackendURL(useLocal bool, localURL, envURL string) string {
	if useLocal && strings.TrimSpace(localURL) != "" {
		return strings.TrimSpace(localURL)
	}
	if strings.TrimSpace(envURL) != "" {
		return strings.TrimSpace(envURL)
	}
	return FallbackAPIURL
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend URL is required")
	}

	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("backend URL must be http or https, got %q", c.BackendURL)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("DOCSCAN_REQUEST_TIMEOUT must be positive, got %v", c.RequestTimeout)
	}

	if c.ProgressInterval <= 0 {
		return fmt.Errorf("DOCSCAN_PROGRESS_INTERVAL must be positive, got %v", c.ProgressInterval)
	}

	switch c.HistoryBackend {
	case HistoryBackendFile, HistoryBackendSQLite:
		if c.HistoryPath == "" {
			return fmt.Errorf("DOCSCAN_HISTORY_PATH is required for the %s history backend", c.HistoryBackend)
		}
	case HistoryBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres history backend")
		}
	case HistoryBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis history backend")
		}
	default:
		return fmt.Errorf("DOCSCAN_HISTORY_BACKEND must be one of file, sqlite, postgres, redis; got %q", c.HistoryBackend)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDurationOrDefault accepts Go durations ("60s") or plain milliseconds ("60000")
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if ms, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
