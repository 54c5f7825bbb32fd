package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	HTTPAddress string
	Environment string

	// Mutation authority
	AuthorityURL string

	// Tree bootstrap
	RootID    string
	RootLabel string

	// Session behaviour
	FocusPolicy string
	QueueSize   int

	// Optional files
	SnapshotPath string
	LayoutFile   string

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
	OTELEndpoint  string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		HTTPAddress:  getEnv("COGMAP_HTTP_ADDR", ":8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		AuthorityURL: getEnv("COGMAP_AUTHORITY_URL", "ws://localhost:8001/ws/chat"),

		RootID:    getEnv("COGMAP_ROOT_ID", "A"),
		RootLabel: getEnv("COGMAP_ROOT_LABEL", "ROOT 问题"),

		FocusPolicy: getEnv("COGMAP_FOCUS_POLICY", "follow-child"),
		QueueSize:   getEnvInt("COGMAP_QUEUE_SIZE", 256),

		SnapshotPath: getEnv("COGMAP_SNAPSHOT_PATH", ""),
		LayoutFile:   getEnv("COGMAP_LAYOUT_FILE", ""),

		// Logging and features
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		OTELEndpoint:  getEnv("OTEL_ENDPOINT", "localhost:4317"),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.RootID == "" {
		return fmt.Errorf("COGMAP_ROOT_ID must not be empty")
	}
	u, err := url.Parse(c.AuthorityURL)
	if err != nil {
		return fmt.Errorf("COGMAP_AUTHORITY_URL is invalid: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("COGMAP_AUTHORITY_URL must use ws or wss, got %q", u.Scheme)
	}
	if c.FocusPolicy != "follow-child" && c.FocusPolicy != "stay" {
		return fmt.Errorf("COGMAP_FOCUS_POLICY must be follow-child or stay, got %q", c.FocusPolicy)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("COGMAP_QUEUE_SIZE must be positive")
	}
	if c.EnableTracing && c.OTELEndpoint == "" {
		return fmt.Errorf("OTEL_ENDPOINT is required when tracing is enabled")
	}
	return nil
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
