// Package config provides process configuration loaded from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration. Engine thresholds are not here;
// they live in the settings table and are re-read every tick.
type Config struct {
	DataDir          string // Base directory for all databases (always absolute)
	Port             int
	DevMode          bool
	LogLevel         string
	LogPretty        bool
	JupiterBaseURL   string
	SolanaRPCURL     string
	WalletAddress    string
	ExecutorURL      string // Empty means live mode cannot execute
	SettingsSeedFile string
	HTTPTimeout      time.Duration
	TelemetryTTL     time.Duration
}

// Load reads configuration from environment variables, loading .env if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("TRADER_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Port:             getEnvAsInt("GO_PORT", 8001),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogPretty:        getEnvAsBool("LOG_PRETTY", false),
		JupiterBaseURL:   getEnv("JUPITER_BASE_URL", "https://lite-api.jup.ag"),
		SolanaRPCURL:     getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		WalletAddress:    strings.TrimSpace(getEnv("WALLET_ADDRESS", "")),
		ExecutorURL:      strings.TrimRight(getEnv("EXECUTOR_URL", ""), "/"),
		SettingsSeedFile: getEnv("SETTINGS_SEED_FILE", ""),
		HTTPTimeout:      time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
		TelemetryTTL:     time.Duration(getEnvAsInt("TELEMETRY_RETENTION_DAYS", 14)) * 24 * time.Hour,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configured endpoints and ranges.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive")
	}
	for name, raw := range map[string]string{
		"JUPITER_BASE_URL": c.JupiterBaseURL,
		"SOLANA_RPC_URL":   c.SolanaRPCURL,
		"EXECUTOR_URL":     c.ExecutorURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s is not an absolute URL: %q", name, raw)
		}
	}
	return nil
}

// DatabasePath returns the path of the named database inside DataDir.
func (c *Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name+".db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
