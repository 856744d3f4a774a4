// Package config loads application configuration from environment
// variables. Retrieval credentials are optional at load time and validated
// by the commands that need them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"wavelytics/domain/core"
)

// Config represents the complete application configuration
type Config struct {
	Retrieval RetrievalConfig
	Analysis  AnalysisConfig
	Server    ServerConfig
	Paths     PathConfig
	LogLevel  string
}

// RetrievalConfig holds data-provider credentials and client settings
type RetrievalConfig struct {
	FREDAPIKey string
	INSEEAuth  string
	BdFKey     string
	Timeout    time.Duration
}

// AnalysisConfig holds transform defaults applied when the CLI does not
// override them
type AnalysisConfig struct {
	Basis      string
	Levels     int
	Confidence float64
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// PathConfig holds file system paths
type PathConfig struct {
	ExportDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Retrieval: RetrievalConfig{
			FREDAPIKey: getEnvOrDefault("FRED_API_KEY", ""),
			INSEEAuth:  getEnvOrDefault("INSEE_AUTH", ""),
			BdFKey:     getEnvOrDefault("BDF_KEY", ""),
			Timeout:    getEnvDurationOrDefault("RETRIEVAL_TIMEOUT", 5*time.Second),
		},
		Analysis: AnalysisConfig{
			Basis:      getEnvOrDefault("WAVELET_BASIS", "db4"),
			Levels:     getEnvIntOrDefault("DECOMPOSITION_LEVELS", 0),
			Confidence: getEnvFloatOrDefault("SIGNIFICANCE_CONFIDENCE", 0.95),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Paths: PathConfig{
			ExportDir: getEnvOrDefault("EXPORT_DIR", "./exports"),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if config.Analysis.Confidence <= 0 || config.Analysis.Confidence >= 1 {
		return nil, fmt.Errorf("SIGNIFICANCE_CONFIDENCE %v: %w", config.Analysis.Confidence, core.ErrInvalidConfig)
	}
	if config.Analysis.Levels < 0 {
		return nil, fmt.Errorf("DECOMPOSITION_LEVELS %d: %w", config.Analysis.Levels, core.ErrInvalidConfig)
	}
	return config, nil
}

// RequireFRED fails when the FRED API key is missing; called by commands
// that actually hit the provider.
func (r RetrievalConfig) RequireFRED() error {
	if r.FREDAPIKey == "" {
		return fmt.Errorf("FRED_API_KEY is required: %w", core.ErrInvalidConfig)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
