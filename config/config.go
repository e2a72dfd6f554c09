// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/warp/paycheck-planner/planner"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	Port         int
	DatabasePath string // ":memory:" for a throwaway database
	LogLevel     string
	Environment  string

	// RebalanceCron is a five-field cron spec; empty disables the scheduler.
	RebalanceCron string

	MaxPaychecksPerSource int
	CycleFallbackDays     int

	CORSOrigins []string
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *AppConfig {
	return &AppConfig{
		Port:                  8080,
		DatabasePath:          "planner.db",
		LogLevel:              "info",
		Environment:           "development",
		RebalanceCron:         "@hourly",
		MaxPaychecksPerSource: planner.DefaultMaxPerSource,
		CycleFallbackDays:     planner.DefaultFallbackDays,
		CORSOrigins:           []string{"http://localhost:5173", "http://localhost:8080"},
	}
}

// Load reads configuration from environment variables and a .env file (if
// present). Variables already set in the environment win over .env.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a configuration from a lookup function.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	cfg := Defaults()
	var err error

	if v := getenv("PORT"); v != "" {
		cfg.Port, err = strconv.Atoi(v)
		if err != nil || cfg.Port <= 0 || cfg.Port > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", v)
		}
	}

	if v := getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}

	if v := strings.ToLower(getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}

	if v := strings.ToLower(getenv("ENVIRONMENT")); v != "" {
		cfg.Environment = v
	}

	switch v := strings.TrimSpace(getenv("REBALANCE_CRON")); v {
	case "":
	case "off":
		cfg.RebalanceCron = ""
	default:
		if _, err := cron.ParseStandard(v); err != nil {
			return nil, fmt.Errorf("invalid REBALANCE_CRON: %w", err)
		}
		cfg.RebalanceCron = v
	}

	if v := getenv("MAX_PAYCHECKS_PER_SOURCE"); v != "" {
		cfg.MaxPaychecksPerSource, err = positiveInt("MAX_PAYCHECKS_PER_SOURCE", v)
		if err != nil {
			return nil, err
		}
	}

	if v := getenv("CYCLE_FALLBACK_DAYS"); v != "" {
		cfg.CycleFallbackDays, err = positiveInt("CYCLE_FALLBACK_DAYS", v)
		if err != nil {
			return nil, err
		}
	}

	if v := getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	return cfg, nil
}

// IsProduction reports a production-like environment.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "staging"
}

func positiveInt(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, v)
	}
	return n, nil
}
