/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/friendsincode/deepcrate/internal/scoring"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	DBBackend   DatabaseBackend
	DBDSN       string

	// Planning defaults
	RiskMode               scoring.RiskMode
	DefaultDurationMinutes int
	MaxConcurrentAnalyses  int
	CatalogPath            string // custom genre table; empty uses the built-in one

	// Result cache
	CacheEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Event fan-out; empty keeps events in process.
	NATSURL string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	LegacyEnvWarnings []string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"DEEPCRATE_ENV", "ENVIRONMENT"}, "development"),
		HTTPBind:    getEnvAny([]string{"DEEPCRATE_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"DEEPCRATE_HTTP_PORT", "PORT"}, 8080),
		DBBackend:   DatabaseBackend(strings.ToLower(getEnvAny([]string{"DEEPCRATE_DB_BACKEND"}, string(DatabaseSQLite)))),
		DBDSN:       getEnvAny([]string{"DEEPCRATE_DB_DSN", "DEEPCRATE_DB_PATH"}, "deepcrate.db"),

		DefaultDurationMinutes: getEnvIntAny([]string{"DEEPCRATE_DEFAULT_DURATION_MINUTES"}, 60),
		MaxConcurrentAnalyses:  getEnvIntAny([]string{"DEEPCRATE_MAX_CONCURRENT_ANALYSES"}, 4),
		CatalogPath:            getEnvAny([]string{"DEEPCRATE_CATALOG_PATH"}, ""),

		CacheEnabled:  getEnvBoolAny([]string{"DEEPCRATE_CACHE_ENABLED"}, false),
		RedisAddr:     getEnvAny([]string{"DEEPCRATE_REDIS_ADDR", "REDIS_ADDR"}, "localhost:6379"),
		RedisPassword: getEnvAny([]string{"DEEPCRATE_REDIS_PASSWORD", "REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"DEEPCRATE_REDIS_DB", "REDIS_DB"}, 0),

		NATSURL: getEnvAny([]string{"DEEPCRATE_NATS_URL", "NATS_URL"}, ""),

		TracingEnabled:    getEnvBoolAny([]string{"DEEPCRATE_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"DEEPCRATE_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"DEEPCRATE_TRACING_SAMPLE_RATE"}, 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DEEPCRATE_DB_DSN must be provided")
	}

	mode, err := scoring.ParseRiskMode(getEnvAny([]string{"DEEPCRATE_RISK_MODE", "RISK_MODE"}, string(scoring.RiskBalanced)))
	if err != nil {
		return nil, fmt.Errorf("DEEPCRATE_RISK_MODE: %w", err)
	}
	cfg.RiskMode = mode

	if cfg.DefaultDurationMinutes <= 0 {
		return nil, fmt.Errorf("DEEPCRATE_DEFAULT_DURATION_MINUTES must be positive, got %d", cfg.DefaultDurationMinutes)
	}
	if cfg.MaxConcurrentAnalyses <= 0 {
		cfg.MaxConcurrentAnalyses = 1
	}
	if cfg.TracingSampleRate < 0 || cfg.TracingSampleRate > 1 {
		return nil, fmt.Errorf("DEEPCRATE_TRACING_SAMPLE_RATE must be between 0 and 1, got %v", cfg.TracingSampleRate)
	}

	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

// detectLegacyEnvWarnings reports set legacy keys in key order.
func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"ENVIRONMENT":       "use DEEPCRATE_ENV",
		"RISK_MODE":         "use DEEPCRATE_RISK_MODE",
		"OPENAI_API_KEY":    "track proposal is configured through the Proposer interface; the key is ignored",
		"OPENAI_MODEL":      "track proposal is configured through the Proposer interface; the model is ignored",
		"DEEPCRATE_DB_PATH": "use DEEPCRATE_DB_DSN",
	}

	warnings := make([]string, 0, len(legacy))
	for _, key := range slices.Sorted(maps.Keys(legacy)) {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, legacy[key]))
		}
	}
	return warnings
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
