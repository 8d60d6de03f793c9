/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based cache for plan and gap analysis results.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/deepcrate/internal/gaps"
	"github.com/friendsincode/deepcrate/internal/models"
	"github.com/friendsincode/deepcrate/internal/scoring"
	"github.com/friendsincode/deepcrate/internal/telemetry"
)

// Default TTL values for different cache types
const (
	DefaultGapReportTTL = 1 * time.Hour
	DefaultPlanTTL      = 1 * time.Hour
)

// Key prefixes for Redis cache
const (
	keyPrefix    = "deepcrate:cache:"
	KeyGapReport = keyPrefix + "gaps:" // + set_id:risk_mode
	KeyPlan      = keyPrefix + "plan:" // + set_id
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// TTL overrides
	GapReportTTL time.Duration
	PlanTTL      time.Duration

	// Fallback behavior
	DisableOnError bool // If true, disable caching on Redis errors
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		GapReportTTL:   DefaultGapReportTTL,
		PlanTTL:        DefaultPlanTTL,
		DisableOnError: true,
	}
}

// Cache provides Redis-backed caching with graceful fallback. A nil *Cache
// is valid and never hits.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool // Circuit breaker state
}

// New creates a new cache instance. An unreachable Redis yields a disabled
// cache rather than an error.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	if cfg.GapReportTTL <= 0 {
		cfg.GapReportTTL = DefaultGapReportTTL
	}
	if cfg.PlanTTL <= 0 {
		cfg.PlanTTL = DefaultPlanTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		return &Cache{
			logger:   logger.With().Str("component", "cache").Logger(),
			config:   cfg,
			disabled: true,
		}, nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")

	return &Cache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
		config: cfg,
	}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c != nil && c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

// handleError handles Redis errors with circuit breaker logic.
func (c *Cache) handleError(err error, operation string) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

// get retrieves a value from cache and unmarshals it.
func (c *Cache) get(ctx context.Context, kind, key string, dest any) (bool, error) {
	if !c.IsAvailable() {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		telemetry.CacheMissesTotal.WithLabelValues(kind).Inc()
		return false, nil
	}
	if err != nil {
		c.handleError(err, "get")
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		telemetry.CacheMissesTotal.WithLabelValues(kind).Inc()
		return false, nil
	}

	telemetry.CacheHitsTotal.WithLabelValues(kind).Inc()
	return true, nil
}

// set stores a value in cache with TTL.
func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}

	return nil
}

// delete removes keys from cache.
func (c *Cache) delete(ctx context.Context, keys ...string) error {
	if !c.IsAvailable() || len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.handleError(err, "delete")
		return err
	}

	return nil
}

// deletePattern deletes all keys matching a pattern.
func (c *Cache) deletePattern(ctx context.Context, pattern string) error {
	if !c.IsAvailable() {
		return nil
	}

	// SCAN rather than KEYS
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.handleError(err, "scan")
			return err
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err, "delete_batch")
				return err
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

// GapReportKey is the Redis key of a set's gap report for one risk mode.
func GapReportKey(setID string, mode scoring.RiskMode) string {
	return KeyGapReport + setID + ":" + string(mode)
}

// PlanKey is the Redis key of a stored plan.
func PlanKey(setID string) string {
	return KeyPlan + setID
}

// Gap report caching methods

// CachedGapReport is a gap analysis result for one set and risk mode.
type CachedGapReport struct {
	SetID       string               `json:"set_id"`
	SetName     string               `json:"set_name"`
	RiskMode    scoring.RiskMode     `json:"risk_mode"`
	Transitions []scoring.Transition `json:"transitions"`
	Gaps        []gaps.Suggestion    `json:"gaps"`
}

// GetGapReport retrieves a cached gap report.
func (c *Cache) GetGapReport(ctx context.Context, setID string, mode scoring.RiskMode) (*CachedGapReport, bool) {
	var report CachedGapReport
	found, err := c.get(ctx, "gaps", GapReportKey(setID, mode), &report)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Str("set_id", setID).Str("risk_mode", string(mode)).Msg("gap report cache hit")
	return &report, true
}

// SetGapReport caches a gap report.
func (c *Cache) SetGapReport(ctx context.Context, report *CachedGapReport) error {
	if !c.IsAvailable() {
		return nil
	}
	c.logger.Debug().Str("set_id", report.SetID).Int("gaps", len(report.Gaps)).Msg("caching gap report")
	return c.set(ctx, GapReportKey(report.SetID, report.RiskMode), report, c.config.GapReportTTL)
}

// Plan caching methods

// CachedPlan is a stored set with its resolved tracks and transitions.
type CachedPlan struct {
	Set         models.SetPlan       `json:"set"`
	Tracks      []models.Track       `json:"tracks"`
	Transitions []scoring.Transition `json:"transitions"`
}

// GetPlan retrieves a cached plan.
func (c *Cache) GetPlan(ctx context.Context, setID string) (*CachedPlan, bool) {
	var plan CachedPlan
	found, err := c.get(ctx, "plan", PlanKey(setID), &plan)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Str("set_id", setID).Msg("plan cache hit")
	return &plan, true
}

// SetPlan caches a plan.
func (c *Cache) SetPlan(ctx context.Context, plan *CachedPlan) error {
	if !c.IsAvailable() {
		return nil
	}
	c.logger.Debug().Str("set_id", plan.Set.ID).Int("tracks", len(plan.Tracks)).Msg("caching plan")
	return c.set(ctx, PlanKey(plan.Set.ID), plan, c.config.PlanTTL)
}

// Bulk invalidation methods

// InvalidateSet removes the plan and every gap report of a set.
func (c *Cache) InvalidateSet(ctx context.Context, setID string) error {
	if !c.IsAvailable() {
		return nil
	}
	c.logger.Debug().Str("set_id", setID).Msg("invalidating set caches")

	if err := c.delete(ctx, PlanKey(setID)); err != nil {
		return err
	}
	return c.deletePattern(ctx, KeyGapReport+setID+":*")
}

// FlushAll removes all cached data. Used after a library import, since any
// stored analysis may reference changed tracks.
func (c *Cache) FlushAll(ctx context.Context) error {
	if !c.IsAvailable() {
		return nil
	}
	c.logger.Warn().Msg("flushing all cache data")
	return c.deletePattern(ctx, keyPrefix+"*")
}
