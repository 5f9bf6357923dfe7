/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based cache for route lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/routeboard/internal/routes"
)

// DefaultRoutesTTL keeps a lookup below the default refresh interval so
// every other tick still reaches the routing service.
const DefaultRoutesTTL = 30 * time.Second

// KeyRoutes prefixes cached route lists; the origin/destination pair follows.
const KeyRoutes = "routeboard:cache:routes:"

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RoutesTTL time.Duration

	// DisableOnError trips the breaker on the first Redis error.
	DisableOnError bool
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		RoutesTTL:      DefaultRoutesTTL,
		DisableOnError: true,
	}
}

// Cache provides Redis-backed caching with graceful fallback.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool // circuit breaker
}

// New creates a cache. An unreachable Redis yields a disabled cache, not an
// error.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) *Cache {
	if cfg.RoutesTTL <= 0 {
		cfg.RoutesTTL = DefaultRoutesTTL
	}
	logger = logger.With().Str("component", "cache").Logger()

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis cache unavailable, running without caching")
		_ = client.Close()
		return &Cache{logger: logger, config: cfg, disabled: true}
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")
	return &Cache{client: client, logger: logger, config: cfg}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

// handleError applies the circuit breaker.
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

func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.IsAvailable() {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		c.handleError(err, "get")
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		return false, nil
	}
	return true, nil
}

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

// RoutesKey builds the cache key for an origin/destination pair.
func RoutesKey(origin, destination string) string {
	return KeyRoutes + strings.ToLower(strings.TrimSpace(origin)) + "|" + strings.ToLower(strings.TrimSpace(destination))
}

// GetRoutes retrieves cached routes. The bool is false on a miss or when the
// cache is unavailable.
func (c *Cache) GetRoutes(ctx context.Context, origin, destination string) ([]routes.Route, bool) {
	var rs []routes.Route
	found, _ := c.get(ctx, RoutesKey(origin, destination), &rs)
	return rs, found
}

// SetRoutes caches routes for the configured TTL.
func (c *Cache) SetRoutes(ctx context.Context, origin, destination string, rs []routes.Route) error {
	return c.set(ctx, RoutesKey(origin, destination), rs, c.config.RoutesTTL)
}
