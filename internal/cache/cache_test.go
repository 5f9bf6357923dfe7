/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/friendsincode/routeboard/internal/routes"
)

func unavailableCache(t *testing.T) *Cache {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RedisAddr = "127.0.0.1:1"
	return New(context.Background(), cfg, zerolog.Nop())
}

func TestNewUnreachableRedisDisablesCache(t *testing.T) {
	c := unavailableCache(t)
	assert.False(t, c.IsAvailable())
	assert.NoError(t, c.Close())
}

func TestDisabledCacheIsTransparent(t *testing.T) {
	c := unavailableCache(t)
	ctx := context.Background()

	assert.NoError(t, c.SetRoutes(ctx, "Home", "Work", []routes.Route{{Summary: "A1", DurationSeconds: 60}}))

	rs, ok := c.GetRoutes(ctx, "Home", "Work")
	assert.False(t, ok)
	assert.Nil(t, rs)
}

func TestRoutesKeyNormalizes(t *testing.T) {
	assert.Equal(t, "routeboard:cache:routes:home|work", RoutesKey(" Home ", "WORK"))
	assert.NotEqual(t, RoutesKey("a", "b"), RoutesKey("b", "a"))
}

func TestHandleErrorTripsBreaker(t *testing.T) {
	c := &Cache{logger: zerolog.Nop(), config: Config{DisableOnError: true}}

	c.handleError(nil, "get")
	assert.False(t, c.disabled)

	c.handleError(errors.New("connection reset"), "get")
	assert.True(t, c.disabled)
}

func TestHandleErrorKeepsCacheWhenConfigured(t *testing.T) {
	c := &Cache{logger: zerolog.Nop(), config: Config{DisableOnError: false}}
	c.handleError(errors.New("timeout"), "set")
	assert.False(t, c.disabled)
}
