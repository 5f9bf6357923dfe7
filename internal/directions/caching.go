/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package directions

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/friendsincode/routeboard/internal/routes"
	"github.com/friendsincode/routeboard/internal/telemetry"
)

// RouteCache stores fetched routes between ticks. *cache.Cache satisfies it.
type RouteCache interface {
	GetRoutes(ctx context.Context, origin, destination string) ([]routes.Route, bool)
	SetRoutes(ctx context.Context, origin, destination string, rs []routes.Route) error
}

// CachingFetcher serves routes from a cache and falls through to the
// wrapped fetcher on a miss. Cache failures never fail a fetch.
type CachingFetcher struct {
	next   Fetcher
	cache  RouteCache
	logger zerolog.Logger
}

// NewCachingFetcher wraps next with c.
func NewCachingFetcher(next Fetcher, c RouteCache, logger zerolog.Logger) *CachingFetcher {
	return &CachingFetcher{
		next:   next,
		cache:  c,
		logger: logger.With().Str("component", "directions_cache").Logger(),
	}
}

// Fetch returns cached routes or fetches and caches them.
func (f *CachingFetcher) Fetch(ctx context.Context, origin, destination string) ([]routes.Route, error) {
	if rs, ok := f.cache.GetRoutes(ctx, origin, destination); ok {
		telemetry.RouteCacheLookupsTotal.WithLabelValues("hit").Inc()
		return rs, nil
	}
	telemetry.RouteCacheLookupsTotal.WithLabelValues("miss").Inc()

	rs, err := f.next.Fetch(ctx, origin, destination)
	if err != nil {
		return nil, err
	}

	// Empty results are not cached so the next tick asks again.
	if len(rs) > 0 {
		if err := f.cache.SetRoutes(ctx, origin, destination, rs); err != nil {
			f.logger.Debug().Err(err).Msg("failed to cache routes")
		}
	}
	return rs, nil
}
