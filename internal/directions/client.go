/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package directions fetches alternative routes between two places.
package directions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	gmaps "googlemaps.github.io/maps"

	"github.com/friendsincode/routeboard/internal/routes"
)

// ErrFetch wraps every failure to obtain routes from the routing service.
var ErrFetch = errors.New("route fetch failed")

// DefaultTimeout bounds a single directions request.
const DefaultTimeout = 15 * time.Second

// Fetcher returns the alternative routes between origin and destination.
type Fetcher interface {
	Fetch(ctx context.Context, origin, destination string) ([]routes.Route, error)
}

// Config configures the Google Directions client.
type Config struct {
	APIKey  string
	BaseURL string // override for tests and proxies
	Traffic bool
	Timeout time.Duration
}

// Client queries the Google Directions API.
type Client struct {
	maps    *gmaps.Client
	traffic bool
	logger  zerolog.Logger
}

// New creates a directions client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []gmaps.ClientOption{
		gmaps.WithAPIKey(cfg.APIKey),
		gmaps.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, gmaps.WithBaseURL(cfg.BaseURL))
	}

	mc, err := gmaps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}

	return &Client{
		maps:    mc,
		traffic: cfg.Traffic,
		logger:  logger.With().Str("component", "directions").Logger(),
	}, nil
}

// Fetch requests driving directions with alternatives. An OK response with
// no routes yields an empty slice and no error.
func (c *Client) Fetch(ctx context.Context, origin, destination string) ([]routes.Route, error) {
	req := &gmaps.DirectionsRequest{
		Origin:       origin,
		Destination:  destination,
		Mode:         gmaps.TravelModeDriving,
		Alternatives: true,
	}
	if c.traffic {
		req.DepartureTime = "now"
	}

	resp, _, err := c.maps.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	out := make([]routes.Route, 0, len(resp))
	for _, r := range resp {
		d := c.routeDuration(r)
		out = append(out, routes.Route{
			Summary:         r.Summary,
			DurationSeconds: int(d / time.Second),
			DurationText:    routes.HumanDuration(d),
		})
	}

	c.logger.Debug().
		Str("origin", origin).
		Str("destination", destination).
		Int("routes", len(out)).
		Msg("fetched directions")

	return out, nil
}

// routeDuration is the first leg's duration, preferring the traffic-aware
// value. Requests carry no waypoints, so a route has a single leg.
func (c *Client) routeDuration(r gmaps.Route) time.Duration {
	if len(r.Legs) == 0 || r.Legs[0] == nil {
		return 0
	}
	leg := r.Legs[0]
	if c.traffic && leg.DurationInTraffic > 0 {
		return leg.DurationInTraffic
	}
	return leg.Duration
}
