/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/friendsincode/routeboard/internal/routes"
	"github.com/friendsincode/routeboard/internal/telemetry"
)

// DefaultInterval is the refresh period when none is configured.
const DefaultInterval = 60 * time.Second

// RouteFetcher returns the alternatives between two places.
type RouteFetcher interface {
	Fetch(ctx context.Context, origin, destination string) ([]routes.Route, error)
}

// SleepChecker applies the active-hours schedule and reports whether the
// refresh should be skipped.
type SleepChecker interface {
	CheckSleep(ctx context.Context, now time.Time) (bool, error)
}

// RouteUpdater receives the formatted routes block.
type RouteUpdater interface {
	UpdateRoutes(routesText string)
}

// Config describes what the scheduler fetches and how often.
type Config struct {
	Interval        time.Duration
	Origin          string
	Destination     string
	RouteCount      int
	MetricsTextfile string
}

// Service drives the periodic refresh.
type Service struct {
	cfg     Config
	fetcher RouteFetcher
	power   SleepChecker
	board   RouteUpdater
	logger  zerolog.Logger
	now     func() time.Time
}

// New constructs the scheduler service.
func New(cfg Config, fetcher RouteFetcher, power SleepChecker, board RouteUpdater, logger zerolog.Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Service{
		cfg:     cfg,
		fetcher: fetcher,
		power:   power,
		board:   board,
		logger:  logger.With().Str("component", "scheduler").Logger(),
		now:     time.Now,
	}
}

// SetClock replaces the wall clock used for the active-hours check.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Run ticks once immediately and then every interval until the context is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info().
		Dur("interval", s.cfg.Interval).
		Str("origin", s.cfg.Origin).
		Str("destination", s.cfg.Destination).
		Msg("scheduler loop started")

	_ = s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler loop stopped")
			return ctx.Err()
		case <-ticker.C:
			_ = s.Tick(ctx)
		}
	}
}

// Tick runs one refresh cycle. Failures are logged and counted here; the
// returned error is informational and never stops the loop.
func (s *Service) Tick(ctx context.Context) error {
	tickID := uuid.NewString()
	logger := s.logger.With().Str("tick_id", tickID).Logger()

	ctx, span := telemetry.StartSpan(ctx, "scheduler.tick")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]any{"tick_id": tickID})

	telemetry.SchedulerTicksTotal.Inc()
	defer s.writeMetrics(logger)

	skip, err := s.power.CheckSleep(ctx, s.now())
	if err != nil {
		logger.Error().Err(err).Msg("power command failed, skipping refresh")
		return s.fail(span, "power", err)
	}
	if skip {
		logger.Debug().Msg("display asleep, skipping refresh")
		return nil
	}

	found, err := s.fetch(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch routes")
		return s.fail(span, "fetch", err)
	}
	if len(found) == 0 {
		logger.Warn().Msg("no routes found")
		return s.fail(span, "no_routes", routes.ErrNoRoutes)
	}

	top := routes.SelectTopN(found, s.cfg.RouteCount)
	logger.Debug().Int("found", len(found)).Int("shown", len(top)).Msg("routes selected")
	s.board.UpdateRoutes(routes.Format(top))
	return nil
}

func (s *Service) fetch(ctx context.Context) ([]routes.Route, error) {
	ctx, span := telemetry.StartSpan(ctx, "directions.fetch")
	defer span.End()

	start := time.Now()
	found, err := s.fetcher.Fetch(ctx, s.cfg.Origin, s.cfg.Destination)
	telemetry.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.RoutesReturned.Set(float64(len(found)))
	telemetry.AddSpanAttributes(span, map[string]any{"routes": len(found)})
	return found, nil
}

func (s *Service) fail(span trace.Span, stage string, err error) error {
	telemetry.RecordError(span, err)
	telemetry.SchedulerErrorsTotal.WithLabelValues(stage).Inc()
	return err
}

func (s *Service) writeMetrics(logger zerolog.Logger) {
	if err := telemetry.WriteTextfile(s.cfg.MetricsTextfile); err != nil {
		logger.Warn().Err(err).Str("path", s.cfg.MetricsTextfile).Msg("failed to write metrics textfile")
	}
}
