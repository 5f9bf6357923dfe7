/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server wires the routeboard daemon together.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/friendsincode/routeboard/internal/cache"
	"github.com/friendsincode/routeboard/internal/config"
	"github.com/friendsincode/routeboard/internal/directions"
	"github.com/friendsincode/routeboard/internal/display"
	"github.com/friendsincode/routeboard/internal/power"
	"github.com/friendsincode/routeboard/internal/refresh"
	"github.com/friendsincode/routeboard/internal/scheduler"
)

// Server bundles the display, fetcher, power controller and scheduler.
type Server struct {
	cfg     *config.Config
	logger  zerolog.Logger
	closers []func() error

	device      display.Device
	cache       *cache.Cache
	fetcher     directions.Fetcher
	power       *power.Controller
	coordinator *refresh.Coordinator
	scheduler   *scheduler.Service

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New builds every dependency and initializes the display. A display that
// cannot be opened or initialized is fatal.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	srv := &Server{cfg: cfg, logger: logger}

	if err := srv.initDependencies(ctx); err != nil {
		_ = srv.Close()
		return nil, err
	}
	return srv, nil
}

func (s *Server) initDependencies(ctx context.Context) error {
	device, err := OpenDisplay(s.cfg, s.logger)
	if err != nil {
		return err
	}
	s.device = device
	s.DeferClose(device.Close)

	if err := device.PowerOn(ctx, true); err != nil {
		return fmt.Errorf("initialize display: %w", err)
	}
	s.logger.Info().Str("driver", s.displayDriver()).Msg("display initialized")

	fetcher, err := directions.New(directions.Config{
		APIKey:  s.cfg.Commute.APIKey,
		BaseURL: s.cfg.Commute.BaseURL,
		Traffic: s.cfg.Commute.Traffic,
	}, s.logger)
	if err != nil {
		return fmt.Errorf("create directions client: %w", err)
	}
	s.fetcher = fetcher

	if s.cfg.CacheEnabled() {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.RedisAddr = s.cfg.RedisAddr
		cacheCfg.RedisPassword = s.cfg.RedisPassword
		cacheCfg.RedisDB = s.cfg.RedisDB
		cacheCfg.RoutesTTL = s.cfg.CacheTTL()

		s.cache = cache.New(ctx, cacheCfg, s.logger)
		s.DeferClose(s.cache.Close)
		s.fetcher = directions.NewCachingFetcher(fetcher, s.cache, s.logger)
	}

	s.power = power.New(power.Config{
		Simulation: s.cfg.Simulation,
		Start:      s.cfg.ActiveHoursStart,
		End:        s.cfg.ActiveHoursEnd,
		Policy:     s.cfg.ActiveHoursPolicy,
	}, device, s.logger)

	s.coordinator = refresh.New(ctx, device, refresh.Options{Header: s.cfg.Header}, s.logger)

	s.scheduler = scheduler.New(scheduler.Config{
		Interval:        s.cfg.RefreshInterval(),
		Origin:          s.cfg.Commute.Origin,
		Destination:     s.cfg.Commute.Destination,
		RouteCount:      s.cfg.RouteCount,
		MetricsTextfile: s.cfg.MetricsTextfile,
	}, s.fetcher, s.power, s.coordinator, s.logger)

	return nil
}

// OpenDisplay opens the configured display backend.
func OpenDisplay(cfg *config.Config, logger zerolog.Logger) (display.Device, error) {
	device, err := display.New(display.Config{
		Driver:      cfg.DisplayDriver,
		Simulation:  cfg.Simulation,
		OledExpBin:  cfg.OledExpBin,
		I2CBus:      cfg.I2CBus,
		NATSURL:     cfg.NATSURL,
		NATSSubject: cfg.NATSSubject,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open display: %w", err)
	}
	return device, nil
}

// Start launches the scheduler loop.
func (s *Server) Start() {
	if s.bgCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		if err := s.scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("scheduler loop exited")
		}
	}()
}

// Coordinator returns the display refresh coordinator.
func (s *Server) Coordinator() *refresh.Coordinator {
	return s.coordinator
}

// Close stops the scheduler, lets an in-flight display write finish and
// releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	if s.coordinator != nil {
		s.coordinator.Wait()
	}

	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) displayDriver() string {
	if s.cfg.Simulation {
		return display.DriverSimulated
	}
	return s.cfg.DisplayDriver
}
