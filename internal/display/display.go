/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package display drives the character display the routes are shown on.
package display

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrWrite wraps failures to put text on the display.
	ErrWrite = errors.New("display write failed")

	// ErrUnknownDriver is returned by New for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown display driver")
)

// Supported driver names.
const (
	DriverSimulated = "simulated"
	DriverOledExp   = "oled-exp"
	DriverSSD1306   = "ssd1306"
	DriverNATS      = "nats"
)

// Drivers lists every accepted driver name.
var Drivers = []string{DriverSimulated, DriverOledExp, DriverSSD1306, DriverNATS}

// DefaultCommandTimeout bounds a single device command.
const DefaultCommandTimeout = 10 * time.Second

// Device writes text to the display and switches its power.
type Device interface {
	Write(ctx context.Context, text string) error
	PowerOn(ctx context.Context, init bool) error
	PowerOff(ctx context.Context) error
	Close() error
}

// Config selects and parameterizes the display backend.
type Config struct {
	Driver         string
	Simulation     bool
	OledExpBin     string
	I2CBus         string
	NATSURL        string
	NATSSubject    string
	CommandTimeout time.Duration
}

// New builds the configured device. Simulation mode always yields the
// simulated device, whatever driver is named.
func New(cfg Config, logger zerolog.Logger) (Device, error) {
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}

	if cfg.Simulation {
		return NewSimulated(logger), nil
	}

	switch cfg.Driver {
	case DriverSimulated:
		return NewSimulated(logger), nil
	case DriverOledExp, "":
		return NewOledExp(cfg.OledExpBin, cfg.CommandTimeout, logger), nil
	case DriverSSD1306:
		return OpenSSD1306(cfg.I2CBus, logger)
	case DriverNATS:
		return DialNATSMirror(cfg.NATSURL, cfg.NATSSubject, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// KnownDriver reports whether name is a supported driver.
func KnownDriver(name string) bool {
	for _, d := range Drivers {
		if d == name {
			return true
		}
	}
	return false
}

// Simulated logs every operation instead of touching hardware.
type Simulated struct {
	logger zerolog.Logger
}

// NewSimulated creates a logging-only display.
func NewSimulated(logger zerolog.Logger) *Simulated {
	return &Simulated{logger: logger.With().Str("component", "display").Str("driver", DriverSimulated).Logger()}
}

// Write logs text instead of displaying it.
func (s *Simulated) Write(ctx context.Context, text string) error {
	s.logger.Info().Str("text", text).Msg("display write")
	return nil
}

// PowerOn logs the power-on request.
func (s *Simulated) PowerOn(ctx context.Context, init bool) error {
	s.logger.Info().Bool("init", init).Msg("display power on")
	return nil
}

// PowerOff logs the power-off request.
func (s *Simulated) PowerOff(ctx context.Context) error {
	s.logger.Info().Msg("display power off")
	return nil
}

// Close is a no-op.
func (s *Simulated) Close() error { return nil }
