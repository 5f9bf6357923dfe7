/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package power keeps the display asleep outside of its active hours.
package power

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/routeboard/internal/telemetry"
)

// ErrPowerCommand wraps failures of the display power side effect.
var ErrPowerCommand = errors.New("display power command failed")

// State is the display power state.
type State int

const (
	StateAwake State = iota
	StateAsleep
)

// String returns "awake" or "asleep".
func (s State) String() string {
	switch s {
	case StateAwake:
		return "awake"
	case StateAsleep:
		return "asleep"
	default:
		return "unknown"
	}
}

// Policy selects how the active-hours bounds are interpreted.
type Policy string

const (
	// PolicyLiteral sleeps whenever the hour is below either bound.
	PolicyLiteral Policy = "literal"
	// PolicyWindow keeps the display awake for start <= hour < end,
	// wrapping midnight when start > end.
	PolicyWindow Policy = "window"
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	return p == PolicyLiteral || p == PolicyWindow
}

// Switch performs the physical power transitions.
type Switch interface {
	PowerOn(ctx context.Context, init bool) error
	PowerOff(ctx context.Context) error
}

// Config describes the active-hours schedule.
type Config struct {
	Simulation bool
	Start      int
	End        int
	Policy     Policy
}

// Controller tracks the display power state and issues a power command
// only when the state changes.
type Controller struct {
	cfg    Config
	sw     Switch
	logger zerolog.Logger

	mu    sync.Mutex
	state State
}

// New creates a controller. The display is assumed awake at startup.
func New(cfg Config, sw Switch, logger zerolog.Logger) *Controller {
	if cfg.Policy == "" {
		cfg.Policy = PolicyLiteral
	}
	return &Controller{
		cfg:    cfg,
		sw:     sw,
		logger: logger.With().Str("component", "power").Logger(),
		state:  StateAwake,
	}
}

// State returns the current power state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CheckSleep evaluates the schedule at now and reports whether this tick's
// refresh should be skipped. A failed power command is returned, but the
// state has already moved; the transition is not retried.
func (c *Controller) CheckSleep(ctx context.Context, now time.Time) (bool, error) {
	if !c.scheduled() {
		return false, nil
	}

	wantSleep := ShouldSleep(c.cfg.Policy, c.cfg.Start, c.cfg.End, now.Hour())

	c.mu.Lock()
	prev := c.state
	next := StateAwake
	if wantSleep {
		next = StateAsleep
	}
	c.state = next
	c.mu.Unlock()

	if prev == next {
		return next == StateAsleep, nil
	}

	c.logger.Info().
		Str("from", prev.String()).
		Str("to", next.String()).
		Int("hour", now.Hour()).
		Msg("display power transition")

	var err error
	action := "on"
	if next == StateAsleep {
		action = "off"
		telemetry.DisplayAwake.Set(0)
		err = c.sw.PowerOff(ctx)
	} else {
		telemetry.DisplayAwake.Set(1)
		err = c.sw.PowerOn(ctx, false)
	}

	if err != nil {
		telemetry.PowerTransitionsTotal.WithLabelValues(action, "error").Inc()
		return next == StateAsleep, fmt.Errorf("%w: power %s: %w", ErrPowerCommand, action, err)
	}
	telemetry.PowerTransitionsTotal.WithLabelValues(action, "ok").Inc()
	return next == StateAsleep, nil
}

// scheduled reports whether a real schedule is configured.
func (c *Controller) scheduled() bool {
	return !c.cfg.Simulation && c.cfg.Start != 0 && c.cfg.End != 0
}

// ShouldSleep reports whether hour falls outside the active hours.
func ShouldSleep(policy Policy, start, end, hour int) bool {
	switch policy {
	case PolicyWindow:
		if start == end {
			return false
		}
		if start < end {
			return hour < start || hour >= end
		}
		return hour < start && hour >= end
	default:
		return hour < start || hour < end
	}
}
