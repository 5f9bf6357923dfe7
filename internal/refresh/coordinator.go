/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package refresh serializes display writes.
//
// Only one write is ever in flight. Refresh requests that arrive while a
// write is running are counted, and each completed write drains exactly one
// of them by writing the display text as composed at that moment. Stale
// intermediate payloads are never sent.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/routeboard/internal/routes"
	"github.com/friendsincode/routeboard/internal/telemetry"
)

// Writer sends a payload to the display device.
type Writer interface {
	Write(ctx context.Context, text string) error
}

// Options tunes payload composition.
type Options struct {
	Header string
	Now    func() time.Time
}

// Snapshot is a point-in-time copy of the coordinator state.
type Snapshot struct {
	CurrentText string
	Refreshing  bool
	Pending     int
}

// Coordinator owns the display state and the single-flight write guard.
type Coordinator struct {
	ctx    context.Context
	writer Writer
	header string
	now    func() time.Time
	logger zerolog.Logger

	mu          sync.Mutex
	routesText  string
	currentText string
	refreshing  bool
	pending     int

	inflight sync.WaitGroup
}

// New creates a coordinator. Writes are issued with a context detached from
// ctx's cancellation; an in-flight write always runs to completion.
func New(ctx context.Context, writer Writer, opts Options, logger zerolog.Logger) *Coordinator {
	if opts.Header == "" {
		opts.Header = routes.DefaultHeader
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		ctx:    context.WithoutCancel(ctx),
		writer: writer,
		header: opts.Header,
		now:    opts.Now,
		logger: logger.With().Str("component", "refresh").Logger(),
	}
}

// UpdateRoutes replaces the routes block and requests a refresh.
func (c *Coordinator) UpdateRoutes(routesText string) {
	c.mu.Lock()
	c.routesText = routesText
	c.mu.Unlock()

	c.RequestRefresh()
}

// RequestRefresh writes the display now, or queues one follow-up write if a
// write is already in flight.
func (c *Coordinator) RequestRefresh() {
	c.mu.Lock()
	if c.refreshing {
		c.pending++
		pending := c.pending
		c.mu.Unlock()

		telemetry.PendingRefreshes.Set(float64(pending))
		c.logger.Debug().Int("pending", pending).Msg("write in flight, refresh queued")
		return
	}
	text := c.beginWriteLocked()
	c.mu.Unlock()

	c.dispatch(text)
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		CurrentText: c.currentText,
		Refreshing:  c.refreshing,
		Pending:     c.pending,
	}
}

// Wait blocks until no write is in flight and the queue is drained.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

// beginWriteLocked composes the payload and marks a write in flight.
// c.mu must be held.
func (c *Coordinator) beginWriteLocked() string {
	c.refreshing = true
	c.currentText = routes.Compose(c.header, c.routesText, c.now())
	c.inflight.Add(1)
	return c.currentText
}

func (c *Coordinator) dispatch(text string) {
	go func() {
		err := c.writer.Write(c.ctx, text)
		c.complete(err)
	}()
}

// complete settles a finished write and starts the next queued one, if any.
func (c *Coordinator) complete(err error) {
	if err != nil {
		telemetry.DisplayWritesTotal.WithLabelValues("error").Inc()
		c.logger.Error().Err(err).Msg("failed to refresh display text")
	} else {
		telemetry.DisplayWritesTotal.WithLabelValues("ok").Inc()
	}

	c.mu.Lock()
	c.refreshing = false
	if c.pending == 0 {
		c.mu.Unlock()
		c.inflight.Done()
		return
	}

	c.pending--
	pending := c.pending
	text := c.beginWriteLocked()
	c.mu.Unlock()

	telemetry.PendingRefreshes.Set(float64(pending))
	c.dispatch(text)
	c.inflight.Done()
}
