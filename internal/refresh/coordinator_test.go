/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedWriter blocks every write until the test releases it.
type gatedWriter struct {
	started chan string
	release chan error
}

func newGatedWriter() *gatedWriter {
	return &gatedWriter{
		started: make(chan string, 16),
		release: make(chan error),
	}
}

func (w *gatedWriter) Write(ctx context.Context, text string) error {
	w.started <- text
	return <-w.release
}

func (w *gatedWriter) next(t *testing.T) string {
	t.Helper()
	select {
	case text := <-w.started:
		return text
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a display write")
		return ""
	}
}

func (w *gatedWriter) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case text := <-w.started:
		t.Fatalf("unexpected display write: %q", text)
	case <-time.After(50 * time.Millisecond):
	}
}

// recordingWriter completes immediately and keeps every payload.
type recordingWriter struct {
	mu    sync.Mutex
	texts []string
}

func (w *recordingWriter) Write(ctx context.Context, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.texts = append(w.texts, text)
	return nil
}

func fixedClock(hour, minute int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
	}
}

func TestIdleRequestWritesComposedText(t *testing.T) {
	w := &recordingWriter{}
	c := New(context.Background(), w, Options{Now: fixedClock(9, 5)}, zerolog.Nop())

	c.UpdateRoutes("Y: 10 min\nX: 20 min")
	c.Wait()

	require.Len(t, w.texts, 1)
	assert.Equal(t, "Routes to work:\nY: 10 min\nX: 20 min\n\nUpdated: 09:05", w.texts[0])

	snap := c.Snapshot()
	assert.False(t, snap.Refreshing)
	assert.Zero(t, snap.Pending)
	assert.Equal(t, w.texts[0], snap.CurrentText)
}

func TestRequestsDuringWriteQueueExactlyN(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			w := newGatedWriter()
			c := New(context.Background(), w, Options{Now: fixedClock(7, 0)}, zerolog.Nop())

			c.UpdateRoutes("first")
			assert.Contains(t, w.next(t), "first")
			assert.True(t, c.Snapshot().Refreshing)

			for i := 0; i < n; i++ {
				c.RequestRefresh()
			}
			w.assertIdle(t)
			assert.Equal(t, n, c.Snapshot().Pending)

			w.release <- nil
			for i := 0; i < n; i++ {
				w.next(t)
				assert.Equal(t, n-1-i, c.Snapshot().Pending)
				w.release <- nil
			}

			c.Wait()
			w.assertIdle(t)

			snap := c.Snapshot()
			assert.False(t, snap.Refreshing)
			assert.Zero(t, snap.Pending)
		})
	}
}

func TestQueuedWriteUsesLatestText(t *testing.T) {
	w := newGatedWriter()
	c := New(context.Background(), w, Options{Now: fixedClock(8, 30)}, zerolog.Nop())

	c.UpdateRoutes("A: 10 min")
	assert.Contains(t, w.next(t), "A: 10 min")

	c.UpdateRoutes("B: 11 min")
	c.UpdateRoutes("C: 12 min")
	assert.Equal(t, 2, c.Snapshot().Pending)

	w.release <- nil
	second := w.next(t)
	assert.Contains(t, second, "C: 12 min")
	assert.NotContains(t, second, "B: 11 min")

	w.release <- nil
	assert.Contains(t, w.next(t), "C: 12 min")

	w.release <- nil
	c.Wait()
	w.assertIdle(t)
}

func TestWriteErrorDoesNotBlockDrain(t *testing.T) {
	w := newGatedWriter()
	c := New(context.Background(), w, Options{}, zerolog.Nop())

	c.UpdateRoutes("A: 1 min")
	w.next(t)
	c.RequestRefresh()

	w.release <- errors.New("oled-exp: exit status 1")
	w.next(t)
	w.release <- nil

	c.Wait()
	assert.False(t, c.Snapshot().Refreshing)
	assert.Zero(t, c.Snapshot().Pending)
}

func TestRequestAfterDrainStartsFreshWrite(t *testing.T) {
	w := &recordingWriter{}
	c := New(context.Background(), w, Options{Header: "Commute", Now: fixedClock(14, 0)}, zerolog.Nop())

	c.UpdateRoutes("A: 5 min")
	c.Wait()
	c.RequestRefresh()
	c.Wait()

	require.Len(t, w.texts, 2)
	assert.Equal(t, "Commute\nA: 5 min\n\nUpdated: 14:00", w.texts[1])
}

func TestCancelledContextDoesNotCancelWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var seen error
	w := writerFunc(func(ctx context.Context, text string) error {
		seen = ctx.Err()
		return nil
	})
	c := New(ctx, w, Options{}, zerolog.Nop())

	c.RequestRefresh()
	c.Wait()

	assert.NoError(t, seen)
}

type writerFunc func(ctx context.Context, text string) error

func (f writerFunc) Write(ctx context.Context, text string) error { return f(ctx, text) }
