/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package directions

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/friendsincode/routeboard/internal/routes"
)

type mockFetcher struct{ mock.Mock }

func (m *mockFetcher) Fetch(ctx context.Context, origin, destination string) ([]routes.Route, error) {
	args := m.Called(ctx, origin, destination)
	rs, _ := args.Get(0).([]routes.Route)
	return rs, args.Error(1)
}

type memoryCache struct {
	entries map[string][]routes.Route
	setErr  error
}

func (c *memoryCache) GetRoutes(ctx context.Context, origin, destination string) ([]routes.Route, bool) {
	rs, ok := c.entries[origin+"|"+destination]
	return rs, ok
}

func (c *memoryCache) SetRoutes(ctx context.Context, origin, destination string, rs []routes.Route) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[origin+"|"+destination] = rs
	return nil
}

func TestCachingFetcherMissThenHit(t *testing.T) {
	want := []routes.Route{{Summary: "A1", DurationSeconds: 600, DurationText: "10 min"}}
	next := &mockFetcher{}
	next.On("Fetch", mock.Anything, "Home", "Work").Return(want, nil).Once()

	f := NewCachingFetcher(next, &memoryCache{entries: map[string][]routes.Route{}}, zerolog.Nop())
	ctx := context.Background()

	first, err := f.Fetch(ctx, "Home", "Work")
	require.NoError(t, err)
	second, err := f.Fetch(ctx, "Home", "Work")
	require.NoError(t, err)

	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
	next.AssertExpectations(t)
}

func TestCachingFetcherDoesNotCacheErrorsOrEmpty(t *testing.T) {
	next := &mockFetcher{}
	next.On("Fetch", mock.Anything, "Home", "Work").Return(nil, ErrFetch).Once()
	next.On("Fetch", mock.Anything, "Home", "Work").Return([]routes.Route{}, nil).Once()
	next.On("Fetch", mock.Anything, "Home", "Work").Return([]routes.Route{}, nil).Once()

	mc := &memoryCache{entries: map[string][]routes.Route{}}
	f := NewCachingFetcher(next, mc, zerolog.Nop())
	ctx := context.Background()

	_, err := f.Fetch(ctx, "Home", "Work")
	assert.ErrorIs(t, err, ErrFetch)

	for i := 0; i < 2; i++ {
		rs, err := f.Fetch(ctx, "Home", "Work")
		require.NoError(t, err)
		assert.Empty(t, rs)
	}
	assert.Empty(t, mc.entries)
	next.AssertExpectations(t)
}

func TestCachingFetcherIgnoresCacheFailure(t *testing.T) {
	want := []routes.Route{{Summary: "A1", DurationSeconds: 60, DurationText: "1 min"}}
	next := &mockFetcher{}
	next.On("Fetch", mock.Anything, "Home", "Work").Return(want, nil)

	f := NewCachingFetcher(next, &memoryCache{entries: map[string][]routes.Route{}, setErr: errors.New("redis down")}, zerolog.Nop())

	rs, err := f.Fetch(context.Background(), "Home", "Work")
	require.NoError(t, err)
	assert.Equal(t, want, rs)
}
