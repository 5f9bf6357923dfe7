/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendsincode/routeboard/internal/display"
	"github.com/friendsincode/routeboard/internal/power"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ROUTEBOARD_ORIGIN", "Home")
	t.Setenv("ROUTEBOARD_DESTINATION", "Work")
	t.Setenv("ROUTEBOARD_MAPS_API_KEY", "AIzaTest")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.False(t, cfg.Simulation)
	assert.Equal(t, power.PolicyLiteral, cfg.ActiveHoursPolicy)
	assert.Equal(t, 60*time.Second, cfg.RefreshInterval())
	assert.Equal(t, 3, cfg.RouteCount)
	assert.Equal(t, "Routes to work:", cfg.Header)
	assert.Equal(t, display.DriverOledExp, cfg.DisplayDriver)
	assert.False(t, cfg.CacheEnabled())
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())
	assert.Equal(t, "Home", cfg.Commute.Origin)
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ROUTEBOARD_ENV", "development")
	t.Setenv("ROUTEBOARD_SIMULATION", "yes")
	t.Setenv("ROUTEBOARD_ACTIVE_HOURS_START", "6")
	t.Setenv("ROUTEBOARD_ACTIVE_HOURS_END", "10")
	t.Setenv("ROUTEBOARD_ACTIVE_HOURS_POLICY", "Window")
	t.Setenv("ROUTEBOARD_MAPS_TRAFFIC", "1")
	t.Setenv("ROUTEBOARD_REFRESH_INTERVAL_SECONDS", "120")
	t.Setenv("ROUTEBOARD_DISPLAY_DRIVER", "NATS")
	t.Setenv("ROUTEBOARD_REDIS_ADDR", "redis:6379")
	t.Setenv("ROUTEBOARD_TRACING_SAMPLE_RATE", "0.25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.Simulation)
	assert.Equal(t, 6, cfg.ActiveHoursStart)
	assert.Equal(t, 10, cfg.ActiveHoursEnd)
	assert.Equal(t, power.PolicyWindow, cfg.ActiveHoursPolicy)
	assert.True(t, cfg.Commute.Traffic)
	assert.Equal(t, 2*time.Minute, cfg.RefreshInterval())
	assert.Equal(t, display.DriverNATS, cfg.DisplayDriver)
	assert.True(t, cfg.CacheEnabled())
	assert.InDelta(t, 0.25, cfg.TracingSampleRate, 1e-9)
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"origin", "ROUTEBOARD_ORIGIN"},
		{"destination", "ROUTEBOARD_DESTINATION"},
		{"api key", "ROUTEBOARD_MAPS_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissing)
			assert.Contains(t, err.Error(), tt.unset)
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"ROUTEBOARD_ACTIVE_HOURS_START", "24"},
		{"ROUTEBOARD_ACTIVE_HOURS_END", "-1"},
		{"ROUTEBOARD_ACTIVE_HOURS_POLICY", "sometimes"},
		{"ROUTEBOARD_REFRESH_INTERVAL_SECONDS", "0"},
		{"ROUTEBOARD_ROUTE_COUNT", "-3"},
		{"ROUTEBOARD_DISPLAY_DRIVER", "vfd"},
		{"ROUTEBOARD_TRACING_SAMPLE_RATE", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadLayersFileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routeboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
simulation: true
active_hours_start: 7
active_hours_end: 9
route_count: 2
header: "To the office:"
commute:
  origin: Home
  destination: Office
  api_key: file-key
`), 0o600))

	t.Setenv("ROUTEBOARD_CONFIG_FILE", path)
	t.Setenv("ROUTEBOARD_DESTINATION", "Gym")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.True(t, cfg.Simulation)
	assert.Equal(t, 7, cfg.ActiveHoursStart)
	assert.Equal(t, 9, cfg.ActiveHoursEnd)
	assert.Equal(t, 2, cfg.RouteCount)
	assert.Equal(t, "To the office:", cfg.Header)
	assert.Equal(t, "Home", cfg.Commute.Origin)
	assert.Equal(t, "Gym", cfg.Commute.Destination)
	assert.Equal(t, "file-key", cfg.Commute.APIKey)
	// Untouched keys keep their defaults.
	assert.Equal(t, 60, cfg.RefreshIntervalSeconds)
}

func TestLoadBadFile(t *testing.T) {
	setRequired(t)

	t.Run("missing", func(t *testing.T) {
		t.Setenv("ROUTEBOARD_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("route_count: [1"), 0o600))
		t.Setenv("ROUTEBOARD_CONFIG_FILE", path)

		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestLoadForDisplaySkipsCommute(t *testing.T) {
	t.Setenv("ROUTEBOARD_DISPLAY_DRIVER", "simulated")

	cfg, err := LoadForDisplay()
	require.NoError(t, err)
	assert.Equal(t, display.DriverSimulated, cfg.DisplayDriver)

	_, err = Load()
	assert.ErrorIs(t, err, ErrMissing)
}
