/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/routeboard/internal/display"
	"github.com/friendsincode/routeboard/internal/power"
)

var (
	// ErrMissing is returned when a required setting is absent.
	ErrMissing = errors.New("missing required configuration")

	// ErrInvalid is returned when a setting is out of range or unknown.
	ErrInvalid = errors.New("invalid configuration")
)

const envPrefix = "ROUTEBOARD_"

// Config covers process level configuration read from an optional YAML file
// and environment variables. Environment variables win.
type Config struct {
	Environment string `yaml:"env"`
	Simulation  bool   `yaml:"simulation"`

	ActiveHoursStart  int          `yaml:"active_hours_start"`
	ActiveHoursEnd    int          `yaml:"active_hours_end"`
	ActiveHoursPolicy power.Policy `yaml:"active_hours_policy"`

	Commute Commute `yaml:"commute"`

	RefreshIntervalSeconds int    `yaml:"refresh_interval_seconds"`
	RouteCount             int    `yaml:"route_count"`
	Header                 string `yaml:"header"`

	// Display backend
	DisplayDriver string `yaml:"display_driver"`
	OledExpBin    string `yaml:"oled_exp_bin"`
	I2CBus        string `yaml:"i2c_bus"`
	NATSURL       string `yaml:"nats_url"`
	NATSSubject   string `yaml:"nats_subject"`

	// Route cache; an empty address disables it
	RedisAddr       string `yaml:"redis_addr"`
	RedisPassword   string `yaml:"redis_password"`
	RedisDB         int    `yaml:"redis_db"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`

	MetricsTextfile string `yaml:"metrics_textfile"`

	// Tracing configuration
	TracingEnabled    bool    `yaml:"tracing_enabled"`
	OTLPEndpoint      string  `yaml:"otlp_endpoint"`
	TracingSampleRate float64 `yaml:"tracing_sample_rate"`

	// ConfigFile is the YAML file that was layered in, if any.
	ConfigFile string `yaml:"-"`
}

// Commute names the trip shown on the display.
type Commute struct {
	Origin      string `yaml:"origin"`
	Destination string `yaml:"destination"`
	APIKey      string `yaml:"api_key"`
	Traffic     bool   `yaml:"traffic"`
	BaseURL     string `yaml:"base_url"` // routing service override, e.g. a caching proxy
}

// Defaults returns the configuration before any file or environment input.
func Defaults() *Config {
	return &Config{
		Environment:            "production",
		ActiveHoursPolicy:      power.PolicyLiteral,
		RefreshIntervalSeconds: 60,
		RouteCount:             3,
		Header:                 "Routes to work:",
		DisplayDriver:          display.DriverOledExp,
		OledExpBin:             display.DefaultOledExpBin,
		NATSURL:                display.DefaultNATSURL,
		NATSSubject:            display.DefaultNATSSubject,
		CacheTTLSeconds:        30,
		OTLPEndpoint:           "localhost:4317",
		TracingSampleRate:      1.0,
	}
}

// Load reads the optional config file, then environment variables, and
// validates the result.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadForDisplay is Load for commands that only talk to the display; the
// commute settings are not required.
func LoadForDisplay() (*Config, error) {
	cfg := Defaults()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if !display.KnownDriver(cfg.DisplayDriver) {
		return nil, fmt.Errorf("%w: unknown display driver %q", ErrInvalid, cfg.DisplayDriver)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrInvalid, path, err)
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("ENV", c.Environment)
	c.Simulation = getEnvBool("SIMULATION", c.Simulation)

	c.ActiveHoursStart = getEnvInt("ACTIVE_HOURS_START", c.ActiveHoursStart)
	c.ActiveHoursEnd = getEnvInt("ACTIVE_HOURS_END", c.ActiveHoursEnd)
	c.ActiveHoursPolicy = power.Policy(strings.ToLower(getEnv("ACTIVE_HOURS_POLICY", string(c.ActiveHoursPolicy))))

	c.Commute.Origin = getEnv("ORIGIN", c.Commute.Origin)
	c.Commute.Destination = getEnv("DESTINATION", c.Commute.Destination)
	c.Commute.APIKey = getEnv("MAPS_API_KEY", c.Commute.APIKey)
	c.Commute.Traffic = getEnvBool("MAPS_TRAFFIC", c.Commute.Traffic)
	c.Commute.BaseURL = getEnv("MAPS_BASE_URL", c.Commute.BaseURL)

	c.RefreshIntervalSeconds = getEnvInt("REFRESH_INTERVAL_SECONDS", c.RefreshIntervalSeconds)
	c.RouteCount = getEnvInt("ROUTE_COUNT", c.RouteCount)
	c.Header = getEnv("HEADER", c.Header)

	c.DisplayDriver = strings.ToLower(getEnv("DISPLAY_DRIVER", c.DisplayDriver))
	c.OledExpBin = getEnv("OLED_EXP_BIN", c.OledExpBin)
	c.I2CBus = getEnv("I2C_BUS", c.I2CBus)
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)
	c.NATSSubject = getEnv("NATS_SUBJECT", c.NATSSubject)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.CacheTTLSeconds = getEnvInt("CACHE_TTL_SECONDS", c.CacheTTLSeconds)

	c.MetricsTextfile = getEnv("METRICS_TEXTFILE", c.MetricsTextfile)

	c.TracingEnabled = getEnvBool("TRACING_ENABLED", c.TracingEnabled)
	c.OTLPEndpoint = getEnv("OTLP_ENDPOINT", c.OTLPEndpoint)
	c.TracingSampleRate = getEnvFloat("TRACING_SAMPLE_RATE", c.TracingSampleRate)
}

// Validate checks required settings and ranges.
func (c *Config) Validate() error {
	if c.Commute.Origin == "" {
		return fmt.Errorf("%w: %sORIGIN must be provided", ErrMissing, envPrefix)
	}
	if c.Commute.Destination == "" {
		return fmt.Errorf("%w: %sDESTINATION must be provided", ErrMissing, envPrefix)
	}
	if c.Commute.APIKey == "" {
		return fmt.Errorf("%w: %sMAPS_API_KEY must be provided", ErrMissing, envPrefix)
	}

	if c.ActiveHoursStart < 0 || c.ActiveHoursStart > 23 {
		return fmt.Errorf("%w: active hours start %d not in 0-23", ErrInvalid, c.ActiveHoursStart)
	}
	if c.ActiveHoursEnd < 0 || c.ActiveHoursEnd > 23 {
		return fmt.Errorf("%w: active hours end %d not in 0-23", ErrInvalid, c.ActiveHoursEnd)
	}
	if !c.ActiveHoursPolicy.Valid() {
		return fmt.Errorf("%w: unknown active hours policy %q", ErrInvalid, c.ActiveHoursPolicy)
	}
	if c.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("%w: refresh interval must be positive", ErrInvalid)
	}
	if c.RouteCount <= 0 {
		return fmt.Errorf("%w: route count must be positive", ErrInvalid)
	}
	if !display.KnownDriver(c.DisplayDriver) {
		return fmt.Errorf("%w: unknown display driver %q (want one of %s)", ErrInvalid, c.DisplayDriver, strings.Join(display.Drivers, ", "))
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		return fmt.Errorf("%w: tracing sample rate %v not in 0-1", ErrInvalid, c.TracingSampleRate)
	}
	return nil
}

// RefreshInterval returns the tick interval.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// CacheTTL returns the route cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// CacheEnabled reports whether a Redis route cache is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// IsDevelopment reports whether debug logging should be on.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// getEnv returns the prefixed environment variable, or def if unset.
func getEnv(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return def
}

// getEnvBool accepts true/false, 1/0 and yes/no.
func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "true" || v == "1" || v == "yes" {
			return true
		}
		if v == "false" || v == "0" || v == "no" {
			return false
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return parsed
		}
	}
	return def
}
