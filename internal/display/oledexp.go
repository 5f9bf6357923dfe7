/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package display

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultOledExpBin is the Onion OLED expansion control tool.
const DefaultOledExpBin = "oled-exp"

// commandRunner runs an external command and returns its combined output.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// OledExp drives the display through the oled-exp binary.
type OledExp struct {
	bin     string
	timeout time.Duration
	run     commandRunner
	logger  zerolog.Logger
}

// NewOledExp creates an oled-exp backed device.
func NewOledExp(bin string, timeout time.Duration, logger zerolog.Logger) *OledExp {
	if bin == "" {
		bin = DefaultOledExpBin
	}
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &OledExp{
		bin:     bin,
		timeout: timeout,
		run:     runCommand,
		logger:  logger.With().Str("component", "display").Str("driver", DriverOledExp).Logger(),
	}
}

// Write clears the screen and prints text. oled-exp expects line breaks as
// a literal backslash-n sequence.
func (o *OledExp) Write(ctx context.Context, text string) error {
	o.logger.Debug().Str("text", text).Msg("writing display text")
	if err := o.exec(ctx, "-c", "write", escapeNewlines(text)); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// PowerOn switches the panel on. With init it also resets dim, scroll and
// invert to their defaults.
func (o *OledExp) PowerOn(ctx context.Context, init bool) error {
	args := []string{"-i", "power", "on"}
	if init {
		args = append(args, "dim", "off", "scroll", "stop", "invert", "off")
	}
	return o.exec(ctx, args...)
}

// PowerOff switches the panel off.
func (o *OledExp) PowerOff(ctx context.Context) error {
	return o.exec(ctx, "-i", "power", "off")
}

// Close is a no-op; every command is a separate process.
func (o *OledExp) Close() error { return nil }

func (o *OledExp) exec(ctx context.Context, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	out, err := o.run(ctx, o.bin, args...)
	if err != nil {
		output := strings.TrimSpace(string(out))
		o.logger.Debug().Err(err).Strs("args", args).Str("output", output).Msg("oled-exp command failed")
		if output != "" {
			return fmt.Errorf("%s %s: %w: %s", o.bin, args[0], err, output)
		}
		return fmt.Errorf("%s %s: %w", o.bin, args[0], err)
	}
	return nil
}

func escapeNewlines(text string) string {
	return strings.ReplaceAll(text, "\n", `\n`)
}
