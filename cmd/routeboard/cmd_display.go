/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/friendsincode/routeboard/internal/config"
	"github.com/friendsincode/routeboard/internal/display"
	"github.com/friendsincode/routeboard/internal/logging"
	"github.com/friendsincode/routeboard/internal/server"
)

var displayInit bool

var displayCmd = &cobra.Command{
	Use:   "display",
	Short: "Send a single command to the display",
	Long: `Drive the configured display directly, for wiring checks.

Examples:
  routeboard display on --init
  routeboard display write "Hello\nworld"
  routeboard display off
`,
}

var displayOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Power the display on",
	Args:  cobra.NoArgs,
	RunE: withDisplay(func(cmd *cobra.Command, dev display.Device, args []string) error {
		return dev.PowerOn(cmd.Context(), displayInit)
	}),
}

var displayOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Power the display off",
	Args:  cobra.NoArgs,
	RunE: withDisplay(func(cmd *cobra.Command, dev display.Device, args []string) error {
		return dev.PowerOff(cmd.Context())
	}),
}

var displayWriteCmd = &cobra.Command{
	Use:   "write <text>",
	Short: `Write text to the display ("\n" starts a new line)`,
	Args:  cobra.MinimumNArgs(1),
	RunE: withDisplay(func(cmd *cobra.Command, dev display.Device, args []string) error {
		text := strings.ReplaceAll(strings.Join(args, " "), `\n`, "\n")
		return dev.Write(cmd.Context(), text)
	}),
}

func init() {
	displayOnCmd.Flags().BoolVar(&displayInit, "init", false, "Also reset dim, scroll and invert")
	displayCmd.AddCommand(displayOnCmd, displayOffCmd, displayWriteCmd)
	rootCmd.AddCommand(displayCmd)
}

// withDisplay opens the configured display around fn.
func withDisplay(fn func(cmd *cobra.Command, dev display.Device, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadForDisplay()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger = logging.Setup(cfg.Environment)

		dev, err := server.OpenDisplay(cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := dev.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close display")
			}
		}()

		return fn(cmd, dev, args)
	}
}
