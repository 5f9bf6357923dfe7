/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/friendsincode/routeboard/internal/directions"
	"github.com/friendsincode/routeboard/internal/routes"
)

var (
	routesCount   int
	routesPreview bool
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Fetch the routes once and print the fastest",
	Long: `Query the routing service once for the configured commute and print the
fastest routes without touching the display.

Examples:
  # Show the configured number of routes
  routeboard routes

  # Show five routes and the exact display payload
  routeboard routes --count=5 --preview
`,
	RunE: runRoutes,
}

func init() {
	routesCmd.Flags().IntVarP(&routesCount, "count", "n", 0, "Number of routes to show (0 = configured route count)")
	routesCmd.Flags().BoolVar(&routesPreview, "preview", false, "Also print the text that would be sent to the display")
	rootCmd.AddCommand(routesCmd)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	client, err := directions.New(directions.Config{
		APIKey:  cfg.Commute.APIKey,
		BaseURL: cfg.Commute.BaseURL,
		Traffic: cfg.Commute.Traffic,
	}, logger)
	if err != nil {
		return err
	}

	found, err := client.Fetch(cmd.Context(), cfg.Commute.Origin, cfg.Commute.Destination)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return routes.ErrNoRoutes
	}

	n := routesCount
	if n <= 0 {
		n = cfg.RouteCount
	}
	top := routes.SelectTopN(found, n)

	out := cmd.OutOrStdout()
	printRoutes(out, top)
	if routesPreview {
		fmt.Fprintln(out)
		fmt.Fprintln(out, routes.Compose(cfg.Header, routes.Format(top), time.Now()))
	}
	return nil
}

func printRoutes(w io.Writer, rs []routes.Route) {
	tbl := table.New("#", "Route", "Duration", "Seconds").WithWriter(w)
	for i, r := range rs {
		tbl.AddRow(i+1, r.Summary, r.DurationText, r.DurationSeconds)
	}
	tbl.Print()
}
