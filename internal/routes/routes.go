/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package routes selects and renders route alternatives for the display.
package routes

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// ErrNoRoutes indicates the routing service answered with zero alternatives.
var ErrNoRoutes = errors.New("no routes found")

// DefaultHeader is the first line of every display payload.
const DefaultHeader = "Routes to work:"

// Route is one travel alternative between origin and destination.
type Route struct {
	Summary         string `json:"summary"`
	DurationSeconds int    `json:"duration_seconds"`
	DurationText    string `json:"duration_text"`
}

// SelectTopN returns the n fastest routes, ordered by duration.
// Routes with equal duration keep their original relative order.
// The input slice is not modified.
func SelectTopN(routes []Route, n int) []Route {
	if n <= 0 || len(routes) == 0 {
		return []Route{}
	}

	sorted := slices.Clone(routes)
	slices.SortStableFunc(sorted, func(a, b Route) int {
		return cmp.Compare(a.DurationSeconds, b.DurationSeconds)
	})

	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Format renders one "summary: duration" line per route.
func Format(routes []Route) string {
	var b strings.Builder
	for i, r := range routes {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Summary)
		b.WriteString(": ")
		b.WriteString(r.DurationText)
	}
	return b.String()
}

// FormatClock renders t as zero-padded HH:MM.
func FormatClock(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Compose builds the full display payload: header line, the routes block,
// two line breaks of padding and the last-updated stamp.
func Compose(header, routesText string, updated time.Time) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(routesText)
	b.WriteString("\n\n")
	b.WriteString("Updated: ")
	b.WriteString(FormatClock(updated))
	return b.String()
}

// HumanDuration renders a travel time the way the routing service does,
// e.g. "24 min" or "1 h 5 min".
func HumanDuration(d time.Duration) string {
	if d <= 0 {
		return "0 min"
	}

	mins := int(math.Round(d.Minutes()))
	if mins < 1 {
		mins = 1
	}
	if mins < 60 {
		return fmt.Sprintf("%d min", mins)
	}

	hours, rest := mins/60, mins%60
	if rest == 0 {
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, rest)
}
