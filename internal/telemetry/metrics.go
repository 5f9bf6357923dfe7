/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "routeboard"

// Registry holds every routeboard collector. It is private to the process so
// the textfile output only carries our own series plus the Go runtime.
var Registry = prometheus.NewRegistry()

var (
	// SchedulerTicksTotal counts scheduler ticks.
	SchedulerTicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_ticks_total",
		Help:      "Total number of scheduler ticks.",
	})

	// SchedulerErrorsTotal counts recoverable tick failures by stage.
	SchedulerErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_errors_total",
		Help:      "Total number of tick failures by stage.",
	}, []string{"stage"})

	// FetchDuration observes routing service latency.
	FetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "route_fetch_duration_seconds",
		Help:      "Latency of route fetches.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// RoutesReturned is the number of alternatives in the last successful fetch.
	RoutesReturned = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "routes_returned",
		Help:      "Number of route alternatives returned by the last fetch.",
	})

	// RouteCacheLookupsTotal counts route cache lookups by result.
	RouteCacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_cache_lookups_total",
		Help:      "Route cache lookups by result (hit, miss).",
	}, []string{"result"})

	// DisplayWritesTotal counts display writes by result.
	DisplayWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "display_writes_total",
		Help:      "Display writes by result (ok, error).",
	}, []string{"result"})

	// PendingRefreshes is the number of follow-up writes still owed.
	PendingRefreshes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "display_pending_refreshes",
		Help:      "Refresh requests queued behind the in-flight display write.",
	})

	// DisplayAwake is 1 while the display is powered, 0 while asleep.
	DisplayAwake = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "display_awake",
		Help:      "Display power state (1 awake, 0 asleep).",
	})

	// PowerTransitionsTotal counts power side effects by action and result.
	PowerTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "display_power_transitions_total",
		Help:      "Display power transitions by action (on, off) and result.",
	}, []string{"action", "result"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		SchedulerTicksTotal,
		SchedulerErrorsTotal,
		FetchDuration,
		RoutesReturned,
		RouteCacheLookupsTotal,
		DisplayWritesTotal,
		PendingRefreshes,
		DisplayAwake,
		PowerTransitionsTotal,
	)
	DisplayAwake.Set(1)
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
// An empty path disables the output.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, Registry)
}
