/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes Prometheus metrics for the scheduling loop and
// the HTTP API.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SchedulerTicksTotal counts scheduler loop iterations.
	SchedulerTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sunflower_scheduler_ticks_total",
		Help: "Number of scheduler ticks executed.",
	})

	// SchedulerErrorsTotal counts failed per-entity tasks within a tick.
	SchedulerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sunflower_scheduler_errors_total",
		Help: "Number of scheduler task failures.",
	}, []string{"kind", "id"})

	// ChannelUpdatesTotal counts published channel step updates.
	ChannelUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sunflower_channel_updates_total",
		Help: "Number of channel step updates published.",
	}, []string{"channel"})

	// PollDuration observes how long one channel or station task took.
	PollDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sunflower_poll_duration_seconds",
		Help:    "Duration of per-entity scheduler tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind", "id"})

	// HTTPRequestsTotal counts API requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sunflower_http_requests_total",
		Help: "Number of HTTP API requests.",
	}, []string{"route", "status"})
)

// Handler returns the metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
