// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "unfreeze_sessions_active",
		Help: "Number of playback sessions currently registered",
	})

	sessionsClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unfreeze_sessions_closed_total",
		Help: "Total number of playback sessions removed by reason",
	}, []string{"reason"}) // reason=deleted|idle

	sessionsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unfreeze_sessions_rejected_total",
		Help: "Total number of session creations rejected because the registry is full",
	})

	observationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unfreeze_observations_total",
		Help: "Total number of playback observations evaluated by outcome",
	}, []string{"outcome"}) // outcome=playing|frozen|resolved

	observationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "unfreeze_observation_duration_seconds",
		Help:    "Time spent evaluating one playback observation",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	})

	journalWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unfreeze_journal_write_errors_total",
		Help: "Total number of resolution journal write failures",
	})
)

// SetSessionsActive publishes the current session count.
func SetSessionsActive(n int) {
	sessionsActive.Set(float64(n))
}

// RecordSessionClosed counts a removed session.
func RecordSessionClosed(reason string) {
	switch reason {
	case "deleted", "idle":
	default:
		reason = "unknown"
	}
	sessionsClosedTotal.WithLabelValues(reason).Inc()
}

// RecordSessionRejected counts a creation refused by the session limit.
func RecordSessionRejected() {
	sessionsRejectedTotal.Inc()
}

// RecordObservation counts one evaluated observation and its latency.
func RecordObservation(outcome string, seconds float64) {
	switch outcome {
	case "playing", "frozen", "resolved":
	default:
		outcome = "unknown"
	}
	observationsTotal.WithLabelValues(outcome).Inc()
	observationDuration.Observe(seconds)
}

// RecordJournalWriteError counts a failed journal append.
func RecordJournalWriteError() {
	journalWriteErrors.Inc()
}
