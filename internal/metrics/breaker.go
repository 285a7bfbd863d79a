// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var breakerStates = []string{"closed", "open", "half-open"}

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "unfreeze_breaker_state",
		Help: "Circuit breaker state per component (1 for the active state)",
	}, []string{"component", "state"})

	breakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unfreeze_breaker_trips_total",
		Help: "Total number of times a circuit breaker opened",
	}, []string{"component", "reason"})

	breakerRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unfreeze_breaker_rejected_total",
		Help: "Total number of calls rejected by an open circuit breaker",
	}, []string{"component"})
)

// SetBreakerState records the active breaker state for a component.
func SetBreakerState(component, state string) {
	for _, s := range breakerStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		breakerState.WithLabelValues(component, s).Set(value)
	}
}

// RecordBreakerTrip counts a breaker opening.
func RecordBreakerTrip(component, reason string) {
	breakerTrips.WithLabelValues(component, reason).Inc()
}

// RecordBreakerRejected counts a call short-circuited by an open breaker.
func RecordBreakerRejected(component string) {
	breakerRejected.WithLabelValues(component).Inc()
}
