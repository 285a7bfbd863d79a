// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	freezeDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unfreeze_freeze_detected_total",
		Help: "Total number of observations classified as frozen",
	})

	freezeResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unfreeze_resolutions_total",
		Help: "Total number of freeze resolutions emitted by kind and reason",
	}, []string{"kind", "reason"})

	representationsDeprecatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unfreeze_representations_deprecated_total",
		Help: "Total number of representations deprecated as freeze culprits",
	}, []string{"media"}) // media=audio|video
)

// FreezeRecorder feeds resolver decisions into the Prometheus counters.
// It satisfies the freeze package's Recorder interface.
type FreezeRecorder struct{}

// RecordFreezeDetected counts one frozen observation.
func (FreezeRecorder) RecordFreezeDetected() {
	freezeDetectedTotal.Inc()
}

// RecordResolution counts one emitted resolution.
func (FreezeRecorder) RecordResolution(kind, reason string) {
	freezeResolutionsTotal.WithLabelValues(normalizeKindLabel(kind), normalizeReasonLabel(reason)).Inc()
}

// RecordDeprecated counts one representation deprecated as the culprit of a
// freeze on the given media type.
func (FreezeRecorder) RecordDeprecated(media string) {
	representationsDeprecatedTotal.WithLabelValues(normalizeMediaLabel(media)).Inc()
}

func normalizeMediaLabel(media string) string {
	switch m := strings.ToLower(strings.TrimSpace(media)); m {
	case "audio", "video":
		return m
	default:
		return "unknown"
	}
}

func normalizeKindLabel(kind string) string {
	switch k := strings.ToLower(strings.TrimSpace(kind)); k {
	case "flush", "reload", "deprecate-representations":
		return k
	default:
		return "unknown"
	}
}

func normalizeReasonLabel(reason string) string {
	switch r := strings.ToLower(strings.TrimSpace(reason)); r {
	case "flush_seek_delay", "reload_starting", "reload_period_boundary",
		"deprecate_culprit", "reload_undecipherable", "reload_stuck_despite_keys":
		return r
	default:
		return "unknown"
	}
}
