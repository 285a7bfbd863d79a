// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package freeze

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/unfreeze/internal/media/inventory"
)

// Event marks when a playback condition (rebuffering, freezing) began.
// Timestamp is on the same monotonic timeline as the resolver's now.
type Event struct {
	Timestamp time.Duration
}

// Position is the last polled playback position.
type Position struct {
	Polled float64
	// AwaitingFuture is set while the player waits for a position that is not
	// yet available (e.g. a pending seek past the live edge).
	AwaitingFuture bool
}

// Observation is one playback telemetry sample.
type Observation struct {
	ReadyState  int
	Rebuffering *Event
	Freezing    *Event
	// BufferGap is the number of seconds buffered ahead of the position.
	// nil means unknown.
	BufferGap   *float64
	FullyLoaded bool
	Position    Position
}

// FlushFailureWindow bounds when a flush is judged to have failed: the next
// observation must come between Minimum and Maximum after the flush, with the
// position still within PositionDelta seconds of the flush target.
type FlushFailureWindow struct {
	Minimum       time.Duration
	Maximum       time.Duration
	PositionDelta float64
}

// Config is the tunable part of the resolver, read fresh on every call.
type Config struct {
	// UnfreezingSeekDelay is how long a freeze must last before flushing.
	UnfreezingSeekDelay time.Duration
	// UnfreezingDeltaPosition is the relative seek, in seconds, of a flush.
	UnfreezingDeltaPosition float64
	FlushFailure            FlushFailureWindow
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		UnfreezingSeekDelay:     6 * time.Second,
		UnfreezingDeltaPosition: 0.001,
		FlushFailure: FlushFailureWindow{
			Minimum:       4 * time.Second,
			Maximum:       20 * time.Second,
			PositionDelta: 1,
		},
	}
}

// Kind discriminates Resolution variants.
type Kind string

const (
	KindFlush                    Kind = "flush"
	KindReload                   Kind = "reload"
	KindDeprecateRepresentations Kind = "deprecate-representations"
)

// Reason explains which branch produced a Resolution.
type Reason string

const (
	ReasonFlushSeekDelay         Reason = "flush_seek_delay"
	ReasonReloadStarting         Reason = "reload_starting"
	ReasonReloadPeriodBoundary   Reason = "reload_period_boundary"
	ReasonDeprecateCulprit       Reason = "deprecate_culprit"
	ReasonReloadUndecipherable   Reason = "reload_undecipherable"
	ReasonReloadStuckDespiteKeys Reason = "reload_stuck_despite_keys"
)

// Resolution is the remediation the caller should perform.
// RelativeSeek is only meaningful for KindFlush, Representations only for
// KindDeprecateRepresentations.
type Resolution struct {
	Kind            Kind
	Reason          Reason
	RelativeSeek    float64
	Representations []inventory.ContentRef
}

func (r Resolution) String() string {
	switch r.Kind {
	case KindFlush:
		return fmt.Sprintf("flush(%+g)", r.RelativeSeek)
	case KindDeprecateRepresentations:
		ids := make([]string, 0, len(r.Representations))
		for _, ref := range r.Representations {
			ids = append(ids, ref.Representation.UniqueID)
		}
		return "deprecate(" + strings.Join(ids, ",") + ")"
	default:
		return string(r.Kind)
	}
}

// FlushAttempt records the last flush the resolver asked for.
type FlushAttempt struct {
	Timestamp time.Duration
	Position  float64
}

// Recorder receives decision counters. A nil Recorder is allowed.
type Recorder interface {
	RecordFreezeDetected()
	RecordResolution(kind, reason string)
	// RecordDeprecated counts one culprit representation of the given media type.
	RecordDeprecated(media string)
}

type noopRecorder struct{}

func (noopRecorder) RecordFreezeDetected()           {}
func (noopRecorder) RecordResolution(string, string) {}
func (noopRecorder) RecordDeprecated(string)         {}
