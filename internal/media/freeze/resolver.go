// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

// Package freeze decides how to get a stalled playback moving again.
//
// A Resolver is fed one Observation per sampling tick. It keeps a short
// history of which segment was likely playing, classifies the sample, and
// escalates through increasingly disruptive remediations: a tiny flushing
// seek, then deprecating the representation that was switched to right
// before the freeze (or reloading when the freeze sits at a period boundary
// or at start-up), and finally a reload when the stall looks like a
// decryption problem.
package freeze

import (
	"math"
	"time"

	xglog "github.com/ManuGH/unfreeze/internal/log"
	"github.com/ManuGH/unfreeze/internal/media/inventory"
	"github.com/rs/zerolog"
)

const (
	// culpritSwitchWindow is how close to the freeze a representation switch
	// must be to be blamed for it.
	culpritSwitchWindow = 5 * time.Second
	// decipherabilityStallDelay is how long a buffer-rich stall must last,
	// and be tracked, before blaming decryption.
	decipherabilityStallDelay = 4 * time.Second
)

// culpritOrder is the order media types are inspected after a failed flush.
var culpritOrder = []inventory.MediaType{inventory.MediaTypeVideo, inventory.MediaTypeAudio}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithRecorder attaches a decision counter sink.
func WithRecorder(rec Recorder) Option {
	return func(r *Resolver) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// Resolver is the freeze resolution state machine.
// It is not safe for concurrent use: one goroutine (or a caller-held lock)
// must own it.
type Resolver struct {
	provider inventory.Provider
	history  map[inventory.MediaType]*History

	lastFlush    *FlushAttempt
	suspectSince *time.Duration

	logger   zerolog.Logger
	recorder Recorder
}

// New creates a resolver reading buffered chunks from provider.
func New(provider inventory.Provider, opts ...Option) *Resolver {
	r := &Resolver{
		provider: provider,
		history:  make(map[inventory.MediaType]*History, len(inventory.MediaTypes)),
		logger:   xglog.WithComponent("freeze"),
		recorder: noopRecorder{},
	}
	for _, t := range inventory.MediaTypes {
		r.history[t] = newHistory(maxHistoryEntries)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve consumes one observation taken at now and returns the remediation
// to apply, if any. It never fails: whenever the signals are ambiguous or not
// old enough it returns ok == false.
func (r *Resolver) Resolve(obs Observation, cfg Config, now time.Duration) (Resolution, bool) {
	polled := obs.Position.Polled
	record(r.history, r.provider, polled, now)

	if !IsFrozen(obs) {
		r.suspectSince = nil
		return Resolution{}, false
	}
	r.recorder.RecordFreezeDetected()

	if r.flushFailed(cfg, polled, now) {
		r.logger.Warn().
			Str(xglog.FieldEvent, "freeze.flush_failed").
			Float64(xglog.FieldPosition, polled).
			Dur("since_flush", now-r.lastFlush.Timestamp).
			Msg("previous flush did not unfreeze playback")
		if res, ok := r.findCulprit(); ok {
			r.suspectSince = nil
			return r.emit(res), true
		}
		// No culprit: fall through to the regular flush and decryption checks.
	}

	if obs.Freezing != nil && !obs.Position.AwaitingFuture &&
		now-obs.Freezing.Timestamp > cfg.UnfreezingSeekDelay {
		r.lastFlush = &FlushAttempt{
			Timestamp: now,
			Position:  polled + cfg.UnfreezingDeltaPosition,
		}
		r.suspectSince = nil
		return r.emit(Resolution{
			Kind:         KindFlush,
			Reason:       ReasonFlushSeekDelay,
			RelativeSeek: cfg.UnfreezingDeltaPosition,
		}), true
	}

	if hasInsufficientBuffer(obs) || obs.ReadyState > haveMetadata {
		r.suspectSince = nil
		return Resolution{}, false
	}

	if r.suspectSince == nil {
		since := now
		r.suspectSince = &since
		r.logger.Debug().
			Str(xglog.FieldEvent, "freeze.decipherability_suspect").
			Int(xglog.FieldReadyState, obs.ReadyState).
			Float64(xglog.FieldBufferGap, bufferGap(obs)).
			Msg("buffer-rich stall, watching decipherability")
	}

	stalled := (obs.Rebuffering != nil && now-obs.Rebuffering.Timestamp > decipherabilityStallDelay) ||
		(obs.Freezing != nil && now-obs.Freezing.Timestamp > decipherabilityStallDelay)
	if !stalled || now-*r.suspectSince <= decipherabilityStallDelay {
		return Resolution{}, false
	}

	if r.anyUndecipherable() {
		r.suspectSince = nil
		return r.emit(Resolution{Kind: KindReload, Reason: ReasonReloadUndecipherable}), true
	}
	if r.stuckDespiteKeys() {
		r.suspectSince = nil
		return r.emit(Resolution{Kind: KindReload, Reason: ReasonReloadStuckDespiteKeys}), true
	}
	return Resolution{}, false
}

func (r *Resolver) flushFailed(cfg Config, polled float64, now time.Duration) bool {
	if r.lastFlush == nil {
		return false
	}
	elapsed := now - r.lastFlush.Timestamp
	return elapsed >= cfg.FlushFailure.Minimum &&
		elapsed < cfg.FlushFailure.Maximum &&
		math.Abs(polled-r.lastFlush.Position) < cfg.FlushFailure.PositionDelta
}

// findCulprit walks each media type's history backwards looking for the
// point where playback switched to the segment it is now stuck on.
// An empty history ends the whole analysis, not just that media type.
func (r *Resolver) findCulprit() (Resolution, bool) {
	var deprecated []inventory.ContentRef
	for _, t := range culpritOrder {
		h := r.history[t]
		if h.Len() == 0 {
			break
		}

		ref := h.At(h.Len() - 1)
		var change *Entry
		for i := h.Len() - 2; i >= 0; i-- {
			entry := h.At(i)
			if entry.Segment == nil {
				change = &entry
				break
			}
			if !sameRepresentation(entry.Segment, ref.Segment) && ref.Timestamp-entry.Timestamp < culpritSwitchWindow {
				change = &entry
				break
			}
			if ref.Segment != nil && entry.Segment.Start == ref.Segment.Start {
				ref = entry
			}
		}
		if change == nil || change.Segment == nil {
			continue
		}

		switch {
		case ref.Segment == nil:
			r.logger.Warn().
				Str(xglog.FieldEvent, "freeze.reload_starting").
				Str(xglog.FieldMediaType, string(t)).
				Msg("freeze while starting playback, reloading")
			return Resolution{Kind: KindReload, Reason: ReasonReloadStarting}, true
		case ref.Segment.Infos.Period.ID != change.Segment.Infos.Period.ID:
			r.logger.Warn().
				Str(xglog.FieldEvent, "freeze.reload_period_boundary").
				Str(xglog.FieldMediaType, string(t)).
				Str(xglog.FieldPeriod, ref.Segment.Infos.Period.ID).
				Msg("freeze at period boundary, reloading")
			return Resolution{Kind: KindReload, Reason: ReasonReloadPeriodBoundary}, true
		case !sameRepresentation(ref.Segment, change.Segment):
			r.logger.Warn().
				Str(xglog.FieldEvent, "freeze.culprit_found").
				Str(xglog.FieldMediaType, string(t)).
				Str(xglog.FieldRepresentation, ref.Segment.Infos.Representation.UniqueID).
				Msg("freeze right after representation switch")
			deprecated = append(deprecated, ref.Segment.Ref())
			r.recorder.RecordDeprecated(string(t))
		}
	}

	if len(deprecated) == 0 {
		return Resolution{}, false
	}
	return Resolution{
		Kind:            KindDeprecateRepresentations,
		Reason:          ReasonDeprecateCulprit,
		Representations: deprecated,
	}, true
}

// sameRepresentation compares by stable unique ID; a nil chunk matches nothing.
func sameRepresentation(a, b *inventory.BufferedChunk) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Infos.Representation.UniqueID == b.Infos.Representation.UniqueID
}

func (r *Resolver) anyUndecipherable() bool {
	for _, t := range inventory.MediaTypes {
		status := r.provider.Status(t)
		if !status.Initialized() {
			continue
		}
		for _, chunk := range status.Chunks() {
			if chunk.Infos.Representation.IsUndecipherable() {
				return true
			}
		}
	}
	return false
}

// stuckDespiteKeys reports encrypted content whose keys are all usable.
func (r *Resolver) stuckDespiteKeys() bool {
	encrypted := false
	for _, t := range inventory.MediaTypes {
		status := r.provider.Status(t)
		if !status.Initialized() {
			continue
		}
		for _, chunk := range status.Chunks() {
			rep := chunk.Infos.Representation
			if !rep.Encrypted() {
				continue
			}
			if !rep.IsDecipherable() {
				return false
			}
			encrypted = true
		}
	}
	return encrypted
}

func (r *Resolver) emit(res Resolution) Resolution {
	ev := r.logger.Info()
	if res.Kind != KindFlush {
		ev = r.logger.Warn()
	}
	ev.Str(xglog.FieldEvent, "freeze.resolution").
		Str(xglog.FieldResolution, string(res.Kind)).
		Str(xglog.FieldReason, string(res.Reason)).
		Stringer("detail", res).
		Msg("freeze resolution emitted")
	r.recorder.RecordResolution(string(res.Kind), string(res.Reason))
	return res
}

// State is a diagnostic copy of the resolver's internal state.
type State struct {
	History      map[inventory.MediaType][]Entry
	LastFlush    *FlushAttempt
	SuspectSince *time.Duration
}

// Snapshot returns a copy of the resolver state for diagnostics.
func (r *Resolver) Snapshot() State {
	st := State{History: make(map[inventory.MediaType][]Entry, len(r.history))}
	for t, h := range r.history {
		st.History[t] = h.Entries()
	}
	if r.lastFlush != nil {
		f := *r.lastFlush
		st.LastFlush = &f
	}
	if r.suspectSince != nil {
		s := *r.suspectSince
		st.SuspectSince = &s
	}
	return st
}
