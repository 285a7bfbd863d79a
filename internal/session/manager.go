// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/unfreeze/internal/journal"
	xglog "github.com/ManuGH/unfreeze/internal/log"
	"github.com/ManuGH/unfreeze/internal/media/freeze"
	"github.com/ManuGH/unfreeze/internal/media/inventory"
	"github.com/ManuGH/unfreeze/internal/metrics"
	"github.com/ManuGH/unfreeze/internal/resilience"
	"github.com/ManuGH/unfreeze/internal/telemetry"
)

// Journal appends stop for journalCooldown after journalFailureThreshold
// consecutive failures.
const (
	journalFailureThreshold = 5
	journalCooldown         = 30 * time.Second
)

// ConfigSource yields the resolver tuning in effect. It is read on every
// observation so hot reloads apply to running sessions.
type ConfigSource interface {
	Freeze() freeze.Config
}

// Journal records emitted resolutions.
type Journal interface {
	Append(ctx context.Context, e journal.Entry) (int64, error)
}

type staticConfig freeze.Config

func (c staticConfig) Freeze() freeze.Config { return freeze.Config(c) }

// Options configures a Manager. Zero values select defaults.
type Options struct {
	Max         int
	IdleTimeout time.Duration
	Config      ConfigSource
	Journal     Journal
	// Now is the wall clock used for idle tracking.
	Now func() time.Time
}

// Manager is the registry of playback sessions.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	max         int
	idleTimeout time.Duration

	cfg            ConfigSource
	journal        Journal
	journalBreaker *resilience.Breaker
	now            func() time.Time
	logger         zerolog.Logger
	tracer         trace.Tracer
}

// NewManager creates an empty registry.
func NewManager(opts Options) *Manager {
	m := &Manager{
		sessions:    make(map[string]*Session),
		max:         opts.Max,
		idleTimeout: opts.IdleTimeout,
		cfg:         opts.Config,
		journal:     opts.Journal,
		now:         opts.Now,
		logger:      xglog.WithComponent("session"),
		tracer:      telemetry.Tracer("github.com/ManuGH/unfreeze/internal/session"),
	}
	if m.max <= 0 {
		m.max = 256
	}
	if m.idleTimeout <= 0 {
		m.idleTimeout = 5 * time.Minute
	}
	if m.cfg == nil {
		m.cfg = staticConfig(freeze.DefaultConfig())
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.journal != nil {
		m.journalBreaker = resilience.New("journal", journalFailureThreshold, journalCooldown)
	}
	return m
}

// SetLimits applies new registry limits. Existing sessions above a lowered
// maximum are kept; only new creations are refused.
func (m *Manager) SetLimits(maxSessions int, idleTimeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if maxSessions > 0 {
		m.max = maxSessions
	}
	if idleTimeout > 0 {
		m.idleTimeout = idleTimeout
	}
}

// Create registers a new session with an uninitialized inventory.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.max {
		metrics.RecordSessionRejected()
		return nil, fmt.Errorf("%w (max %d)", ErrLimitReached, m.max)
	}

	id := uuid.NewString()
	now := m.now()
	logger := m.logger.With().Str(xglog.FieldSessionID, id).Logger()
	store := inventory.NewStore()

	s := &Session{
		ID:        id,
		Created:   now,
		inventory: store,
		lastSeen:  now,
		logger:    logger,
		resolver: freeze.New(store,
			freeze.WithLogger(logger),
			freeze.WithRecorder(metrics.FreezeRecorder{}),
		),
	}
	m.sessions[id] = s
	metrics.SetSessionsActive(len(m.sessions))

	ctxLogger := xglog.WithContext(ctx, logger)
	ctxLogger.Info().
		Str(xglog.FieldEvent, "session.created").
		Int("active", len(m.sessions)).
		Msg("session created")
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete removes the session with id.
func (m *Manager) Delete(id string) error {
	if !m.remove(id, "deleted") {
		return ErrNotFound
	}
	return nil
}

func (m *Manager) remove(id, reason string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	active := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return false
	}
	metrics.SetSessionsActive(active)
	metrics.RecordSessionClosed(reason)
	s.logger.Info().
		Str(xglog.FieldEvent, "session.closed").
		Str(xglog.FieldReason, reason).
		Msg("session closed")
	return true
}

// List returns summaries of all sessions, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.info())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Len returns the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Capacity returns the number of sessions and the current limit.
func (m *Manager) Capacity() (used, limit int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), m.max
}

// Touch marks the session as active without evaluating an observation.
func (m *Manager) Touch(id string) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	s.touch(m.now())
	return s, nil
}

// Observe evaluates one observation for session id at the monotonic
// playback timestamp now. Timestamps of one session must not decrease.
func (m *Manager) Observe(ctx context.Context, id string, obs freeze.Observation, now time.Duration) (freeze.Resolution, bool, error) {
	s, err := m.Get(id)
	if err != nil {
		return freeze.Resolution{}, false, err
	}

	ctx, span := m.tracer.Start(ctx, "session.observe",
		trace.WithAttributes(telemetry.SessionAttributes(id)...))
	defer span.End()

	cfg := m.cfg.Freeze()
	started := time.Now()

	s.mu.Lock()
	if s.lastNow != nil && now < *s.lastNow {
		prev := *s.lastNow
		s.mu.Unlock()
		span.SetStatus(codes.Error, "time regression")
		return freeze.Resolution{}, false, fmt.Errorf("%w: %s < %s", ErrTimeRegression, now, prev)
	}
	s.lastNow = &now
	s.lastSeen = m.now()
	res, ok := s.resolver.Resolve(obs, cfg, now)
	s.mu.Unlock()

	frozen := freeze.IsFrozen(obs)
	outcome := "playing"
	switch {
	case ok:
		outcome = "resolved"
	case frozen:
		outcome = "frozen"
	}
	metrics.RecordObservation(outcome, time.Since(started).Seconds())
	span.SetAttributes(telemetry.PlaybackAttributes(obs.ReadyState, obs.Position.Polled, gapOf(obs), frozen)...)

	if !ok {
		return freeze.Resolution{}, false, nil
	}

	refs := make([]string, 0, len(res.Representations))
	for _, ref := range res.Representations {
		refs = append(refs, ref.Representation.UniqueID)
	}
	span.SetAttributes(telemetry.ResolutionAttributes(string(res.Kind), string(res.Reason), res.RelativeSeek, refs)...)
	span.AddEvent("resolution", trace.WithAttributes(attribute.String(telemetry.ResolutionKindKey, string(res.Kind))))

	m.recordJournal(ctx, s, res, now)
	return res, true, nil
}

func (m *Manager) recordJournal(ctx context.Context, s *Session, res freeze.Resolution, now time.Duration) {
	if m.journal == nil {
		return
	}
	entry := journal.Entry{
		SessionID:       s.ID,
		PlaybackTime:    now,
		Kind:            string(res.Kind),
		Reason:          string(res.Reason),
		RelativeSeek:    res.RelativeSeek,
		Representations: res.Representations,
	}
	err := m.journalBreaker.Execute(func() error {
		_, err := m.journal.Append(ctx, entry)
		return err
	})
	if errors.Is(err, resilience.ErrOpen) {
		logger := xglog.WithContext(ctx, s.logger)
		logger.Debug().
			Str(xglog.FieldEvent, "journal.skipped").
			Msg("journal breaker open, resolution not recorded")
		return
	}
	if err != nil {
		metrics.RecordJournalWriteError()
		logger := xglog.WithContext(ctx, s.logger)
		logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "journal.append_failed").
			Msg("failed to journal resolution")
	}
}

func gapOf(obs freeze.Observation) float64 {
	if obs.BufferGap == nil {
		return 0
	}
	return *obs.BufferGap
}

// EvictIdle removes sessions not seen within the idle timeout and returns
// how many were removed.
func (m *Manager) EvictIdle() int {
	m.mu.RLock()
	cutoff := m.now().Add(-m.idleTimeout)
	idle := make([]string, 0)
	for id, s := range m.sessions {
		if s.idleSince(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	count := 0
	for _, id := range idle {
		if m.remove(id, "idle") {
			count++
		}
	}
	return count
}

// RunJanitor evicts idle sessions every interval until ctx is cancelled.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.EvictIdle(); n > 0 {
				m.logger.Info().
					Str(xglog.FieldEvent, "session.janitor").
					Int("evicted", n).
					Int("active", m.Len()).
					Msg("evicted idle sessions")
			}
		}
	}
}
