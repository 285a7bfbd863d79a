// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

// Package resilience guards best-effort side effects (the resolution journal)
// so that a failing dependency is not retried on every call.
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/unfreeze/internal/metrics"
)

// State is the breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// ErrOpen is returned without calling the guarded function while the breaker
// is open, or while a half-open probe is already in flight.
var ErrOpen = errors.New("circuit breaker is open")

type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Breaker opens after threshold consecutive failures and lets a single probe
// through once cooldown has elapsed.
type Breaker struct {
	mu       sync.Mutex
	name     string
	state    State
	failures int
	probing  bool
	openedAt time.Time

	threshold int
	cooldown  time.Duration
	clock     clock
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithClock injects the time source.
func WithClock(c clock) Option {
	return func(b *Breaker) { b.clock = c }
}

// New creates a closed breaker. Non-positive arguments fall back to 5
// failures and a 30s cooldown.
func New(name string, threshold int, cooldown time.Duration, opts ...Option) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	b := &Breaker{
		name:      name,
		state:     StateClosed,
		threshold: threshold,
		cooldown:  cooldown,
		clock:     realClock{},
	}
	for _, opt := range opts {
		opt(b)
	}
	metrics.SetBreakerState(b.name, string(b.state))
	return b
}

// Execute runs fn unless the breaker rejects the call.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allow() {
		metrics.RecordBreakerRejected(b.name)
		return ErrOpen
	}
	if err := fn(); err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.clock.Now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.transitionTo(StateHalfOpen)
		b.probing = true
		return true
	default:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	switch b.state {
	case StateHalfOpen:
		b.probing = false
		metrics.RecordBreakerTrip(b.name, "probe_failed")
		b.transitionTo(StateOpen)
	case StateClosed:
		if b.failures >= b.threshold {
			metrics.RecordBreakerTrip(b.name, "threshold_exceeded")
			b.transitionTo(StateOpen)
		}
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.probing = false
	b.transitionTo(StateClosed)
}

// transitionTo must be called with b.mu held.
func (b *Breaker) transitionTo(s State) {
	if b.state == s {
		return
	}
	b.state = s
	if s == StateOpen {
		b.openedAt = b.clock.Now()
	}
	metrics.SetBreakerState(b.name, string(s))
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
