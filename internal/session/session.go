// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

// Package session keeps the registry of playback sessions. Each session owns
// an inventory store and a freeze resolver; observations for one session are
// serialized, different sessions resolve concurrently.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/unfreeze/internal/media/freeze"
	"github.com/ManuGH/unfreeze/internal/media/inventory"
)

var (
	// ErrNotFound is returned for unknown session IDs.
	ErrNotFound = errors.New("session not found")
	// ErrLimitReached is returned by Create when the registry is full.
	ErrLimitReached = errors.New("session limit reached")
	// ErrTimeRegression is returned when an observation's timestamp is older
	// than the previous one of the same session.
	ErrTimeRegression = errors.New("observation timestamp moved backwards")
)

// Session is one playback being supervised.
type Session struct {
	ID      string
	Created time.Time

	inventory *inventory.Store

	mu       sync.Mutex
	resolver *freeze.Resolver
	lastSeen time.Time
	lastNow  *time.Duration
	logger   zerolog.Logger
}

// Info is a read-only summary of a session.
type Info struct {
	ID           string    `json:"id"`
	Created      time.Time `json:"created"`
	LastSeen     time.Time `json:"lastSeen"`
	Observations bool      `json:"observed"`
}

// Inventory returns the session's buffered-chunk store. The store is safe
// for concurrent use on its own.
func (s *Session) Inventory() *inventory.Store {
	return s.inventory
}

// State returns a diagnostic copy of the resolver's internal state.
func (s *Session) State() freeze.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Snapshot()
}

func (s *Session) info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:           s.ID,
		Created:      s.Created,
		LastSeen:     s.lastSeen,
		Observations: s.lastNow != nil,
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}
