// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package inventory

import (
	"sort"
	"strings"
	"sync"
)

type buffer struct {
	kind   StatusKind
	chunks []BufferedChunk
}

// Store is an in-memory Provider fed by a remote player's inventory reports.
// It is safe for concurrent use; Status hands out a snapshot, so readers never
// observe a half-applied update.
type Store struct {
	mu      sync.RWMutex
	buffers map[MediaType]*buffer
}

// NewStore returns a store with every media type uninitialized.
func NewStore() *Store {
	s := &Store{buffers: make(map[MediaType]*buffer, len(MediaTypes))}
	for _, t := range MediaTypes {
		s.buffers[t] = &buffer{kind: StatusUninitialized}
	}
	return s
}

func (s *Store) buffer(t MediaType) *buffer {
	b, ok := s.buffers[t]
	if !ok {
		b = &buffer{kind: StatusUninitialized}
		s.buffers[t] = b
	}
	return b
}

// Status implements Provider.
func (s *Store) Status(t MediaType) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buffers[t]
	if !ok || b.kind != StatusInitialized {
		kind := StatusUninitialized
		if ok {
			kind = b.kind
		}
		return Status{Kind: kind}
	}
	snapshot := cloneChunks(b.chunks)
	return Status{
		Kind:   StatusInitialized,
		Chunks: func() []BufferedChunk { return snapshot },
	}
}

// Replace swaps the whole inventory of t and marks it initialized.
// Chunks are ordered by Start; equal starts keep their reported order.
func (s *Store) Replace(t MediaType, chunks []BufferedChunk) {
	sorted := cloneChunks(chunks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.buffer(t)
	b.kind = StatusInitialized
	b.chunks = sorted
}

// Insert adds one chunk to an initialized inventory, keeping Start order.
// An uninitialized or disabled buffer becomes initialized.
func (s *Store) Insert(t MediaType, chunk BufferedChunk) {
	c := cloneChunk(chunk)

	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.buffer(t)
	if b.kind != StatusInitialized {
		b.kind = StatusInitialized
		b.chunks = nil
	}
	idx := sort.Search(len(b.chunks), func(i int) bool { return b.chunks[i].Start > c.Start })
	b.chunks = append(b.chunks, BufferedChunk{})
	copy(b.chunks[idx+1:], b.chunks[idx:])
	b.chunks[idx] = c
}

// Disable marks t as disabled (e.g. audio-less content) and drops its chunks.
func (s *Store) Disable(t MediaType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.buffer(t)
	b.kind = StatusDisabled
	b.chunks = nil
}

// Reset returns t to the uninitialized state.
func (s *Store) Reset(t MediaType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.buffer(t)
	b.kind = StatusUninitialized
	b.chunks = nil
}

// SetDecipherable applies a key-system verdict to every chunk whose
// representation is protected by one of keyIDs. It returns the number of
// chunks updated.
func (s *Store) SetDecipherable(keyIDs []string, decipherable bool) int {
	if len(keyIDs) == 0 {
		return 0
	}
	wanted := make(map[string]struct{}, len(keyIDs))
	for _, kid := range keyIDs {
		if n := normalizeKeyID(kid); n != "" {
			wanted[n] = struct{}{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	updated := 0
	for _, b := range s.buffers {
		for i := range b.chunks {
			rep := &b.chunks[i].Infos.Representation
			if !rep.hasKeyID(wanted) {
				continue
			}
			v := decipherable
			rep.Decipherable = &v
			updated++
		}
	}
	return updated
}

// normalizeKeyID lowercases a key ID and strips UUID dashes so that
// "ABCD-..." and "abcd..." compare equal.
func normalizeKeyID(kid string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(kid)), "-", "")
}

func cloneChunks(in []BufferedChunk) []BufferedChunk {
	if in == nil {
		return nil
	}
	out := make([]BufferedChunk, len(in))
	for i := range in {
		out[i] = cloneChunk(in[i])
	}
	return out
}

func cloneChunk(c BufferedChunk) BufferedChunk {
	out := c
	out.BufferedStart = cloneFloat(c.BufferedStart)
	out.BufferedEnd = cloneFloat(c.BufferedEnd)
	rep := &out.Infos.Representation
	if c.Infos.Representation.Decipherable != nil {
		v := *c.Infos.Representation.Decipherable
		rep.Decipherable = &v
	}
	if len(c.Infos.Representation.ContentProtections) > 0 {
		rep.ContentProtections = make([]ContentProtection, len(c.Infos.Representation.ContentProtections))
		for i, cp := range c.Infos.Representation.ContentProtections {
			rep.ContentProtections[i] = ContentProtection{
				SystemID: cp.SystemID,
				KeyIDs:   append([]string(nil), cp.KeyIDs...),
			}
		}
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
