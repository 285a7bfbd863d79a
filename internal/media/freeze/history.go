// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package freeze

import (
	"time"

	"github.com/ManuGH/unfreeze/internal/media/inventory"
)

const (
	maxHistoryEntries = 100
	maxHistoryAge     = 60 * time.Second
)

// Entry is one "what was likely playing" sample. Segment is nil when no
// inventory was available for the media type.
type Entry struct {
	Segment   *inventory.BufferedChunk
	Position  float64
	Timestamp time.Duration
}

// History is a bounded ring of entries, oldest first.
// Appending to a full ring evicts the oldest entry.
type History struct {
	buf  []Entry
	head int
	size int
}

func newHistory(capacity int) *History {
	return &History{buf: make([]Entry, capacity)}
}

// Len returns the number of retained entries.
func (h *History) Len() int { return h.size }

// At returns the i-th retained entry, 0 being the oldest.
func (h *History) At(i int) Entry {
	return h.buf[(h.head+i)%len(h.buf)]
}

// Entries copies the retained entries, oldest first.
func (h *History) Entries() []Entry {
	out := make([]Entry, h.size)
	for i := range out {
		out[i] = h.At(i)
	}
	return out
}

func (h *History) push(e Entry) {
	if h.size == len(h.buf) {
		h.buf[h.head] = e
		h.head = (h.head + 1) % len(h.buf)
		return
	}
	h.buf[(h.head+h.size)%len(h.buf)] = e
	h.size++
}

// dropBefore evicts entries from the front whose timestamp is before cutoff.
// Observations arrive in non-decreasing time order, so the front is oldest.
func (h *History) dropBefore(cutoff time.Duration) {
	for h.size > 0 && h.buf[h.head].Timestamp < cutoff {
		h.buf[h.head] = Entry{}
		h.head = (h.head + 1) % len(h.buf)
		h.size--
	}
}

// record appends what was playing at position for every media type.
func record(histories map[inventory.MediaType]*History, provider inventory.Provider, position float64, now time.Duration) {
	for _, t := range inventory.MediaTypes {
		h := histories[t]
		status := provider.Status(t)
		if status.Initialized() {
			for _, chunk := range status.Chunks() {
				if !chunk.Covers(position) {
					continue
				}
				c := chunk
				h.push(Entry{Segment: &c, Position: position, Timestamp: now})
			}
		} else {
			h.push(Entry{Segment: nil, Position: position, Timestamp: now})
		}
		h.dropBefore(now - maxHistoryAge)
	}
}
