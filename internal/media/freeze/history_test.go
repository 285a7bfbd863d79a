// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package freeze

import (
	"testing"
	"time"

	"github.com/ManuGH/unfreeze/internal/media/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_RingEvictsOldest(t *testing.T) {
	t.Parallel()

	h := newHistory(3)
	for i := 0; i < 5; i++ {
		h.push(Entry{Position: float64(i), Timestamp: time.Duration(i)})
	}
	require.Equal(t, 3, h.Len())
	assert.Equal(t, []float64{2, 3, 4}, positions(h.Entries()))
}

func TestHistory_DropBefore(t *testing.T) {
	t.Parallel()

	h := newHistory(10)
	for i := 0; i < 6; i++ {
		h.push(Entry{Position: float64(i), Timestamp: time.Duration(i) * time.Second})
	}
	h.dropBefore(3 * time.Second)
	assert.Equal(t, []float64{3, 4, 5}, positions(h.Entries()))

	h.dropBefore(time.Hour)
	assert.Equal(t, 0, h.Len())
	h.push(Entry{Position: 42})
	assert.Equal(t, []float64{42}, positions(h.Entries()))
}

func TestRecord_PerStatus(t *testing.T) {
	t.Parallel()

	store := inventory.NewStore()
	store.Replace(inventory.MediaTypeVideo, []inventory.BufferedChunk{
		chunk("p1", "v", "low", 0, 4),
		chunk("p1", "v", "high", 2, 6),
		chunk("p1", "v", "low", 4, 8),
	})
	r := New(store)

	r.Resolve(Observation{ReadyState: 4, Position: Position{Polled: 3}}, DefaultConfig(), time.Second)

	st := r.Snapshot()
	video := st.History[inventory.MediaTypeVideo]
	require.Len(t, video, 2, "one entry per covering chunk")
	assert.Equal(t, "p1/v/low", video[0].Segment.Infos.Representation.UniqueID)
	assert.Equal(t, "p1/v/high", video[1].Segment.Infos.Representation.UniqueID)

	audio := st.History[inventory.MediaTypeAudio]
	require.Len(t, audio, 1, "uninitialized buffer records a null entry")
	assert.Nil(t, audio[0].Segment)
	assert.Equal(t, 3.0, audio[0].Position)

	r.Resolve(Observation{ReadyState: 4, Position: Position{Polled: 100}}, DefaultConfig(), 2*time.Second)
	assert.Len(t, r.Snapshot().History[inventory.MediaTypeVideo], 2, "no covering chunk, nothing recorded")
}

func TestRecord_Bounds(t *testing.T) {
	t.Parallel()

	t.Run("count", func(t *testing.T) {
		r := New(inventory.NewStore())
		var now time.Duration
		for i := 0; i < 250; i++ {
			now = time.Duration(i) * 100 * time.Millisecond
			r.Resolve(Observation{ReadyState: 4}, DefaultConfig(), now)
		}
		for _, entries := range r.Snapshot().History {
			assert.Len(t, entries, maxHistoryEntries)
			assert.Equal(t, now, entries[len(entries)-1].Timestamp)
		}
	})

	t.Run("age", func(t *testing.T) {
		r := New(inventory.NewStore())
		var now time.Duration
		for i := 0; i < 90; i++ {
			now = time.Duration(i) * time.Second
			r.Resolve(Observation{ReadyState: 4}, DefaultConfig(), now)
		}
		for _, entries := range r.Snapshot().History {
			require.NotEmpty(t, entries)
			assert.Len(t, entries, 61)
			for _, e := range entries {
				assert.GreaterOrEqual(t, e.Timestamp, now-maxHistoryAge)
			}
		}
	})
}

func positions(entries []Entry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.Position
	}
	return out
}
