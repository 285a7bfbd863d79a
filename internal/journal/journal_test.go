// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package journal

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/unfreeze/internal/media/inventory"
)

func openTestStore(t *testing.T, retention int) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.sqlite"), retention)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 0)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	ref := inventory.ContentRef{
		Period:         inventory.Period{ID: "p0"},
		Adaptation:     inventory.Adaptation{ID: "a1", Type: inventory.MediaTypeVideo},
		Representation: inventory.Representation{ID: "v720", UniqueID: "u-v720", Bitrate: 3000000},
	}
	_, err := s.Append(ctx, Entry{SessionID: "s1", PlaybackTime: 6 * time.Second, Kind: "flush", Reason: "flush_seek_delay", RelativeSeek: 0.001})
	require.NoError(t, err)
	_, err = s.Append(ctx, Entry{SessionID: "s2", PlaybackTime: time.Second, Kind: "reload", Reason: "reload_starting"})
	require.NoError(t, err)
	id, err := s.Append(ctx, Entry{SessionID: "s1", PlaybackTime: 9500 * time.Millisecond, Kind: "deprecate-representations", Reason: "deprecate_culprit", Representations: []inventory.ContentRef{ref}})
	require.NoError(t, err)

	entries, err := s.List(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "deprecate-representations", entries[0].Kind)
	assert.Equal(t, []inventory.ContentRef{ref}, entries[0].Representations)
	assert.Equal(t, 9500*time.Millisecond, entries[0].PlaybackTime)
	assert.True(t, entries[0].Recorded.Equal(s.now()))

	assert.Equal(t, "flush", entries[1].Kind)
	assert.InDelta(t, 0.001, entries[1].RelativeSeek, 1e-12)
	assert.Nil(t, entries[1].Representations)

	limited, err := s.List(ctx, "s1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := s.List(ctx, "unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAppend_RejectsUnknownKind(t *testing.T) {
	s := openTestStore(t, 0)
	_, err := s.Append(context.Background(), Entry{SessionID: "s1", Kind: "rewind", Reason: "x"})
	assert.Error(t, err)
}

func TestAppend_PrunesBeyondRetention(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 3)
	for i := 0; i < 5; i++ {
		_, err := s.Append(ctx, Entry{SessionID: "s1", PlaybackTime: time.Duration(i) * time.Second, Kind: "flush", Reason: "flush_seek_delay"})
		require.NoError(t, err)
	}

	entries, err := s.List(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 4*time.Second, entries[0].PlaybackTime)
	assert.Equal(t, 2*time.Second, entries[2].PlaybackTime)
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.sqlite")

	s, err := Open(ctx, path, 0)
	require.NoError(t, err)
	_, err = s.Append(ctx, Entry{SessionID: "s1", Kind: "reload", Reason: "reload_undecipherable"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, 0)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	entries, err := s.List(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "reload_undecipherable", entries[0].Reason)
	assert.NoError(t, s.Check(ctx))
}

func TestClosedStore(t *testing.T) {
	s := openTestStore(t, 0)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Append(context.Background(), Entry{SessionID: "s1", Kind: "flush"})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.List(context.Background(), "s1", 0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Check(context.Background()), ErrClosed)
}

func TestEntryJSON(t *testing.T) {
	b, err := json.Marshal(Entry{ID: 1, SessionID: "s1", PlaybackTime: 1500 * time.Millisecond, Kind: "flush", Reason: "flush_seek_delay", RelativeSeek: 0.001})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, float64(1500), decoded["playbackTimeMs"])
	assert.Equal(t, "flush", decoded["kind"])
	assert.NotContains(t, decoded, "representations")
}
