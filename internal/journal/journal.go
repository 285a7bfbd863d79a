// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

// Package journal persists emitted freeze resolutions in SQLite so operators
// can audit what the resolver decided for a session.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/unfreeze/internal/log"
	"github.com/ManuGH/unfreeze/internal/media/inventory"
	"github.com/ManuGH/unfreeze/internal/persistence/sqlite"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 100

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("journal closed")

// Entry is one recorded resolution.
type Entry struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Recorded  time.Time `json:"recorded"`
	// PlaybackTime is the monotonic playback timestamp the resolution was emitted at.
	PlaybackTime    time.Duration          `json:"playbackTimeMs"`
	Kind            string                 `json:"kind"`
	Reason          string                 `json:"reason"`
	RelativeSeek    float64                `json:"relativeSeek,omitempty"`
	Representations []inventory.ContentRef `json:"representations,omitempty"`
}

// MarshalJSON renders PlaybackTime in milliseconds.
func (e Entry) MarshalJSON() ([]byte, error) {
	type alias Entry
	return json.Marshal(struct {
		alias
		PlaybackTime int64 `json:"playbackTimeMs"`
	}{alias: alias(e), PlaybackTime: e.PlaybackTime.Milliseconds()})
}

// Store is the SQLite-backed resolution journal.
type Store struct {
	mu        sync.RWMutex
	db        *sql.DB
	retention int
	logger    zerolog.Logger
	now       func() time.Time
}

// Open opens (or creates) the journal at path. retention bounds the number of
// rows kept; older rows are pruned on Append. A non-positive retention keeps everything.
func Open(ctx context.Context, path string, retention int) (*Store, error) {
	db, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	s := &Store{
		db:        db,
		retention: retention,
		logger:    xglog.WithComponent("journal"),
		now:       time.Now,
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS resolutions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		recorded TEXT NOT NULL,
		playback_ms INTEGER NOT NULL,
		kind TEXT NOT NULL CHECK(kind IN ('flush', 'reload', 'deprecate-representations')),
		reason TEXT NOT NULL,
		relative_seek REAL NOT NULL DEFAULT 0,
		representations TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_resolutions_session ON resolutions(session_id, id);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Append stores e and prunes rows beyond the retention limit.
func (s *Store) Append(ctx context.Context, e Entry) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return 0, ErrClosed
	}
	recorded := e.Recorded
	if recorded.IsZero() {
		recorded = s.now()
	}

	var reps sql.NullString
	if len(e.Representations) > 0 {
		b, err := json.Marshal(e.Representations)
		if err != nil {
			return 0, fmt.Errorf("encode representations: %w", err)
		}
		reps = sql.NullString{String: string(b), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
	INSERT INTO resolutions (session_id, recorded, playback_ms, kind, reason, relative_seek, representations)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.SessionID, recorded.UTC().Format(time.RFC3339Nano), e.PlaybackTime.Milliseconds(),
		e.Kind, e.Reason, e.RelativeSeek, reps)
	if err != nil {
		return 0, fmt.Errorf("insert resolution: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if s.retention > 0 {
		pruned, err := s.db.ExecContext(ctx, `DELETE FROM resolutions WHERE id <= ?`, id-int64(s.retention))
		if err != nil {
			return id, fmt.Errorf("prune journal: %w", err)
		}
		if n, _ := pruned.RowsAffected(); n > 0 {
			s.logger.Debug().Int64("pruned", n).Msg("journal pruned")
		}
	}
	return id, nil
}

// List returns up to limit entries for sessionID, newest first.
func (s *Store) List(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, session_id, recorded, playback_ms, kind, reason, relative_seek, representations
	FROM resolutions
	WHERE session_id = ?
	ORDER BY id DESC
	LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e          Entry
			recorded   string
			playbackMS int64
			reps       sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &recorded, &playbackMS, &e.Kind, &e.Reason, &e.RelativeSeek, &reps); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, recorded); err == nil {
			e.Recorded = t
		}
		e.PlaybackTime = time.Duration(playbackMS) * time.Millisecond
		if reps.Valid {
			if err := json.Unmarshal([]byte(reps.String), &e.Representations); err != nil {
				return nil, fmt.Errorf("decode representations: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Check verifies the database is reachable and structurally sound.
func (s *Store) Check(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	issues, err := sqlite.VerifyIntegrity(ctx, s.db, false)
	if err != nil {
		return err
	}
	if len(issues) > 0 {
		return fmt.Errorf("journal integrity: %v", issues)
	}
	return nil
}

// Close closes the database. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
