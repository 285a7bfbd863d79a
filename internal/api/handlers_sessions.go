// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/unfreeze/internal/log"
	"github.com/ManuGH/unfreeze/internal/telemetry"
)

const (
	defaultJournalLimit = 100
	maxJournalLimit     = 1000
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	trace.SpanFromContext(r.Context()).SetAttributes(telemetry.SessionAttributes(sess.ID)...)
	w.Header().Set("Location", "/api/v1/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, createSessionResponse{ID: sess.ID})
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: s.sessions.List()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		writeSessionError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeProblem(w, r, http.StatusNotFound, codeJournalAbsent, "decision journal is not configured")
		return
	}
	id := chi.URLParam(r, "id")

	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeProblem(w, r, http.StatusBadRequest, codeBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxJournalLimit)
	}

	entries, err := s.journal.List(r.Context(), id, limit)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "journal.list_failed").
			Str(log.FieldSessionID, id).
			Msg("journal list failed")
		writeProblem(w, r, http.StatusServiceUnavailable, codeUnavailable, "journal unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
