// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

// Package api exposes the session-scoped freeze resolution service over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/unfreeze/internal/api/middleware"
	"github.com/ManuGH/unfreeze/internal/health"
	"github.com/ManuGH/unfreeze/internal/journal"
	"github.com/ManuGH/unfreeze/internal/session"
)

// JournalReader lists recorded resolutions for a session.
type JournalReader interface {
	List(ctx context.Context, sessionID string, limit int) ([]journal.Entry, error)
}

// Deps are the collaborators the Server routes requests to.
// Journal may be nil when no journal is configured.
type Deps struct {
	Sessions *session.Manager
	Health   *health.Manager
	Journal  JournalReader
}

// Server routes the HTTP API.
type Server struct {
	sessions *session.Manager
	health   *health.Manager
	journal  JournalReader
	router   chi.Router
}

// New builds a Server with the middleware stack from stack.
func New(deps Deps, stack middleware.StackConfig) *Server {
	s := &Server{
		sessions: deps.Sessions,
		health:   deps.Health,
		journal:  deps.Journal,
	}
	s.router = s.routes(stack)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes(stack middleware.StackConfig) chi.Router {
	r := middleware.NewRouter(stack)

	if s.health != nil {
		r.Get("/healthz", s.health.ServeHealth)
		r.Get("/readyz", s.health.ServeReady)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Put("/inventory/{type}", s.handlePutInventory)
			r.Post("/inventory/{type}/chunks", s.handleInsertChunk)
			r.Post("/decipherability", s.handleDecipherability)
			r.Post("/observations", s.handleObservation)
			r.Post("/buffered-ranges", s.handleBufferedRanges)
			r.Get("/state", s.handleState)
			r.Get("/journal", s.handleJournal)
		})
	})
	return r
}
