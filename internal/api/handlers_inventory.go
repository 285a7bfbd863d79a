// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/unfreeze/internal/log"
	"github.com/ManuGH/unfreeze/internal/media/inventory"
	"github.com/ManuGH/unfreeze/internal/session"
	"github.com/ManuGH/unfreeze/internal/telemetry"
)

func (s *Server) sessionAndType(w http.ResponseWriter, r *http.Request) (*session.Session, inventory.MediaType, bool) {
	mt, ok := inventory.ParseMediaType(chi.URLParam(r, "type"))
	if !ok {
		writeProblem(w, r, http.StatusBadRequest, codeBadRequest, "media type must be audio or video")
		return nil, "", false
	}
	sess, err := s.sessions.Touch(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, r, err)
		return nil, "", false
	}
	return sess, mt, true
}

func validateChunk(c inventory.BufferedChunk) error {
	if c.End < c.Start {
		return fmt.Errorf("chunk end %g precedes start %g", c.End, c.Start)
	}
	if c.Infos.Representation.UniqueID == "" {
		return fmt.Errorf("chunk [%g, %g) has no representation uniqueId", c.Start, c.End)
	}
	return nil
}

func (s *Server) handlePutInventory(w http.ResponseWriter, r *http.Request) {
	sess, mt, ok := s.sessionAndType(w, r)
	if !ok {
		return
	}
	var req inventoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	store := sess.Inventory()
	switch req.Status {
	case inventory.StatusInitialized:
		for _, c := range req.Chunks {
			if err := validateChunk(c); err != nil {
				writeProblem(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
				return
			}
		}
		store.Replace(mt, req.Chunks)
	case inventory.StatusDisabled:
		store.Disable(mt)
	case inventory.StatusUninitialized:
		store.Reset(mt)
	default:
		writeProblem(w, r, http.StatusBadRequest, codeBadRequest,
			"status must be initialized, disabled or uninitialized")
		return
	}

	resp := inventoryResponse{Type: mt, Status: req.Status}
	if req.Status == inventory.StatusInitialized {
		resp.Chunks = len(req.Chunks)
	}
	trace.SpanFromContext(r.Context()).SetAttributes(telemetry.InventoryAttributes(string(mt), resp.Chunks)...)
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Debug().
		Str(log.FieldEvent, "inventory.updated").
		Str(log.FieldSessionID, sess.ID).
		Str("media_type", string(mt)).
		Str("status", string(req.Status)).
		Int("chunks", resp.Chunks).
		Msg("inventory updated")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInsertChunk(w http.ResponseWriter, r *http.Request) {
	sess, mt, ok := s.sessionAndType(w, r)
	if !ok {
		return
	}
	var chunk inventory.BufferedChunk
	if err := decodeJSON(w, r, &chunk); err != nil {
		writeProblem(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if err := validateChunk(chunk); err != nil {
		writeProblem(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	store := sess.Inventory()
	store.Insert(mt, chunk)

	st := store.Status(mt)
	resp := inventoryResponse{Type: mt, Status: st.Kind}
	if st.Initialized() {
		resp.Chunks = len(st.Chunks())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDecipherability(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Touch(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	var req decipherabilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if len(req.KeyIDs) == 0 || req.Decipherable == nil {
		writeProblem(w, r, http.StatusBadRequest, codeBadRequest, "keyIds and decipherable are required")
		return
	}
	n := sess.Inventory().SetDecipherable(req.KeyIDs, *req.Decipherable)
	writeJSON(w, http.StatusOK, decipherabilityResponse{Updated: n})
}
