// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/unfreeze/internal/media/inventory"
)

func (s *Server) handleObservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req observationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	obs, now, err := req.toObservation()
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	res, ok, err := s.sessions.Observe(r.Context(), id, obs, now)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	resp := observationResponse{}
	if ok {
		resp.Resolution = newResolutionDTO(res)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBufferedRanges(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Touch(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	var req rangesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	mt, ok := inventory.ParseMediaType(string(req.Type))
	if !ok {
		writeProblem(w, r, http.StatusBadRequest, codeBadRequest, "type must be audio or video")
		return
	}

	var chunks []inventory.BufferedChunk
	if st := sess.Inventory().Status(mt); st.Initialized() {
		chunks = st.Chunks()
	}
	ranges := inventory.MergedRangesFor(chunks, req.Contents)
	writeJSON(w, http.StatusOK, rangesResponse{Ranges: newRangeDTOs(ranges)})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(sess.State()))
}
