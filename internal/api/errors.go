// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ManuGH/unfreeze/internal/log"
	"github.com/ManuGH/unfreeze/internal/session"
)

const maxBodyBytes = 4 << 20

// Error codes used in problem bodies.
const (
	codeBadRequest    = "bad_request"
	codeNotFound      = "not_found"
	codeLimitReached  = "session_limit_reached"
	codeConflict      = "conflict"
	codeInternal      = "internal_error"
	codeUnavailable   = "unavailable"
	codeJournalAbsent = "journal_disabled"
)

type problem struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem writes an error body {"error": code, "detail": msg}.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	writeJSON(w, status, problem{
		Error:     code,
		Detail:    detail,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

// writeSessionError maps session package errors onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeProblem(w, r, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, session.ErrLimitReached):
		writeProblem(w, r, http.StatusTooManyRequests, codeLimitReached, err.Error())
	case errors.Is(err, session.ErrTimeRegression):
		writeProblem(w, r, http.StatusConflict, codeConflict, err.Error())
	default:
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "api.internal_error").
			Msg("request failed")
		writeProblem(w, r, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

// decodeJSON strictly decodes a single JSON document from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON document")
	}
	return nil
}
