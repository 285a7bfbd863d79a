// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"time"

	"github.com/ManuGH/unfreeze/internal/log"
)

// AccessLog logs one line per request. Probe and scrape endpoints log at debug.
func AccessLog() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(sw, r)

			logger := log.WithComponentFromContext(r.Context(), "http")
			evt := logger.Info()
			switch {
			case sw.statusCode >= 500:
				evt = logger.Error()
			case !shouldTrace(r):
				evt = logger.Debug()
			}
			evt.
				Str(log.FieldEvent, "http.request").
				Str("method", r.Method).
				Str(log.FieldPath, r.URL.Path).
				Str("route", routePattern(r)).
				Int("status", sw.statusCode).
				Int("bytes", sw.bytesWritten).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("request handled")
		})
	}
}
