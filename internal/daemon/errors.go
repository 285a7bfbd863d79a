// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package daemon

import "errors"

var (
	// ErrMissingHandler is returned when a server is created without a handler.
	ErrMissingHandler = errors.New("HTTP handler is required")

	// ErrMissingServer is returned when an app is created without a server.
	ErrMissingServer = errors.New("server is required")

	// ErrMissingSessions is returned when an app is created without a session manager.
	ErrMissingSessions = errors.New("session manager is required")
)
