// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID     = "session_id"
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldTraceID       = "trace_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Playback fields
	FieldMediaType      = "media_type"
	FieldPosition       = "position"
	FieldReadyState     = "ready_state"
	FieldBufferGap      = "buffer_gap"
	FieldResolution     = "resolution"
	FieldReason         = "reason"
	FieldRelativeSeek   = "relative_seek"
	FieldRepresentation = "representation"
	FieldPeriod         = "period"

	// Config fields
	FieldPath = "path"
)
