// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the service.
const (
	// Session attributes
	SessionIDKey = "session.id"

	// Playback attributes
	PlaybackReadyStateKey = "playback.ready_state"
	PlaybackPositionKey   = "playback.position"
	PlaybackBufferGapKey  = "playback.buffer_gap"
	PlaybackFrozenKey     = "playback.frozen"

	// Resolution attributes
	ResolutionKindKey            = "resolution.kind"
	ResolutionReasonKey          = "resolution.reason"
	ResolutionRelativeSeekKey    = "resolution.relative_seek"
	ResolutionRepresentationsKey = "resolution.representations"

	// Inventory attributes
	MediaTypeKey       = "media.type"
	MediaChunkCountKey = "media.chunk_count"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// SessionAttributes creates session span attributes.
func SessionAttributes(sessionID string) []attribute.KeyValue {
	if sessionID == "" {
		return nil
	}
	return []attribute.KeyValue{attribute.String(SessionIDKey, sessionID)}
}

// PlaybackAttributes creates attributes describing one observation.
func PlaybackAttributes(readyState int, position, bufferGap float64, frozen bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(PlaybackReadyStateKey, readyState),
		attribute.Float64(PlaybackPositionKey, position),
		attribute.Float64(PlaybackBufferGapKey, bufferGap),
		attribute.Bool(PlaybackFrozenKey, frozen),
	}
}

// ResolutionAttributes creates attributes for an emitted resolution.
// Zero-valued optional fields are omitted.
func ResolutionAttributes(kind, reason string, relativeSeek float64, representations []string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	attrs = append(attrs,
		attribute.String(ResolutionKindKey, kind),
		attribute.String(ResolutionReasonKey, reason),
	)
	if relativeSeek != 0 {
		attrs = append(attrs, attribute.Float64(ResolutionRelativeSeekKey, relativeSeek))
	}
	if len(representations) > 0 {
		attrs = append(attrs, attribute.StringSlice(ResolutionRepresentationsKey, representations))
	}
	return attrs
}

// InventoryAttributes creates attributes for an inventory update.
func InventoryAttributes(mediaType string, chunks int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(MediaTypeKey, mediaType),
		attribute.Int(MediaChunkCountKey, chunks),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
