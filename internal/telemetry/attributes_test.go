// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestSessionAttributes(t *testing.T) {
	assert.Nil(t, SessionAttributes(""))
	m := attrMap(SessionAttributes("abc"))
	assert.Equal(t, "abc", m[SessionIDKey].AsString())
}

func TestPlaybackAttributes(t *testing.T) {
	m := attrMap(PlaybackAttributes(1, 12.5, 0.25, true))
	assert.Equal(t, int64(1), m[PlaybackReadyStateKey].AsInt64())
	assert.InDelta(t, 12.5, m[PlaybackPositionKey].AsFloat64(), 1e-9)
	assert.InDelta(t, 0.25, m[PlaybackBufferGapKey].AsFloat64(), 1e-9)
	assert.True(t, m[PlaybackFrozenKey].AsBool())
}

func TestResolutionAttributes(t *testing.T) {
	tests := []struct {
		name         string
		relativeSeek float64
		reps         []string
		wantLen      int
	}{
		{"reload", 0, nil, 2},
		{"flush", 0.001, nil, 3},
		{"deprecate", 0, []string{"v1", "v2"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := ResolutionAttributes(tt.name, "r", tt.relativeSeek, tt.reps)
			assert.Len(t, attrs, tt.wantLen)
			m := attrMap(attrs)
			assert.Equal(t, tt.name, m[ResolutionKindKey].AsString())
			if tt.reps != nil {
				assert.Equal(t, tt.reps, m[ResolutionRepresentationsKey].AsStringSlice())
			}
		})
	}
}

func TestInventoryAndErrorAttributes(t *testing.T) {
	m := attrMap(InventoryAttributes("video", 3))
	assert.Equal(t, "video", m[MediaTypeKey].AsString())
	assert.Equal(t, int64(3), m[MediaChunkCountKey].AsInt64())

	m = attrMap(ErrorAttributes(errors.New("boom"), "journal"))
	assert.True(t, m[ErrorKey].AsBool())
	assert.Equal(t, "journal", m[ErrorTypeKey].AsString())
}
