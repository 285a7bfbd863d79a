// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package api

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservationRequest_Timestamps(t *testing.T) {
	tests := []struct {
		name    string
		req     observationRequest
		wantErr bool
		wantNow time.Duration
	}{
		{name: "zero", req: observationRequest{Now: 0}},
		{name: "one day", req: observationRequest{Now: 86_400_000}, wantNow: 24 * time.Hour},
		{name: "largest whole second below bound", req: observationRequest{Now: 9_223_372_036_000}, wantNow: 9_223_372_036 * time.Second},
		{name: "negative", req: observationRequest{Now: -1}, wantErr: true},
		{name: "nan", req: observationRequest{Now: math.NaN()}, wantErr: true},
		{name: "overflowing now", req: observationRequest{Now: 1e13}, wantErr: true},
		{name: "bound itself", req: observationRequest{Now: maxMillis}, wantErr: true},
		{name: "overflowing freezing", req: observationRequest{Now: 1, Freezing: &eventDTO{Timestamp: 1e13}}, wantErr: true},
		{name: "overflowing rebuffering", req: observationRequest{Now: 1, Rebuffering: &eventDTO{Timestamp: 1e16}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, now, err := tt.req.toObservation()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNow, now)
			assert.GreaterOrEqual(t, now, time.Duration(0))
		})
	}
}
