// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package freeze

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func gap(v float64) *float64 { return &v }

func TestIsFrozen(t *testing.T) {
	t.Parallel()

	rebuf := &Event{Timestamp: 0}
	tests := []struct {
		name string
		obs  Observation
		want bool
	}{
		{name: "idle", obs: Observation{ReadyState: 4}, want: false},
		{name: "freezing always counts", obs: Observation{ReadyState: 4, Freezing: &Event{}}, want: true},
		{name: "rebuffering with ample buffer at metadata level", obs: Observation{ReadyState: 1, Rebuffering: rebuf, BufferGap: gap(6)}, want: true},
		{name: "rebuffering fully loaded", obs: Observation{ReadyState: 1, Rebuffering: rebuf, FullyLoaded: true}, want: true},
		{name: "rebuffering starved", obs: Observation{ReadyState: 1, Rebuffering: rebuf, BufferGap: gap(5.99)}, want: false},
		{name: "rebuffering at higher readiness", obs: Observation{ReadyState: 2, Rebuffering: rebuf, BufferGap: gap(30)}, want: false},
		{name: "rebuffering with nothing loaded", obs: Observation{ReadyState: 0, Rebuffering: rebuf, FullyLoaded: true}, want: false},
		{name: "unknown gap is zero", obs: Observation{ReadyState: 1, Rebuffering: rebuf}, want: false},
		{name: "infinite gap is zero", obs: Observation{ReadyState: 1, Rebuffering: rebuf, BufferGap: gap(math.Inf(1))}, want: false},
		{name: "NaN gap is zero", obs: Observation{ReadyState: 1, Rebuffering: rebuf, BufferGap: gap(math.NaN())}, want: false},
		{name: "ample buffer without rebuffering", obs: Observation{ReadyState: 1, BufferGap: gap(20)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsFrozen(tt.obs))
		})
	}
}
