// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package freeze

import "math"

// minimumRecoveryBuffer is the buffer ahead, in seconds, above which a stall
// cannot be explained by starvation.
const minimumRecoveryBuffer = 6

// haveMetadata is the readiness level at which the pipeline knows the media
// but holds no decodable frame for the current position.
const haveMetadata = 1

// IsFrozen reports whether the observation describes an abnormal stall:
// either an explicit freeze, or rebuffering at the metadata-only readiness
// level while enough data is buffered (or the content is fully loaded).
func IsFrozen(obs Observation) bool {
	if obs.Freezing != nil {
		return true
	}
	return obs.Rebuffering != nil &&
		obs.ReadyState == haveMetadata &&
		(bufferGap(obs) >= minimumRecoveryBuffer || obs.FullyLoaded)
}

// bufferGap treats unknown and non-finite gaps as no buffer at all.
func bufferGap(obs Observation) float64 {
	if obs.BufferGap == nil {
		return 0
	}
	gap := *obs.BufferGap
	if math.IsNaN(gap) || math.IsInf(gap, 0) {
		return 0
	}
	return gap
}

func hasInsufficientBuffer(obs Observation) bool {
	return bufferGap(obs) < minimumRecoveryBuffer && !obs.FullyLoaded
}
