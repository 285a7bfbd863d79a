// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package inventory

import "math"

// Range is a contiguous buffered time span in seconds. End may be +Inf.
type Range struct {
	Start float64
	End   float64
}

// FullTimeline is returned when buffered bounds are unknown: the caller must
// then assume everything is buffered.
var FullTimeline = Range{Start: 0, End: math.Inf(1)}

// MergedRangesFor returns the buffered spans holding data from any of
// contents, in inventory order. Only chunks whose buffered bounds touch
// exactly are merged. If a matching chunk has unknown buffered bounds the
// result is the single FullTimeline range.
func MergedRangesFor(chunks []BufferedChunk, contents []ContentRef) []Range {
	if len(contents) == 0 {
		return []Range{}
	}
	ranges := []Range{}
	for _, chunk := range chunks {
		if !matchesAny(chunk.Infos, contents) {
			continue
		}
		if chunk.BufferedStart == nil || chunk.BufferedEnd == nil {
			return []Range{FullTimeline}
		}
		if n := len(ranges); n > 0 && ranges[n-1].End == *chunk.BufferedStart {
			ranges[n-1].End = *chunk.BufferedEnd
			continue
		}
		ranges = append(ranges, Range{Start: *chunk.BufferedStart, End: *chunk.BufferedEnd})
	}
	return ranges
}

func matchesAny(infos ChunkInfos, contents []ContentRef) bool {
	for _, c := range contents {
		if c.Period.ID == infos.Period.ID &&
			c.Adaptation.ID == infos.Adaptation.ID &&
			c.Representation.ID == infos.Representation.ID {
			return true
		}
	}
	return false
}
