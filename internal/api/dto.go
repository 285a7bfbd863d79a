// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"math"
	"time"

	"github.com/ManuGH/unfreeze/internal/media/freeze"
	"github.com/ManuGH/unfreeze/internal/media/inventory"
	"github.com/ManuGH/unfreeze/internal/session"
)

// Timestamps on the wire are milliseconds on the session's monotonic
// playback clock; positions and gaps are seconds.

type createSessionResponse struct {
	ID string `json:"id"`
}

type listSessionsResponse struct {
	Sessions []session.Info `json:"sessions"`
}

type inventoryRequest struct {
	Status inventory.StatusKind      `json:"status"`
	Chunks []inventory.BufferedChunk `json:"chunks"`
}

type inventoryResponse struct {
	Type   inventory.MediaType  `json:"type"`
	Status inventory.StatusKind `json:"status"`
	Chunks int                  `json:"chunks"`
}

type decipherabilityRequest struct {
	KeyIDs       []string `json:"keyIds"`
	Decipherable *bool    `json:"decipherable"`
}

type decipherabilityResponse struct {
	Updated int `json:"updated"`
}

type eventDTO struct {
	Timestamp float64 `json:"timestamp"`
}

type positionDTO struct {
	Polled         float64 `json:"polled"`
	AwaitingFuture bool    `json:"awaitingFuture"`
}

type observationRequest struct {
	Now         float64     `json:"now"`
	ReadyState  int         `json:"readyState"`
	Rebuffering *eventDTO   `json:"rebuffering"`
	Freezing    *eventDTO   `json:"freezing"`
	BufferGap   *float64    `json:"bufferGap"`
	FullyLoaded bool        `json:"fullyLoaded"`
	Position    positionDTO `json:"position"`
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// maxMillis bounds (exclusive) the millisecond values a time.Duration can hold.
const maxMillis = math.MaxInt64 / float64(time.Millisecond)

func validTimestamp(name string, ms float64) error {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		return fmt.Errorf("%s must be a finite non-negative number of milliseconds", name)
	}
	if ms >= maxMillis {
		return fmt.Errorf("%s exceeds %.0f milliseconds", name, maxMillis)
	}
	return nil
}

func (o observationRequest) toObservation() (freeze.Observation, time.Duration, error) {
	if err := validTimestamp("now", o.Now); err != nil {
		return freeze.Observation{}, 0, err
	}
	obs := freeze.Observation{
		ReadyState:  o.ReadyState,
		BufferGap:   o.BufferGap,
		FullyLoaded: o.FullyLoaded,
		Position: freeze.Position{
			Polled:         o.Position.Polled,
			AwaitingFuture: o.Position.AwaitingFuture,
		},
	}
	if o.Rebuffering != nil {
		if err := validTimestamp("rebuffering.timestamp", o.Rebuffering.Timestamp); err != nil {
			return freeze.Observation{}, 0, err
		}
		obs.Rebuffering = &freeze.Event{Timestamp: millis(o.Rebuffering.Timestamp)}
	}
	if o.Freezing != nil {
		if err := validTimestamp("freezing.timestamp", o.Freezing.Timestamp); err != nil {
			return freeze.Observation{}, 0, err
		}
		obs.Freezing = &freeze.Event{Timestamp: millis(o.Freezing.Timestamp)}
	}
	return obs, millis(o.Now), nil
}

type resolutionDTO struct {
	Kind            freeze.Kind            `json:"kind"`
	Reason          freeze.Reason          `json:"reason"`
	RelativeSeek    *float64               `json:"relativeSeek,omitempty"`
	Representations []inventory.ContentRef `json:"representations,omitempty"`
	Summary         string                 `json:"summary"`
}

type observationResponse struct {
	Resolution *resolutionDTO `json:"resolution"`
}

func newResolutionDTO(res freeze.Resolution) *resolutionDTO {
	dto := &resolutionDTO{
		Kind:    res.Kind,
		Reason:  res.Reason,
		Summary: res.String(),
	}
	switch res.Kind {
	case freeze.KindFlush:
		seek := res.RelativeSeek
		dto.RelativeSeek = &seek
	case freeze.KindDeprecateRepresentations:
		dto.Representations = res.Representations
	}
	return dto
}

type rangesRequest struct {
	Type     inventory.MediaType    `json:"type"`
	Contents []inventory.ContentRef `json:"contents"`
}

// rangeDTO renders an unbounded end as null.
type rangeDTO struct {
	Start float64  `json:"start"`
	End   *float64 `json:"end"`
}

type rangesResponse struct {
	Ranges []rangeDTO `json:"ranges"`
}

func newRangeDTOs(ranges []inventory.Range) []rangeDTO {
	out := make([]rangeDTO, 0, len(ranges))
	for _, rg := range ranges {
		dto := rangeDTO{Start: rg.Start}
		if !math.IsInf(rg.End, 1) {
			end := rg.End
			dto.End = &end
		}
		out = append(out, dto)
	}
	return out
}

type historyEntryDTO struct {
	Segment   *inventory.BufferedChunk `json:"segment"`
	Position  float64                  `json:"position"`
	Timestamp float64                  `json:"timestamp"`
}

type flushAttemptDTO struct {
	Timestamp float64 `json:"timestamp"`
	Position  float64 `json:"position"`
}

type stateResponse struct {
	History      map[inventory.MediaType][]historyEntryDTO `json:"history"`
	LastFlush    *flushAttemptDTO                          `json:"lastFlush"`
	SuspectSince *float64                                  `json:"suspectSince"`
}

func newStateResponse(st freeze.State) stateResponse {
	resp := stateResponse{History: make(map[inventory.MediaType][]historyEntryDTO, len(st.History))}
	for mt, entries := range st.History {
		out := make([]historyEntryDTO, 0, len(entries))
		for _, e := range entries {
			out = append(out, historyEntryDTO{Segment: e.Segment, Position: e.Position, Timestamp: toMillis(e.Timestamp)})
		}
		resp.History[mt] = out
	}
	if st.LastFlush != nil {
		resp.LastFlush = &flushAttemptDTO{Timestamp: toMillis(st.LastFlush.Timestamp), Position: st.LastFlush.Position}
	}
	if st.SuspectSince != nil {
		since := toMillis(*st.SuspectSince)
		resp.SuspectSince = &since
	}
	return resp
}
