// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

// Package inventory models the buffered-chunk inventory that a playback
// pipeline keeps per media type, and the read-only provider contract the
// freeze engine consumes.
package inventory

import "strings"

// MediaType identifies a buffer kind tracked by the inventory.
type MediaType string

const (
	MediaTypeAudio MediaType = "audio"
	MediaTypeVideo MediaType = "video"
)

// MediaTypes lists the tracked buffer kinds in their canonical order.
var MediaTypes = []MediaType{MediaTypeAudio, MediaTypeVideo}

// ParseMediaType normalizes s into a known MediaType.
func ParseMediaType(s string) (MediaType, bool) {
	switch MediaType(strings.ToLower(strings.TrimSpace(s))) {
	case MediaTypeAudio:
		return MediaTypeAudio, true
	case MediaTypeVideo:
		return MediaTypeVideo, true
	default:
		return "", false
	}
}

// Period is a timeline segment of the overall content.
type Period struct {
	ID    string  `json:"id"`
	Start float64 `json:"start"`
}

// Adaptation is one track, e.g. "audio-en".
type Adaptation struct {
	ID       string    `json:"id"`
	Type     MediaType `json:"type,omitempty"`
	Language string    `json:"language,omitempty"`
}

// ContentProtection describes one DRM system protecting a representation.
type ContentProtection struct {
	SystemID string   `json:"systemId,omitempty"`
	KeyIDs   []string `json:"keyIds,omitempty"`
}

// Representation is one encoded quality variant of a track.
// UniqueID is stable across manifest refreshes, unlike ID.
type Representation struct {
	ID                 string              `json:"id"`
	UniqueID           string              `json:"uniqueId"`
	Bitrate            int64               `json:"bitrate"`
	Codec              string              `json:"codec,omitempty"`
	Decipherable       *bool               `json:"decipherable,omitempty"`
	ContentProtections []ContentProtection `json:"contentProtections,omitempty"`
}

// Encrypted reports whether the representation carries protection metadata.
func (r Representation) Encrypted() bool {
	return len(r.ContentProtections) > 0
}

// IsUndecipherable reports an explicit "cannot decode" verdict.
func (r Representation) IsUndecipherable() bool {
	return r.Decipherable != nil && !*r.Decipherable
}

// IsDecipherable reports an explicit "can decode" verdict.
func (r Representation) IsDecipherable() bool {
	return r.Decipherable != nil && *r.Decipherable
}

func (r Representation) hasKeyID(keyIDs map[string]struct{}) bool {
	for _, cp := range r.ContentProtections {
		for _, kid := range cp.KeyIDs {
			if _, ok := keyIDs[normalizeKeyID(kid)]; ok {
				return true
			}
		}
	}
	return false
}

// ChunkInfos identifies the track a buffered chunk came from.
type ChunkInfos struct {
	Period         Period         `json:"period"`
	Adaptation     Adaptation     `json:"adaptation"`
	Representation Representation `json:"representation"`
}

// BufferedChunk is one inventory entry. Start and End are the segment's
// declared bounds; BufferedStart and BufferedEnd are the bounds actually
// observed in the media buffer, nil while unknown.
type BufferedChunk struct {
	Start         float64    `json:"start"`
	End           float64    `json:"end"`
	BufferedStart *float64   `json:"bufferedStart,omitempty"`
	BufferedEnd   *float64   `json:"bufferedEnd,omitempty"`
	Infos         ChunkInfos `json:"infos"`
}

// Covers reports whether position lies in [Start, End).
func (c BufferedChunk) Covers(position float64) bool {
	return c.Start <= position && c.End > position
}

// ContentRef names a (period, adaptation, representation) triple.
type ContentRef struct {
	Period         Period         `json:"period"`
	Adaptation     Adaptation     `json:"adaptation"`
	Representation Representation `json:"representation"`
}

// Ref returns the content triple the chunk belongs to.
func (c BufferedChunk) Ref() ContentRef {
	return ContentRef{
		Period:         c.Infos.Period,
		Adaptation:     c.Infos.Adaptation,
		Representation: c.Infos.Representation,
	}
}

// StatusKind is the lifecycle state of one media type's buffer.
type StatusKind string

const (
	StatusUninitialized StatusKind = "uninitialized"
	StatusInitialized   StatusKind = "initialized"
	StatusDisabled      StatusKind = "disabled"
)

// Status is a point-in-time view of one media type's buffer.
// Chunks is only set when Kind is StatusInitialized.
type Status struct {
	Kind   StatusKind
	Chunks func() []BufferedChunk
}

// Initialized reports whether the status exposes an inventory.
func (s Status) Initialized() bool {
	return s.Kind == StatusInitialized && s.Chunks != nil
}

// Provider exposes per media type inventory status. Implementations may be
// mutated by other writers between calls.
type Provider interface {
	Status(t MediaType) Status
}
