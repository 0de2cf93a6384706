/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package station defines the capability every broadcast source exposes to
// channels and the scheduler, regardless of whether the source is a relayed
// external stream or an internally managed playlist.
package station

import (
	"context"
	"strings"
	"time"

	"github.com/pycolore/sunflower/internal/broadcast"
)

// Env carries the timetable context of the calling channel. Stations use it
// to announce hand-offs and to bound steps to the end of the current slot.
type Env struct {
	ChannelID       string
	SlotEnd         time.Time
	NextStationName string
	// OnAir reports whether the station being called is the one currently
	// scheduled on the calling channel.
	OnAir bool
}

// Station is the fixed method set shared by every station kind. Implementations
// never return errors from the step methods: transient upstream failures
// degrade to an Error broadcast with a short forced re-check window.
type Station interface {
	Name() string
	Info() broadcast.StationInfo
	Thumbnail() string

	// LongPoll reports whether the upstream API lacks reliable end-of-segment
	// timestamps, requiring fixed-interval re-polling.
	LongPoll() bool

	// CurrentStep resolves the broadcast airing at now. ShouldNotify is true
	// iff the broadcast differs by value from the previously returned one.
	CurrentStep(ctx context.Context, now time.Time, env Env) broadcast.UpdateInfo

	// NextStep forecasts what airs after the current step. Best effort: on
	// upstream failure it returns an empty step spanning a short retry window.
	NextStep(ctx context.Context, now time.Time, env Env) broadcast.Step

	// Schedule enumerates the steps airing between start and end. Listings
	// only, never the live path; idempotent for identical upstream data.
	Schedule(ctx context.Context, start, end time.Time) []broadcast.Step

	// StreamMetadata maps a broadcast to audio-engine tag fields. A nil
	// return means the engine is left untouched.
	StreamMetadata(b broadcast.Broadcast) *broadcast.StreamMetadata

	// LiquidsoapConfig returns the source definition block for this station
	// in the generated audio-engine configuration.
	LiquidsoapConfig() string
}

// Usage tells a processed station which channels currently air it and which
// will air it within the anticipation window.
type Usage struct {
	Active   []string
	Upcoming []string
}

// Snapshot is a station-owned value persisted by the scheduler under the
// station's key namespace.
type Snapshot struct {
	Field string
	Value any
}

// Processor is implemented by stations holding internal state that must be
// advanced once per scheduler tick, before any channel reads derived values.
type Processor interface {
	Station
	ID() string
	Process(ctx context.Context, now time.Time, usage Usage) []Snapshot
}

// FormatName lowercases a station name and strips spaces, yielding the
// identifier used in audio-engine variables ("France Inter" -> "franceinter").
func FormatName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "")
}
