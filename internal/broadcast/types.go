/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package broadcast

import "fmt"

// Type classifies what a station is currently airing.
type Type string

const (
	TypeMusic          Type = "Track"
	TypeProgramme      Type = "Programme"
	TypeNone           Type = ""
	TypeAds            Type = "Ads"
	TypeError          Type = "Error"
	TypeWaitingForNext Type = "Transition"
)

// StationInfo identifies a station for display and equality checks.
type StationInfo struct {
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
}

// StreamMetadata carries the tag fields forwarded to the audio engine.
type StreamMetadata struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`
}

// Song is one entry of a locally managed playlist.
type Song struct {
	Path   string  `json:"path"`
	Artist string  `json:"artist"`
	Album  string  `json:"album"`
	Title  string  `json:"title"`
	Length float64 `json:"length"`
}

// Broadcast describes what is playing, independent of time bounds.
type Broadcast struct {
	Title           string          `json:"title"`
	Type            Type            `json:"type"`
	Station         StationInfo     `json:"station"`
	Thumbnail       string          `json:"thumbnail_src"`
	Link            string          `json:"link,omitempty"`
	ShowTitle       string          `json:"show_title,omitempty"`
	ShowLink        string          `json:"show_link,omitempty"`
	Summary         string          `json:"summary,omitempty"`
	ParentShowTitle string          `json:"parent_show_title,omitempty"`
	ParentShowLink  string          `json:"parent_show_link,omitempty"`
	Metadata        *StreamMetadata `json:"metadata,omitempty"`
}

// Equal reports value equality, including the optional stream metadata.
func (b Broadcast) Equal(other Broadcast) bool {
	bm, om := b.Metadata, other.Metadata
	b.Metadata, other.Metadata = nil, nil
	if b != other {
		return false
	}
	if (bm == nil) != (om == nil) {
		return false
	}
	return bm == nil || *bm == *om
}

// WaitingForNext builds the transition broadcast announcing the next station.
func WaitingForNext(station StationInfo, thumbnail, nextStationName string) Broadcast {
	return Broadcast{
		Title:     fmt.Sprintf("Dans un instant : %s.", nextStationName),
		Type:      TypeWaitingForNext,
		Station:   station,
		Thumbnail: thumbnail,
	}
}

// Ads builds the advertising broadcast for a station.
func Ads(station StationInfo, thumbnail string) Broadcast {
	return Broadcast{
		Title:     "Publicité",
		Type:      TypeAds,
		Station:   station,
		Thumbnail: thumbnail,
	}
}

// Empty builds the neutral broadcast shown when a station has no metadata.
func Empty(station StationInfo, slogan, thumbnail string) Broadcast {
	return Broadcast{
		Title:     slogan,
		Type:      TypeNone,
		Station:   station,
		Thumbnail: thumbnail,
	}
}

// Error builds the degraded broadcast used when an upstream fetch failed.
func Error(station StationInfo, thumbnail, message string) Broadcast {
	return Broadcast{
		Title:     message,
		Type:      TypeError,
		Station:   station,
		Thumbnail: thumbnail,
	}
}

// None is the zero-value broadcast of an empty step.
func None() Broadcast {
	return Broadcast{Type: TypeNone}
}

// Step is a time-bounded occurrence of a Broadcast. Start and End are Unix
// seconds; an empty step has Start == End.
type Step struct {
	Start     int64     `json:"start"`
	End       int64     `json:"end"`
	Broadcast Broadcast `json:"broadcast"`
}

// NoneStep returns the empty step.
func NoneStep() Step {
	return Step{Broadcast: None()}
}

// EmptyUntil returns a neutral step spanning [start, end).
func EmptyUntil(start, end int64, station StationInfo, slogan, thumbnail string) Step {
	return Step{Start: start, End: end, Broadcast: Empty(station, slogan, thumbnail)}
}

// ErrorStep returns a degraded step forcing a re-check after retryWindow seconds.
func ErrorStep(start int64, retryWindow int64, station StationInfo, thumbnail, message string) Step {
	return Step{Start: start, End: start + retryWindow, Broadcast: Error(station, thumbnail, message)}
}

// IsNone reports whether the step carries no broadcast at all.
func (s Step) IsNone() bool {
	return s.Broadcast.Equal(None())
}

// UpdateInfo bundles a resolved step with the station's change signal.
type UpdateInfo struct {
	ShouldNotify bool
	Step         Step
}
