/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package timetable maps points in time to stations based on a weekly grid of
// slots. Construction fails when any weekday lacks coverage; lookups after a
// correct construction cannot miss unless the grid itself is inconsistent.
package timetable

import (
	"errors"
	"fmt"
	"time"

	"github.com/pycolore/sunflower/internal/station"
)

// ErrNoSlot signals an internal consistency failure: a lookup missed even
// though construction enforced full-day coverage.
var ErrNoSlot = errors.New("timetable: no slot found")

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM". "00:00" as a slot end means midnight of the
// following day.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("timetable: invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Slot assigns a station to a daily time range. A slot with End <= Start
// crosses midnight and continues into the following day.
type Slot struct {
	Start   TimeOfDay
	End     TimeOfDay
	Station station.Station
}

// ResolvedSlot is a slot anchored to a calendar day.
type ResolvedSlot struct {
	Start   time.Time
	End     time.Time
	Station station.Station
}

func resolve(s Slot, day time.Time) ResolvedSlot {
	year, month, dom := day.Date()
	midnight := time.Date(year, month, dom, 0, 0, 0, 0, day.Location())
	start := midnight.Add(time.Duration(s.Start) * time.Minute)
	end := midnight.Add(time.Duration(s.End) * time.Minute)
	if s.End <= s.Start {
		end = end.Add(24 * time.Hour)
	}
	return ResolvedSlot{Start: start, End: end, Station: s.Station}
}

// Timetable holds one ordered slot sequence per weekday.
type Timetable struct {
	days     [7][]Slot
	stations []station.Station
}

// New builds a timetable from per-weekday slot lists. Every weekday must be
// covered by at least one slot.
func New(days map[time.Weekday][]Slot) (*Timetable, error) {
	t := &Timetable{}
	seen := map[string]bool{}
	for weekday, slots := range days {
		t.days[weekday] = slots
		for _, slot := range slots {
			if slot.Station == nil {
				return nil, fmt.Errorf("timetable: slot %s-%s on %s has no station", slot.Start, slot.End, weekday)
			}
			if !seen[slot.Station.Name()] {
				seen[slot.Station.Name()] = true
				t.stations = append(t.stations, slot.Station)
			}
		}
	}
	for weekday := time.Sunday; weekday <= time.Saturday; weekday++ {
		if len(t.days[weekday]) == 0 {
			return nil, fmt.Errorf("timetable: missing coverage for %s", weekday)
		}
	}
	return t, nil
}

// Stations returns the distinct stations referenced by the timetable.
func (t *Timetable) Stations() []station.Station {
	return t.stations
}

// DaySlots resolves the slot list of dt's weekday against dt's date.
func (t *Timetable) DaySlots(dt time.Time) []ResolvedSlot {
	slots := t.days[dt.Weekday()]
	resolved := make([]ResolvedSlot, len(slots))
	for i, slot := range slots {
		resolved[i] = resolve(slot, dt)
	}
	return resolved
}

// SlotAt returns the resolved slot containing dt.
func (t *Timetable) SlotAt(dt time.Time) (ResolvedSlot, error) {
	for _, slot := range t.DaySlots(dt) {
		if !dt.Before(slot.Start) && dt.Before(slot.End) {
			return slot, nil
		}
	}
	return ResolvedSlot{}, fmt.Errorf("%w at %s", ErrNoSlot, dt)
}

// StationAt returns the station on air at dt.
func (t *Timetable) StationAt(dt time.Time) (station.Station, error) {
	slot, err := t.SlotAt(dt)
	if err != nil {
		return nil, err
	}
	return slot.Station, nil
}

// EndOfSlotAt returns the absolute time at which the slot containing dt ends.
func (t *Timetable) EndOfSlotAt(dt time.Time) (time.Time, error) {
	slot, err := t.SlotAt(dt)
	if err != nil {
		return time.Time{}, err
	}
	return slot.End, nil
}

// StationAfter returns the station scheduled to begin when the slot
// containing dt ends.
func (t *Timetable) StationAfter(dt time.Time) (station.Station, error) {
	end, err := t.EndOfSlotAt(dt)
	if err != nil {
		return nil, err
	}
	return t.StationAt(end)
}
