/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package timetable

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pycolore/sunflower/internal/broadcast"
	"github.com/pycolore/sunflower/internal/station"
)

type stubStation struct {
	name string
}

func (s stubStation) Name() string                 { return s.name }
func (s stubStation) Info() broadcast.StationInfo  { return broadcast.StationInfo{Name: s.name} }
func (s stubStation) Thumbnail() string            { return "" }
func (s stubStation) LongPoll() bool               { return false }
func (s stubStation) LiquidsoapConfig() string     { return "" }
func (s stubStation) StreamMetadata(b broadcast.Broadcast) *broadcast.StreamMetadata {
	return nil
}
func (s stubStation) CurrentStep(ctx context.Context, now time.Time, env station.Env) broadcast.UpdateInfo {
	return broadcast.UpdateInfo{}
}
func (s stubStation) NextStep(ctx context.Context, now time.Time, env station.Env) broadcast.Step {
	return broadcast.NoneStep()
}
func (s stubStation) Schedule(ctx context.Context, start, end time.Time) []broadcast.Step {
	return nil
}

func mustTime(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q): %v", s, err)
	}
	return tod
}

// fullWeek assigns the same slot list to every weekday.
func fullWeek(slots []Slot) map[time.Weekday][]Slot {
	days := make(map[time.Weekday][]Slot)
	for d := time.Sunday; d <= time.Saturday; d++ {
		days[d] = slots
	}
	return days
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "06:30", want: 390},
		{in: "23:59", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "sept heures", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewRequiresFullWeekCoverage(t *testing.T) {
	a := stubStation{name: "A"}
	for missing := time.Sunday; missing <= time.Saturday; missing++ {
		t.Run(missing.String(), func(t *testing.T) {
			days := fullWeek([]Slot{{Start: 0, End: 0, Station: a}})
			delete(days, missing)

			_, err := New(days)
			if err == nil {
				t.Fatal("expected error for missing weekday")
			}
			if !strings.Contains(err.Error(), missing.String()) {
				t.Fatalf("error should name the uncovered day, got %q", err)
			}
		})
	}
}

func TestNewRejectsSlotWithoutStation(t *testing.T) {
	days := fullWeek([]Slot{{Start: 0, End: 0}})
	if _, err := New(days); err == nil {
		t.Fatal("expected error for slot without station")
	}
}

func TestSlotAtCrossMidnight(t *testing.T) {
	day := stubStation{name: "Day"}
	night := stubStation{name: "Night"}
	table, err := New(fullWeek([]Slot{
		{Start: mustTime(t, "06:00"), End: mustTime(t, "21:00"), Station: day},
		{Start: mustTime(t, "21:00"), End: mustTime(t, "00:00"), Station: night},
		{Start: mustTime(t, "00:00"), End: mustTime(t, "06:00"), Station: night},
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// 2020-10-12 is a Monday
	monday := time.Date(2020, 10, 12, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		at      time.Time
		station string
		end     time.Time
	}{
		{
			name:    "just before midnight",
			at:      monday.Add(23*time.Hour + 59*time.Minute),
			station: "Night",
			end:     monday.Add(24 * time.Hour),
		},
		{
			name:    "just after midnight",
			at:      monday.Add(24*time.Hour + time.Minute),
			station: "Night",
			end:     monday.Add(30 * time.Hour),
		},
		{
			name:    "slot start is inclusive",
			at:      monday.Add(6 * time.Hour),
			station: "Day",
			end:     monday.Add(21 * time.Hour),
		},
		{
			name:    "slot end is exclusive",
			at:      monday.Add(21 * time.Hour),
			station: "Night",
			end:     monday.Add(24 * time.Hour),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, err := table.SlotAt(tt.at)
			if err != nil {
				t.Fatalf("SlotAt(%s): %v", tt.at, err)
			}
			if slot.Station.Name() != tt.station {
				t.Fatalf("station = %s, want %s", slot.Station.Name(), tt.station)
			}
			if !slot.End.Equal(tt.end) {
				t.Fatalf("end = %s, want %s", slot.End, tt.end)
			}
		})
	}
}

func TestStationAfter(t *testing.T) {
	a := stubStation{name: "A"}
	b := stubStation{name: "B"}
	table, err := New(fullWeek([]Slot{
		{Start: mustTime(t, "00:00"), End: mustTime(t, "12:00"), Station: a},
		{Start: mustTime(t, "12:00"), End: mustTime(t, "00:00"), Station: b},
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	monday := time.Date(2020, 10, 12, 10, 0, 0, 0, time.UTC)
	next, err := table.StationAfter(monday)
	if err != nil {
		t.Fatalf("StationAfter: %v", err)
	}
	if next.Name() != "B" {
		t.Fatalf("station after morning slot = %s, want B", next.Name())
	}

	evening := time.Date(2020, 10, 12, 20, 0, 0, 0, time.UTC)
	next, err = table.StationAfter(evening)
	if err != nil {
		t.Fatalf("StationAfter: %v", err)
	}
	// the evening slot runs to midnight, the next day starts with A
	if next.Name() != "A" {
		t.Fatalf("station after evening slot = %s, want A", next.Name())
	}
}

func TestStationsDeduplicates(t *testing.T) {
	a := stubStation{name: "A"}
	table, err := New(fullWeek([]Slot{
		{Start: mustTime(t, "00:00"), End: mustTime(t, "12:00"), Station: a},
		{Start: mustTime(t, "12:00"), End: mustTime(t, "00:00"), Station: a},
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := len(table.Stations()); got != 1 {
		t.Fatalf("Stations() returned %d entries, want 1", got)
	}
}
