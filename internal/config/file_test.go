/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const layoutYAML = `
stations:
  radiofrance:
    - preset: France Inter
    - preset: France Culture
  rtl:
    - name: RTL 2
  pycolore:
    id: pycolore
    name: Radio Pycolore
    manifest: /srv/music/manifest.json
channels:
  - id: tournesol
    name: Radio Tournesol
    handlers: [ads]
    timetable:
      - days: [0, 1, 2, 3, 4]
        slots:
          - {start: "06:00", end: "09:00", station: France Inter}
          - {start: "09:00", end: "06:00", station: RTL 2}
      - days: [5, 6]
        slots:
          - {start: "00:00", end: "00:00", station: Radio Pycolore}
`

func writeLayout(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "channels.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write layout: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	f, err := LoadFile(writeLayout(t, layoutYAML))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(f.Stations.RadioFrance) != 2 || f.Stations.RadioFrance[0].Preset != "France Inter" {
		t.Fatalf("radiofrance = %+v", f.Stations.RadioFrance)
	}
	if f.Stations.Pycolore == nil || f.Stations.Pycolore.Manifest != "/srv/music/manifest.json" {
		t.Fatalf("pycolore = %+v", f.Stations.Pycolore)
	}
	if len(f.Channels) != 1 {
		t.Fatalf("channels = %+v", f.Channels)
	}
	ch := f.Channels[0]
	if ch.ID != "tournesol" || len(ch.Handlers) != 1 || ch.Handlers[0] != "ads" {
		t.Fatalf("channel = %+v", ch)
	}
	if len(ch.Timetable) != 2 || len(ch.Timetable[0].Slots) != 2 {
		t.Fatalf("timetable = %+v", ch.Timetable)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFileValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "no channels",
			yaml: "stations:\n  rtl:\n    - name: RTL 2\n",
			want: "no channels",
		},
		{
			name: "channel without id",
			yaml: "channels:\n  - name: Sans ID\n    timetable:\n      - days: [0]\n        slots:\n          - {start: \"00:00\", end: \"00:00\", station: X}\n",
			want: "without id",
		},
		{
			name: "duplicate channel id",
			yaml: `channels:
  - id: a
    timetable:
      - days: [0]
        slots:
          - {start: "00:00", end: "00:00", station: X}
  - id: a
    timetable:
      - days: [0]
        slots:
          - {start: "00:00", end: "00:00", station: X}
`,
			want: "duplicate",
		},
		{
			name: "day out of range",
			yaml: "channels:\n  - id: a\n    timetable:\n      - days: [7]\n        slots:\n          - {start: \"00:00\", end: \"00:00\", station: X}\n",
			want: "outside 0..6",
		},
		{
			name: "entry without slots",
			yaml: "channels:\n  - id: a\n    timetable:\n      - days: [0]\n",
			want: "without slots",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeLayout(t, tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestWeekdaysMapsMondayBasedNumbers(t *testing.T) {
	entry := TimetableEntry{Days: []int{0, 4, 5, 6}}
	got := entry.Weekdays()
	want := []time.Weekday{time.Monday, time.Friday, time.Saturday, time.Sunday}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("day %d mapped to %s, want %s", entry.Days[i], got[i], want[i])
		}
	}
}
