/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the station and channel layout loaded from YAML.
type File struct {
	Stations StationsFile  `yaml:"stations"`
	Channels []ChannelFile `yaml:"channels"`
}

// StationsFile declares the stations available to timetables.
type StationsFile struct {
	RadioFrance []RadioFranceFile `yaml:"radiofrance"`
	RTL         []RTLFile         `yaml:"rtl"`
	Pycolore    *PycoloreFile     `yaml:"pycolore"`
}

// RadioFranceFile selects a Radio France network preset.
type RadioFranceFile struct {
	Preset string `yaml:"preset"`
}

// RTLFile declares an RTL group station.
type RTLFile struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Website   string `yaml:"website"`
	Thumbnail string `yaml:"thumbnail"`
	StreamURL string `yaml:"stream_url"`
}

// PycoloreFile declares the local playlist station.
type PycoloreFile struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Thumbnail string `yaml:"thumbnail"`
	Manifest  string `yaml:"manifest"`
}

// ChannelFile declares one output channel and its weekly timetable.
type ChannelFile struct {
	ID        string           `yaml:"id"`
	Name      string           `yaml:"name"`
	Handlers  []string         `yaml:"handlers"`
	Timetable []TimetableEntry `yaml:"timetable"`
}

// TimetableEntry assigns a slot list to one or more weekdays. Days are
// numbered 0 (Monday) through 6 (Sunday).
type TimetableEntry struct {
	Days  []int      `yaml:"days"`
	Slots []SlotFile `yaml:"slots"`
}

// SlotFile is one timetable slot. End at or before Start wraps past
// midnight.
type SlotFile struct {
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
	Station string `yaml:"station"`
}

// LoadFile reads and validates the YAML layout at path.
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	if len(f.Channels) == 0 {
		return fmt.Errorf("config: no channels declared")
	}
	seen := make(map[string]bool)
	for _, ch := range f.Channels {
		if ch.ID == "" {
			return fmt.Errorf("config: channel without id")
		}
		if seen[ch.ID] {
			return fmt.Errorf("config: duplicate channel id %q", ch.ID)
		}
		seen[ch.ID] = true
		if len(ch.Timetable) == 0 {
			return fmt.Errorf("config: channel %q has no timetable", ch.ID)
		}
		for _, entry := range ch.Timetable {
			if len(entry.Days) == 0 {
				return fmt.Errorf("config: channel %q has a timetable entry without days", ch.ID)
			}
			for _, d := range entry.Days {
				if d < 0 || d > 6 {
					return fmt.Errorf("config: channel %q references day %d outside 0..6", ch.ID, d)
				}
			}
			if len(entry.Slots) == 0 {
				return fmt.Errorf("config: channel %q has a timetable entry without slots", ch.ID)
			}
		}
	}
	return nil
}

// Weekdays maps the entry's Monday-based day numbers to time.Weekday.
func (e TimetableEntry) Weekdays() []time.Weekday {
	out := make([]time.Weekday, len(e.Days))
	for i, d := range e.Days {
		out[i] = time.Weekday((d + 1) % 7)
	}
	return out
}
