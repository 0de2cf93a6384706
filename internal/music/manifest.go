/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package music loads the local song library and enriches songs with cover
// art looked up on an external music catalog.
package music

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/pycolore/sunflower/internal/broadcast"
)

// Manifest is the JSON structure produced by the library scanner.
type Manifest struct {
	Version   int         `json:"version"`
	ScannedAt time.Time   `json:"scanned_at"`
	Files     []FileEntry `json:"files"`
}

// FileEntry describes a single scanned audio file.
type FileEntry struct {
	Path     string        `json:"path"`
	Metadata *FileMetadata `json:"metadata,omitempty"`
}

// FileMetadata holds the extracted tags.
type FileMetadata struct {
	Title           string  `json:"title,omitempty"`
	Artist          string  `json:"artist,omitempty"`
	Album           string  `json:"album,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// LoadSongs reads a manifest file and returns the tagged songs it lists.
// Untagged entries are skipped.
func LoadSongs(path string) ([]broadcast.Song, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("music: read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("music: decode manifest: %w", err)
	}
	songs := make([]broadcast.Song, 0, len(manifest.Files))
	for _, file := range manifest.Files {
		if file.Metadata == nil || file.Metadata.Title == "" {
			continue
		}
		songs = append(songs, broadcast.Song{
			Path:   file.Path,
			Artist: file.Metadata.Artist,
			Album:  file.Metadata.Album,
			Title:  file.Metadata.Title,
			Length: file.Metadata.DurationSeconds,
		})
	}
	return songs, nil
}

// Shuffle returns a shuffled copy of songs with consecutive same-artist runs
// broken up where possible.
func Shuffle(songs []broadcast.Song, rng *rand.Rand) []broadcast.Song {
	shuffled := make([]broadcast.Song, len(songs))
	copy(shuffled, songs)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for i := 1; i < len(shuffled); i++ {
		if shuffled[i].Artist != shuffled[i-1].Artist {
			continue
		}
		for j := i + 1; j < len(shuffled); j++ {
			if shuffled[j].Artist != shuffled[i-1].Artist {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
				break
			}
		}
	}
	return shuffled
}
