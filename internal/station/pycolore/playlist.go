/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package pycolore implements the internally managed playlist station. It
// owns a shuffled queue of local songs and feeds the audio engine's request
// queue itself, one song ahead of playback.
package pycolore

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pycolore/sunflower/internal/broadcast"
	"github.com/pycolore/sunflower/internal/liquidsoap"
	"github.com/pycolore/sunflower/internal/music"
	"github.com/pycolore/sunflower/internal/station"
)

const (
	showTitle = "La playlist Pycolore"
	showLink  = "https://radio.pycolore.fr/pages/playlist-pycolore"

	// refill threshold: repopulate the queue before it runs dry so the
	// artists teaser always has material.
	minQueued = 5
)

// Config declares the playlist station.
type Config struct {
	ID           string
	Name         string
	Thumbnail    string
	ManifestPath string
}

// Station is a processed (stateful) station: the scheduler advances it every
// tick before channels read its current song.
type Station struct {
	cfg    Config
	engine liquidsoap.Controller
	cover  music.CoverFinder
	logger zerolog.Logger
	rng    *rand.Rand

	mu         sync.Mutex
	library    []broadcast.Song
	queue      []broadcast.Song
	current    *broadcast.Song
	currentEnd int64
	endOfUse   time.Time
}

// New builds the station. The song library is loaded lazily on first use so
// a missing manifest degrades instead of failing startup.
func New(cfg Config, engine liquidsoap.Controller, cover music.CoverFinder, logger zerolog.Logger) *Station {
	if cfg.ID == "" {
		cfg.ID = "pycolore"
	}
	if cfg.Name == "" {
		cfg.Name = "Radio Pycolore"
	}
	if engine == nil {
		engine = liquidsoap.NopController{}
	}
	if cover == nil {
		cover = music.NoopCoverFinder{}
	}
	return &Station{
		cfg:    cfg,
		engine: engine,
		cover:  cover,
		logger: logger.With().Str("station", cfg.ID).Logger(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Station) ID() string        { return s.cfg.ID }
func (s *Station) Name() string      { return s.cfg.Name }
func (s *Station) Thumbnail() string { return s.cfg.Thumbnail }
func (s *Station) LongPoll() bool    { return false }

func (s *Station) Info() broadcast.StationInfo {
	return broadcast.StationInfo{Name: s.cfg.Name, Website: showLink}
}

// CurrentStep reports the song currently queued on the engine. Before the
// first song starts the station announces the upcoming hand-off instead.
func (s *Station) CurrentStep(ctx context.Context, now time.Time, env station.Env) broadcast.UpdateInfo {
	s.mu.Lock()
	current := s.current
	currentEnd := s.currentEnd
	teaser := s.artistsTeaser()
	s.mu.Unlock()

	if current == nil {
		step := broadcast.Step{
			Start:     now.Unix(),
			End:       env.SlotEnd.Unix(),
			Broadcast: broadcast.WaitingForNext(s.Info(), s.cfg.Thumbnail, env.NextStationName),
		}
		return broadcast.UpdateInfo{ShouldNotify: true, Step: step}
	}

	cover := s.cover.TrackCover(ctx, current.Artist, current.Album, current.Title, s.cfg.Thumbnail)
	summary := "Une sélection aléatoire de chansons parmi les musiques stockées sur Pycolore."
	if teaser != "" {
		summary = fmt.Sprintf("%s À suivre : %s.", summary, teaser)
	}
	step := broadcast.Step{
		Start: now.Unix(),
		End:   currentEnd,
		Broadcast: broadcast.Broadcast{
			Title:     fmt.Sprintf("%s • %s", current.Artist, current.Title),
			Type:      broadcast.TypeMusic,
			Station:   s.Info(),
			Thumbnail: cover.Thumbnail,
			Link:      cover.Link,
			ShowTitle: showTitle,
			ShowLink:  showLink,
			Summary:   summary,
			Metadata:  &broadcast.StreamMetadata{Title: current.Title, Artist: current.Artist, Album: current.Album},
		},
	}
	return broadcast.UpdateInfo{ShouldNotify: true, Step: step}
}

// NextStep is only meaningful when another station is on air and the
// playlist comes next.
func (s *Station) NextStep(ctx context.Context, now time.Time, env station.Env) broadcast.Step {
	if env.OnAir {
		return broadcast.NoneStep()
	}
	return broadcast.Step{
		Start:     now.Unix(),
		End:       now.Unix(),
		Broadcast: s.showBroadcast(),
	}
}

// Schedule shows the playlist as one block.
func (s *Station) Schedule(ctx context.Context, start, end time.Time) []broadcast.Step {
	return []broadcast.Step{{Start: start.Unix(), End: end.Unix(), Broadcast: s.showBroadcast()}}
}

func (s *Station) StreamMetadata(b broadcast.Broadcast) *broadcast.StreamMetadata {
	// the engine reads tags straight from the queued files
	return nil
}

func (s *Station) LiquidsoapConfig() string {
	name := station.FormatName(s.cfg.Name)
	return fmt.Sprintf("%s = fallback(track_sensitive=false, [request.queue(id=%q), default])\n", name, name)
}

// Process advances playback: it queues the next song when the current one is
// about to end, and starts a song early when a channel will switch to the
// playlist within the anticipation window.
func (s *Station) Process(ctx context.Context, now time.Time, usage station.Usage) []station.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(usage.Active) == 0 {
		if s.current == nil && len(usage.Upcoming) > 0 {
			// a channel switches to us in a few seconds: launch the opener
			s.playLocked(ctx, now, 0, -1)
		}
		if len(usage.Active) == 0 && len(usage.Upcoming) == 0 {
			s.current = nil
		}
		return s.snapshotLocked()
	}

	if s.endOfUse.Before(now) {
		s.endOfUse = now
	}

	if s.currentEnd-10 < now.Unix() {
		delay := s.currentEnd - now.Unix()
		if delay < 0 {
			delay = 0
		}
		maxLength := float64(s.endOfUse.Unix()-now.Unix()) - float64(delay)
		s.playLocked(ctx, now, time.Duration(delay)*time.Second, maxLength)
	}
	return s.snapshotLocked()
}

// SetEndOfUse records until when channels keep the playlist on air; Process
// uses it to avoid starting songs that would outlive the slot.
func (s *Station) SetEndOfUse(end time.Time) {
	s.mu.Lock()
	if end.After(s.endOfUse) {
		s.endOfUse = end
	}
	s.mu.Unlock()
}

func (s *Station) showBroadcast() broadcast.Broadcast {
	return broadcast.Broadcast{
		Title:     showTitle,
		Type:      broadcast.TypeProgramme,
		Station:   s.Info(),
		Thumbnail: s.cfg.Thumbnail,
		ShowTitle: showTitle,
		ShowLink:  showLink,
	}
}

// playLocked pops the next fitting song and pushes it on the engine queue.
// maxLength < 0 disables the length check. Callers hold s.mu.
func (s *Station) playLocked(ctx context.Context, now time.Time, delay time.Duration, maxLength float64) {
	song := s.nextSongLocked(maxLength)
	if song == nil {
		s.current = nil
		if maxLength > 0 {
			s.currentEnd = now.Unix() + int64(maxLength)
		}
		return
	}
	s.logger.Debug().
		Str("artist", song.Artist).
		Str("title", song.Title).
		Int("remaining", len(s.queue)).
		Msg("queueing song")
	s.current = song
	s.currentEnd = now.Add(delay + time.Duration(song.Length*float64(time.Second))).Unix()
	s.engine.PushSong(ctx, station.FormatName(s.cfg.Name), song.Path)
}

// nextSongLocked returns the first queued song shorter than maxLength,
// refilling and reshuffling the queue when it runs low.
func (s *Station) nextSongLocked(maxLength float64) *broadcast.Song {
	if len(s.queue) <= minQueued {
		s.refillLocked()
	}
	for i, song := range s.queue {
		if maxLength < 0 || song.Length < maxLength {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return &song
		}
	}
	return nil
}

func (s *Station) refillLocked() {
	if len(s.library) == 0 {
		songs, err := music.LoadSongs(s.cfg.ManifestPath)
		if err != nil {
			s.logger.Warn().Err(err).Str("manifest", s.cfg.ManifestPath).Msg("song library unavailable")
			return
		}
		s.library = songs
	}
	s.queue = append(s.queue, music.Shuffle(s.library, s.rng)...)
}

// artistsTeaser names the artists of the next few queued songs.
func (s *Station) artistsTeaser() string {
	var artists []string
	for _, song := range s.queue {
		seen := false
		for _, artist := range artists {
			if artist == song.Artist {
				seen = true
				break
			}
		}
		if !seen {
			artists = append(artists, song.Artist)
		}
		if len(artists) == 5 {
			break
		}
	}
	switch len(artists) {
	case 0:
		return ""
	case 1:
		return artists[0]
	default:
		return strings.Join(artists[:len(artists)-1], ", ") + " et " + artists[len(artists)-1]
	}
}

// snapshotLocked exposes the public playlist for persistence.
func (s *Station) snapshotLocked() []station.Snapshot {
	public := make([]map[string]string, 0, len(s.queue))
	for _, song := range s.queue {
		public = append(public, map[string]string{
			"artist": song.Artist,
			"title":  song.Title,
			"album":  song.Album,
		})
	}
	return []station.Snapshot{{Field: "playlist", Value: public}}
}
