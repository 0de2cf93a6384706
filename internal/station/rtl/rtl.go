/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package rtl implements the RTL 2 station. The upstream timeline API does
// not expose reliable end-of-segment timestamps, so the station is long-poll:
// channels re-poll it on a fixed cadence instead of waiting for step ends.
package rtl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pycolore/sunflower/internal/broadcast"
	"github.com/pycolore/sunflower/internal/music"
	"github.com/pycolore/sunflower/internal/station"
)

// Config declares the RTL 2 upstream endpoints. Zero values select the
// production endpoints.
type Config struct {
	ItemsURL   string
	SongsURL   string
	GuideURL   string
	Name       string
	Slogan     string
	Thumbnail  string
	Website    string
	StreamURL  string
}

// DefaultConfig returns the production RTL 2 coordinates.
func DefaultConfig() Config {
	return Config{
		ItemsURL:  "https://timeline.rtl.fr/RTL2/items",
		SongsURL:  "https://timeline.rtl.fr/RTL2/songs",
		GuideURL:  "https://pc.middleware.6play.fr/6play/v2/platforms/m6group_web/services/m6replay/guidetv",
		Name:      "RTL 2",
		Slogan:    "Le son Pop-Rock",
		Thumbnail: "https://upload.wikimedia.org/wikipedia/fr/f/fa/RTL2_logo_2015.svg",
		Website:   "https://www.rtl2.fr",
		StreamURL: "http://streaming.radio.rtl2.fr/rtl2-1-48-192",
	}
}

// Station relays RTL 2 and resolves its metadata from the timeline API.
type Station struct {
	cfg    Config
	http   *http.Client
	cover  music.CoverFinder
	logger zerolog.Logger

	mu          sync.Mutex
	last        broadcast.Broadcast
	showTitle   string
	showSummary string
	showEnd     int64
}

// New builds the station.
func New(cfg Config, cover music.CoverFinder, logger zerolog.Logger) *Station {
	def := DefaultConfig()
	if cfg.ItemsURL == "" {
		cfg.ItemsURL = def.ItemsURL
	}
	if cfg.SongsURL == "" {
		cfg.SongsURL = def.SongsURL
	}
	if cfg.GuideURL == "" {
		cfg.GuideURL = def.GuideURL
	}
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Slogan == "" {
		cfg.Slogan = def.Slogan
	}
	if cfg.Thumbnail == "" {
		cfg.Thumbnail = def.Thumbnail
	}
	if cfg.Website == "" {
		cfg.Website = def.Website
	}
	if cfg.StreamURL == "" {
		cfg.StreamURL = def.StreamURL
	}
	if cover == nil {
		cover = music.NoopCoverFinder{}
	}
	return &Station{
		cfg:    cfg,
		http:   &http.Client{Timeout: time.Second},
		cover:  cover,
		logger: logger.With().Str("station", station.FormatName(cfg.Name)).Logger(),
	}
}

func (s *Station) Name() string      { return s.cfg.Name }
func (s *Station) Thumbnail() string { return s.cfg.Thumbnail }
func (s *Station) LongPoll() bool    { return true }

func (s *Station) Info() broadcast.StationInfo {
	return broadcast.StationInfo{Name: s.cfg.Name, Website: s.cfg.Website}
}

type timelineItem struct {
	Type string `json:"type"`
}

type timelineSong struct {
	Singer    string `json:"singer"`
	Title     string `json:"title"`
	End       int64  `json:"end"` // milliseconds
	Thumbnail string `json:"thumbnail"`
	Cover     string `json:"cover"`
	Album     string `json:"album"`
}

type guideShow struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	DiffusionEndDate string `json:"diffusion_end_date"`
}

// CurrentStep resolves metadata from the timeline endpoints. The step end is
// only meaningful for songs; everything else leaves Start == End so the
// channel keeps re-polling on its long-poll cadence.
func (s *Station) CurrentStep(ctx context.Context, now time.Time, env station.Env) broadcast.UpdateInfo {
	b := s.resolveBroadcast(ctx, now)
	end := now.Unix()
	if b.Type == broadcast.TypeMusic {
		if songEnd := s.currentSongEnd(ctx); songEnd > end {
			end = songEnd
		}
	}
	s.mu.Lock()
	notify := !b.Equal(s.last)
	s.last = b
	s.mu.Unlock()
	return broadcast.UpdateInfo{ShouldNotify: notify, Step: broadcast.Step{Start: now.Unix(), End: end, Broadcast: b}}
}

// NextStep cannot be forecast from the timeline API; the channel bounds the
// returned empty step to the end of the current timetable slot.
func (s *Station) NextStep(ctx context.Context, now time.Time, env station.Env) broadcast.Step {
	return broadcast.EmptyUntil(now.Unix(), now.Unix(), s.Info(), s.cfg.Slogan, s.cfg.Thumbnail)
}

// Schedule has no programme grid upstream: the whole window is one slot.
func (s *Station) Schedule(ctx context.Context, start, end time.Time) []broadcast.Step {
	return []broadcast.Step{broadcast.EmptyUntil(start.Unix(), end.Unix(), s.Info(), s.cfg.Slogan, s.cfg.Thumbnail)}
}

func (s *Station) StreamMetadata(b broadcast.Broadcast) *broadcast.StreamMetadata {
	if b.Type != broadcast.TypeMusic || b.Metadata == nil {
		return nil
	}
	md := *b.Metadata
	return &md
}

func (s *Station) LiquidsoapConfig() string {
	name := station.FormatName(s.cfg.Name)
	return fmt.Sprintf("%s = mksafe(input.http(id=%q, autostart=false, %q))\n", name, name, s.cfg.StreamURL)
}

// StreamURL exposes the upstream audio stream for config generation.
func (s *Station) StreamURL() string { return s.cfg.StreamURL }

func (s *Station) resolveBroadcast(ctx context.Context, now time.Time) broadcast.Broadcast {
	show := s.refreshShow(ctx, now)

	var items []timelineItem
	if err := s.getJSON(ctx, s.cfg.ItemsURL, &items); err != nil {
		s.logger.Warn().Err(err).Msg("items fetch failed")
		return broadcast.Error(s.Info(), s.cfg.Thumbnail, "Aucune information disponible")
	}
	if len(items) == 0 {
		return s.intermission(show)
	}

	switch items[0].Type {
	case "Pubs":
		return broadcast.Ads(s.Info(), s.cfg.Thumbnail)
	case "Musique":
		return s.songBroadcast(ctx, now, show)
	default:
		return s.intermission(show)
	}
}

func (s *Station) songBroadcast(ctx context.Context, now time.Time, show guideShow) broadcast.Broadcast {
	var songs []timelineSong
	if err := s.getJSON(ctx, s.cfg.SongsURL, &songs); err != nil || len(songs) == 0 {
		s.logger.Warn().Err(err).Msg("songs fetch failed")
		return s.intermission(show)
	}
	song := songs[0]
	if song.End/1000 < now.Unix() {
		// the announced song already ended, fall back to the show
		return s.intermission(show)
	}
	thumbnail := song.Cover
	if thumbnail == "" {
		thumbnail = song.Thumbnail
	}
	cover := s.cover.TrackCover(ctx, song.Singer, song.Album, song.Title, s.cfg.Thumbnail)
	if thumbnail == "" {
		thumbnail = cover.Thumbnail
	}
	return broadcast.Broadcast{
		Title:     fmt.Sprintf("%s • %s", song.Singer, song.Title),
		Type:      broadcast.TypeMusic,
		Station:   s.Info(),
		Thumbnail: thumbnail,
		Link:      cover.Link,
		ShowTitle: show.Title,
		Summary:   show.Description,
		Metadata:  &broadcast.StreamMetadata{Title: song.Title, Artist: song.Singer, Album: song.Album},
	}
}

// currentSongEnd returns when the announced song stops, in Unix seconds.
// The timeline reports milliseconds.
func (s *Station) currentSongEnd(ctx context.Context) int64 {
	var songs []timelineSong
	if err := s.getJSON(ctx, s.cfg.SongsURL, &songs); err != nil || len(songs) == 0 {
		return 0
	}
	return songs[0].End / 1000
}

func (s *Station) intermission(show guideShow) broadcast.Broadcast {
	b := broadcast.Empty(s.Info(), s.cfg.Slogan, s.cfg.Thumbnail)
	if show.Title != "" {
		b.Type = broadcast.TypeProgramme
		b.Title = show.Title
		b.ShowTitle = show.Title
		b.Summary = show.Description
	}
	return b
}

// refreshShow returns the cached programme-guide entry, refetching it once
// the cached show has ended.
func (s *Station) refreshShow(ctx context.Context, now time.Time) guideShow {
	s.mu.Lock()
	if s.showEnd > now.Unix() {
		show := guideShow{Title: s.showTitle, Description: s.showSummary}
		s.mu.Unlock()
		return show
	}
	s.mu.Unlock()

	from := now.Format("2006-01-02 15:04:05")
	to := now.Add(5 * time.Second).Format("2006-01-02 15:04:05")
	url := fmt.Sprintf("%s?channel=rtl2&from=%s&to=%s&limit=1&offset=0&with=realdiffusiondates", s.cfg.GuideURL, from, to)

	var payload map[string][]guideShow
	if err := s.getJSON(ctx, url, &payload); err != nil {
		s.logger.Warn().Err(err).Msg("guide fetch failed")
		return guideShow{}
	}
	shows := payload["rtl2"]
	if len(shows) == 0 {
		return guideShow{}
	}
	show := shows[0]
	end, err := time.ParseInLocation("2006-01-02 15:04:05", show.DiffusionEndDate, now.Location())
	if err != nil {
		end = now
	}
	s.mu.Lock()
	s.showTitle = show.Title
	s.showSummary = show.Description
	s.showEnd = end.Unix()
	s.mu.Unlock()
	return show
}

func (s *Station) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rtl: unexpected status %d from %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("rtl: malformed payload from %s: %w", url, err)
	}
	return nil
}
