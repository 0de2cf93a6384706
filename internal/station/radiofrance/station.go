/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package radiofrance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pycolore/sunflower/internal/broadcast"
	"github.com/pycolore/sunflower/internal/music"
	"github.com/pycolore/sunflower/internal/station"
)

// errorRetryWindow bounds how long a degraded Error step stays on air before
// the channel re-checks the upstream API.
const errorRetryWindow = 90

// gridWindow is how far ahead each grid fetch looks.
const gridWindow = 2 * time.Hour

// Config declares one Radio France station.
type Config struct {
	Name      string
	Slogan    string
	APIName   string
	Thumbnail string
	Website   string
	StreamURL string
}

// Station serves current/next/schedule steps from the Radio France grid API.
// One instance is shared by every channel relaying the station.
type Station struct {
	cfg    Config
	client *Client
	cover  music.CoverFinder
	logger zerolog.Logger

	mu   sync.Mutex
	last broadcast.Broadcast
}

// New builds a station around a shared API client.
func New(cfg Config, client *Client, cover music.CoverFinder, logger zerolog.Logger) *Station {
	if cover == nil {
		cover = music.NoopCoverFinder{}
	}
	return &Station{
		cfg:    cfg,
		client: client,
		cover:  cover,
		logger: logger.With().Str("station", station.FormatName(cfg.Name)).Logger(),
	}
}

func (s *Station) Name() string      { return s.cfg.Name }
func (s *Station) Thumbnail() string { return s.cfg.Thumbnail }
func (s *Station) LongPoll() bool    { return false }

func (s *Station) Info() broadcast.StationInfo {
	return broadcast.StationInfo{Name: s.cfg.Name, Website: s.cfg.Website}
}

// CurrentStep resolves the broadcast airing at now from a fresh grid window.
func (s *Station) CurrentStep(ctx context.Context, now time.Time, env station.Env) broadcast.UpdateInfo {
	step := s.stepAt(ctx, now)
	s.mu.Lock()
	notify := !step.Broadcast.Equal(s.last)
	s.last = step.Broadcast
	s.mu.Unlock()
	return broadcast.UpdateInfo{ShouldNotify: notify, Step: step}
}

// NextStep forecasts the step starting at now (normally the end of the
// current one). Failures degrade to an empty retry-window step.
func (s *Station) NextStep(ctx context.Context, now time.Time, env station.Env) broadcast.Step {
	grid, err := s.client.FetchGrid(ctx, s.cfg.APIName, now, now.Add(gridWindow))
	if err != nil {
		s.logger.Warn().Err(err).Msg("next step fetch failed")
		return broadcast.EmptyUntil(now.Unix(), now.Unix()+errorRetryWindow, s.Info(), s.cfg.Slogan, s.cfg.Thumbnail)
	}
	return s.resolveGrid(ctx, grid, now.Unix())
}

// Schedule lists the top-level grid entries between start and end. Children
// are not expanded: listings show whole shows, not their segments.
func (s *Station) Schedule(ctx context.Context, start, end time.Time) []broadcast.Step {
	grid, err := s.client.FetchGrid(ctx, s.cfg.APIName, start, end)
	if err != nil {
		s.logger.Warn().Err(err).Msg("schedule fetch failed")
		return nil
	}
	steps := make([]broadcast.Step, 0, len(grid))
	for _, node := range grid {
		steps = append(steps, broadcast.Step{
			Start:     node.Start,
			End:       node.End,
			Broadcast: s.nodeBroadcast(ctx, node, nil),
		})
	}
	return steps
}

// StreamMetadata forwards track tags to the audio engine; programme
// broadcasts leave the engine untouched.
func (s *Station) StreamMetadata(b broadcast.Broadcast) *broadcast.StreamMetadata {
	if b.Type != broadcast.TypeMusic || b.Metadata == nil {
		return nil
	}
	md := *b.Metadata
	return &md
}

// LiquidsoapConfig declares the relayed stream source.
func (s *Station) LiquidsoapConfig() string {
	name := station.FormatName(s.cfg.Name)
	return fmt.Sprintf("%s = mksafe(input.http(id=%q, autostart=false, %q))\n", name, name, s.cfg.StreamURL)
}

// StreamURL exposes the upstream audio stream for config generation.
func (s *Station) StreamURL() string { return s.cfg.StreamURL }

// stepAt resolves the broadcast airing at now, degrading to an Error step
// with a short retry window on any upstream failure.
func (s *Station) stepAt(ctx context.Context, now time.Time) broadcast.Step {
	grid, err := s.client.FetchGrid(ctx, s.cfg.APIName, now, now.Add(gridWindow))
	if err != nil {
		s.logger.Warn().Err(err).Msg("grid fetch failed")
		return broadcast.ErrorStep(now.Unix(), errorRetryWindow, s.Info(), s.cfg.Thumbnail, "Aucune information disponible")
	}
	return s.resolveGrid(ctx, grid, now.Unix())
}

// resolveGrid turns a fetched grid into the single step applying at dt.
func (s *Station) resolveGrid(ctx context.Context, grid []Node, dt int64) broadcast.Step {
	if len(grid) == 0 {
		return broadcast.ErrorStep(dt, errorRetryWindow, s.Info(), s.cfg.Thumbnail, "Grille de programmes vide")
	}
	first := grid[0]
	switch {
	case first.End <= dt:
		// between the end of the last show and the start of the next one
		if len(grid) > 1 {
			return broadcast.EmptyUntil(dt, grid[1].Start, s.Info(), s.cfg.Slogan, s.cfg.Thumbnail)
		}
		return broadcast.EmptyUntil(dt, dt+errorRetryWindow, s.Info(), s.cfg.Slogan, s.cfg.Thumbnail)
	case first.Start > dt:
		return broadcast.EmptyUntil(dt, first.Start, s.Info(), s.cfg.Slogan, s.cfg.Thumbnail)
	}

	if first.Track != nil {
		return s.trackStep(ctx, first, dt)
	}

	selected, end, isChild := resolveInterval(dt, first)
	if selected.Track != nil {
		step := s.trackStep(ctx, selected, dt)
		step.End = end
		return step
	}
	var parent *Node
	if isChild {
		parent = &first
	}
	return broadcast.Step{Start: dt, End: end, Broadcast: s.nodeBroadcast(ctx, selected, parent)}
}

// nodeBroadcast builds the broadcast of a diffusion or blank node. When the
// node is a child whose show differs from the enclosing one, the parent show
// is kept as secondary context.
func (s *Station) nodeBroadcast(ctx context.Context, node Node, parent *Node) broadcast.Broadcast {
	if node.Track != nil {
		return s.trackBroadcast(ctx, node)
	}
	b := broadcast.Broadcast{
		Type:      broadcast.TypeProgramme,
		Station:   s.Info(),
		Thumbnail: s.cfg.Thumbnail,
	}
	if node.Diffusion == nil {
		b.Title = node.Title
		return b
	}
	diffusion := node.Diffusion
	b.Title = diffusion.Title
	b.Link = diffusion.URL
	b.Summary = cleanSummary(diffusion.StandFirst)
	if diffusion.Show != nil {
		b.ShowTitle = diffusion.Show.Title
		b.ShowLink = diffusion.Show.URL
	}
	if parent != nil && parent.Diffusion != nil && parent.Diffusion.Show != nil {
		parentShow := parent.Diffusion.Show
		if parentShow.Title != b.ShowTitle {
			b.ParentShowTitle = parentShow.Title
			b.ParentShowLink = parentShow.URL
		}
	}
	return b
}

func (s *Station) trackStep(ctx context.Context, node Node, dt int64) broadcast.Step {
	return broadcast.Step{Start: dt, End: node.End, Broadcast: s.trackBroadcast(ctx, node)}
}

func (s *Station) trackBroadcast(ctx context.Context, node Node) broadcast.Broadcast {
	track := node.Track
	artist := ""
	if len(track.MainArtists) > 0 {
		artist = track.MainArtists[0]
	} else if len(track.Performers) > 0 {
		artist = track.Performers[0]
	}
	cover := s.cover.TrackCover(ctx, artist, track.AlbumTitle, track.Title, s.cfg.Thumbnail)
	return broadcast.Broadcast{
		Title:     fmt.Sprintf("%s • %s", artist, track.Title),
		Type:      broadcast.TypeMusic,
		Station:   s.Info(),
		Thumbnail: cover.Thumbnail,
		Link:      cover.Link,
		Summary:   s.cfg.Slogan,
		Metadata:  &broadcast.StreamMetadata{Title: track.Title, Artist: artist},
	}
}

// cleanSummary drops placeholder stand-firsts the API sometimes returns.
func cleanSummary(summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "." {
		return ""
	}
	return summary
}
