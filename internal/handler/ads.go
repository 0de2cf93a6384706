/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package handler

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pycolore/sunflower/internal/broadcast"
	"github.com/pycolore/sunflower/internal/liquidsoap"
	"github.com/pycolore/sunflower/internal/music"
)

// AdsHandler replaces ad breaks with songs from a local backup playlist.
// When the incoming step is an ad it pushes a song on the channel's custom
// request queue and rewrites the step to describe that song instead.
type AdsHandler struct {
	engine       liquidsoap.Controller
	cover        music.CoverFinder
	manifestPath string
	rng          *rand.Rand

	mu     sync.Mutex
	backup []broadcast.Song
}

// NewAdsHandler builds the handler. The backup playlist is loaded lazily on
// the first ad break.
func NewAdsHandler(manifestPath string, engine liquidsoap.Controller, cover music.CoverFinder) *AdsHandler {
	if engine == nil {
		engine = liquidsoap.NopController{}
	}
	if cover == nil {
		cover = music.NoopCoverFinder{}
	}
	return &AdsHandler{
		engine:       engine,
		cover:        cover,
		manifestPath: manifestPath,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (h *AdsHandler) Name() string { return "ads" }

func (h *AdsHandler) Process(ctx context.Context, logger zerolog.Logger, step broadcast.Step, channelID string, now time.Time) broadcast.Step {
	if step.Broadcast.Type != broadcast.TypeAds {
		return step
	}

	song := h.popSong(logger)
	if song == nil {
		return step
	}
	logger.Info().
		Str("handler", h.Name()).
		Str("channel", channelID).
		Str("title", song.Title).
		Msg("replacing ad break with backup song")
	h.engine.PushSong(ctx, fmt.Sprintf("%s_custom_songs", channelID), song.Path)

	cover := h.cover.TrackCover(ctx, song.Artist, song.Album, song.Title, step.Broadcast.Thumbnail)
	stationInfo := step.Broadcast.Station
	return broadcast.Step{
		Start: step.Start,
		End:   step.Start + int64(song.Length),
		Broadcast: broadcast.Broadcast{
			Title:     fmt.Sprintf("%s • %s", song.Artist, song.Title),
			Type:      broadcast.TypeMusic,
			Station:   stationInfo,
			Thumbnail: cover.Thumbnail,
			Link:      cover.Link,
			ShowTitle: "La playlist Pycolore",
			ShowLink:  "https://radio.pycolore.fr/pages/playlist-pycolore",
			Summary:   fmt.Sprintf("Publicité en cours sur %s. En attendant, Pycolore vous propose une chanson de sa playlist.", stationInfo.Name),
			Metadata:  &broadcast.StreamMetadata{Title: song.Title, Artist: song.Artist, Album: song.Album},
		},
	}
}

// popSong takes the next backup song, reloading and reshuffling the
// manifest when the pool is exhausted.
func (h *AdsHandler) popSong(logger zerolog.Logger) *broadcast.Song {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.backup) == 0 {
		songs, err := music.LoadSongs(h.manifestPath)
		if err != nil {
			logger.Warn().Err(err).Str("manifest", h.manifestPath).Msg("backup playlist unavailable")
			return nil
		}
		h.backup = music.Shuffle(songs, h.rng)
	}
	song := h.backup[len(h.backup)-1]
	h.backup = h.backup[:len(h.backup)-1]
	return &song
}
