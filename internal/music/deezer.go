/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package music

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Cover is the artwork and external link resolved for a song.
type Cover struct {
	Thumbnail string
	Link      string
}

// CoverFinder looks up artwork for a track on a music catalog. Lookups are
// best effort: implementations return fallback unchanged when nothing is found.
type CoverFinder interface {
	TrackCover(ctx context.Context, artist, album, title, fallback string) Cover
}

// NoopCoverFinder always returns the fallback thumbnail.
type NoopCoverFinder struct{}

func (NoopCoverFinder) TrackCover(ctx context.Context, artist, album, title, fallback string) Cover {
	return Cover{Thumbnail: fallback}
}

// Deezer resolves covers through the Deezer search API.
type Deezer struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewDeezer builds a Deezer cover finder. An empty baseURL selects the public API.
func NewDeezer(baseURL string, logger zerolog.Logger) *Deezer {
	if baseURL == "" {
		baseURL = "https://api.deezer.com"
	}
	return &Deezer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 4 * time.Second},
		logger:  logger.With().Str("component", "deezer").Logger(),
	}
}

type deezerSearchResponse struct {
	Data []struct {
		Link  string `json:"link"`
		Album struct {
			CoverBig string `json:"cover_big"`
		} `json:"album"`
		Artist struct {
			Link string `json:"link"`
		} `json:"artist"`
	} `json:"data"`
}

// TrackCover searches artist+title and returns the first match's album cover
// and artist link. The fallback thumbnail is returned on miss or failure.
func (d *Deezer) TrackCover(ctx context.Context, artist, album, title, fallback string) Cover {
	query := url.Values{"q": {fmt.Sprintf("artist:%q track:%q", artist, title)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return Cover{Thumbnail: fallback}
	}
	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn().Err(err).Str("artist", artist).Str("title", title).Msg("cover lookup failed")
		return Cover{Thumbnail: fallback}
	}
	defer resp.Body.Close()

	var decoded deezerSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil || len(decoded.Data) == 0 {
		return Cover{Thumbnail: fallback}
	}
	first := decoded.Data[0]
	cover := Cover{Thumbnail: first.Album.CoverBig, Link: first.Artist.Link}
	if cover.Thumbnail == "" {
		cover.Thumbnail = fallback
	}
	if cover.Link == "" {
		cover.Link = first.Link
	}
	return cover
}
