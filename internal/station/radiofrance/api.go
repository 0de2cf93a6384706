/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package radiofrance implements stations backed by the Radio France open
// API, whose programme grid nests sub-segments inside larger shows.
package radiofrance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://openapi.radiofrance.fr/v1/graphql"

// gridQuery is the GraphQL document fetching a programme grid window.
const gridQuery = `{
  grid(start: %d, end: %d, station: %s) {
    ... on DiffusionStep {
      start
      end
      diffusion { url title standFirst show { url title } }
      children {
        ... on DiffusionStep {
          start
          end
          diffusion { url title standFirst show { url title } }
        }
        ... on TrackStep { start end track { title albumTitle mainArtists performers } }
        ... on BlankStep { start end title }
      }
    }
    ... on TrackStep { start end track { title albumTitle mainArtists performers } }
    ... on BlankStep { start end title }
  }
}`

// Node is one interval of the programme grid. Exactly one of Diffusion,
// Track, or the bare Title (blank step) describes its content; Children is
// the optional list of nested sub-segments, ordered by start.
type Node struct {
	Start     int64      `json:"start"`
	End       int64      `json:"end"`
	Title     string     `json:"title,omitempty"`
	Diffusion *Diffusion `json:"diffusion,omitempty"`
	Track     *Track     `json:"track,omitempty"`
	Children  []Node     `json:"children,omitempty"`
}

// Diffusion describes an aired episode of a show.
type Diffusion struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	StandFirst string `json:"standFirst"`
	Show       *Show  `json:"show,omitempty"`
}

// Show is the programme a diffusion belongs to.
type Show struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Track describes a played song.
type Track struct {
	Title       string   `json:"title"`
	AlbumTitle  string   `json:"albumTitle"`
	MainArtists []string `json:"mainArtists"`
	Performers  []string `json:"performers"`
}

// Grid is the api response payload.
type Grid struct {
	Data struct {
		Grid []Node `json:"grid"`
	} `json:"data"`
}

// Client fetches programme grids from the Radio France API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient builds an API client. An empty baseURL selects the public API.
func NewClient(baseURL, token string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 4 * time.Second},
		logger:  logger.With().Str("component", "radiofrance_api").Logger(),
	}
}

// FetchGrid retrieves the grid of apiName between start and end.
func (c *Client) FetchGrid(ctx context.Context, apiName string, start, end time.Time) ([]Node, error) {
	query := fmt.Sprintf(gridQuery, start.Unix(), end.Unix(), apiName)
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s?x-token=%s", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("radiofrance: grid fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("radiofrance: grid fetch: unexpected status %d", resp.StatusCode)
	}

	var grid Grid
	if err := json.NewDecoder(resp.Body).Decode(&grid); err != nil {
		return nil, fmt.Errorf("radiofrance: malformed grid payload: %w", err)
	}
	return grid.Data.Grid, nil
}
