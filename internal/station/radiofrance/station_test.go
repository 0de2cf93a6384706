/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package radiofrance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pycolore/sunflower/internal/broadcast"
	"github.com/pycolore/sunflower/internal/station"
)

func testConfig() Config {
	return Config{
		Name:      "France Inter",
		Slogan:    "InterVenez",
		APIName:   "FRANCEINTER",
		Thumbnail: "https://example.org/inter.svg",
		Website:   "https://www.franceinter.fr",
	}
}

// gridServer serves the same grid payload for every request.
func gridServer(t *testing.T, grid []Node) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		var payload Grid
		payload.Data.Grid = grid
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

func TestCurrentStepProgramme(t *testing.T) {
	now := time.Unix(1602740000, 0)
	srv := gridServer(t, []Node{nestedParent()})
	defer srv.Close()

	st := New(testConfig(), NewClient(srv.URL, "token", zerolog.Nop()), nil, zerolog.Nop())
	info := st.CurrentStep(context.Background(), now, station.Env{})
	if !info.ShouldNotify {
		t.Fatal("first resolution should notify")
	}
	step := info.Step
	if step.Broadcast.Type != broadcast.TypeProgramme {
		t.Fatalf("type = %q, want programme", step.Broadcast.Type)
	}
	if step.Broadcast.Title != "Le masque et la plume" {
		t.Fatalf("title = %q", step.Broadcast.Title)
	}
	// the gap between segments ends when the second one starts
	if step.End != 1602744870 {
		t.Fatalf("end = %d, want 1602744870", step.End)
	}

	again := st.CurrentStep(context.Background(), now, station.Env{})
	if again.ShouldNotify {
		t.Fatal("unchanged broadcast should not notify")
	}
}

func TestCurrentStepTrack(t *testing.T) {
	now := time.Unix(1000, 0)
	srv := gridServer(t, []Node{{
		Start: 900,
		End:   1100,
		Track: &Track{Title: "Aline", MainArtists: []string{"Christophe"}},
	}})
	defer srv.Close()

	st := New(testConfig(), NewClient(srv.URL, "", zerolog.Nop()), nil, zerolog.Nop())
	step := st.CurrentStep(context.Background(), now, station.Env{}).Step
	if step.Broadcast.Type != broadcast.TypeMusic {
		t.Fatalf("type = %q, want track", step.Broadcast.Type)
	}
	if step.Broadcast.Title != "Christophe • Aline" {
		t.Fatalf("title = %q", step.Broadcast.Title)
	}
	if step.Broadcast.Metadata == nil || step.Broadcast.Metadata.Artist != "Christophe" {
		t.Fatalf("metadata = %+v", step.Broadcast.Metadata)
	}
	if step.End != 1100 {
		t.Fatalf("end = %d, want 1100", step.End)
	}
}

func TestCurrentStepBeforeGridStart(t *testing.T) {
	now := time.Unix(500, 0)
	srv := gridServer(t, []Node{{Start: 800, End: 900, Diffusion: &Diffusion{Title: "Plus tard"}}})
	defer srv.Close()

	st := New(testConfig(), NewClient(srv.URL, "", zerolog.Nop()), nil, zerolog.Nop())
	step := st.CurrentStep(context.Background(), now, station.Env{}).Step
	if step.Broadcast.Type != broadcast.TypeNone {
		t.Fatalf("type = %q, want empty", step.Broadcast.Type)
	}
	if step.End != 800 {
		t.Fatalf("empty step should last until the grid starts, end = %d", step.End)
	}
	if step.Broadcast.Title != "InterVenez" {
		t.Fatalf("empty step should carry the slogan, title = %q", step.Broadcast.Title)
	}
}

func TestCurrentStepUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	now := time.Unix(2000, 0)
	st := New(testConfig(), NewClient(srv.URL, "", zerolog.Nop()), nil, zerolog.Nop())
	step := st.CurrentStep(context.Background(), now, station.Env{}).Step
	if step.Broadcast.Type != broadcast.TypeError {
		t.Fatalf("type = %q, want error", step.Broadcast.Type)
	}
	if step.End != now.Unix()+errorRetryWindow {
		t.Fatalf("error step end = %d, want %d", step.End, now.Unix()+errorRetryWindow)
	}
}

func TestScheduleListsTopLevelOnly(t *testing.T) {
	srv := gridServer(t, []Node{
		nestedParent(),
		{Start: 1602745200, End: 1602747000, Diffusion: &Diffusion{Title: "Journal de nuit"}},
	})
	defer srv.Close()

	st := New(testConfig(), NewClient(srv.URL, "", zerolog.Nop()), nil, zerolog.Nop())
	steps := st.Schedule(context.Background(), time.Unix(1602738000, 0), time.Unix(1602747000, 0))
	if len(steps) != 2 {
		t.Fatalf("got %d steps, want 2 (children must not be expanded)", len(steps))
	}
	if steps[0].Broadcast.Title != "Le masque et la plume" || steps[1].Broadcast.Title != "Journal de nuit" {
		t.Fatalf("unexpected titles: %q, %q", steps[0].Broadcast.Title, steps[1].Broadcast.Title)
	}

	// identical upstream data yields identical listings
	second := st.Schedule(context.Background(), time.Unix(1602738000, 0), time.Unix(1602747000, 0))
	for i := range steps {
		if !steps[i].Broadcast.Equal(second[i].Broadcast) || steps[i].Start != second[i].Start {
			t.Fatal("schedule is not idempotent")
		}
	}
}

func TestStreamMetadataOnlyForTracks(t *testing.T) {
	st := New(testConfig(), nil, nil, zerolog.Nop())
	md := st.StreamMetadata(broadcast.Broadcast{Type: broadcast.TypeProgramme})
	if md != nil {
		t.Fatal("programme broadcasts must not touch the engine")
	}
	md = st.StreamMetadata(broadcast.Broadcast{
		Type:     broadcast.TypeMusic,
		Metadata: &broadcast.StreamMetadata{Title: "Aline", Artist: "Christophe"},
	})
	if md == nil || md.Title != "Aline" {
		t.Fatalf("metadata = %+v", md)
	}
}
