/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package pycolore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pycolore/sunflower/internal/broadcast"
	"github.com/pycolore/sunflower/internal/station"
)

type recordingEngine struct {
	pushes []string
}

func (e *recordingEngine) SwitchSource(ctx context.Context, channelID, previous, next string) {}
func (e *recordingEngine) InsertMetadata(ctx context.Context, channelID string, md broadcast.StreamMetadata) {
}
func (e *recordingEngine) PushSong(ctx context.Context, queueID, path string) {
	e.pushes = append(e.pushes, queueID+":"+path)
}
func (e *recordingEngine) StartSource(ctx context.Context, stationName string) {}
func (e *recordingEngine) StopSource(ctx context.Context, stationName string)  {}

func writeManifest(t *testing.T, count int) string {
	t.Helper()
	files := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		files = append(files, map[string]any{
			"path": filepath.Join("/music", string(rune('a'+i))+".mp3"),
			"metadata": map[string]any{
				"title":            "Song " + string(rune('A'+i)),
				"artist":           "Artist " + string(rune('A'+i)),
				"album":            "Album",
				"duration_seconds": 200.0 + float64(i),
			},
		})
	}
	raw, err := json.Marshal(map[string]any{"version": 1, "files": files})
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	path := filepath.Join(t.TempDir(), "songs.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func newTestStation(t *testing.T, engine *recordingEngine, songs int) *Station {
	t.Helper()
	return New(Config{ManifestPath: writeManifest(t, songs)}, engine, nil, zerolog.Nop())
}

func TestProcessQueuesSongWhileActive(t *testing.T) {
	engine := &recordingEngine{}
	st := newTestStation(t, engine, 8)
	now := time.Date(2020, 10, 12, 10, 0, 0, 0, time.UTC)
	st.SetEndOfUse(now.Add(time.Hour))

	snaps := st.Process(context.Background(), now, station.Usage{Active: []string{"tournesol"}})
	if len(engine.pushes) != 1 {
		t.Fatalf("pushes = %v, want one song queued", engine.pushes)
	}
	if !strings.HasPrefix(engine.pushes[0], "radiopycolore:") {
		t.Fatalf("push went to %q, want the station queue", engine.pushes[0])
	}
	if len(snaps) != 1 || snaps[0].Field != "playlist" {
		t.Fatalf("snapshots = %+v", snaps)
	}

	// the song is still playing: no second push
	st.Process(context.Background(), now.Add(5*time.Second), station.Usage{Active: []string{"tournesol"}})
	if len(engine.pushes) != 1 {
		t.Fatalf("pushes = %v, want still one", engine.pushes)
	}
}

func TestProcessAnticipatesUpcomingChannel(t *testing.T) {
	engine := &recordingEngine{}
	st := newTestStation(t, engine, 8)
	now := time.Date(2020, 10, 12, 10, 0, 0, 0, time.UTC)

	st.Process(context.Background(), now, station.Usage{Upcoming: []string{"tournesol"}})
	if len(engine.pushes) != 1 {
		t.Fatalf("pushes = %v, want the opener queued ahead of the hand-off", engine.pushes)
	}
}

func TestProcessIdleWithoutUsage(t *testing.T) {
	engine := &recordingEngine{}
	st := newTestStation(t, engine, 8)
	now := time.Date(2020, 10, 12, 10, 0, 0, 0, time.UTC)

	st.Process(context.Background(), now, station.Usage{})
	if len(engine.pushes) != 0 {
		t.Fatalf("pushes = %v, want none while unused", engine.pushes)
	}
}

func TestCurrentStepAnnouncesHandOffBeforeFirstSong(t *testing.T) {
	st := newTestStation(t, &recordingEngine{}, 8)
	now := time.Date(2020, 10, 12, 10, 0, 0, 0, time.UTC)
	env := station.Env{SlotEnd: now.Add(time.Hour), NextStationName: "RTL 2"}

	info := st.CurrentStep(context.Background(), now, env)
	if info.Step.Broadcast.Type != broadcast.TypeWaitingForNext {
		t.Fatalf("type = %q, want transition", info.Step.Broadcast.Type)
	}
	if info.Step.Broadcast.Title != "Dans un instant : RTL 2." {
		t.Fatalf("title = %q", info.Step.Broadcast.Title)
	}
	if info.Step.End != env.SlotEnd.Unix() {
		t.Fatalf("end = %d, want slot end", info.Step.End)
	}
}

func TestCurrentStepDescribesPlayingSong(t *testing.T) {
	engine := &recordingEngine{}
	st := newTestStation(t, engine, 8)
	now := time.Date(2020, 10, 12, 10, 0, 0, 0, time.UTC)
	st.SetEndOfUse(now.Add(time.Hour))
	st.Process(context.Background(), now, station.Usage{Active: []string{"tournesol"}})

	info := st.CurrentStep(context.Background(), now, station.Env{SlotEnd: now.Add(time.Hour)})
	b := info.Step.Broadcast
	if b.Type != broadcast.TypeMusic {
		t.Fatalf("type = %q, want music", b.Type)
	}
	if !strings.Contains(b.Title, " • ") {
		t.Fatalf("title = %q", b.Title)
	}
	if b.ShowTitle != "La playlist Pycolore" {
		t.Fatalf("show title = %q", b.ShowTitle)
	}
	if !strings.Contains(b.Summary, "À suivre") {
		t.Fatalf("summary should tease upcoming artists, got %q", b.Summary)
	}
	if b.Metadata == nil || b.Metadata.Title == "" {
		t.Fatalf("metadata = %+v", b.Metadata)
	}
}

func TestNextStepOnlyOffAir(t *testing.T) {
	st := newTestStation(t, &recordingEngine{}, 8)
	now := time.Date(2020, 10, 12, 10, 0, 0, 0, time.UTC)

	if step := st.NextStep(context.Background(), now, station.Env{OnAir: true}); !step.IsNone() {
		t.Fatalf("on-air next step should be none, got %+v", step)
	}
	step := st.NextStep(context.Background(), now, station.Env{OnAir: false})
	if step.Broadcast.Title != "La playlist Pycolore" {
		t.Fatalf("title = %q", step.Broadcast.Title)
	}
}

func TestScheduleIsSingleBlock(t *testing.T) {
	st := newTestStation(t, &recordingEngine{}, 8)
	start := time.Date(2020, 10, 12, 22, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	steps := st.Schedule(context.Background(), start, end)
	if len(steps) != 1 {
		t.Fatalf("got %d steps, want 1", len(steps))
	}
	if steps[0].Start != start.Unix() || steps[0].End != end.Unix() {
		t.Fatalf("bounds = [%d, %d]", steps[0].Start, steps[0].End)
	}
}
