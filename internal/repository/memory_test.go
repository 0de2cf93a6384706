/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestMemoryPersistRetrieve(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	if err := repo.Persist(ctx, ChannelKey("tournesol", "current"), map[string]int{"start": 100}); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	raw, err := repo.Retrieve(ctx, ChannelKey("tournesol", "current"))
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	var decoded map[string]int
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("stored value is not JSON: %v", err)
	}
	if decoded["start"] != 100 {
		t.Fatalf("decoded = %v", decoded)
	}
}

func TestMemoryRetrieveAbsentKey(t *testing.T) {
	repo := NewMemory()
	raw, err := repo.Retrieve(context.Background(), "sunflower:channel:nope:current")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if raw != nil {
		t.Fatalf("absent key should yield nil, got %q", raw)
	}
}

func TestMemoryPublishSubscribe(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	topic := ChannelTopic("tournesol")

	events, cancel, err := repo.Subscribe(ctx, topic)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	if err := repo.Publish(ctx, topic, Updated); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case msg := <-events:
		if string(msg) != "1" {
			t.Fatalf("payload = %q, want 1", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestMemorySubscribeCancelClosesChannel(t *testing.T) {
	repo := NewMemory()
	events, cancel, err := repo.Subscribe(context.Background(), "topic")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()
	select {
	case _, open := <-events:
		if open {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	// double cancel must not panic
	cancel()
}

func TestKeySchema(t *testing.T) {
	if got := ChannelKey("musique", "schedule"); got != "sunflower:channel:musique:schedule" {
		t.Fatalf("ChannelKey = %q", got)
	}
	if got := StationKey("pycolore", "playlist"); got != "sunflower:station:pycolore:playlist" {
		t.Fatalf("StationKey = %q", got)
	}
	if got := ChannelTopic("musique"); got != "sunflower:channel:musique" {
		t.Fatalf("ChannelTopic = %q", got)
	}
}
