/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package repository stores resolved steps and schedules and relays channel
// update notifications to API subscribers.
package repository

import (
	"context"
	"errors"
	"fmt"
)

// Publish payloads sent on channel topics.
const (
	Unchanged = 0
	Updated   = 1
)

// ErrUnavailable is returned when the backing store cannot be reached and
// no fallback can serve the call.
var ErrUnavailable = errors.New("repository: store unavailable")

// Repository persists JSON-encoded entity fields and fans out update
// notifications. Retrieve returns (nil, nil) for absent keys.
type Repository interface {
	Retrieve(ctx context.Context, key string) ([]byte, error)
	Persist(ctx context.Context, key string, value any) error
	Publish(ctx context.Context, topic string, message any) error
	Subscribe(ctx context.Context, topic string) (<-chan []byte, func(), error)
	Close() error
}

// ChannelKey builds the storage key for a channel field.
func ChannelKey(id, field string) string {
	return fmt.Sprintf("sunflower:channel:%s:%s", id, field)
}

// StationKey builds the storage key for a station field.
func StationKey(id, field string) string {
	return fmt.Sprintf("sunflower:station:%s:%s", id, field)
}

// ChannelTopic is the pub/sub topic carrying a channel's update signals.
func ChannelTopic(id string) string {
	return fmt.Sprintf("sunflower:channel:%s", id)
}
