/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package handler post-processes the step a channel is about to air. A
// handler may rewrite the step entirely, for example to replace an ad break
// with a local song.
package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pycolore/sunflower/internal/broadcast"
)

// Handler inspects a resolved step and returns the step to air in its
// place. Returning the input unchanged is the common case.
type Handler interface {
	Name() string
	Process(ctx context.Context, logger zerolog.Logger, step broadcast.Step, channelID string, now time.Time) broadcast.Step
}

// Chain runs each handler in order, feeding the output of one into the
// next. A panicking handler is skipped and its input step kept.
func Chain(ctx context.Context, logger zerolog.Logger, handlers []Handler, step broadcast.Step, channelID string, now time.Time) broadcast.Step {
	for _, h := range handlers {
		step = runHandler(ctx, logger, h, step, channelID, now)
	}
	return step
}

func runHandler(ctx context.Context, logger zerolog.Logger, h Handler, step broadcast.Step, channelID string, now time.Time) (out broadcast.Step) {
	out = step
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("handler", h.Name()).Interface("panic", r).Msg("handler panicked")
		}
	}()
	return h.Process(ctx, logger, step, channelID, now)
}
