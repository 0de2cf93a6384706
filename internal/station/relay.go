/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pycolore/sunflower/internal/liquidsoap"
)

// Relay makes a relayed external station a Processor: its upstream input on
// the audio engine runs only while at least one channel airs it or is about
// to. Step resolution passes through to the wrapped station untouched.
type Relay struct {
	Station
	engine liquidsoap.Controller
	logger zerolog.Logger

	// ticks run sequentially, so no locking around the toggle state
	on bool
}

// NewRelay wraps st. A nil engine degrades to a no-op controller.
func NewRelay(st Station, engine liquidsoap.Controller, logger zerolog.Logger) *Relay {
	if engine == nil {
		engine = liquidsoap.NopController{}
	}
	return &Relay{
		Station: st,
		engine:  engine,
		logger:  logger.With().Str("station", FormatName(st.Name())).Logger(),
	}
}

func (r *Relay) ID() string { return FormatName(r.Name()) }

// Process starts the relayed input when the station comes into use and stops
// it once no channel airs it or anticipates it. No snapshots are produced.
func (r *Relay) Process(ctx context.Context, now time.Time, usage Usage) []Snapshot {
	used := len(usage.Active)+len(usage.Upcoming) > 0
	switch {
	case used && !r.on:
		r.logger.Info().Msg("starting relayed input")
		r.engine.StartSource(ctx, r.ID())
		r.on = true
	case !used && r.on:
		r.logger.Info().Msg("stopping relayed input")
		r.engine.StopSource(ctx, r.ID())
		r.on = false
	}
	return nil
}
