/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package channel implements the per-output polling state machine. A channel
// owns a weekly timetable, asks the on-air station what it is broadcasting,
// runs the handler pipeline and drives the audio engine accordingly.
package channel

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pycolore/sunflower/internal/broadcast"
	"github.com/pycolore/sunflower/internal/handler"
	"github.com/pycolore/sunflower/internal/liquidsoap"
	"github.com/pycolore/sunflower/internal/station"
	"github.com/pycolore/sunflower/internal/timetable"
)

const (
	// re-poll interval for stations without reliable end timestamps
	longPollInterval = 10 * time.Second

	// forecasts reaching this far past the slot end are rejected and the
	// following station is asked instead
	nextStepOverrun = 300

	// forced re-check window after a resolution failure
	errorRetryWindow = 90
)

// endOfUseSetter is implemented by stations that pre-queue audio and need
// to know until when the channel keeps them on air.
type endOfUseSetter interface {
	SetEndOfUse(time.Time)
}

// Config declares a channel.
type Config struct {
	ID       string
	Name     string
	Table    *timetable.Timetable
	Handlers []handler.Handler
}

// Channel polls its timetable's stations and keeps the resolved current
// step, next step and day schedule. All state is confined to the scheduler
// goroutine; Channel has no internal locking.
type Channel struct {
	id       string
	name     string
	table    *timetable.Timetable
	handlers []handler.Handler
	engine   liquidsoap.Controller
	logger   zerolog.Logger

	current  broadcast.Step
	next     broadcast.Step
	schedule []broadcast.Step

	lastPoll      time.Time
	scheduleDay   string
	engineStation string
	lastMetadata  *broadcast.StreamMetadata
}

// Result is what one Process pass produced. Schedule is nil unless the day
// schedule was recomputed.
type Result struct {
	Updated  bool
	Current  broadcast.Step
	Next     broadcast.Step
	Schedule []broadcast.Step
}

// New builds a channel. A nil engine degrades to a no-op controller.
func New(cfg Config, engine liquidsoap.Controller, logger zerolog.Logger) *Channel {
	if engine == nil {
		engine = liquidsoap.NopController{}
	}
	return &Channel{
		id:       cfg.ID,
		name:     cfg.Name,
		table:    cfg.Table,
		handlers: cfg.Handlers,
		engine:   engine,
		logger:   logger.With().Str("channel", cfg.ID).Logger(),
	}
}

func (c *Channel) ID() string                  { return c.id }
func (c *Channel) Name() string                { return c.name }
func (c *Channel) Table() *timetable.Timetable { return c.table }

// CurrentStation returns the station on air at now.
func (c *Channel) CurrentStation(now time.Time) (station.Station, error) {
	return c.table.StationAt(now)
}

// NextStation returns the station scheduled after the slot containing now.
func (c *Channel) NextStation(now time.Time) (station.Station, error) {
	return c.table.StationAfter(now)
}

// SlotEnd returns when the slot containing now ends.
func (c *Channel) SlotEnd(now time.Time) (time.Time, error) {
	return c.table.EndOfSlotAt(now)
}

// Process runs one polling pass. It is cheap when the current step is still
// valid; otherwise it re-resolves against the on-air station, runs handlers,
// switches the engine source and refreshes the forecast.
func (c *Channel) Process(ctx context.Context, now time.Time) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("channel processing panicked")
			c.current = broadcast.ErrorStep(now.Unix(), errorRetryWindow,
				c.current.Broadcast.Station, c.current.Broadcast.Thumbnail,
				"Erreur interne, retour du direct dans un instant.")
			result = Result{Updated: true, Current: c.current, Next: c.next}
		}
	}()

	scheduleChanged := c.refreshSchedule(ctx, now)

	cur, err := c.table.StationAt(now)
	if err != nil {
		c.logger.Error().Err(err).Msg("no slot covers now")
		c.current = broadcast.ErrorStep(now.Unix(), errorRetryWindow,
			broadcast.StationInfo{Name: c.name}, "", "Grille de programmes indisponible.")
		return Result{Updated: true, Current: c.current, Next: c.next}
	}

	slotEnd, err := c.table.EndOfSlotAt(now)
	if err != nil {
		slotEnd = now.Add(time.Hour)
	}

	// the engine must track the on-air station even when the step refetch
	// below is skipped
	c.switchSource(ctx, cur, slotEnd)

	if c.shouldSkip(cur, now) {
		result = Result{Updated: false, Current: c.current, Next: c.next}
		if scheduleChanged {
			result.Schedule = c.schedule
		}
		return result
	}
	c.lastPoll = now

	following, _ := c.table.StationAfter(now)
	env := station.Env{
		ChannelID: c.id,
		SlotEnd:   slotEnd,
		OnAir:     true,
	}
	if following != nil {
		env.NextStationName = following.Name()
	}

	info := cur.CurrentStep(ctx, now, env)
	step := info.Step
	if step.End == 0 {
		step.End = slotEnd.Unix()
	}
	step = handler.Chain(ctx, c.logger, c.handlers, step, c.id, now)

	c.insertMetadata(ctx, cur, step)

	updated := info.ShouldNotify || !step.Broadcast.Equal(c.current.Broadcast)
	c.current = step
	c.next = c.resolveNext(ctx, cur, following, time.Unix(step.End, 0), slotEnd)

	result = Result{Updated: updated, Current: c.current, Next: c.next}
	if scheduleChanged {
		result.Schedule = c.schedule
	}
	return result
}

// shouldSkip reports whether the previously resolved step still stands.
// Long-poll stations are re-asked on a fixed interval; others until the
// step's own end, provided the slot still belongs to the same station.
func (c *Channel) shouldSkip(cur station.Station, now time.Time) bool {
	if c.current.IsNone() {
		return false
	}
	if cur.LongPoll() {
		return now.Sub(c.lastPoll) < longPollInterval
	}
	return now.Unix() < c.current.End && c.current.Broadcast.Station == cur.Info()
}

// refreshSchedule recomputes the day schedule when the date rolls over.
func (c *Channel) refreshSchedule(ctx context.Context, now time.Time) bool {
	day := now.Format("2006-01-02")
	if day == c.scheduleDay {
		return false
	}
	var steps []broadcast.Step
	for _, slot := range c.table.DaySlots(now) {
		steps = append(steps, slot.Station.Schedule(ctx, slot.Start, slot.End)...)
	}
	c.schedule = steps
	c.scheduleDay = day
	c.logger.Debug().Int("steps", len(steps)).Msg("day schedule refreshed")
	return true
}

// switchSource flips the audio source when the on-air station changed and
// keeps pre-queueing stations informed of the slot end. Runs on every pass,
// before the skip decision: a hand-off must reach the engine immediately.
func (c *Channel) switchSource(ctx context.Context, cur station.Station, slotEnd time.Time) {
	name := station.FormatName(cur.Name())
	if name != c.engineStation {
		c.logger.Info().Str("from", c.engineStation).Str("to", name).Msg("switching audio source")
		c.engine.SwitchSource(ctx, c.id, c.engineStation, name)
		c.engineStation = name
		c.lastMetadata = nil
	}
	if setter, ok := cur.(endOfUseSetter); ok {
		setter.SetEndOfUse(slotEnd)
	}
}

// insertMetadata pushes stream tags once per distinct metadata value.
func (c *Channel) insertMetadata(ctx context.Context, cur station.Station, step broadcast.Step) {
	md := cur.StreamMetadata(step.Broadcast)
	if md == nil {
		return
	}
	if c.lastMetadata != nil && *md == *c.lastMetadata {
		return
	}
	c.engine.InsertMetadata(ctx, c.id, *md)
	c.lastMetadata = md
}

// resolveNext forecasts the step following the current one, starting from
// the instant the current step ends. A forecast whose end equals its start
// means "until the end of the slot". When the current step runs to (or past)
// the slot end, or the on-air station claims to run far beyond it, the
// following station is asked for its opener instead.
func (c *Channel) resolveNext(ctx context.Context, cur, following station.Station, from time.Time, slotEnd time.Time) broadcast.Step {
	var next broadcast.Step
	if from.Before(slotEnd) || following == nil {
		env := station.Env{ChannelID: c.id, SlotEnd: slotEnd, OnAir: true}
		if following != nil {
			env.NextStationName = following.Name()
		}
		next = cur.NextStep(ctx, from, env)
		if !next.IsNone() && next.End == next.Start {
			next.End = slotEnd.Unix()
		}
	}

	overruns := next.End > slotEnd.Unix()+nextStepOverrun && next.Broadcast.Station == cur.Info()
	if (next.IsNone() || overruns) && following != nil {
		folEnd, err := c.table.EndOfSlotAt(slotEnd)
		if err != nil {
			folEnd = slotEnd.Add(time.Hour)
		}
		folEnv := station.Env{ChannelID: c.id, SlotEnd: folEnd, OnAir: false}
		next = following.NextStep(ctx, slotEnd, folEnv)
		if !next.IsNone() && next.End == next.Start {
			next.End = folEnd.Unix()
		}
	}
	if next.IsNone() {
		return next
	}
	if next.Start > slotEnd.Unix() {
		next.Start = slotEnd.Unix()
	}
	return next
}
