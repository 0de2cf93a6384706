/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduler runs the global tick loop: advance stateful stations
// first, then poll every channel and persist what changed.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pycolore/sunflower/internal/channel"
	"github.com/pycolore/sunflower/internal/repository"
	"github.com/pycolore/sunflower/internal/station"
	"github.com/pycolore/sunflower/internal/telemetry"
)

const (
	defaultTick = 4 * time.Second

	// a station counts as "upcoming" for a channel when its slot starts
	// within this window
	anticipationWindow = 10 * time.Second

	// hard bound on one channel or station task
	taskTimeout = 4 * time.Second
)

// Service orchestrates the broadcast resolution loop.
type Service struct {
	channels   []*channel.Channel
	processors []station.Processor
	repo       repository.Repository
	logger     zerolog.Logger
	tickEvery  time.Duration
}

// New constructs the scheduler service.
func New(channels []*channel.Channel, processors []station.Processor, repo repository.Repository, tickEvery time.Duration, logger zerolog.Logger) *Service {
	if tickEvery <= 0 {
		tickEvery = defaultTick
	}
	return &Service{
		channels:   channels,
		processors: processors,
		repo:       repo,
		logger:     logger.With().Str("component", "scheduler").Logger(),
		tickEvery:  tickEvery,
	}
}

// Run executes the scheduler loop until the context is cancelled. The first
// tick fires immediately so channels come up resolved.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()

	s.logger.Info().Int("channels", len(s.channels)).Int("processed_stations", len(s.processors)).Msg("scheduler loop started")
	s.tick(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler loop stopped")
			return ctx.Err()
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

func (s *Service) tick(ctx context.Context, now time.Time) {
	telemetry.SchedulerTicksTotal.Inc()

	usage := s.buildUsage(now)

	var wg sync.WaitGroup
	for _, proc := range s.processors {
		wg.Add(1)
		go func(proc station.Processor) {
			defer wg.Done()
			s.processStation(ctx, proc, now, usage[proc.ID()])
		}(proc)
	}
	wg.Wait()

	for _, ch := range s.channels {
		wg.Add(1)
		go func(ch *channel.Channel) {
			defer wg.Done()
			s.processChannel(ctx, ch, now)
		}(ch)
	}
	wg.Wait()
}

// buildUsage maps each processed station to the channels airing it now and
// the channels switching to it within the anticipation window.
func (s *Service) buildUsage(now time.Time) map[string]station.Usage {
	usage := make(map[string]station.Usage, len(s.processors))
	horizon := now.Add(anticipationWindow)
	for _, proc := range s.processors {
		var u station.Usage
		for _, ch := range s.channels {
			if cur, err := ch.CurrentStation(now); err == nil && cur.Name() == proc.Name() {
				u.Active = append(u.Active, ch.ID())
				continue
			}
			slotEnd, err := ch.SlotEnd(now)
			if err != nil || slotEnd.After(horizon) {
				continue
			}
			if next, err := ch.NextStation(now); err == nil && next.Name() == proc.Name() {
				u.Upcoming = append(u.Upcoming, ch.ID())
			}
		}
		usage[proc.ID()] = u
	}
	return usage
}

func (s *Service) processStation(ctx context.Context, proc station.Processor, now time.Time, usage station.Usage) {
	taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
	defer cancel()
	started := time.Now()
	defer func() {
		telemetry.PollDuration.WithLabelValues("station", proc.ID()).Observe(time.Since(started).Seconds())
		if r := recover(); r != nil {
			s.logger.Error().Str("station", proc.ID()).Interface("panic", r).Msg("station processing panicked")
			telemetry.SchedulerErrorsTotal.WithLabelValues("station", proc.ID()).Inc()
		}
	}()

	for _, snap := range proc.Process(taskCtx, now, usage) {
		key := repository.StationKey(proc.ID(), snap.Field)
		if err := s.repo.Persist(taskCtx, key, snap.Value); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("station snapshot persistence failed")
			telemetry.SchedulerErrorsTotal.WithLabelValues("station", proc.ID()).Inc()
		}
	}
}

func (s *Service) processChannel(ctx context.Context, ch *channel.Channel, now time.Time) {
	taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
	defer cancel()
	started := time.Now()
	defer func() {
		telemetry.PollDuration.WithLabelValues("channel", ch.ID()).Observe(time.Since(started).Seconds())
		if r := recover(); r != nil {
			s.logger.Error().Str("channel", ch.ID()).Interface("panic", r).Msg("channel processing panicked")
			telemetry.SchedulerErrorsTotal.WithLabelValues("channel", ch.ID()).Inc()
		}
	}()

	result := ch.Process(taskCtx, now)

	s.persist(taskCtx, ch.ID(), "current", result.Current)
	s.persist(taskCtx, ch.ID(), "next", result.Next)
	if result.Schedule != nil {
		s.persist(taskCtx, ch.ID(), "schedule", result.Schedule)
	}

	payload := repository.Unchanged
	if result.Updated {
		payload = repository.Updated
		telemetry.ChannelUpdatesTotal.WithLabelValues(ch.ID()).Inc()
	}
	if err := s.repo.Publish(taskCtx, repository.ChannelTopic(ch.ID()), payload); err != nil {
		s.logger.Warn().Err(err).Str("channel", ch.ID()).Msg("update publication failed")
		telemetry.SchedulerErrorsTotal.WithLabelValues("channel", ch.ID()).Inc()
	}
}

func (s *Service) persist(ctx context.Context, channelID, field string, value any) {
	key := repository.ChannelKey(channelID, field)
	if err := s.repo.Persist(ctx, key, value); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("persistence failed")
		telemetry.SchedulerErrorsTotal.WithLabelValues("channel", channelID).Inc()
	}
}
