/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pycolore/sunflower/internal/channel"
	"github.com/pycolore/sunflower/internal/config"
	"github.com/pycolore/sunflower/internal/handler"
	"github.com/pycolore/sunflower/internal/liquidsoap"
	"github.com/pycolore/sunflower/internal/music"
	"github.com/pycolore/sunflower/internal/repository"
	"github.com/pycolore/sunflower/internal/server"
	"github.com/pycolore/sunflower/internal/station"
	"github.com/pycolore/sunflower/internal/station/pycolore"
	"github.com/pycolore/sunflower/internal/station/radiofrance"
	"github.com/pycolore/sunflower/internal/station/rtl"
	"github.com/pycolore/sunflower/internal/timetable"
)

// app is the assembled object graph of one serve run.
type app struct {
	stations   map[string]station.Station
	processors []station.Processor
	channels   []*channel.Channel
	infos      []server.ChannelInfo
	engine     liquidsoap.Controller
}

// buildApp wires stations, handlers and channels from the YAML layout.
func buildApp(cfg *config.Config, layout *config.File, repo repository.Repository, logger zerolog.Logger) (*app, error) {
	var engine liquidsoap.Controller = liquidsoap.NopController{}
	if cfg.LiquidsoapAddr != "" {
		engine = liquidsoap.NewClient(cfg.LiquidsoapAddr, logger)
	}

	var cover music.CoverFinder = music.NoopCoverFinder{}
	if cfg.DeezerURL != "" {
		cover = music.NewDeezer(cfg.DeezerURL, logger)
	}

	a := &app{
		stations: make(map[string]station.Station),
		engine:   engine,
	}

	rfClient := radiofrance.NewClient("", cfg.RadioFranceToken, logger)
	for _, entry := range layout.Stations.RadioFrance {
		preset, ok := radiofrance.Presets[entry.Preset]
		if !ok {
			return nil, fmt.Errorf("config: unknown Radio France preset %q", entry.Preset)
		}
		relay := station.NewRelay(radiofrance.New(preset, rfClient, cover, logger), engine, logger)
		a.stations[relay.Name()] = relay
		a.processors = append(a.processors, relay)
	}

	for _, entry := range layout.Stations.RTL {
		rc := rtl.DefaultConfig()
		if entry.Name != "" {
			rc.Name = entry.Name
		}
		if entry.Website != "" {
			rc.Website = entry.Website
		}
		if entry.Thumbnail != "" {
			rc.Thumbnail = entry.Thumbnail
		}
		if entry.StreamURL != "" {
			rc.StreamURL = entry.StreamURL
		}
		relay := station.NewRelay(rtl.New(rc, cover, logger), engine, logger)
		a.stations[relay.Name()] = relay
		a.processors = append(a.processors, relay)
	}

	if p := layout.Stations.Pycolore; p != nil {
		manifest := p.Manifest
		if manifest == "" {
			manifest = cfg.SongsManifest
		}
		st := pycolore.New(pycolore.Config{
			ID:           p.ID,
			Name:         p.Name,
			Thumbnail:    p.Thumbnail,
			ManifestPath: manifest,
		}, engine, cover, logger)
		a.stations[st.Name()] = st
		a.processors = append(a.processors, st)
	}

	for _, chFile := range layout.Channels {
		table, err := buildTimetable(chFile, a.stations)
		if err != nil {
			return nil, err
		}
		handlers, err := buildHandlers(cfg, chFile.Handlers, engine, cover)
		if err != nil {
			return nil, err
		}
		ch := channel.New(channel.Config{
			ID:       chFile.ID,
			Name:     chFile.Name,
			Table:    table,
			Handlers: handlers,
		}, engine, logger)
		a.channels = append(a.channels, ch)
		a.infos = append(a.infos, server.ChannelInfo{ID: chFile.ID, Name: chFile.Name})
	}
	return a, nil
}

func buildTimetable(chFile config.ChannelFile, stations map[string]station.Station) (*timetable.Timetable, error) {
	days := make(map[time.Weekday][]timetable.Slot)
	for _, entry := range chFile.Timetable {
		slots := make([]timetable.Slot, 0, len(entry.Slots))
		for _, sf := range entry.Slots {
			start, err := timetable.ParseTimeOfDay(sf.Start)
			if err != nil {
				return nil, fmt.Errorf("config: channel %q slot start %q: %w", chFile.ID, sf.Start, err)
			}
			end, err := timetable.ParseTimeOfDay(sf.End)
			if err != nil {
				return nil, fmt.Errorf("config: channel %q slot end %q: %w", chFile.ID, sf.End, err)
			}
			st, ok := stations[sf.Station]
			if !ok {
				return nil, fmt.Errorf("config: channel %q references undeclared station %q", chFile.ID, sf.Station)
			}
			slots = append(slots, timetable.Slot{Start: start, End: end, Station: st})
		}
		for _, day := range entry.Weekdays() {
			days[day] = append(days[day], slots...)
		}
	}
	table, err := timetable.New(days)
	if err != nil {
		return nil, fmt.Errorf("config: channel %q: %w", chFile.ID, err)
	}
	return table, nil
}

func buildHandlers(cfg *config.Config, names []string, engine liquidsoap.Controller, cover music.CoverFinder) ([]handler.Handler, error) {
	var out []handler.Handler
	for _, name := range names {
		switch name {
		case "ads":
			out = append(out, handler.NewAdsHandler(cfg.BackupSongsManifest, engine, cover))
		default:
			return nil, fmt.Errorf("config: unknown handler %q", name)
		}
	}
	return out, nil
}
