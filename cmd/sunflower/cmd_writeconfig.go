/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pycolore/sunflower/internal/config"
	"github.com/pycolore/sunflower/internal/liquidsoap"
	"github.com/pycolore/sunflower/internal/repository"
	"github.com/pycolore/sunflower/internal/station"
)

var writeConfigCmd = &cobra.Command{
	Use:   "writeconfig",
	Short: "Generate the audio engine configuration file",
	Long:  "Generate the Liquidsoap configuration matching the channel layout, then exit.",
	RunE:  runWriteConfig,
}

func init() {
	rootCmd.AddCommand(writeConfigCmd)
}

func runWriteConfig(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	layout, err := config.LoadFile(cfg.ChannelsFile)
	if err != nil {
		return err
	}
	app, err := buildApp(cfg, layout, repository.NewMemory(), logger)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(app.stations))
	for name := range app.stations {
		names = append(names, name)
	}
	sort.Strings(names)
	blocks := make([]string, 0, len(names))
	for _, name := range names {
		blocks = append(blocks, app.stations[name].LiquidsoapConfig())
	}

	channels := make([]liquidsoap.ChannelSources, 0, len(app.channels))
	for _, ch := range app.channels {
		var stations []string
		for _, st := range ch.Table().Stations() {
			stations = append(stations, station.FormatName(st.Name()))
		}
		channels = append(channels, liquidsoap.ChannelSources{ID: ch.ID(), Stations: stations})
	}

	out, err := os.Create(cfg.LiquidsoapConfigPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", cfg.LiquidsoapConfigPath, err)
	}
	defer out.Close()

	opts := liquidsoap.ConfigOptions{
		LogPath:         cfg.LiquidsoapLogPath,
		IcecastHost:     cfg.IcecastHost,
		IcecastPort:     cfg.IcecastPort,
		IcecastPassword: cfg.IcecastPassword,
	}
	if err := liquidsoap.WriteConfig(out, opts, blocks, channels); err != nil {
		return err
	}
	logger.Info().Str("path", cfg.LiquidsoapConfigPath).Msg("engine configuration written")
	return nil
}
