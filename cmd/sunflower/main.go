/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pycolore/sunflower/internal/config"
	"github.com/pycolore/sunflower/internal/logging"
	"github.com/pycolore/sunflower/internal/repository"
	"github.com/pycolore/sunflower/internal/scheduler"
	"github.com/pycolore/sunflower/internal/server"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sunflower",
	Short: "Sunflower - broadcast scheduling and metadata resolution engine",
	Long:  "Sunflower schedules web radio channels over external and local stations, resolves what is on air and serves it over HTTP.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduler and the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Msg("Sunflower starting")

	layout, err := config.LoadFile(cfg.ChannelsFile)
	if err != nil {
		return err
	}

	repo := repository.NewRedis(repository.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	defer repo.Close()

	app, err := buildApp(cfg, layout, repo, logger)
	if err != nil {
		return err
	}

	sched := scheduler.New(app.channels, app.processors, repo, cfg.TickInterval, logger)
	api := server.New(cfg.HTTPAddr(), app.infos, repo, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return sched.Run(ctx) })
	group.Go(func() error { return api.Run(ctx) })

	if err := group.Wait(); err != nil && err != context.Canceled {
		return err
	}
	logger.Info().Msg("Sunflower stopped")
	return nil
}
