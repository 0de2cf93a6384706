/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server exposes the read-only HTTP API: resolved steps, day
// schedules and a server-sent-events stream of channel updates.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pycolore/sunflower/internal/repository"
	"github.com/pycolore/sunflower/internal/telemetry"
)

// ChannelInfo is the API-facing description of a channel.
type ChannelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Server serves the public API.
type Server struct {
	repo       repository.Repository
	channels   []ChannelInfo
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New builds the server for addr.
func New(addr string, channels []ChannelInfo, repo repository.Repository, logger zerolog.Logger) *Server {
	s := &Server{
		repo:     repo,
		channels: channels,
		logger:   logger.With().Str("component", "server").Logger(),
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.MetricsMiddleware)

	// the events stream stays open indefinitely, so the timeout only
	// wraps the request/response routes
	timeout := middleware.Timeout(60 * time.Second)

	r.With(timeout).Get("/healthz", s.handleHealth)
	r.With(timeout).Handle("/metrics", telemetry.Handler())
	r.Route("/channels", func(r chi.Router) {
		r.With(timeout).Get("/", s.handleChannels)
		r.Route("/{channelID}", func(r chi.Router) {
			r.Use(s.channelCtx)
			r.With(timeout).Get("/current", s.handleField("current"))
			r.With(timeout).Get("/next", s.handleField("next"))
			r.With(timeout).Get("/schedule", s.handleField("schedule"))
			r.Get("/events", s.handleEvents)
		})
	})

	s.router = r
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP API listening")
		errCh <- s.httpServer.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.channels)
}

// channelCtx rejects unknown channel ids before any handler runs.
func (s *Server) channelCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "channelID")
		for _, ch := range s.channels {
			if ch.ID == id {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, fmt.Sprintf("unknown channel %q", id), http.StatusNotFound)
	})
}

// handleField serves the stored JSON document for one channel field.
func (s *Server) handleField(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "channelID")
		value, err := s.repo.Retrieve(r.Context(), repository.ChannelKey(id, field))
		if err != nil {
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}
		if value == nil {
			http.Error(w, "not resolved yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(value)
	}
}

// handleEvents streams channel update signals as server-sent events. Each
// published payload becomes one event; a comment line keeps idle
// connections alive.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	id := chi.URLParam(r, "channelID")
	events, cancel, err := s.repo.Subscribe(r.Context(), repository.ChannelTopic(id))
	if err != nil {
		http.Error(w, "subscription unavailable", http.StatusInternalServerError)
		return
	}
	defer cancel()

	clientID := uuid.NewString()
	s.logger.Debug().Str("channel", id).Str("client", clientID).Msg("events subscriber connected")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug().Str("channel", id).Str("client", clientID).Msg("events subscriber disconnected")
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case msg, open := <-events:
			if !open {
				return
			}
			if _, err := fmt.Fprintf(w, "event: update\ndata: %s\n\n", msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
