/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Circuit breaker
	MaxFailures   int
	CheckInterval time.Duration
}

// DefaultRedisConfig returns default Redis configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:          "localhost:6379",
		DialTimeout:   5 * time.Second,
		ReadTimeout:   3 * time.Second,
		WriteTimeout:  3 * time.Second,
		MaxFailures:   5,
		CheckInterval: 30 * time.Second,
	}
}

// Redis is a Redis-backed repository. When Redis becomes unreachable it
// trips to the in-memory fallback and periodically probes for recovery.
type Redis struct {
	client   *redis.Client
	logger   zerolog.Logger
	fallback *Memory
	cfg      RedisConfig

	mu          sync.Mutex
	useFallback bool
	failCount   int
	lastCheck   time.Time
}

// NewRedis creates a Redis-backed repository. A failed initial ping does
// not error: the repository starts on the in-memory fallback instead.
func NewRedis(cfg RedisConfig, logger zerolog.Logger) *Redis {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 30 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	r := &Redis{
		client:   client,
		logger:   logger.With().Str("component", "repository").Logger(),
		fallback: NewMemory(),
		cfg:      cfg,
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		r.logger.Warn().Err(err).Msg("Redis connection failed, using in-memory fallback")
		r.useFallback = true
		r.lastCheck = time.Now()
	}
	return r
}

func (r *Redis) Retrieve(ctx context.Context, key string) ([]byte, error) {
	if r.degraded() {
		return r.fallback.Retrieve(ctx, key)
	}
	value, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		r.recordFailure(err)
		return r.fallback.Retrieve(ctx, key)
	}
	r.recordSuccess()
	return value, nil
}

func (r *Redis) Persist(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	// mirror into the fallback so reads stay coherent across a trip
	if err := r.fallback.Persist(ctx, key, value); err != nil {
		return err
	}
	if r.degraded() {
		return nil
	}
	if err := r.client.Set(ctx, key, encoded, 0).Err(); err != nil {
		r.recordFailure(err)
		return nil
	}
	r.recordSuccess()
	return nil
}

func (r *Redis) Publish(ctx context.Context, topic string, message any) error {
	if err := r.fallback.Publish(ctx, topic, message); err != nil {
		return err
	}
	if r.degraded() {
		return nil
	}
	encoded, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, topic, encoded).Err(); err != nil {
		r.recordFailure(err)
		return nil
	}
	r.recordSuccess()
	return nil
}

// Subscribe delivers messages published by this process and, when Redis is
// healthy, by other nodes publishing on the same topic.
func (r *Redis) Subscribe(ctx context.Context, topic string) (<-chan []byte, func(), error) {
	local, cancelLocal, err := r.fallback.Subscribe(ctx, topic)
	if err != nil {
		return nil, nil, err
	}
	if r.degraded() {
		return local, cancelLocal, nil
	}

	pubsub := r.client.Subscribe(ctx, topic)
	out := make(chan []byte, 16)
	done := make(chan struct{})
	go func() {
		defer close(out)
		remote := pubsub.Channel()
		for {
			select {
			case msg, ok := <-remote:
				if !ok {
					remote = nil
					continue
				}
				out <- []byte(msg.Payload)
			case msg, ok := <-local:
				if !ok {
					local = nil
					continue
				}
				// local publishes already reached Redis when healthy;
				// only forward them while degraded
				if r.degraded() {
					out <- msg
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		close(done)
		_ = pubsub.Close()
		cancelLocal()
	}
	return out, cancel, nil
}

func (r *Redis) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// degraded reports whether calls should go to the fallback, probing Redis
// again once per check interval.
func (r *Redis) degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.useFallback {
		return false
	}
	if time.Since(r.lastCheck) < r.cfg.CheckInterval {
		return true
	}
	r.lastCheck = time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return true
	}
	r.logger.Info().Msg("Redis recovered, leaving fallback mode")
	r.useFallback = false
	r.failCount = 0
	return false
}

func (r *Redis) recordFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failCount++
	if r.failCount >= r.cfg.MaxFailures && !r.useFallback {
		r.logger.Warn().Err(err).Int("failures", r.failCount).Msg("Redis circuit breaker tripped")
		r.useFallback = true
		r.lastCheck = time.Now()
	}
}

func (r *Redis) recordSuccess() {
	r.mu.Lock()
	r.failCount = 0
	r.mu.Unlock()
}
