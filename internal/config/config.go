/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package config covers process configuration. Operational settings come
// from environment variables; the station and channel layout comes from a
// YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	MetricsBind string

	ChannelsFile string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LiquidsoapAddr       string
	LiquidsoapConfigPath string
	LiquidsoapLogPath    string

	IcecastHost     string
	IcecastPort     int
	IcecastPassword string

	TickInterval time.Duration

	RadioFranceToken   string
	SongsManifest      string
	BackupSongsManifest string
	DeezerURL          string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("SUNFLOWER_ENV", "development"),
		HTTPBind:    getEnv("SUNFLOWER_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("SUNFLOWER_HTTP_PORT", 8080),
		MetricsBind: getEnv("SUNFLOWER_METRICS_BIND", "127.0.0.1:9000"),

		ChannelsFile: getEnv("SUNFLOWER_CHANNELS_FILE", "channels.yaml"),

		RedisAddr:     getEnv("SUNFLOWER_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("SUNFLOWER_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("SUNFLOWER_REDIS_DB", 0),

		LiquidsoapAddr:       getEnv("SUNFLOWER_LIQUIDSOAP_ADDR", ""),
		LiquidsoapConfigPath: getEnv("SUNFLOWER_LIQUIDSOAP_CONFIG", "sunflower.liq"),
		LiquidsoapLogPath:    getEnv("SUNFLOWER_LIQUIDSOAP_LOG", "/tmp/sunflower.liquidsoap.log"),

		IcecastHost:     getEnv("SUNFLOWER_ICECAST_HOST", "localhost"),
		IcecastPort:     getEnvInt("SUNFLOWER_ICECAST_PORT", 8000),
		IcecastPassword: getEnv("SUNFLOWER_ICECAST_PASSWORD", "hackme"),

		TickInterval: time.Duration(getEnvInt("SUNFLOWER_TICK_SECONDS", 4)) * time.Second,

		RadioFranceToken:    getEnv("SUNFLOWER_RADIOFRANCE_TOKEN", ""),
		SongsManifest:       getEnv("SUNFLOWER_SONGS_MANIFEST", ""),
		BackupSongsManifest: getEnv("SUNFLOWER_BACKUP_SONGS_MANIFEST", ""),
		DeezerURL:           getEnv("SUNFLOWER_DEEZER_URL", "https://api.deezer.com"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("config: invalid HTTP port %d", c.HTTPPort)
	}
	if c.TickInterval < time.Second {
		return fmt.Errorf("config: tick interval %s below one second", c.TickInterval)
	}
	if c.ChannelsFile == "" {
		return fmt.Errorf("config: channels file not set")
	}
	return nil
}

// HTTPAddr returns the bind address of the public API.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
