// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package config

import (
	"time"

	"github.com/ManuGH/unfreeze/internal/media/freeze"
)

// AppConfig is the complete, validated service configuration.
type AppConfig struct {
	LogLevel  string          `yaml:"logLevel"`
	API       APIConfig       `yaml:"api"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Freeze    FreezeConfig    `yaml:"freeze"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Journal   JournalConfig   `yaml:"journal"`
}

// APIConfig configures the HTTP ingress.
type APIConfig struct {
	ListenAddr string          `yaml:"listenAddr"`
	RateLimit  RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig bounds per-client request rates.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled"`
	// RequestsPerMinute is the sliding-window budget per client IP.
	RequestsPerMinute int `yaml:"requestsPerMinute"`
}

// SessionsConfig bounds the playback session registry.
type SessionsConfig struct {
	Max         int           `yaml:"max"`
	IdleTimeout time.Duration `yaml:"idleTimeout"`
}

// FreezeConfig tunes the freeze resolver.
type FreezeConfig struct {
	UnfreezingSeekDelay     time.Duration      `yaml:"unfreezingSeekDelay"`
	UnfreezingDeltaPosition float64            `yaml:"unfreezingDeltaPosition"`
	FlushFailure            FlushFailureConfig `yaml:"flushFailure"`
}

// FlushFailureConfig is the window in which a flush is judged failed.
type FlushFailureConfig struct {
	Minimum       time.Duration `yaml:"minimum"`
	Maximum       time.Duration `yaml:"maximum"`
	PositionDelta float64       `yaml:"positionDelta"`
}

// Engine converts the file/env representation into the resolver's config.
func (c FreezeConfig) Engine() freeze.Config {
	return freeze.Config{
		UnfreezingSeekDelay:     c.UnfreezingSeekDelay,
		UnfreezingDeltaPosition: c.UnfreezingDeltaPosition,
		FlushFailure: freeze.FlushFailureWindow{
			Minimum:       c.FlushFailure.Minimum,
			Maximum:       c.FlushFailure.Maximum,
			PositionDelta: c.FlushFailure.PositionDelta,
		},
	}
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// JournalConfig configures the resolution journal. An empty Path disables it.
type JournalConfig struct {
	Path      string `yaml:"path"`
	Retention int    `yaml:"retention"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	engine := freeze.DefaultConfig()
	return AppConfig{
		LogLevel: "info",
		API: APIConfig{
			ListenAddr: ":8088",
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 1200,
			},
		},
		Sessions: SessionsConfig{
			Max:         256,
			IdleTimeout: 5 * time.Minute,
		},
		Freeze: FreezeConfig{
			UnfreezingSeekDelay:     engine.UnfreezingSeekDelay,
			UnfreezingDeltaPosition: engine.UnfreezingDeltaPosition,
			FlushFailure: FlushFailureConfig{
				Minimum:       engine.FlushFailure.Minimum,
				Maximum:       engine.FlushFailure.Maximum,
				PositionDelta: engine.FlushFailure.PositionDelta,
			},
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
		Journal: JournalConfig{
			Retention: 10000,
		},
	}
}
