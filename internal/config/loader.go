// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath:      configPath,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, current string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, current)
}

func (l *Loader) envBool(key string, current bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, current)
}

func (l *Loader) envInt(key string, current int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, current)
}

func (l *Loader) envDuration(key string, current time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, current)
}

func (l *Loader) envFloat(key string, current float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, current)
}

// Path returns the config file path, empty when ENV-only.
func (l *Loader) Path() string {
	return l.configPath
}

// Load loads configuration with precedence: ENV > File > Defaults.
// The result is validated; an invalid config is returned together with the error.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFile decodes the YAML file on top of cfg, so absent keys keep their
// current (default) value.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)

	cfg.API.ListenAddr = l.envString(EnvListenAddr, cfg.API.ListenAddr)
	cfg.API.RateLimit.Enabled = l.envBool(EnvRateLimitEnabled, cfg.API.RateLimit.Enabled)
	cfg.API.RateLimit.RequestsPerMinute = l.envInt(EnvRateLimitRPM, cfg.API.RateLimit.RequestsPerMinute)

	cfg.Sessions.Max = l.envInt(EnvSessionsMax, cfg.Sessions.Max)
	cfg.Sessions.IdleTimeout = l.envDuration(EnvSessionsIdleTimeout, cfg.Sessions.IdleTimeout)

	cfg.Freeze.UnfreezingSeekDelay = l.envDuration(EnvFreezeSeekDelay, cfg.Freeze.UnfreezingSeekDelay)
	cfg.Freeze.UnfreezingDeltaPosition = l.envFloat(EnvFreezeDeltaPosition, cfg.Freeze.UnfreezingDeltaPosition)
	cfg.Freeze.FlushFailure.Minimum = l.envDuration(EnvFlushFailureMin, cfg.Freeze.FlushFailure.Minimum)
	cfg.Freeze.FlushFailure.Maximum = l.envDuration(EnvFlushFailureMax, cfg.Freeze.FlushFailure.Maximum)
	cfg.Freeze.FlushFailure.PositionDelta = l.envFloat(EnvFlushFailureDelta, cfg.Freeze.FlushFailure.PositionDelta)

	cfg.Telemetry.Enabled = l.envBool(EnvOTelEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(EnvOTelExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(EnvOTelEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvOTelSamplingRate, cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = l.envString(EnvOTelEnvironment, cfg.Telemetry.Environment)

	cfg.Journal.Path = l.envString(EnvJournalPath, cfg.Journal.Path)
	cfg.Journal.Retention = l.envInt(EnvJournalRetention, cfg.Journal.Retention)
}
