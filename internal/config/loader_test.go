// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/unfreeze/internal/validate"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, 6*time.Second, cfg.Freeze.UnfreezingSeekDelay)
	assert.Equal(t, 4*time.Second, cfg.Freeze.FlushFailure.Minimum)
	assert.Equal(t, 20*time.Second, cfg.Freeze.FlushFailure.Maximum)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
logLevel: debug
sessions:
  max: 12
freeze:
  unfreezingSeekDelay: 3s
  flushFailure:
    maximum: 30s
`)
	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 12, cfg.Sessions.Max)
	assert.Equal(t, 3*time.Second, cfg.Freeze.UnfreezingSeekDelay)
	assert.Equal(t, 30*time.Second, cfg.Freeze.FlushFailure.Maximum)
	// untouched keys keep their defaults
	assert.Equal(t, 4*time.Second, cfg.Freeze.FlushFailure.Minimum)
	assert.Equal(t, 5*time.Minute, cfg.Sessions.IdleTimeout)
	assert.Equal(t, ":8088", cfg.API.ListenAddr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "freeze:\n  unfreezingSeekDelay: 3s\n")
	t.Setenv(EnvFreezeSeekDelay, "8s")
	t.Setenv(EnvListenAddr, "127.0.0.1:9000")
	t.Setenv(EnvFlushFailureDelta, "2.5")
	t.Setenv(EnvRateLimitEnabled, "no")

	loader := NewLoader(path)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 8*time.Second, cfg.Freeze.UnfreezingSeekDelay)
	assert.Equal(t, "127.0.0.1:9000", cfg.API.ListenAddr)
	assert.InDelta(t, 2.5, cfg.Freeze.FlushFailure.PositionDelta, 1e-9)
	assert.False(t, cfg.API.RateLimit.Enabled)
	assert.Contains(t, loader.ConsumedEnvKeys, EnvFreezeSeekDelay)
	assert.Contains(t, loader.ConsumedEnvKeys, EnvJournalPath)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv(EnvSessionsMax, "many")
	t.Setenv(EnvFreezeSeekDelay, "soon")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Sessions.Max)
	assert.Equal(t, 6*time.Second, cfg.Freeze.UnfreezingSeekDelay)
}

func TestLoad_StrictParsing(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
		errText string
	}{
		{
			name:    "unknown field",
			file:    "config.yaml",
			content: "freeze:\n  unfreezingSeekDelay: 3s\n  bogus: 1\n",
			wantErr: ErrUnknownConfigField,
		},
		{
			name:    "multiple documents",
			file:    "config.yaml",
			content: "logLevel: info\n---\nlogLevel: debug\n",
			errText: "multiple documents",
		},
		{
			name:    "unsupported extension",
			file:    "config.json",
			content: "{}",
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "wrong type",
			file:    "config.yml",
			content: "sessions:\n  max: lots\n",
			errText: "strict config parse error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := NewLoader(path).Load()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
			if tt.errText != "" {
				assert.Contains(t, err.Error(), tt.errText)
			}
		})
	}
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", "")
	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"defaults", func(*AppConfig) {}, ""},
		{"bad log level", func(c *AppConfig) { c.LogLevel = "loud" }, "logLevel"},
		{"bad listen addr", func(c *AppConfig) { c.API.ListenAddr = "nope" }, "api.listenAddr"},
		{"zero rpm", func(c *AppConfig) { c.API.RateLimit.RequestsPerMinute = 0 }, "api.rateLimit.requestsPerMinute"},
		{"zero rpm disabled", func(c *AppConfig) {
			c.API.RateLimit.Enabled = false
			c.API.RateLimit.RequestsPerMinute = 0
		}, ""},
		{"no sessions", func(c *AppConfig) { c.Sessions.Max = 0 }, "sessions.max"},
		{"negative seek delay", func(c *AppConfig) { c.Freeze.UnfreezingSeekDelay = -time.Second }, "freeze.unfreezingSeekDelay"},
		{"window inverted", func(c *AppConfig) {
			c.Freeze.FlushFailure.Minimum = 30 * time.Second
		}, "freeze.flushFailure"},
		{"bad exporter", func(c *AppConfig) {
			c.Telemetry.Enabled = true
			c.Telemetry.Exporter = "zipkin"
		}, "telemetry.exporter"},
		{"sampling out of range", func(c *AppConfig) {
			c.Telemetry.Enabled = true
			c.Telemetry.SamplingRate = 1.5
		}, "telemetry.samplingRate"},
		{"journal traversal", func(c *AppConfig) { c.Journal.Path = "../journal.db" }, "journal.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr validate.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %T", err)
			fields := make([]string, 0, len(verr.Errors()))
			for _, e := range verr.Errors() {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestEngineConversion(t *testing.T) {
	cfg := Defaults()
	cfg.Freeze.FlushFailure.PositionDelta = 0.5
	engine := cfg.Freeze.Engine()
	assert.Equal(t, cfg.Freeze.UnfreezingSeekDelay, engine.UnfreezingSeekDelay)
	assert.InDelta(t, 0.5, engine.FlushFailure.PositionDelta, 1e-9)
	assert.Equal(t, cfg.Freeze.FlushFailure.Maximum, engine.FlushFailure.Maximum)
}
