// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/unfreeze/internal/log"
)

// Environment variable names. All keys share the UNFREEZE_ prefix.
const (
	EnvLogLevel            = "UNFREEZE_LOG_LEVEL"
	EnvListenAddr          = "UNFREEZE_LISTEN_ADDR"
	EnvRateLimitEnabled    = "UNFREEZE_RATELIMIT_ENABLED"
	EnvRateLimitRPM        = "UNFREEZE_RATELIMIT_RPM"
	EnvSessionsMax         = "UNFREEZE_SESSIONS_MAX"
	EnvSessionsIdleTimeout = "UNFREEZE_SESSIONS_IDLE_TIMEOUT"
	EnvFreezeSeekDelay     = "UNFREEZE_FREEZE_SEEK_DELAY"
	EnvFreezeDeltaPosition = "UNFREEZE_FREEZE_DELTA_POSITION"
	EnvFlushFailureMin     = "UNFREEZE_FREEZE_FLUSH_FAILURE_MIN"
	EnvFlushFailureMax     = "UNFREEZE_FREEZE_FLUSH_FAILURE_MAX"
	EnvFlushFailureDelta   = "UNFREEZE_FREEZE_FLUSH_FAILURE_POSITION_DELTA"
	EnvOTelEnabled         = "UNFREEZE_OTEL_ENABLED"
	EnvOTelExporter        = "UNFREEZE_OTEL_EXPORTER"
	EnvOTelEndpoint        = "UNFREEZE_OTEL_ENDPOINT"
	EnvOTelSamplingRate    = "UNFREEZE_OTEL_SAMPLING_RATE"
	EnvOTelEnvironment     = "UNFREEZE_OTEL_ENVIRONMENT"
	EnvJournalPath         = "UNFREEZE_JOURNAL_PATH"
	EnvJournalRetention    = "UNFREEZE_JOURNAL_RETENTION"
)

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	if value, exists := os.LookupEnv(key); exists {
		if value == "" {
			logger.Debug().
				Str("key", key).
				Str("default", defaultValue).
				Str("source", "default").
				Msg("using default value (environment variable is empty)")
			return defaultValue
		}
		logger.Debug().
			Str("key", key).
			Str("value", value).
			Str("source", "environment").
			Msg("using environment variable")
		return value
	}
	return defaultValue
}

// ParseInt reads an integer from environment variable or returns default value.
// It validates the input and falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			logger.Debug().
				Str("key", key).
				Int("value", i).
				Str("source", "environment").
				Msg("using environment variable")
			return i
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
	}
	return defaultValue
}

// ParseDuration reads a duration from environment variable in Go duration format (e.g. "5s").
// It falls back to default on parse errors or empty variables and logs the choice.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			logger.Debug().
				Str("key", key).
				Dur("value", d).
				Str("source", "environment").
				Msg("using environment variable")
			return d
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Dur("default", defaultValue).
			Msg("invalid duration in environment variable, using default")
	}
	return defaultValue
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		default:
			logger.Warn().
				Str("key", key).
				Str("value", v).
				Bool("default", defaultValue).
				Msg("invalid boolean in environment variable, using default")
		}
	}
	return defaultValue
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			logger.Debug().
				Str("key", key).
				Float64("value", f).
				Str("source", "environment").
				Msg("using environment variable")
			return f
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Float64("default", defaultValue).
			Msg("invalid float in environment variable, using default")
	}
	return defaultValue
}
