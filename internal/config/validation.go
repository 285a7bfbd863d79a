// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package config

import (
	"github.com/ManuGH/unfreeze/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.LogLevel("logLevel", cfg.LogLevel)

	v.ListenAddr("api.listenAddr", cfg.API.ListenAddr)
	if cfg.API.RateLimit.Enabled {
		v.Positive("api.rateLimit.requestsPerMinute", cfg.API.RateLimit.RequestsPerMinute)
	}

	v.Range("sessions.max", cfg.Sessions.Max, 1, 100000)
	v.PositiveDuration("sessions.idleTimeout", cfg.Sessions.IdleTimeout)

	f := cfg.Freeze
	v.NonNegativeDuration("freeze.unfreezingSeekDelay", f.UnfreezingSeekDelay)
	v.FloatRange("freeze.unfreezingDeltaPosition", f.UnfreezingDeltaPosition, 0, 10)
	v.NonNegativeDuration("freeze.flushFailure.minimum", f.FlushFailure.Minimum)
	v.PositiveDuration("freeze.flushFailure.maximum", f.FlushFailure.Maximum)
	if f.FlushFailure.Minimum >= f.FlushFailure.Maximum {
		v.AddError("freeze.flushFailure", "minimum must be lower than maximum", f.FlushFailure)
	}
	v.FloatRange("freeze.flushFailure.positionDelta", f.FlushFailure.PositionDelta, 0, 60)

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	v.FilePath("journal.path", cfg.Journal.Path)
	if cfg.Journal.Path != "" {
		v.Positive("journal.retention", cfg.Journal.Retention)
	}

	return v.Err()
}
