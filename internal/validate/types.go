// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package validate

import "strings"

// LogLevel is a zerolog level name accepted in configuration.
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = []string{
	string(LogLevelTrace),
	string(LogLevelDebug),
	string(LogLevelInfo),
	string(LogLevelWarn),
	string(LogLevelError),
}

// ParseLogLevel normalizes s (case and surrounding space) into a LogLevel.
func ParseLogLevel(s string) (LogLevel, bool) {
	level := strings.ToLower(strings.TrimSpace(s))
	for _, l := range logLevels {
		if l == level {
			return LogLevel(l), true
		}
	}
	return "", false
}

// LogLevel records an error unless level names a known log level.
func (v *Validator) LogLevel(field, level string) {
	if _, ok := ParseLogLevel(level); !ok {
		v.AddError(field, "must be one of: "+strings.Join(logLevels, ", "), level)
	}
}
