// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
)

// CheckerFunc adapts an error-returning probe into a Checker.
// A nil error is healthy, any error unhealthy.
type CheckerFunc struct {
	name  string
	probe func(ctx context.Context) error
}

// NewCheckerFunc creates a Checker named name backed by probe.
func NewCheckerFunc(name string, probe func(ctx context.Context) error) *CheckerFunc {
	return &CheckerFunc{name: name, probe: probe}
}

func (c *CheckerFunc) Name() string { return c.name }

func (c *CheckerFunc) Check(ctx context.Context) CheckResult {
	if err := c.probe(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// CapacityChecker reports degraded once usage crosses a fraction of capacity.
type CapacityChecker struct {
	name      string
	usage     func() (used, capacity int)
	threshold float64
}

// NewCapacityChecker creates a checker that degrades above threshold (0..1)
// and is unhealthy when used reaches capacity.
func NewCapacityChecker(name string, threshold float64, usage func() (used, capacity int)) *CapacityChecker {
	return &CapacityChecker{name: name, usage: usage, threshold: threshold}
}

func (c *CapacityChecker) Name() string { return c.name }

func (c *CapacityChecker) Check(context.Context) CheckResult {
	used, capacity := c.usage()
	msg := fmt.Sprintf("%d/%d in use", used, capacity)
	switch {
	case capacity <= 0:
		return CheckResult{Status: StatusHealthy, Message: "unbounded"}
	case used >= capacity:
		return CheckResult{Status: StatusUnhealthy, Message: msg, Error: "capacity exhausted"}
	case float64(used) >= c.threshold*float64(capacity):
		return CheckResult{Status: StatusDegraded, Message: msg}
	default:
		return CheckResult{Status: StatusHealthy, Message: msg}
	}
}
