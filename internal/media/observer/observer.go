// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

// Package observer drives a freeze resolver from a periodically sampled
// playback pipeline and applies the resulting remediations.
//
// It is for embedders that run the engine in-process next to a player
// pipeline. The unfreezed daemon does not use it: HTTP clients sample their
// own players and post observations to a session instead.
package observer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	xglog "github.com/ManuGH/unfreeze/internal/log"
	"github.com/ManuGH/unfreeze/internal/media/freeze"
	"github.com/ManuGH/unfreeze/internal/media/inventory"
)

// DefaultInterval is the sampling period used when none is configured.
const DefaultInterval = time.Second

// Sampler reads the playback state. now is the observer's monotonic clock;
// event timestamps in the returned observation must use the same timeline.
type Sampler interface {
	Sample(ctx context.Context, now time.Duration) (freeze.Observation, error)
}

// Executor applies resolutions to the playback pipeline.
type Executor interface {
	Flush(ctx context.Context, relativeSeek float64) error
	Reload(ctx context.Context) error
	Deprecate(ctx context.Context, refs []inventory.ContentRef) error
}

// ConfigSource yields the resolver tuning in effect at each tick.
type ConfigSource interface {
	Freeze() freeze.Config
}

// StaticConfig is a ConfigSource that never changes.
type StaticConfig freeze.Config

// Freeze implements ConfigSource.
func (c StaticConfig) Freeze() freeze.Config { return freeze.Config(c) }

// Stats counts what the observer did so far.
type Stats struct {
	Ticks       int
	Frozen      int
	Resolutions map[freeze.Kind]int
	Failures    int
}

// Option configures an Observer.
type Option func(*Observer)

// WithInterval sets the sampling period.
func WithInterval(d time.Duration) Option {
	return func(o *Observer) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Observer) { o.logger = l }
}

// Observer ticks a Sampler into a freeze.Resolver and hands resolutions to an Executor.
type Observer struct {
	resolver *freeze.Resolver
	sampler  Sampler
	executor Executor
	cfg      ConfigSource

	interval time.Duration
	clock    clock
	logger   zerolog.Logger
	// throttles repeated logs while playback stays frozen or sampling fails
	logLimit *rate.Limiter

	mu    sync.Mutex
	stats Stats
}

// New creates an observer. resolver must not be shared with other callers.
func New(resolver *freeze.Resolver, sampler Sampler, executor Executor, cfg ConfigSource, opts ...Option) *Observer {
	o := &Observer{
		resolver: resolver,
		sampler:  sampler,
		executor: executor,
		cfg:      cfg,
		interval: DefaultInterval,
		clock:    realClock{},
		logger:   xglog.WithComponent("observer"),
		logLimit: rate.NewLimiter(rate.Every(10*time.Second), 1),
		stats:    Stats{Resolutions: make(map[freeze.Kind]int)},
	}
	if o.cfg == nil {
		o.cfg = StaticConfig(freeze.DefaultConfig())
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run samples every interval until ctx is cancelled. It returns nil on
// cancellation; sampler and executor errors are logged and never stop the loop.
func (o *Observer) Run(ctx context.Context) error {
	start := o.clock.Now()
	ticker := o.clock.NewTicker(o.interval)
	defer ticker.Stop()

	o.logger.Info().
		Str(xglog.FieldEvent, "observer.started").
		Dur("interval", o.interval).
		Msg("playback observer started")

	for {
		select {
		case <-ctx.Done():
			o.logger.Info().Str(xglog.FieldEvent, "observer.stopped").Msg("playback observer stopped")
			return nil
		case t := <-ticker.C():
			o.tick(ctx, t, t.Sub(start))
		}
	}
}

// tick evaluates one sample. at is the tick's wall time, now its offset from
// the observer's start.
func (o *Observer) tick(ctx context.Context, at time.Time, now time.Duration) {
	o.mu.Lock()
	o.stats.Ticks++
	o.mu.Unlock()

	obs, err := o.sampler.Sample(ctx, now)
	if err != nil {
		o.countFailure()
		if o.logLimit.AllowN(at, 1) {
			o.logger.Warn().Err(err).Str(xglog.FieldEvent, "observer.sample_failed").Msg("failed to sample playback")
		}
		return
	}

	res, ok := o.resolver.Resolve(obs, o.cfg.Freeze(), now)
	if freeze.IsFrozen(obs) {
		o.mu.Lock()
		o.stats.Frozen++
		o.mu.Unlock()
		if !ok && o.logLimit.AllowN(at, 1) {
			o.logger.Debug().
				Str(xglog.FieldEvent, "observer.still_frozen").
				Float64(xglog.FieldPosition, obs.Position.Polled).
				Dur("now", now).
				Msg("playback still frozen")
		}
	}
	if !ok {
		return
	}

	o.mu.Lock()
	o.stats.Resolutions[res.Kind]++
	o.mu.Unlock()

	if err := o.apply(ctx, res); err != nil {
		o.countFailure()
		o.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "observer.apply_failed").
			Str(xglog.FieldResolution, res.String()).
			Msg("failed to apply resolution")
	}
}

func (o *Observer) apply(ctx context.Context, res freeze.Resolution) error {
	switch res.Kind {
	case freeze.KindFlush:
		return o.executor.Flush(ctx, res.RelativeSeek)
	case freeze.KindReload:
		return o.executor.Reload(ctx)
	case freeze.KindDeprecateRepresentations:
		return o.executor.Deprecate(ctx, res.Representations)
	default:
		return fmt.Errorf("unknown resolution kind %q", res.Kind)
	}
}

func (o *Observer) countFailure() {
	o.mu.Lock()
	o.stats.Failures++
	o.mu.Unlock()
}

// Stats returns a copy of the counters.
func (o *Observer) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.stats
	out.Resolutions = make(map[freeze.Kind]int, len(o.stats.Resolutions))
	for k, v := range o.stats.Resolutions {
		out.Resolutions[k] = v
	}
	return out
}
