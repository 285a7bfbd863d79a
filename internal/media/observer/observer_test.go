// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package observer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/unfreeze/internal/media/freeze"
	"github.com/ManuGH/unfreeze/internal/media/inventory"
)

type mockClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers chan *mockTicker
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Unix(1700000000, 0), tickers: make(chan *mockTicker, 1)}
}

func (m *mockClock) Now() time.Time { m.mu.Lock(); defer m.mu.Unlock(); return m.now }
func (m *mockClock) NewTicker(time.Duration) ticker {
	t := &mockTicker{c: make(chan time.Time)}
	m.tickers <- t
	return t
}

// tick advances the clock by d and delivers one tick synchronously.
func (m *mockClock) tick(t *mockTicker, d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now
	m.mu.Unlock()
	t.c <- now
}

type mockTicker struct {
	c chan time.Time
}

func (m *mockTicker) C() <-chan time.Time { return m.c }
func (m *mockTicker) Stop()               {}

// scriptedSampler freezes playback from freezeAt on.
type scriptedSampler struct {
	mu       sync.Mutex
	freezeAt time.Duration
	err      error
	samples  int
	seen     []time.Duration
}

func (s *scriptedSampler) Sample(_ context.Context, now time.Duration) (freeze.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples++
	s.seen = append(s.seen, now)
	if s.err != nil {
		return freeze.Observation{}, s.err
	}
	gap := 10.0
	obs := freeze.Observation{ReadyState: 4, BufferGap: &gap, Position: freeze.Position{Polled: 30}}
	if now >= s.freezeAt {
		obs.ReadyState = 1
		obs.Freezing = &freeze.Event{Timestamp: s.freezeAt}
	}
	return obs, nil
}

type recordingExecutor struct {
	mu      sync.Mutex
	flushes []float64
	reloads int
	err     error
}

func (e *recordingExecutor) Flush(_ context.Context, rel float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flushes = append(e.flushes, rel)
	return e.err
}

func (e *recordingExecutor) Reload(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reloads++
	return e.err
}

func (e *recordingExecutor) Deprecate(context.Context, []inventory.ContentRef) error {
	return e.err
}

func (e *recordingExecutor) flushCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.flushes)
}

func startObserver(t *testing.T, o *Observer, clock *mockClock) (*mockTicker, context.CancelFunc, <-chan error) {
	t.Helper()
	o.clock = clock
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- o.Run(ctx) }()

	select {
	case tk := <-clock.tickers:
		return tk, cancel, errCh
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("observer did not start its ticker")
		return nil, nil, nil
	}
}

func stop(t *testing.T, cancel context.CancelFunc, errCh <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("observer did not stop")
	}
}

func TestObserver_FlushesAfterSeekDelay(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clock := newMockClock()
	sampler := &scriptedSampler{freezeAt: 2 * time.Second}
	exec := &recordingExecutor{}
	o := New(freeze.New(inventory.NewStore()), sampler, exec, nil)

	tk, cancel, errCh := startObserver(t, o, clock)
	// ticks at 1s..9s; the freeze starts at 2s and exceeds 6s at 9s
	for i := 0; i < 9; i++ {
		clock.tick(tk, time.Second)
	}
	stop(t, cancel, errCh)

	require.Equal(t, 1, exec.flushCount())
	assert.InDelta(t, 0.001, exec.flushes[0], 1e-12)

	want := make([]time.Duration, 0, 9)
	for i := 1; i <= 9; i++ {
		want = append(want, time.Duration(i)*time.Second)
	}
	assert.Equal(t, want, sampler.seen, "each sample is stamped with its own tick")

	stats := o.Stats()
	assert.Equal(t, 9, stats.Ticks)
	assert.Equal(t, 8, stats.Frozen)
	assert.Equal(t, 1, stats.Resolutions[freeze.KindFlush])
	assert.Zero(t, stats.Failures)
}

// The clock may run ahead of a delivered tick; samples still use the tick time.
func TestObserver_SamplesAtTickTime(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clock := newMockClock()
	start := clock.Now()
	sampler := &scriptedSampler{freezeAt: time.Hour}
	o := New(freeze.New(inventory.NewStore()), sampler, &recordingExecutor{}, nil)

	tk, cancel, errCh := startObserver(t, o, clock)
	for _, at := range []time.Duration{time.Second, 2 * time.Second} {
		clock.mu.Lock()
		clock.now = start.Add(at + time.Minute)
		clock.mu.Unlock()
		tk.c <- start.Add(at)
	}
	stop(t, cancel, errCh)

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sampler.seen)
}

func TestObserver_ErrorsDoNotStopLoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clock := newMockClock()
	sampler := &scriptedSampler{err: errors.New("pipeline gone")}
	exec := &recordingExecutor{err: errors.New("seek rejected")}
	cfg := freeze.DefaultConfig()
	cfg.UnfreezingSeekDelay = 0
	o := New(freeze.New(inventory.NewStore()), sampler, exec, StaticConfig(cfg), WithInterval(time.Second))

	tk, cancel, errCh := startObserver(t, o, clock)
	clock.tick(tk, time.Second)
	clock.tick(tk, time.Second)

	sampler.mu.Lock()
	sampler.err = nil
	sampler.mu.Unlock()
	clock.tick(tk, time.Second)
	stop(t, cancel, errCh)

	stats := o.Stats()
	assert.Equal(t, 3, stats.Ticks)
	// two sample failures plus one failed flush
	assert.Equal(t, 3, stats.Failures)
	assert.Equal(t, 1, exec.flushCount())
}

func TestObserver_ApplyDispatch(t *testing.T) {
	exec := &recordingExecutor{}
	o := New(freeze.New(inventory.NewStore()), &scriptedSampler{}, exec, nil)
	ctx := context.Background()

	require.NoError(t, o.apply(ctx, freeze.Resolution{Kind: freeze.KindReload}))
	require.NoError(t, o.apply(ctx, freeze.Resolution{Kind: freeze.KindFlush, RelativeSeek: 0.5}))
	require.NoError(t, o.apply(ctx, freeze.Resolution{Kind: freeze.KindDeprecateRepresentations}))
	assert.Error(t, o.apply(ctx, freeze.Resolution{Kind: "rewind"}))

	assert.Equal(t, 1, exec.reloads)
	assert.Equal(t, []float64{0.5}, exec.flushes)
}
