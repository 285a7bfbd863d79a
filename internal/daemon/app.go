// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/unfreeze/internal/config"
	"github.com/ManuGH/unfreeze/internal/session"
	"github.com/ManuGH/unfreeze/internal/telemetry"
)

const defaultJanitorInterval = 30 * time.Second

// Deps are the long-lived components the App runs and tears down.
// Config, Telemetry and Journal are optional.
type Deps struct {
	Logger    zerolog.Logger
	Server    *Server
	Sessions  *session.Manager
	Config    *config.ConfigHolder
	Telemetry *telemetry.Provider
	Journal   io.Closer

	// JanitorInterval is how often idle sessions are evicted.
	JanitorInterval time.Duration
}

// App owns the runtime lifecycle (watchers, reload wiring, janitor) around
// the HTTP server.
type App struct {
	deps         Deps
	logger       zerolog.Logger
	reloadSignal os.Signal
	// applyCh is registered with the config holder in NewApp.
	applyCh chan config.AppConfig
}

// NewApp creates a new App orchestrator.
func NewApp(deps Deps) (*App, error) {
	if deps.Server == nil {
		return nil, ErrMissingServer
	}
	if deps.Sessions == nil {
		return nil, ErrMissingSessions
	}
	if deps.JanitorInterval <= 0 {
		deps.JanitorInterval = defaultJanitorInterval
	}
	a := &App{
		deps:         deps,
		logger:       deps.Logger,
		reloadSignal: syscall.SIGHUP,
	}
	if deps.Config != nil {
		a.applyCh = make(chan config.AppConfig, 1)
		deps.Config.RegisterListener(a.applyCh)
	}
	return a, nil
}

// Run starts all owned subsystems and blocks until ctx is cancelled or one
// of them fails. Owned resources are released before it returns.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	holder := a.deps.Config

	if holder != nil {
		// The watcher is best-effort: startup does not fail without it.
		if err := holder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
		}

		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case cfg := <-a.applyCh:
					a.deps.Sessions.SetLimits(cfg.Sessions.Max, cfg.Sessions.IdleTimeout)
				}
			}
		})

		if a.reloadSignal != nil {
			g.Go(func() error {
				hupChan := make(chan os.Signal, 1)
				signal.Notify(hupChan, a.reloadSignal)
				defer signal.Stop(hupChan)

				for {
					select {
					case <-ctx.Done():
						return nil
					case <-hupChan:
						a.logger.Info().
							Str("event", "config.reload_signal").
							Str("signal", a.reloadSignal.String()).
							Msg("received reload signal, reloading config")
						if err := holder.Reload(ctx); err != nil {
							a.logger.Warn().Err(err).Str("event", "config.reload_failed").Msg("config reload failed")
						}
					}
				}
			})
		}
	}

	g.Go(func() error {
		return a.deps.Sessions.RunJanitor(ctx, a.deps.JanitorInterval)
	})

	g.Go(func() error {
		return a.deps.Server.Run(ctx)
	})

	err := g.Wait()
	a.release()
	return err
}

func (a *App) release() {
	if a.deps.Config != nil {
		a.deps.Config.Stop()
	}
	if a.deps.Telemetry != nil {
		if err := a.deps.Telemetry.Shutdown(context.Background()); err != nil {
			a.logger.Error().Err(err).Str("event", "telemetry.shutdown_failed").Msg("telemetry shutdown error")
		}
	}
	if a.deps.Journal != nil {
		if err := a.deps.Journal.Close(); err != nil {
			a.logger.Error().Err(err).Str("event", "journal.close_failed").Msg("journal close error")
		}
	}
	a.logger.Info().Str("event", "daemon.stopped").Msg("daemon stopped")
}
