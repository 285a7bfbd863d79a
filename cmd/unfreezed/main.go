// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ManuGH/unfreeze/internal/api"
	"github.com/ManuGH/unfreeze/internal/api/middleware"
	"github.com/ManuGH/unfreeze/internal/config"
	"github.com/ManuGH/unfreeze/internal/daemon"
	"github.com/ManuGH/unfreeze/internal/health"
	"github.com/ManuGH/unfreeze/internal/journal"
	xglog "github.com/ManuGH/unfreeze/internal/log"
	"github.com/ManuGH/unfreeze/internal/session"
	"github.com/ManuGH/unfreeze/internal/telemetry"
	"github.com/ManuGH/unfreeze/internal/version"
)

const serviceName = "unfreeze"

// sessionCapacityThreshold degrades readiness when the registry is nearly full.
const sessionCapacityThreshold = 0.9

func main() {
	if len(os.Args) > 1 && os.Args[1] == "config" {
		os.Exit(runConfigCLI(os.Args[2:], os.Stdout, os.Stderr))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, strings.TrimSpace(*configPath)); err != nil {
		logger := xglog.WithComponent("daemon")
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "daemon.failed").
			Msg("daemon failed")
	}
}

func run(ctx context.Context, configPath string) error {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load configuration %q: %w", configPath, err)
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: serviceName,
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	source := "env+defaults"
	if configPath != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str(xglog.FieldPath, configPath).
		Msg("loaded configuration")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: version.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	hm := health.NewManager(version.Version)

	var (
		journalStore  *journal.Store
		journalCloser io.Closer
		journalReader api.JournalReader
		journalWriter session.Journal
	)
	if cfg.Journal.Path != "" {
		journalStore, err = journal.Open(ctx, cfg.Journal.Path, cfg.Journal.Retention)
		if err != nil {
			_ = tp.Shutdown(context.Background())
			return fmt.Errorf("open journal: %w", err)
		}
		journalCloser, journalReader, journalWriter = journalStore, journalStore, journalStore
		hm.RegisterChecker(health.NewCheckerFunc("journal", journalStore.Check))
	}

	holder := config.NewConfigHolder(cfg, loader)
	sessions := session.NewManager(session.Options{
		Max:         cfg.Sessions.Max,
		IdleTimeout: cfg.Sessions.IdleTimeout,
		Config:      holder,
		Journal:     journalWriter,
	})
	hm.RegisterChecker(health.NewCapacityChecker("sessions", sessionCapacityThreshold, sessions.Capacity))

	tracingService := ""
	if tp.Enabled() {
		tracingService = serviceName
	}
	apiServer := api.New(api.Deps{
		Sessions: sessions,
		Health:   hm,
		Journal:  journalReader,
	}, middleware.StackConfig{
		EnableMetrics:      true,
		TracingService:     tracingService,
		EnableLogging:      true,
		EnableRateLimit:    cfg.API.RateLimit.Enabled,
		RateLimitPerMinute: cfg.API.RateLimit.RequestsPerMinute,
	})

	srv, err := daemon.NewServer(daemon.DefaultServerConfig(cfg.API.ListenAddr), apiServer.Handler(), logger)
	if err != nil {
		return err
	}
	app, err := daemon.NewApp(daemon.Deps{
		Logger:          logger,
		Server:          srv,
		Sessions:        sessions,
		Config:          holder,
		Telemetry:       tp,
		Journal:         journalCloser,
		JanitorInterval: janitorInterval(cfg.Sessions.IdleTimeout),
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", cfg.API.ListenAddr).
		Int("sessions_max", cfg.Sessions.Max).
		Bool("journal", journalStore != nil).
		Bool("tracing", tp.Enabled()).
		Msg("starting unfreeze")

	if err := app.Run(ctx); err != nil {
		return err
	}
	logger.Info().Msg("server exiting")
	return nil
}

// janitorInterval sweeps a few times per idle timeout, within sane bounds.
func janitorInterval(idle time.Duration) time.Duration {
	return min(max(idle/4, time.Second), 30*time.Second)
}
