// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"fmt"

	"github.com/ManuGH/golive/internal/api"
	"github.com/ManuGH/golive/internal/bus"
	"github.com/ManuGH/golive/internal/config"
	"github.com/ManuGH/golive/internal/daemon"
	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/session"
	"github.com/ManuGH/golive/internal/domain/session/ports"
	xglog "github.com/ManuGH/golive/internal/log"
	"github.com/ManuGH/golive/internal/publisher/ffmpeg"
	"github.com/ManuGH/golive/internal/publisher/stub"
	"github.com/ManuGH/golive/internal/telemetry"
	"github.com/ManuGH/golive/internal/version"
)

// serve wires the runtime from cfg and blocks until ctx is cancelled.
func serve(ctx context.Context, cfg config.AppConfig, loader *config.Loader) error {
	logger := xglog.WithComponent("daemon")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version.Version,
		Protocol:       cfg.Telemetry.Protocol,
		Endpoint:       cfg.Telemetry.Endpoint,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	pub := newPublisher(cfg.Publisher)
	statusBus := bus.NewMemoryBus()
	ctrl, err := session.New(session.Options{
		Publisher:   pub,
		Bus:         statusBus,
		BaseURL:     cfg.Stream.BaseURL,
		FallbackKey: cfg.Stream.FallbackKey,
		Policy:      cfg.RetryPolicy(),
		Tracer:      telemetry.Tracer("github.com/ManuGH/golive/internal/domain/session"),
	})
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	serviceName := ""
	if cfg.Telemetry.Enabled {
		serviceName = cfg.Telemetry.ServiceName
	}
	srv := api.New(api.Config{
		ListenAddr:      cfg.Server.ListenAddr,
		APIToken:        cfg.Server.APIToken,
		RateLimit:       cfg.Server.RateLimit,
		DefaultPreset:   cfg.PresetID(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		ServiceName:     serviceName,
		Version:         version.Version,
	}, ctrl, statusBus)

	logStartup(cfg)

	app, err := daemon.NewApp(daemon.Deps{
		Logger:       logger,
		Session:      ctrl,
		Server:       daemon.ServerFunc(srv.ListenAndServe),
		Config:       config.NewConfigHolder(cfg, loader),
		CloseTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

func newPublisher(pc config.PublisherConfig) ports.Publisher {
	initial := facing.Facing(pc.InitialFacing)
	if pc.Backend == config.BackendStub {
		return stub.New(stub.Config{Facing: initial})
	}
	return ffmpeg.New(ffmpeg.Config{
		Bin: pc.FFmpegBin,
		Input: ffmpeg.Input{
			VideoFormat: pc.VideoFormat,
			VideoDevice: pc.FrontCamera,
			AudioFormat: pc.AudioFormat,
			AudioDevice: pc.AudioDevice,
		},
		BackCamera: pc.BackCamera,
		Facing:     initial,
	})
}

func logStartup(cfg config.AppConfig) {
	logger := xglog.WithComponent("daemon")
	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("addr", cfg.Server.ListenAddr).
		Msg("starting golive")

	logger.Info().Msgf("→ Ingest: %s", xglog.MaskURL(cfg.Stream.BaseURL))
	logger.Info().Msgf("→ Preset: %s", cfg.PresetID())
	logger.Info().Msgf("→ Publisher: %s", cfg.Publisher.Backend)
	if cfg.Stream.FallbackKey != "" {
		logger.Info().Msgf("→ Fallback key: %s", xglog.MaskKey(cfg.Stream.FallbackKey))
	}
	if cfg.Server.APIToken != "" {
		logger.Info().Msg("→ API token: configured")
	} else {
		logger.Warn().
			Str("security", "weak").
			Msg("→ API token: NOT configured (Auth Disabled). Set GOLIVE_API_TOKEN for security.")
	}
}
