// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/preset"
	"github.com/ManuGH/golive/internal/validate"
)

const (
	minRetryDelay  = 100 * time.Millisecond
	maxRetryDelay  = 5 * time.Minute
	maxRetryBudget = 1000
)

// Validate checks a resolved configuration and reports every problem at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	if cfg.Version != "" && cfg.Version != CurrentVersion {
		v.AddError("version", fmt.Sprintf("unsupported config version (want %q)", CurrentVersion), cfg.Version)
	}
	if cfg.LogLevel != "" {
		v.Custom("logLevel", cfg.LogLevel, func(any) error {
			_, err := zerolog.ParseLevel(cfg.LogLevel)
			return err
		})
	}

	v.IngestURL("stream.baseUrl", cfg.Stream.BaseURL)
	v.Custom("stream.preset", cfg.Stream.Preset, func(any) error {
		_, err := preset.Parse(cfg.Stream.Preset)
		return err
	})

	v.DurationRange("retry.delay", cfg.Retry.Delay, minRetryDelay, maxRetryDelay)
	v.Range("retry.maxAttempts", cfg.Retry.MaxAttempts, 0, maxRetryBudget)

	v.ListenAddr("server.listenAddr", cfg.Server.ListenAddr)
	if cfg.Server.RateLimit < 0 {
		v.AddError("server.rateLimit", "must not be negative", cfg.Server.RateLimit)
	}
	if cfg.Server.APIToken != "" && len(cfg.Server.APIToken) < 16 {
		v.AddError("server.apiToken", "must be at least 16 characters", "***")
	}

	v.OneOf("publisher.backend", cfg.Publisher.Backend, []string{BackendFFmpeg, BackendStub})
	if cfg.Publisher.Backend == BackendFFmpeg {
		v.NotEmpty("publisher.ffmpegBin", cfg.Publisher.FFmpegBin)
		v.NotEmpty("publisher.frontCamera", cfg.Publisher.FrontCamera)
	}
	if f := cfg.Publisher.InitialFacing; f != "" {
		v.OneOf("publisher.initialFacing", f, []string{string(facing.Front), string(facing.Back)})
		if f == string(facing.Back) && cfg.Publisher.Backend == BackendFFmpeg && cfg.Publisher.BackCamera == "" {
			v.AddError("publisher.initialFacing", "back requires publisher.backCamera", f)
		}
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.protocol", cfg.Telemetry.Protocol, []string{ProtocolHTTP, ProtocolGRPC})
		v.NotEmpty("telemetry.serviceName", cfg.Telemetry.ServiceName)
		if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
			v.AddError("telemetry.sampleRatio", "must be between 0 and 1", cfg.Telemetry.SampleRatio)
		}
	}

	return v.Err()
}
