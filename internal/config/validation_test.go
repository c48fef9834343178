// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/golive/internal/validate"
)

func TestValidateDefaults(t *testing.T) {
	require.NoError(t, Validate(Defaults()))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"version", func(c *AppConfig) { c.Version = "9" }, "version"},
		{"log level", func(c *AppConfig) { c.LogLevel = "loud" }, "logLevel"},
		{"base url scheme", func(c *AppConfig) { c.Stream.BaseURL = "http://x/live" }, "stream.baseUrl"},
		{"preset", func(c *AppConfig) { c.Stream.Preset = "4k" }, "stream.preset"},
		{"retry delay", func(c *AppConfig) { c.Retry.Delay = time.Millisecond }, "retry.delay"},
		{"retry attempts", func(c *AppConfig) { c.Retry.MaxAttempts = -1 }, "retry.maxAttempts"},
		{"listen addr", func(c *AppConfig) { c.Server.ListenAddr = "8088" }, "server.listenAddr"},
		{"rate limit", func(c *AppConfig) { c.Server.RateLimit = -5 }, "server.rateLimit"},
		{"short token", func(c *AppConfig) { c.Server.APIToken = "short" }, "server.apiToken"},
		{"backend", func(c *AppConfig) { c.Publisher.Backend = "gstreamer" }, "publisher.backend"},
		{"ffmpeg bin", func(c *AppConfig) { c.Publisher.FFmpegBin = "" }, "publisher.ffmpegBin"},
		{"initial facing", func(c *AppConfig) { c.Publisher.InitialFacing = "sideways" }, "publisher.initialFacing"},
		{"back facing without device", func(c *AppConfig) { c.Publisher.InitialFacing = "back" }, "publisher.initialFacing"},
		{"otel protocol", func(c *AppConfig) {
			c.Telemetry.Enabled = true
			c.Telemetry.Protocol = "udp"
		}, "telemetry.protocol"},
		{"otel ratio", func(c *AppConfig) {
			c.Telemetry.Enabled = true
			c.Telemetry.SampleRatio = 2
		}, "telemetry.sampleRatio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)

			var verr validate.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Errors(), 1)
			assert.Equal(t, tt.field, verr.Errors()[0].Field)
		})
	}
}

func TestValidateStubSkipsFFmpegChecks(t *testing.T) {
	cfg := Defaults()
	cfg.Publisher.Backend = BackendStub
	cfg.Publisher.FFmpegBin = ""
	cfg.Publisher.FrontCamera = ""
	require.NoError(t, Validate(cfg))
}

func TestValidateTokenValueNotEchoed(t *testing.T) {
	cfg := Defaults()
	cfg.Server.APIToken = "hunter2"
	err := Validate(cfg)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "hunter2")
}
