// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads, validates and hot-reloads golive configuration.
//
// Precedence: ENV > YAML file > defaults.
package config

import (
	"time"

	"github.com/ManuGH/golive/internal/domain/backoff"
	"github.com/ManuGH/golive/internal/domain/preset"
)

// CurrentVersion is the config schema version written by WriteDefault.
const CurrentVersion = "1"

// Publisher backends.
const (
	BackendFFmpeg = "ffmpeg"
	BackendStub   = "stub"
)

// OTLP exporter protocols.
const (
	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"
)

// AppConfig is the fully resolved configuration.
type AppConfig struct {
	Version   string          `yaml:"version" json:"version"`
	LogLevel  string          `yaml:"logLevel" json:"logLevel"`
	Stream    StreamConfig    `yaml:"stream" json:"stream"`
	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Publisher PublisherConfig `yaml:"publisher" json:"publisher"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

// StreamConfig describes where and how the session publishes.
type StreamConfig struct {
	BaseURL string `yaml:"baseUrl" json:"baseUrl"`
	// FallbackKey is used when a start request carries no key.
	FallbackKey string `yaml:"fallbackKey,omitempty" json:"fallbackKey,omitempty"`
	Preset      string `yaml:"preset" json:"preset"`
}

// RetryConfig is the reconnect policy. MaxAttempts 0 retries until stopped.
type RetryConfig struct {
	Delay       time.Duration `yaml:"delay" json:"delay"`
	MaxAttempts int           `yaml:"maxAttempts" json:"maxAttempts"`
}

// ServerConfig configures the HTTP control surface.
type ServerConfig struct {
	ListenAddr string `yaml:"listenAddr" json:"listenAddr"`
	// APIToken is the HS256 secret for bearer tokens. Empty disables auth.
	APIToken string `yaml:"apiToken,omitempty" json:"apiToken,omitempty"`
	// RateLimit is the per-client request budget per minute. 0 disables it.
	RateLimit       int           `yaml:"rateLimit" json:"rateLimit"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
}

// PublisherConfig selects and configures the encoder backend.
type PublisherConfig struct {
	Backend     string `yaml:"backend" json:"backend"`
	FFmpegBin   string `yaml:"ffmpegBin" json:"ffmpegBin"`
	VideoFormat string `yaml:"videoFormat" json:"videoFormat"`
	FrontCamera string `yaml:"frontCamera" json:"frontCamera"`
	BackCamera  string `yaml:"backCamera,omitempty" json:"backCamera,omitempty"`
	AudioFormat string `yaml:"audioFormat" json:"audioFormat"`
	AudioDevice string `yaml:"audioDevice" json:"audioDevice"`
	// InitialFacing is front or back. Empty starts on the back camera when
	// the backend has one.
	InitialFacing string `yaml:"initialFacing,omitempty" json:"initialFacing,omitempty"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	Endpoint    string  `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Protocol    string  `yaml:"protocol" json:"protocol"`
	ServiceName string  `yaml:"serviceName" json:"serviceName"`
	SampleRatio float64 `yaml:"sampleRatio" json:"sampleRatio"`
	Insecure    bool    `yaml:"insecure" json:"insecure"`
}

// Defaults returns the configuration used when neither file nor ENV set a value.
func Defaults() AppConfig {
	return AppConfig{
		Version:  CurrentVersion,
		LogLevel: "info",
		Stream: StreamConfig{
			BaseURL: "rtmps://live.fastpix.app:443/live",
			Preset:  string(preset.Default),
		},
		Retry: RetryConfig{
			Delay: backoff.DefaultDelay,
		},
		Server: ServerConfig{
			ListenAddr:      ":8088",
			RateLimit:       120,
			ShutdownTimeout: 15 * time.Second,
		},
		Publisher: PublisherConfig{
			Backend:     BackendFFmpeg,
			FFmpegBin:   "ffmpeg",
			VideoFormat: "v4l2",
			FrontCamera: "/dev/video0",
			AudioFormat: "alsa",
			AudioDevice: "default",
		},
		Telemetry: TelemetryConfig{
			Protocol:    ProtocolGRPC,
			ServiceName: "golive",
			SampleRatio: 1.0,
		},
	}
}

// RetryPolicy converts the retry section into the session's backoff policy.
func (c AppConfig) RetryPolicy() backoff.Policy {
	attempts := c.Retry.MaxAttempts
	if attempts < 0 {
		attempts = 0
	}
	return backoff.Policy{Delay: c.Retry.Delay, MaxAttempts: uint32(attempts)} // #nosec G115 -- bounded by Validate
}

// PresetID returns the configured default preset, falling back to the
// catalog default when the value does not parse.
func (c AppConfig) PresetID() preset.ID {
	id, err := preset.Parse(c.Stream.Preset)
	if err != nil {
		return preset.Default
	}
	return id
}
