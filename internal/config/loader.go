// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/golive/internal/log"
)

// Environment variable names.
const (
	EnvBaseURL          = "GOLIVE_BASE_URL"
	EnvStreamKey        = "GOLIVE_STREAM_KEY"
	EnvPreset           = "GOLIVE_PRESET"
	EnvRetryDelay       = "GOLIVE_RETRY_DELAY"
	EnvRetryMaxAttempts = "GOLIVE_RETRY_MAX_ATTEMPTS"
	EnvListenAddr       = "GOLIVE_LISTEN_ADDR"
	EnvAPIToken         = "GOLIVE_API_TOKEN"
	EnvRateLimit        = "GOLIVE_RATE_LIMIT"
	EnvLogLevel         = "GOLIVE_LOG_LEVEL"
	EnvPublisher        = "GOLIVE_PUBLISHER"
	EnvFFmpegBin        = "GOLIVE_FFMPEG_BIN"
	EnvVideoDevice      = "GOLIVE_VIDEO_DEVICE"
	EnvBackVideoDevice  = "GOLIVE_BACK_VIDEO_DEVICE"
	EnvAudioDevice      = "GOLIVE_AUDIO_DEVICE"
	EnvInitialFacing    = "GOLIVE_INITIAL_FACING"
	EnvOTelEnabled      = "GOLIVE_OTEL_ENABLED"
	EnvOTelEndpoint     = "GOLIVE_OTEL_ENDPOINT"
	EnvOTelProtocol     = "GOLIVE_OTEL_PROTOCOL"
	EnvOTelServiceName  = "GOLIVE_OTEL_SERVICE_NAME"
	EnvOTelSampleRatio  = "GOLIVE_OTEL_SAMPLE_RATIO"
	EnvOTelInsecure     = "GOLIVE_OTEL_INSECURE"
)

// Loader resolves configuration from defaults, an optional YAML file and ENV.
type Loader struct {
	configPath string
	version    string

	// ConsumedEnvKeys records every GOLIVE_* key that was set during the last Load.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader. An empty configPath means ENV-only configuration.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, if any.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envLookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if ok {
		l.ConsumedEnvKeys[key] = struct{}{}
	}
	return v, ok
}

func (l *Loader) envString(key, defaultVal string) string {
	l.envLookup(key)
	return ParseString(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.envLookup(key)
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.envLookup(key)
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.envLookup(key)
	return ParseBool(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.envLookup(key)
	return ParseFloat(key, defaultVal)
}

// Load resolves and validates the configuration.
func (l *Loader) Load() (AppConfig, error) {
	l.ConsumedEnvKeys = make(map[string]struct{})

	// 1. Defaults
	cfg := Defaults()

	// 2. File
	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
	}

	// 3. ENV
	l.mergeEnv(&cfg)

	// 4. Validate
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	logger := log.WithComponent("config")
	logger.Debug().
		Str("app_version", l.version).
		Str("path", l.configPath).
		Strs("env_keys", l.ConsumedKeys()).
		Msg("configuration resolved")
	return cfg, nil
}

// ConsumedKeys returns the sorted GOLIVE_* keys seen by the last Load.
func (l *Loader) ConsumedKeys() []string {
	keys := make([]string, 0, len(l.ConsumedEnvKeys))
	for k := range l.ConsumedEnvKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// loadFile decodes path over cfg with strict parsing. Unknown fields are fatal.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)

	cfg.Stream.BaseURL = l.envString(EnvBaseURL, cfg.Stream.BaseURL)
	cfg.Stream.FallbackKey = l.envString(EnvStreamKey, cfg.Stream.FallbackKey)
	cfg.Stream.Preset = l.envString(EnvPreset, cfg.Stream.Preset)

	cfg.Retry.Delay = l.envDuration(EnvRetryDelay, cfg.Retry.Delay)
	cfg.Retry.MaxAttempts = l.envInt(EnvRetryMaxAttempts, cfg.Retry.MaxAttempts)

	cfg.Server.ListenAddr = l.envString(EnvListenAddr, cfg.Server.ListenAddr)
	cfg.Server.APIToken = l.envString(EnvAPIToken, cfg.Server.APIToken)
	cfg.Server.RateLimit = l.envInt(EnvRateLimit, cfg.Server.RateLimit)

	cfg.Publisher.Backend = l.envString(EnvPublisher, cfg.Publisher.Backend)
	cfg.Publisher.FFmpegBin = l.envString(EnvFFmpegBin, cfg.Publisher.FFmpegBin)
	cfg.Publisher.FrontCamera = l.envString(EnvVideoDevice, cfg.Publisher.FrontCamera)
	cfg.Publisher.BackCamera = l.envString(EnvBackVideoDevice, cfg.Publisher.BackCamera)
	cfg.Publisher.AudioDevice = l.envString(EnvAudioDevice, cfg.Publisher.AudioDevice)
	cfg.Publisher.InitialFacing = l.envString(EnvInitialFacing, cfg.Publisher.InitialFacing)

	cfg.Telemetry.Enabled = l.envBool(EnvOTelEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Endpoint = l.envString(EnvOTelEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.Protocol = l.envString(EnvOTelProtocol, cfg.Telemetry.Protocol)
	cfg.Telemetry.ServiceName = l.envString(EnvOTelServiceName, cfg.Telemetry.ServiceName)
	cfg.Telemetry.SampleRatio = l.envFloat(EnvOTelSampleRatio, cfg.Telemetry.SampleRatio)
	cfg.Telemetry.Insecure = l.envBool(EnvOTelInsecure, cfg.Telemetry.Insecure)

	cfg.Publisher.Backend = strings.ToLower(strings.TrimSpace(cfg.Publisher.Backend))
	cfg.Publisher.InitialFacing = strings.ToLower(strings.TrimSpace(cfg.Publisher.InitialFacing))
	cfg.Telemetry.Protocol = strings.ToLower(strings.TrimSpace(cfg.Telemetry.Protocol))
}

// LoadDotEnv loads .env files into the process environment. Missing files are
// skipped; variables already set are never overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
