// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ManuGH/golive/internal/log"
	"github.com/ManuGH/golive/internal/metrics"
)

const reloadDebounce = 500 * time.Millisecond

// ConfigHolder holds the active configuration and reloads it from file.
//
// Only the log level and retry policy take effect without a restart; listeners
// receive every accepted config and decide what to apply. A session already in
// flight keeps the policy it started with.
type ConfigHolder struct {
	mu      sync.RWMutex
	current AppConfig
	loader  *Loader
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	reloadMu        sync.RWMutex
	reloadListeners []chan<- AppConfig

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// NewConfigHolder creates a holder with an initial, already validated config.
func NewConfigHolder(initial AppConfig, loader *Loader) *ConfigHolder {
	return &ConfigHolder{
		current: initial,
		loader:  loader,
		logger:  log.WithComponent("config"),
	}
}

// Get returns the current configuration.
func (h *ConfigHolder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload re-resolves the configuration. On any error the previous config stays active.
func (h *ConfigHolder) Reload(_ context.Context) error {
	newCfg, err := h.loader.Load()
	if err != nil {
		metrics.IncConfigReload("failed")
		h.logger.Error().
			Err(err).
			Str(log.FieldEvent, "config.reload_failed").
			Msg("configuration reload rejected, keeping previous config")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.current
	h.current = newCfg
	h.mu.Unlock()

	h.logChanges(oldCfg, newCfg)
	h.notifyListeners(newCfg)
	metrics.IncConfigReload("success")

	h.logger.Info().
		Str(log.FieldEvent, "config.reload_success").
		Msg("configuration reloaded")
	return nil
}

// StartWatcher watches the config file and reloads on change. It is a no-op
// for ENV-only configuration. The watcher stops when ctx is done.
func (h *ConfigHolder) StartWatcher(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().
			Str(log.FieldEvent, "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config file: %w", err)
	}
	h.watcher = watcher

	h.logger.Info().
		Str(log.FieldEvent, "config.watcher_started").
		Str("path", path).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, watcher)
	return nil
}

func (h *ConfigHolder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() {
		_ = watcher.Close()
		h.debounceMu.Lock()
		if h.debounceTimer != nil {
			h.debounceTimer.Stop()
		}
		h.debounceMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(log.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// Write and Create cover in-place editors and rename-on-save.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				h.logger.Debug().
					Str(log.FieldEvent, "config.file_changed").
					Str("op", event.Op.String()).
					Msg("config file changed")
				h.scheduleReload(ctx)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str(log.FieldEvent, "config.watcher_error").Msg("config watcher error")
		}
	}
}

func (h *ConfigHolder) scheduleReload(ctx context.Context) {
	h.debounceMu.Lock()
	defer h.debounceMu.Unlock()
	if h.debounceTimer != nil {
		h.debounceTimer.Stop()
	}
	h.debounceTimer = time.AfterFunc(reloadDebounce, func() {
		if ctx.Err() != nil {
			return
		}
		_ = h.Reload(ctx)
	})
}

// Stop closes the watcher, if running.
func (h *ConfigHolder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

// RegisterListener registers a channel that receives each accepted config.
// Sends never block; a full channel misses that update.
func (h *ConfigHolder) RegisterListener(ch chan<- AppConfig) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.reloadListeners = append(h.reloadListeners, ch)
}

func (h *ConfigHolder) notifyListeners(newCfg AppConfig) {
	h.reloadMu.RLock()
	defer h.reloadMu.RUnlock()

	for _, ch := range h.reloadListeners {
		select {
		case ch <- newCfg:
		default:
			h.logger.Warn().
				Str(log.FieldEvent, "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

// logChanges logs what changed and flags fields that need a restart.
func (h *ConfigHolder) logChanges(old, newCfg AppConfig) {
	if old.LogLevel != newCfg.LogLevel {
		h.logger.Info().Str("old", old.LogLevel).Str("new", newCfg.LogLevel).Msg("config changed: logLevel")
	}
	if old.Retry != newCfg.Retry {
		h.logger.Info().
			Dur("old_delay", old.Retry.Delay).
			Dur("new_delay", newCfg.Retry.Delay).
			Int("old_max_attempts", old.Retry.MaxAttempts).
			Int("new_max_attempts", newCfg.Retry.MaxAttempts).
			Msg("config changed: retry (applies to the next session)")
	}
	if old.Stream.FallbackKey != newCfg.Stream.FallbackKey {
		h.logger.Info().
			Str("new", log.MaskKey(newCfg.Stream.FallbackKey)).
			Msg("config changed: stream.fallbackKey (restart required)")
	}

	restart := map[string]bool{
		"stream.baseUrl": old.Stream.BaseURL != newCfg.Stream.BaseURL,
		"stream.preset":  old.Stream.Preset != newCfg.Stream.Preset,
		"server":         old.Server != newCfg.Server,
		"publisher":      old.Publisher != newCfg.Publisher,
		"telemetry":      old.Telemetry != newCfg.Telemetry,
	}
	for field, changed := range restart {
		if changed {
			h.logger.Warn().Str("field", field).Msg("config changed: restart required to apply")
		}
	}
}
