// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package daemon owns the long-lived runtime: the session actor, the control
// API, and config reload wiring.
package daemon

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/golive/internal/config"
	"github.com/ManuGH/golive/internal/domain/backoff"
	"github.com/ManuGH/golive/internal/log"
)

const defaultCloseTimeout = 15 * time.Second

// Session is the session controller lifecycle the App drives.
type Session interface {
	Run(ctx context.Context) error
	Close(ctx context.Context) error
	SetPolicy(ctx context.Context, p backoff.Policy) error
}

// Server is the control API lifecycle.
type Server interface {
	Serve(ctx context.Context) error
}

// ServerFunc adapts a function to Server.
type ServerFunc func(ctx context.Context) error

func (f ServerFunc) Serve(ctx context.Context) error { return f(ctx) }

// Deps are the collaborators of an App.
type Deps struct {
	Logger  zerolog.Logger
	Session Session
	Server  Server
	// Config is optional; without it there is no hot reload.
	Config *config.ConfigHolder
	// CloseTimeout bounds the final stop of an active stream.
	CloseTimeout time.Duration
}

// App runs the daemon until its context is cancelled.
type App struct {
	logger       zerolog.Logger
	session      Session
	server       Server
	cfgHolder    *config.ConfigHolder
	closeTimeout time.Duration
	reloadSignal os.Signal
	// ready is closed once Run has started every subsystem and registered
	// for config changes.
	ready     chan struct{}
	readyOnce sync.Once
}

// NewApp validates deps and creates an App.
func NewApp(deps Deps) (*App, error) {
	if deps.Session == nil {
		return nil, ErrMissingSession
	}
	if deps.Server == nil {
		return nil, ErrMissingServer
	}
	if deps.CloseTimeout <= 0 {
		deps.CloseTimeout = defaultCloseTimeout
	}
	return &App{
		logger:       deps.Logger,
		session:      deps.Session,
		server:       deps.Server,
		cfgHolder:    deps.Config,
		closeTimeout: deps.CloseTimeout,
		reloadSignal: syscall.SIGHUP,
		ready:        make(chan struct{}),
	}, nil
}

// Run starts all owned subsystems and blocks until ctx is cancelled or one
// of them fails. An active stream is stopped before Run returns.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	// The actor outlives gctx so Close can still stop the stream.
	g.Go(func() error {
		return a.session.Run(context.WithoutCancel(gctx))
	})

	g.Go(func() error {
		<-gctx.Done()
		closeCtx, cancel := context.WithTimeout(context.Background(), a.closeTimeout)
		defer cancel()
		if err := a.session.Close(closeCtx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "session.close_failed").Msg("session did not close cleanly")
		}
		return nil
	})

	g.Go(func() error {
		return a.server.Serve(gctx)
	})

	if a.cfgHolder != nil {
		// Watcher is best-effort: startup does not fail if it cannot be started.
		if err := a.cfgHolder.StartWatcher(gctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		}

		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(applyCh)
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case cfg := <-applyCh:
					a.apply(gctx, cfg)
				}
			}
		})

		if a.reloadSignal != nil {
			g.Go(func() error {
				a.watchReloadSignal(gctx)
				return nil
			})
		}
	}

	a.readyOnce.Do(func() { close(a.ready) })

	err := g.Wait()
	if a.cfgHolder != nil {
		a.cfgHolder.Stop()
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Ready is closed once Run has wired all subsystems. Config reloads issued
// before that are not observed by the running session.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// apply takes over the settings that are safe to change at runtime.
func (a *App) apply(ctx context.Context, cfg config.AppConfig) {
	log.SetLevel(cfg.LogLevel)
	if err := a.session.SetPolicy(ctx, cfg.RetryPolicy()); err != nil {
		a.logger.Warn().Err(err).Str(log.FieldEvent, "config.apply_failed").Msg("retry policy not applied")
		return
	}
	a.logger.Info().
		Str(log.FieldEvent, "config.applied").
		Str("log_level", cfg.LogLevel).
		Dur("retry_delay", cfg.Retry.Delay).
		Int("retry_max_attempts", cfg.Retry.MaxAttempts).
		Msg("runtime configuration applied")
}

func (a *App) watchReloadSignal(ctx context.Context) {
	hupChan := make(chan os.Signal, 1)
	signal.Notify(hupChan, a.reloadSignal)
	defer signal.Stop(hupChan)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hupChan:
			a.logger.Info().
				Str(log.FieldEvent, "config.reload_signal").
				Str("signal", a.reloadSignal.String()).
				Msg("received reload signal, reloading config")
			// Reload logs and counts its own failures.
			_ = a.cfgHolder.Reload(ctx)
		}
	}
}
