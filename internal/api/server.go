// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api exposes the session controller over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/golive/internal/api/middleware"
	"github.com/ManuGH/golive/internal/bus"
	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/orientation"
	"github.com/ManuGH/golive/internal/domain/preset"
	"github.com/ManuGH/golive/internal/domain/session"
	"github.com/ManuGH/golive/internal/domain/status"
	"github.com/ManuGH/golive/internal/log"
)

const (
	defaultRequestTimeout  = 10 * time.Second
	defaultShutdownTimeout = 15 * time.Second
	defaultKeepAlive       = 15 * time.Second
	maxBodyBytes           = 4 << 10
)

// Controller is the subset of the session controller the API drives.
type Controller interface {
	StartRequested(ctx context.Context, id preset.ID, key string) error
	StopRequested(ctx context.Context) error
	SwitchFacingRequested(ctx context.Context) error
	SelectFacing(ctx context.Context, target facing.Facing) error
	RotationChanged(ctx context.Context, r orientation.Rotation) error
	Status() status.UiStatus
	Inspect(ctx context.Context) (session.Info, error)
}

// Config configures the HTTP control surface.
type Config struct {
	ListenAddr string
	// APIToken is the HS256 secret for bearer tokens. Empty disables auth.
	APIToken string
	// RateLimit is requests per minute per client IP. 0 disables it.
	RateLimit       int
	DefaultPreset   preset.ID
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	// KeepAlive is the SSE comment interval.
	KeepAlive time.Duration
	// ServiceName names server spans. Empty disables HTTP tracing.
	ServiceName string
	Version     string
}

// Server serves the control API.
type Server struct {
	cfg    Config
	ctrl   Controller
	bus    bus.Bus
	logger zerolog.Logger
	router chi.Router
}

// New builds the router. b may be nil, in which case the event stream is
// not offered.
func New(cfg Config, ctrl Controller, b bus.Bus) *Server {
	if cfg.DefaultPreset == "" {
		cfg.DefaultPreset = preset.Default
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = defaultKeepAlive
	}
	s := &Server{
		cfg:    cfg,
		ctrl:   ctrl,
		bus:    b,
		logger: log.WithComponent("api"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		TracingService: s.cfg.ServiceName,
		EnableLogging:  true,
	})

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{RequestLimit: s.cfg.RateLimit, WindowSize: time.Minute}))
		r.Use(Authenticate(s.cfg.APIToken))

		r.Get("/session", s.handleInspect)
		r.Get("/session/status", s.handleStatus)
		r.Post("/session/start", s.handleStart)
		r.Post("/session/stop", s.handleStop)
		r.Post("/session/facing", s.handleFacing)
		r.Post("/session/rotation", s.handleRotation)
		if s.bus != nil {
			r.Get("/session/events", s.handleEvents)
		}
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. Open event streams are closed
// before the shutdown deadline starts counting.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	baseCtx, cancelBase := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBase()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Str("version", s.cfg.Version).Msg("control api listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Msg("control api shutdown incomplete")
		_ = srv.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info().Msg("control api stopped")
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.cfg.Version})
}
