// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package session implements the live-stream session controller: a single
// actor goroutine that owns the stream session and serializes user intents,
// publisher callbacks, orientation reports and retry timers.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ManuGH/golive/internal/bus"
	"github.com/ManuGH/golive/internal/domain/backoff"
	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/orientation"
	"github.com/ManuGH/golive/internal/domain/preset"
	"github.com/ManuGH/golive/internal/domain/session/model"
	"github.com/ManuGH/golive/internal/domain/session/ports"
	"github.com/ManuGH/golive/internal/domain/status"
	"github.com/ManuGH/golive/internal/log"
)

// TopicStatus is the bus topic carrying status.UiStatus updates.
const TopicStatus = "session.status"

const (
	defaultMailboxSize      = 64
	defaultPublisherTimeout = 15 * time.Second
	defaultStopTimeout      = 10 * time.Second
	bitrateLogInterval      = 10 * time.Second
)

// Options configures a Controller.
type Options struct {
	Publisher ports.Publisher
	Display   ports.Display
	Bus       bus.Bus

	// BaseURL is the ingest endpoint; the stream key is appended as the last
	// path segment.
	BaseURL string
	// FallbackKey is used when a start request carries an empty key.
	FallbackKey string

	Policy backoff.Policy
	Clock  Clock
	// InitialFacing defaults to the publisher's camera when it reports one,
	// otherwise to the back camera.
	InitialFacing facing.Facing
	Tracer        trace.Tracer

	MailboxSize      int
	PublisherTimeout time.Duration
	StopTimeout      time.Duration
}

// Controller is the session actor. All exported methods are safe for
// concurrent use.
type Controller struct {
	opts   Options
	pub    ports.Publisher
	disp   ports.Display
	clock  Clock
	tracer trace.Tracer
	logger zerolog.Logger

	mailbox  chan message
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
	running  atomic.Bool

	workers    sessionRegistry
	workCtx    context.Context
	workCancel context.CancelFunc

	// lane serializes publisher commands; laneGen is the generation allowed to
	// prepare or start.
	lane    sync.Mutex
	laneGen atomic.Uint64

	facing     *facing.Controller
	status     atomic.Pointer[status.UiStatus]
	bitrateLog rate.Sometimes

	// Owned by the actor goroutine.
	sess        streamSession
	policy      backoff.Policy
	rotation    orientation.Rotation
	notice      string
	gen         uint64
	nextToken   uint64
	idleWaiters []chan struct{}
}

// streamSession is the state of the current (or last) stream.
type streamSession struct {
	id           string
	state        model.State
	presetID     preset.ID
	preset       preset.Preset
	key          string
	policy       backoff.Policy
	attempt      uint32
	stopInFlight bool
	pendingRetry *retryTimer
	bitrateBps   uint64
	fps          uint32
	requestedAt  time.Time
}

type retryTimer struct {
	token uint64
	timer Timer
}

// Info is a point-in-time copy of the actor-owned session fields.
type Info struct {
	SessionID    string               `json:"session_id,omitempty"`
	State        model.State          `json:"state"`
	Preset       preset.ID            `json:"preset,omitempty"`
	Attempt      uint32               `json:"attempt"`
	StopInFlight bool                 `json:"stop_in_flight"`
	PendingRetry bool                 `json:"pending_retry"`
	RetryToken   uint64               `json:"retry_token,omitempty"`
	Generation   uint64               `json:"generation"`
	Facing       facing.Facing        `json:"facing"`
	Rotation     orientation.Rotation `json:"rotation"`
	Policy       backoff.Policy       `json:"-"`
	Workers      int                  `json:"workers"`
}

// New validates opts and builds an idle controller. Run must be started
// before intents are answered.
func New(opts Options) (*Controller, error) {
	if opts.Publisher == nil {
		return nil, fmt.Errorf("%w: publisher is required", ErrValidation)
	}
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrValidation)
	}
	if r, ok := opts.Publisher.(ports.FacingReporter); ok {
		switch actual := r.Facing(); {
		case opts.InitialFacing == "":
			opts.InitialFacing = actual
		case opts.InitialFacing != actual:
			return nil, fmt.Errorf("%w: initial facing %s but publisher captures %s",
				ErrValidation, opts.InitialFacing, actual)
		}
	}
	if opts.Display == nil {
		opts.Display = ports.NopDisplay{}
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("github.com/ManuGH/golive/internal/domain/session")
	}
	if opts.MailboxSize <= 0 {
		opts.MailboxSize = defaultMailboxSize
	}
	if opts.PublisherTimeout <= 0 {
		opts.PublisherTimeout = defaultPublisherTimeout
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = defaultStopTimeout
	}

	workCtx, workCancel := context.WithCancel(context.Background())
	c := &Controller{
		opts:       opts,
		pub:        opts.Publisher,
		disp:       opts.Display,
		clock:      opts.Clock,
		tracer:     opts.Tracer,
		logger:     log.WithComponent("session"),
		mailbox:    make(chan message, opts.MailboxSize),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		workCtx:    workCtx,
		workCancel: workCancel,
		bitrateLog: rate.Sometimes{Interval: bitrateLogInterval},
		sess:       streamSession{state: model.StateIdle},
		policy:     opts.Policy,
	}
	c.facing = facing.NewController(opts.InitialFacing, laneSwitcher{c: c})
	c.storeStatus()

	if a, ok := opts.Publisher.(ports.SinkAttacher); ok {
		a.AttachSink(c)
	}
	return c, nil
}

// Run processes the mailbox until ctx is cancelled or Close is called.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("session controller already running")
	}
	defer func() {
		c.cancelRetry()
		c.workCancel()
		close(c.done)
	}()

	c.logger.Info().
		Str(log.FieldBaseURL, log.MaskURL(c.opts.BaseURL)).
		Str(log.FieldFacing, string(c.facing.Current())).
		Msg("session controller started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("session controller stopped (context)")
			return nil
		case <-c.quit:
			c.logger.Info().Msg("session controller stopped")
			return nil
		case msg := <-c.mailbox:
			c.handle(msg)
		}
	}
}

// Submit delivers a publisher connection event to the actor. It implements
// ports.EventSink.
func (c *Controller) Submit(ev ports.ConnectionEvent) error {
	if ev == nil {
		return fmt.Errorf("%w: nil connection event", ErrValidation)
	}
	return c.post(context.Background(), connMsg{ev: ev})
}

// StartRequested begins a session with the given preset. An empty key falls
// back to the configured fallback key.
func (c *Controller) StartRequested(ctx context.Context, id preset.ID, key string) error {
	// Lookup panics on unknown ids; do it on the caller's goroutine.
	p := preset.Lookup(id)
	return c.call(ctx, func(reply chan error) message {
		return startMsg{id: id, preset: p, key: key, reply: reply}
	})
}

// StopRequested stops the current session. Stopping an idle or already
// stopping session is a no-op.
func (c *Controller) StopRequested(ctx context.Context) error {
	return c.call(ctx, func(reply chan error) message {
		return stopMsg{reply: reply}
	})
}

// SwitchFacingRequested toggles between the front and back camera. It returns
// facing.ErrBusy while a switch is in flight.
func (c *Controller) SwitchFacingRequested(ctx context.Context) error {
	return c.call(ctx, func(reply chan error) message {
		return facingMsg{toggle: true, reply: reply}
	})
}

// SelectFacing requests a specific camera. Selecting the active camera is a
// no-op.
func (c *Controller) SelectFacing(ctx context.Context, target facing.Facing) error {
	if target != facing.Front && target != facing.Back {
		return fmt.Errorf("%w: unknown facing %q", ErrValidation, target)
	}
	return c.call(ctx, func(reply chan error) message {
		return facingMsg{target: target, reply: reply}
	})
}

// RotationChanged reports a device rotation.
func (c *Controller) RotationChanged(ctx context.Context, r orientation.Rotation) error {
	return c.call(ctx, func(reply chan error) message {
		return rotationMsg{rotation: r, reply: reply}
	})
}

// SetPolicy replaces the retry policy used by sessions started afterwards.
func (c *Controller) SetPolicy(ctx context.Context, p backoff.Policy) error {
	return c.call(ctx, func(reply chan error) message {
		return policyMsg{policy: p, reply: reply}
	})
}

// Status returns the latest projected status without touching the actor.
func (c *Controller) Status() status.UiStatus {
	if st := c.status.Load(); st != nil {
		return *st
	}
	return status.Project(status.Snapshot{State: model.StateIdle})
}

// Inspect returns a copy of the session fields as seen by the actor.
func (c *Controller) Inspect(ctx context.Context) (Info, error) {
	reply := make(chan Info, 1)
	if err := c.post(ctx, inspectMsg{reply: reply}); err != nil {
		return Info{}, err
	}
	select {
	case info := <-reply:
		return info, nil
	case <-ctx.Done():
		return Info{}, ctx.Err()
	case <-c.done:
		return Info{}, ErrClosed
	}
}

// WaitIdle blocks until the session is idle.
func (c *Controller) WaitIdle(ctx context.Context) error {
	reply := make(chan struct{})
	if err := c.post(ctx, waitIdleMsg{reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// Close stops an active stream, waits for it to reach idle, terminates the
// actor and drains workers.
func (c *Controller) Close(ctx context.Context) error {
	var errs []error
	if c.running.Load() {
		if err := c.StopRequested(ctx); err != nil {
			if !errors.Is(err, ErrClosed) {
				errs = append(errs, fmt.Errorf("stop on close: %w", err))
			}
		} else if err := c.WaitIdle(ctx); err != nil && !errors.Is(err, ErrClosed) {
			errs = append(errs, fmt.Errorf("wait idle on close: %w", err))
		}
	}

	c.quitOnce.Do(func() { close(c.quit) })
	if c.running.Load() {
		select {
		case <-c.done:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("actor shutdown: %w", ctx.Err()))
		}
	}

	if err := c.workers.CloseAndWait(ctx); err != nil {
		errs = append(errs, err)
	}
	c.workCancel()
	return errors.Join(errs...)
}

func (c *Controller) call(ctx context.Context, build func(reply chan error) message) error {
	reply := make(chan error, 1)
	if err := c.post(ctx, build(reply)); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		select {
		case err := <-reply:
			return err
		default:
			return ErrClosed
		}
	}
}

func (c *Controller) post(ctx context.Context, msg message) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.mailbox <- msg:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) sessionLogger() *zerolog.Logger {
	l := c.logger.With().
		Str(log.FieldSessionID, c.sess.id).
		Str(log.FieldPreset, string(c.sess.presetID)).
		Logger()
	return &l
}

// storeStatus projects the actor state and publishes it when it changed.
func (c *Controller) storeStatus() {
	st := status.Project(status.Snapshot{
		State:      c.sess.state,
		BitrateBps: c.sess.bitrateBps,
		FPS:        c.sess.fps,
		Facing:     c.facing.Current(),
		Notice:     c.notice,
	})
	if prev := c.status.Load(); prev != nil && *prev == st {
		return
	}
	c.status.Store(&st)
	if c.opts.Bus != nil {
		if err := c.opts.Bus.Publish(context.Background(), TopicStatus, st); err != nil {
			c.logger.Debug().Err(err).Msg("status publish dropped")
		}
	}
}

func (c *Controller) info() Info {
	info := Info{
		SessionID:    c.sess.id,
		State:        c.sess.state,
		Preset:       c.sess.presetID,
		Attempt:      c.sess.attempt,
		StopInFlight: c.sess.stopInFlight,
		PendingRetry: c.sess.pendingRetry != nil,
		Generation:   c.gen,
		Facing:       c.facing.Current(),
		Rotation:     c.rotation,
		Policy:       c.policy,
		Workers:      c.workers.Active(),
	}
	if c.sess.pendingRetry != nil {
		info.RetryToken = c.sess.pendingRetry.token
	}
	return info
}

func (c *Controller) releaseIdleWaiters() {
	if c.sess.state != model.StateIdle {
		return
	}
	for _, w := range c.idleWaiters {
		close(w)
	}
	c.idleWaiters = nil
}
