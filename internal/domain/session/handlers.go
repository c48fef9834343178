// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/orientation"
	"github.com/ManuGH/golive/internal/domain/session/lifecycle"
	"github.com/ManuGH/golive/internal/domain/session/model"
	"github.com/ManuGH/golive/internal/domain/session/ports"
	"github.com/ManuGH/golive/internal/log"
)

// handle processes one mailbox message. It must never block.
func (c *Controller) handle(msg message) {
	switch m := msg.(type) {
	case startMsg:
		m.reply <- c.onStart(m)
	case stopMsg:
		m.reply <- c.onStop()
	case facingMsg:
		m.reply <- c.onFacing(m)
	case rotationMsg:
		c.onRotation(m.rotation)
		m.reply <- nil
	case policyMsg:
		c.policy = m.policy
		m.reply <- nil
	case inspectMsg:
		m.reply <- c.info()
	case waitIdleMsg:
		c.idleWaiters = append(c.idleWaiters, m.reply)
	case connMsg:
		c.onConnection(m.ev)
	case prepareDone:
		c.onPrepareDone(m)
	case startDone:
		c.onStartDone(m)
	case stopDone:
		c.onStopDone(m)
	case facingDone:
		c.onFacingDone(m)
	case retryFired:
		c.onRetryFired(m)
	}
	c.storeStatus()
	c.releaseIdleWaiters()
}

// apply consults the lifecycle tables and moves the session. Rejected events
// are counted and dropped.
func (c *Controller) apply(ev lifecycle.EventKind) bool {
	tr, err := lifecycle.Next(c.sess.state, ev)
	if err != nil {
		c.ignore(ev, lifecycle.ReasonOf(err))
		return false
	}
	if !tr.Changes() {
		return true
	}

	from := c.sess.state
	c.sess.state = tr.To
	if from == model.StateReconnecting {
		c.cancelRetry()
	}
	if tr.To.ZeroesMeters() {
		c.sess.bitrateBps = 0
		c.sess.fps = 0
	}
	fsmTransitions.WithLabelValues(string(from), string(tr.To)).Inc()
	c.sessionLogger().Info().
		Str(log.FieldOldState, string(from)).
		Str(log.FieldNewState, string(tr.To)).
		Str(log.FieldEvent, ev.String()).
		Uint32(log.FieldAttempt, c.sess.attempt).
		Msg("session transition")
	return true
}

func (c *Controller) ignore(ev lifecycle.EventKind, reason string) {
	ignoredEventsTotal.WithLabelValues(ev.String(), reason).Inc()
	c.logger.Debug().
		Str(log.FieldEvent, ev.String()).
		Str("state", string(c.sess.state)).
		Str(log.FieldReason, reason).
		Msg("event ignored")
}

// bumpGeneration invalidates every in-flight worker result.
func (c *Controller) bumpGeneration() uint64 {
	c.gen++
	c.laneGen.Store(c.gen)
	return c.gen
}

func (c *Controller) endpoint() string {
	return strings.TrimRight(c.opts.BaseURL, "/") + "/" + c.sess.key
}

func (c *Controller) onStart(m startMsg) error {
	if d, _ := lifecycle.DecisionFor(c.sess.state, lifecycle.EvStartRequested); !d.Allowed {
		c.ignore(lifecycle.EvStartRequested, d.Reason)
		return startRejection(d.Reason)
	}
	key := strings.TrimSpace(m.key)
	if key == "" {
		key = strings.TrimSpace(c.opts.FallbackKey)
	}
	if key == "" {
		return fmt.Errorf("%w: stream key is required", ErrValidation)
	}

	c.sess = streamSession{
		id:          uuid.NewString(),
		state:       c.sess.state,
		presetID:    m.id,
		preset:      m.preset,
		key:         key,
		policy:      c.policy,
		requestedAt: c.clock.Now(),
	}
	c.notice = ""
	c.sessionLogger().Info().
		Str(log.FieldResolution, m.preset.Resolution()).
		Uint32(log.FieldBitrate, m.preset.BitrateBps).
		Str(log.FieldStreamKey, log.MaskKey(key)).
		Msg("start requested")

	c.enterPreparing(lifecycle.EvStartRequested)
	return nil
}

// enterPreparing locks the display to the current rotation and dispatches a
// prepare worker under a fresh generation.
func (c *Controller) enterPreparing(ev lifecycle.EventKind) {
	if !c.apply(ev) {
		return
	}
	c.bumpGeneration()
	lock, aspect := orientation.Map(c.rotation)
	c.disp.LockOrientation(lock)
	c.disp.ApplyAspect(aspect)
	c.dispatchPrepare()
}

func (c *Controller) onPrepareDone(m prepareDone) {
	if m.gen != c.gen || errors.Is(m.err, errSuperseded) {
		c.ignore(lifecycle.EvPublisherReady, "stale_generation")
		return
	}
	if m.err != nil {
		if !c.apply(lifecycle.EvPrepareFailed) {
			return
		}
		c.bumpGeneration()
		c.disp.UnlockOrientation()
		c.notice = NoticePrepareFailed
		var pe *ports.PrepareError
		if errors.As(m.err, &pe) && pe.Stage != "" {
			c.notice = fmt.Sprintf("%s (%s)", NoticePrepareFailed, pe.Stage)
		}
		sessionEndTotal.WithLabelValues("prepare_failed", string(c.sess.presetID)).Inc()
		c.sessionLogger().Warn().Err(m.err).Msg("publisher prepare failed")
		return
	}
	if !c.apply(lifecycle.EvPublisherReady) {
		return
	}
	c.sessionLogger().Info().
		Str(log.FieldBaseURL, log.MaskURL(c.endpoint())).
		Msg("connecting")
	c.dispatchStart()
}

func (c *Controller) onStartDone(m startDone) {
	if m.err == nil {
		return
	}
	if m.gen != c.gen || errors.Is(m.err, errSuperseded) {
		c.ignore(lifecycle.EvFailed, "stale_generation")
		return
	}
	if errors.Is(m.err, ports.ErrAuth) {
		c.onConnection(ports.AuthError{})
		return
	}
	if ports.IsTeardown(m.err) && c.sess.state == model.StateStopping {
		return
	}
	c.onConnection(ports.Failed{Reason: m.err.Error()})
}

func (c *Controller) onConnection(ev ports.ConnectionEvent) {
	kind := lifecycle.KindOf(ev)
	switch e := ev.(type) {
	case ports.Failed:
		c.onConnectionLost(kind, e.Reason)
		return
	case ports.Disconnected:
		c.onConnectionLost(kind, "")
		return
	}

	if !c.apply(kind) {
		return
	}
	switch e := ev.(type) {
	case ports.Started:
		c.sessionLogger().Info().Str(log.FieldBaseURL, log.MaskURL(e.URL)).Msg("connection started")
	case ports.Success:
		c.sess.attempt = 0
		c.disp.UnlockOrientation()
		c.notice = NoticeConnected
		timeToLive.WithLabelValues(string(c.sess.presetID)).Observe(c.clock.Now().Sub(c.sess.requestedAt).Seconds())
		c.sessionLogger().Info().Msg("stream live")
	case ports.AuthError:
		c.bumpGeneration()
		c.disp.UnlockOrientation()
		c.notice = NoticeAuthFailed
		sessionEndTotal.WithLabelValues("auth_failed", string(c.sess.presetID)).Inc()
		c.sessionLogger().Warn().Str(log.FieldStreamKey, log.MaskKey(c.sess.key)).Msg("ingest rejected credential")
	case ports.AuthSuccess:
		c.sessionLogger().Debug().Msg("ingest accepted credential")
	case ports.BitrateSample:
		c.sess.bitrateBps = e.Bps
		c.bitrateLog.Do(func() {
			c.sessionLogger().Debug().Uint64(log.FieldBitrate, e.Bps).Msg("bitrate sample")
		})
	case ports.FPSSample:
		c.sess.fps = e.FPS
	}
}

// onConnectionLost either schedules a retry or, when the policy is exhausted,
// ends the session.
func (c *Controller) onConnectionLost(kind lifecycle.EventKind, reason string) {
	if d, _ := lifecycle.DecisionFor(c.sess.state, kind); !d.Allowed {
		c.ignore(kind, d.Reason)
		return
	}

	next := c.sess.attempt + 1
	c.sess.attempt = next
	if c.sess.policy.Exhausted(next) {
		if !c.apply(lifecycle.EvRetriesExhausted) {
			return
		}
		c.bumpGeneration()
		c.disp.UnlockOrientation()
		c.notice = NoticeConnectionFailed
		sessionEndTotal.WithLabelValues("retries_exhausted", string(c.sess.presetID)).Inc()
		c.sessionLogger().Warn().
			Uint32(log.FieldAttempt, next).
			Str(log.FieldReason, reason).
			Msg("reconnect attempts exhausted")
		return
	}

	if !c.apply(kind) {
		return
	}
	c.bumpGeneration()
	delay := c.sess.policy.NextDelay(next)
	c.scheduleRetry(delay)
	c.notice = noticeConnectionLost
	if reason != "" {
		c.notice = noticeConnectionLost + ": " + reason
	}
	reconnectAttemptsTotal.Inc()
	c.sessionLogger().Warn().
		Uint32(log.FieldAttempt, next).
		Dur(log.FieldDelay, delay).
		Str(log.FieldReason, reason).
		Msg("connection lost, retry scheduled")
}

func (c *Controller) scheduleRetry(delay time.Duration) {
	c.cancelRetry()
	c.nextToken++
	token := c.nextToken
	t := c.clock.AfterFunc(delay, func() {
		_ = c.post(context.Background(), retryFired{token: token})
	})
	c.sess.pendingRetry = &retryTimer{token: token, timer: t}
}

func (c *Controller) cancelRetry() {
	if c.sess.pendingRetry == nil {
		return
	}
	c.sess.pendingRetry.timer.Stop()
	c.sess.pendingRetry = nil
}

func (c *Controller) onRetryFired(m retryFired) {
	pr := c.sess.pendingRetry
	if pr == nil || pr.token != m.token || c.sess.state != model.StateReconnecting {
		c.ignore(lifecycle.EvRetryTimerFired, "stale_token")
		return
	}
	c.sess.pendingRetry = nil
	c.sessionLogger().Info().Uint32(log.FieldAttempt, c.sess.attempt).Msg("retrying connection")
	c.enterPreparing(lifecycle.EvRetryTimerFired)
}

func (c *Controller) onStop() error {
	switch c.sess.state {
	case model.StateIdle:
		c.sess.attempt = 0
		c.ignore(lifecycle.EvStopRequested, lifecycle.ForbiddenAlreadyIdle)
		return nil
	case model.StateStopping:
		c.ignore(lifecycle.EvStopRequested, lifecycle.ForbiddenStopInFlight)
		return nil
	}

	c.cancelRetry()
	c.sess.attempt = 0
	if !c.apply(lifecycle.EvStopRequested) {
		return nil
	}
	c.sess.stopInFlight = true
	c.notice = ""
	c.bumpGeneration()
	c.dispatchStop()
	return nil
}

func (c *Controller) onStopDone(m stopDone) {
	if c.sess.state != model.StateStopping || m.gen != c.gen {
		c.ignore(lifecycle.EvStopCompleted, "stale_generation")
		return
	}

	result := "stopped"
	switch {
	case !m.issued:
		result = "not_streaming"
	case m.err == nil:
	case ports.IsTeardown(m.err):
		result = "teardown_swallowed"
		c.sessionLogger().Debug().Err(m.err).Msg("teardown error swallowed")
	default:
		result = "error"
		c.sessionLogger().Warn().Err(m.err).Msg("publisher stop failed")
	}
	stopCallsTotal.WithLabelValues(result).Inc()

	c.sess.stopInFlight = false
	if !c.apply(lifecycle.EvStopCompleted) {
		return
	}
	c.disp.UnlockOrientation()
	sessionEndTotal.WithLabelValues("user_stop", string(c.sess.presetID)).Inc()
}

func (c *Controller) onFacing(m facingMsg) error {
	target := m.target
	if m.toggle {
		target = c.facing.Current().Opposite()
	}
	sw, err := c.facing.Reserve(target)
	if err != nil {
		facingSwitchTotal.WithLabelValues("busy").Inc()
		return err
	}
	if sw == nil {
		facingSwitchTotal.WithLabelValues("noop").Inc()
		return nil
	}
	c.logger.Info().Str(log.FieldFacing, string(target)).Msg("switching camera")
	c.dispatchSwitch(sw)
	return nil
}

func (c *Controller) onFacingDone(m facingDone) {
	if m.err != nil {
		facingSwitchTotal.WithLabelValues("failed").Inc()
		c.notice = NoticeSwitchFailed
		c.logger.Warn().Err(m.err).Str(log.FieldFacing, string(m.target)).Msg("camera switch failed")
		return
	}
	facingSwitchTotal.WithLabelValues("switched").Inc()
	if c.notice == NoticeSwitchFailed {
		c.notice = ""
	}
	c.logger.Info().Str(log.FieldFacing, string(m.target)).Msg("camera switched")
}

// onRotation re-letterboxes the preview. The orientation lock taken on
// entering Preparing is left alone.
func (c *Controller) onRotation(r orientation.Rotation) {
	c.rotation = r
	_, aspect := orientation.Map(r)
	c.disp.ApplyAspect(aspect)
	c.logger.Debug().Int(log.FieldRotation, int(r)).Str("aspect", string(aspect)).Msg("rotation changed")
}

var _ ports.EventSink = (*Controller)(nil)
var _ facing.Switcher = laneSwitcher{}
