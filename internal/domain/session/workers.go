// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/session/ports"
	"github.com/ManuGH/golive/internal/log"
	"github.com/ManuGH/golive/internal/telemetry"
)

// spawn runs fn on a tracked worker and posts its result back to the actor.
// fn's error only annotates the span; the result message carries the outcome.
func (c *Controller) spawn(op string, gen uint64, timeout time.Duration, fn func(ctx context.Context) (message, error)) {
	sid := c.sess.id
	attrs := telemetry.SessionAttributes(sid, string(c.sess.presetID), gen, c.sess.attempt)
	ok := c.workers.Go(func() {
		ctx, cancel := context.WithTimeout(c.workCtx, timeout)
		defer cancel()
		ctx = log.ContextWithSessionID(ctx, sid)

		ctx, span := c.tracer.Start(ctx, "publisher."+op, trace.WithAttributes(attrs...))
		msg, err := fn(ctx)
		if err != nil && !ports.IsTeardown(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if perr := c.post(context.Background(), msg); perr != nil {
			c.logger.Debug().Err(perr).Str("op", op).Msg("worker result dropped")
		}
	})
	if !ok {
		c.logger.Warn().Str("op", op).Msg("worker rejected: controller closing")
	}
}

// inLane runs fn while holding the publisher lane, unless gen was superseded.
func (c *Controller) inLane(gen uint64, fn func() error) error {
	c.lane.Lock()
	defer c.lane.Unlock()
	if c.laneGen.Load() != gen {
		return errSuperseded
	}
	return fn()
}

// laneSwitcher routes camera switches through the publisher lane.
type laneSwitcher struct {
	c *Controller
}

func (s laneSwitcher) SwitchCameraFacing(ctx context.Context) error {
	s.c.lane.Lock()
	defer s.c.lane.Unlock()
	return s.c.pub.SwitchCameraFacing(ctx)
}

func (c *Controller) dispatchPrepare() {
	gen := c.gen
	p := c.sess.preset
	video := ports.VideoParams{
		Width:                   p.Width,
		Height:                  p.Height,
		FrameRate:               p.FrameRate,
		BitrateBps:              p.BitrateBps,
		KeyframeIntervalSeconds: ports.KeyframeIntervalSeconds,
		Orientation:             c.rotation,
	}
	c.spawn("prepare", gen, c.opts.PublisherTimeout, func(ctx context.Context) (message, error) {
		err := c.inLane(gen, func() error {
			if err := c.pub.PrepareVideo(ctx, video); err != nil {
				return &ports.PrepareError{Stage: ports.StageVideo, Err: err}
			}
			if err := c.pub.PrepareAudio(ctx, ports.DefaultAudio()); err != nil {
				return &ports.PrepareError{Stage: ports.StageAudio, Err: err}
			}
			return nil
		})
		return prepareDone{gen: gen, err: err}, err
	})
}

func (c *Controller) dispatchStart() {
	gen := c.gen
	url := c.endpoint()
	c.spawn("start", gen, c.opts.PublisherTimeout, func(ctx context.Context) (message, error) {
		err := c.inLane(gen, func() error {
			return c.pub.StartStream(ctx, url)
		})
		return startDone{gen: gen, err: err}, err
	})
}

func (c *Controller) dispatchStop() {
	gen := c.gen
	c.spawn("stop", gen, c.opts.StopTimeout, func(ctx context.Context) (message, error) {
		c.lane.Lock()
		defer c.lane.Unlock()
		if !c.pub.IsStreaming() {
			return stopDone{gen: gen}, nil
		}
		err := c.pub.StopStream(ctx)
		return stopDone{gen: gen, issued: true, err: err}, err
	})
}

func (c *Controller) dispatchSwitch(sw *facing.Switch) {
	c.spawn("switch_camera", c.gen, c.opts.PublisherTimeout, func(ctx context.Context) (message, error) {
		err := sw.Run(ctx)
		return facingDone{target: sw.Target(), err: err}, err
	})
}
