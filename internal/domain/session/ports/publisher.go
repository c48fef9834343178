// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ports defines the contracts between the session controller and the
// encoder/transport backend and rendering surface it drives.
package ports

import (
	"context"

	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/orientation"
)

// KeyframeIntervalSeconds is the GOP length requested for every video track.
const KeyframeIntervalSeconds = 2

// VideoParams configures the video encoder before a stream starts.
type VideoParams struct {
	Width                   uint32
	Height                  uint32
	FrameRate               uint32
	BitrateBps              uint32
	KeyframeIntervalSeconds uint32
	Orientation             orientation.Rotation
}

// AudioParams configures the audio encoder before a stream starts.
type AudioParams struct {
	BitrateBps uint32
	SampleRate uint32
	Stereo     bool
}

// DefaultAudio is the fixed audio profile used for every session.
func DefaultAudio() AudioParams {
	return AudioParams{
		BitrateBps: 128 * 1024,
		SampleRate: 48000,
		Stereo:     true,
	}
}

// Publisher is the encoder + RTMP transport backend.
//
// StartStream returns once the connection attempt is under way; its outcome is
// reported through the EventSink passed to the backend at construction.
// StopStream must be safe to call when not streaming. Implementations may
// return an error wrapping ErrTeardown for failures that are expected while a
// connection is being torn down.
type Publisher interface {
	PrepareVideo(ctx context.Context, p VideoParams) error
	PrepareAudio(ctx context.Context, p AudioParams) error
	StartStream(ctx context.Context, url string) error
	StopStream(ctx context.Context) error
	IsStreaming() bool
	SwitchCameraFacing(ctx context.Context) error
}

// EventSink receives connection events from a Publisher. Submit may be called
// from any goroutine and must not be called while holding Publisher locks that
// the controller's workers also need.
type EventSink interface {
	Submit(ev ConnectionEvent) error
}

// SinkAttacher is implemented by publishers that need the controller's sink
// injected after construction.
type SinkAttacher interface {
	AttachSink(sink EventSink)
}

// FacingReporter is implemented by publishers that know which camera they
// capture from at construction time.
type FacingReporter interface {
	Facing() facing.Facing
}

// Display is the rendering surface. Calls are made from the session actor and
// must not block.
type Display interface {
	LockOrientation(lock orientation.Lock)
	UnlockOrientation()
	ApplyAspect(aspect orientation.Aspect)
}

// NopDisplay discards all display commands. Used by headless deployments.
type NopDisplay struct{}

func (NopDisplay) LockOrientation(orientation.Lock) {}
func (NopDisplay) UnlockOrientation()               {}
func (NopDisplay) ApplyAspect(orientation.Aspect)   {}
