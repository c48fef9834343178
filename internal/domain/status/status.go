// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package status projects session state into the read-only view consumed by
// the presentation layer.
package status

import (
	"fmt"

	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/session/model"
)

// Indicator is the connection dot color.
type Indicator string

const (
	Red   Indicator = "red"
	Green Indicator = "green"
)

const (
	LabelGoLive       = "Go Live!"
	LabelConnecting   = "Connecting… (Cancel)"
	LabelLive         = "Stop Streaming!"
	LabelReconnecting = "Reconnecting…"
	LabelStopping     = "Stopping…"
)

// UiStatus is the externally observable session view. It never feeds back
// into control decisions.
type UiStatus struct {
	State       model.State   `json:"state"`
	Label       string        `json:"label"`
	Indicator   Indicator     `json:"indicator"`
	BitrateText string        `json:"bitrate"`
	FPSText     string        `json:"fps"`
	Facing      facing.Facing `json:"facing"`
	Notice      string        `json:"notice,omitempty"`
}

// Snapshot is the projector input.
type Snapshot struct {
	State      model.State
	BitrateBps uint64
	FPS        uint32
	Facing     facing.Facing
	Notice     string
}

// Project maps a snapshot to its UiStatus.
func Project(s Snapshot) UiStatus {
	out := UiStatus{
		State:     s.State,
		Indicator: Red,
		Facing:    s.Facing,
		Notice:    s.Notice,
	}
	switch s.State {
	case model.StatePreparing, model.StateConnecting:
		out.Label = LabelConnecting
	case model.StateLive:
		out.Label = LabelLive
		out.Indicator = Green
	case model.StateReconnecting:
		out.Label = LabelReconnecting
	case model.StateStopping:
		out.Label = LabelStopping
	default:
		out.Label = LabelGoLive
	}

	bitrate, fps := s.BitrateBps, s.FPS
	if s.State == "" || s.State.ZeroesMeters() {
		bitrate, fps = 0, 0
	}
	out.BitrateText = FormatBitrate(bitrate)
	out.FPSText = FormatFPS(fps)
	return out
}

// FormatBitrate renders bits per second as binary kilobits.
func FormatBitrate(bps uint64) string {
	return fmt.Sprintf("%d kbps", bps/1024)
}

// FormatFPS renders a frame rate sample.
func FormatFPS(fps uint32) string {
	return fmt.Sprintf("%d fps", fps)
}
