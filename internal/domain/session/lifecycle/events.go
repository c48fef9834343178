// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package lifecycle is the single source of truth for which session events
// are legal in which state and where they lead.
package lifecycle

import "github.com/ManuGH/golive/internal/domain/session/ports"

// EventKind is a domain event in the stream session lifecycle.
type EventKind int

const (
	EvUnknown EventKind = iota
	EvStartRequested
	EvPublisherReady
	EvPrepareFailed
	EvStarted
	EvSuccess
	EvFailed
	EvDisconnected
	EvAuthError
	EvAuthSuccess
	EvBitrateSample
	EvFPSSample
	EvRetryTimerFired
	EvRetriesExhausted // Derived from EvFailed/EvDisconnected by the backoff policy
	EvStopRequested
	EvStopCompleted
)

var eventNames = map[EventKind]string{
	EvUnknown:          "unknown",
	EvStartRequested:   "start_requested",
	EvPublisherReady:   "publisher_ready",
	EvPrepareFailed:    "prepare_failed",
	EvStarted:          "started",
	EvSuccess:          "success",
	EvFailed:           "failed",
	EvDisconnected:     "disconnected",
	EvAuthError:        "auth_error",
	EvAuthSuccess:      "auth_success",
	EvBitrateSample:    "bitrate_sample",
	EvFPSSample:        "fps_sample",
	EvRetryTimerFired:  "retry_timer_fired",
	EvRetriesExhausted: "retries_exhausted",
	EvStopRequested:    "stop_requested",
	EvStopCompleted:    "stop_completed",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Events lists every known event kind except EvUnknown.
func Events() []EventKind {
	return []EventKind{
		EvStartRequested,
		EvPublisherReady,
		EvPrepareFailed,
		EvStarted,
		EvSuccess,
		EvFailed,
		EvDisconnected,
		EvAuthError,
		EvAuthSuccess,
		EvBitrateSample,
		EvFPSSample,
		EvRetryTimerFired,
		EvRetriesExhausted,
		EvStopRequested,
		EvStopCompleted,
	}
}

// KindOf maps a publisher connection event onto its lifecycle event kind.
func KindOf(ev ports.ConnectionEvent) EventKind {
	switch ev.(type) {
	case ports.Started:
		return EvStarted
	case ports.Success:
		return EvSuccess
	case ports.Failed:
		return EvFailed
	case ports.Disconnected:
		return EvDisconnected
	case ports.AuthError:
		return EvAuthError
	case ports.AuthSuccess:
		return EvAuthSuccess
	case ports.BitrateSample:
		return EvBitrateSample
	case ports.FPSSample:
		return EvFPSSample
	default:
		return EvUnknown
	}
}
