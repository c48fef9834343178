// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fsmTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golive_session_transitions_total",
			Help: "Session state transitions",
		},
		[]string{"state_from", "state_to"},
	)

	ignoredEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golive_session_ignored_events_total",
			Help: "Events dropped by the session actor, by event and reason.",
		},
		[]string{"event", "reason"},
	)

	reconnectAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "golive_session_reconnect_attempts_total",
			Help: "Reconnect attempts scheduled after a connection loss.",
		},
	)

	stopCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golive_session_stop_calls_total",
			Help: "Stop worker results (stopped, not_streaming, teardown_swallowed, error).",
		},
		[]string{"result"},
	)

	sessionEndTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golive_session_end_total",
			Help: "Sessions returned to idle, by outcome and preset.",
		},
		[]string{"outcome", "preset"},
	)

	timeToLive = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "golive_session_time_to_live_seconds",
			Help:    "Time from start request to ingest acceptance.",
			Buckets: []float64{0.25, 0.5, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"preset"},
	)

	facingSwitchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golive_camera_switch_total",
			Help: "Camera facing requests by result (switched, noop, busy, failed).",
		},
		[]string{"result"},
	)
)
