// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PublisherProcessExitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "golive_publisher_process_exits_total",
		Help: "Encoder process exits by classified cause",
	}, []string{"backend", "cause"})

	PublisherOutboundBitrate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "golive_publisher_outbound_bitrate_bps",
		Help: "Last reported outbound bitrate in bits per second",
	}, []string{"backend"})

	ProcessTerminateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "golive_process_terminate_total",
		Help: "Process group terminations by outcome",
	}, []string{"outcome"})
)

// ObserveProcessExit records why an encoder process ended.
func ObserveProcessExit(backend, cause string) {
	if cause == "" {
		cause = "unknown"
	}
	PublisherProcessExitsTotal.WithLabelValues(backend, cause).Inc()
}

// SetOutboundBitrate records the most recent bitrate sample.
func SetOutboundBitrate(backend string, bps uint64) {
	PublisherOutboundBitrate.WithLabelValues(backend).Set(float64(bps))
}

// IncProcessTerminate records a process group termination outcome
// (graceful, killed, failed).
func IncProcessTerminate(outcome string) {
	ProcessTerminateTotal.WithLabelValues(outcome).Inc()
}
