// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ControlRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "golive_control_requests_total",
		Help: "Control API requests by intent and result",
	}, []string{"intent", "result"})

	ConfigReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "golive_config_reloads_total",
		Help: "Configuration hot reloads by result",
	}, []string{"result"})
)

// IncControlRequest records the outcome of one control intent.
func IncControlRequest(intent, result string) {
	ControlRequestsTotal.WithLabelValues(intent, result).Inc()
}

// IncConfigReload records one configuration reload attempt.
func IncConfigReload(result string) {
	ConfigReloadsTotal.WithLabelValues(result).Inc()
}
