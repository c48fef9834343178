// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Session attributes
	SessionIDKey         = "session.id"
	SessionGenerationKey = "session.generation"
	SessionPresetKey     = "session.preset"
	SessionAttemptKey    = "session.attempt"

	// Publisher attributes
	PublisherOpKey      = "publisher.op"
	PublisherBackendKey = "publisher.backend"

	// Control attributes
	ControlIntentKey = "control.intent"
	ControlResultKey = "control.result"
)

// SessionAttributes creates span attributes for one session worker call.
func SessionAttributes(sessionID, presetID string, generation uint64, attempt uint32) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if sessionID != "" {
		attrs = append(attrs, attribute.String(SessionIDKey, sessionID))
	}
	if presetID != "" {
		attrs = append(attrs, attribute.String(SessionPresetKey, presetID))
	}
	return append(attrs,
		attribute.Int64(SessionGenerationKey, int64(generation)), // #nosec G115 -- monotonic counter, never near overflow
		attribute.Int64(SessionAttemptKey, int64(attempt)),
	)
}

// ControlAttributes creates span attributes for a control API intent.
func ControlAttributes(intent, result string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ControlIntentKey, intent),
		attribute.String(ControlResultKey, result),
	}
}
