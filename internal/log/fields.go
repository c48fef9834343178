// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID     = "session_id"
	FieldCorrelationID = "correlation_id"
	FieldRequestID     = "request_id"
	FieldTimerID       = "timer_id"
	FieldGeneration    = "generation"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldPID       = "pid"

	// Media / stream fields
	FieldPreset     = "preset"
	FieldResolution = "resolution"
	FieldFPS        = "fps"
	FieldBitrate    = "bitrate_bps"
	FieldFacing     = "facing"
	FieldRotation   = "rotation"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldAttempt  = "attempt"
	FieldDelay    = "delay"
	FieldReason   = "reason"

	// Endpoint fields
	FieldBaseURL   = "base_url"
	FieldStreamKey = "stream_key"
)
