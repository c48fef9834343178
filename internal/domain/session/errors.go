// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"errors"

	"github.com/ManuGH/golive/internal/domain/session/lifecycle"
)

var (
	ErrValidation    = errors.New("invalid session request")
	ErrAlreadyActive = errors.New("session already active")
	ErrStopInFlight  = errors.New("stop in flight")
	ErrClosed        = errors.New("session controller closed")
)

// errSuperseded marks worker calls skipped because a newer generation exists.
var errSuperseded = errors.New("superseded by newer generation")

// Operator-facing notices.
const (
	NoticeConnected        = "RTMP Connection Successful!"
	NoticeConnectionFailed = "Connection failed"
	NoticeAuthFailed       = "Authentication failed"
	NoticePrepareFailed    = "Encoder setup failed"
	NoticeSwitchFailed     = "Camera switch failed"
	noticeConnectionLost   = "Connection lost"
)

func startRejection(reason string) error {
	switch reason {
	case lifecycle.ForbiddenStopInFlight:
		return ErrStopInFlight
	default:
		return ErrAlreadyActive
	}
}
