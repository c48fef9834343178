// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import "errors"

var (
	// ErrPrepare signals that the encoder rejected its configuration.
	ErrPrepare = errors.New("publisher prepare failed")

	// ErrTeardown marks failures that are expected while a connection is being
	// closed (for example writes racing a closed channel). Callers swallow it.
	ErrTeardown = errors.New("publisher teardown")

	// ErrAuth marks a synchronous credential rejection from StartStream.
	ErrAuth = errors.New("publisher authentication rejected")
)

// Prepare stages.
const (
	StageVideo = "video"
	StageAudio = "audio"
)

// PrepareError provides the failing stage of a prepare sequence.
type PrepareError struct {
	Stage string
	Err   error
}

func (e *PrepareError) Error() string {
	if e == nil {
		return ErrPrepare.Error()
	}
	msg := ErrPrepare.Error()
	if e.Stage != "" {
		msg += " (" + e.Stage + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the ErrPrepare class and the underlying cause.
func (e *PrepareError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPrepare}
	}
	return []error{ErrPrepare, e.Err}
}

// IsTeardown reports whether err is an expected teardown failure.
func IsTeardown(err error) bool {
	return errors.Is(err, ErrTeardown)
}
