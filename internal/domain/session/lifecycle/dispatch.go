// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"errors"
	"fmt"

	"github.com/ManuGH/golive/internal/domain/session/model"
)

// ErrForbidden classifies every rejected (State, Event) combination.
var ErrForbidden = errors.New("forbidden transition")

// ForbiddenError carries the table reason for a rejected event.
type ForbiddenError struct {
	From   model.State
	Event  EventKind
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s: %s in %s (%s)", ErrForbidden, e.Event, e.From, e.Reason)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// Next resolves the transition for ev in state from. Rejections are returned
// as *ForbiddenError; a combination missing from the tables is reported with
// reason "undefined".
func Next(from model.State, ev EventKind) (Transition, error) {
	decision, ok := DecisionFor(from, ev)
	if !ok {
		return Transition{}, &ForbiddenError{From: from, Event: ev, Reason: "undefined"}
	}
	if !decision.Allowed {
		return Transition{}, &ForbiddenError{From: from, Event: ev, Reason: decision.Reason}
	}
	tr, ok := TransitionFor(from, ev)
	if !ok {
		return Transition{}, &ForbiddenError{From: from, Event: ev, Reason: "undefined"}
	}
	return tr, nil
}

// ReasonOf extracts the forbidden reason from err, or "" if err is not a
// lifecycle rejection.
func ReasonOf(err error) string {
	var fe *ForbiddenError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ""
}
