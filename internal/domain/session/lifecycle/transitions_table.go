// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "github.com/ManuGH/golive/internal/domain/session/model"

// Transition is a single allowed edge in the lifecycle state machine.
// From == To marks a label-only event.
type Transition struct {
	From  model.State
	To    model.State
	Event EventKind
}

// Changes reports whether applying the transition moves the session.
func (t Transition) Changes() bool {
	return t.From != t.To
}

// Decision records whether a transition is allowed and why it is forbidden.
type Decision struct {
	Allowed bool
	Reason  string
}

var transitionsTable = []Transition{
	// Start path
	{From: model.StateIdle, To: model.StatePreparing, Event: EvStartRequested},
	{From: model.StatePreparing, To: model.StateConnecting, Event: EvPublisherReady},
	{From: model.StateConnecting, To: model.StateConnecting, Event: EvStarted},
	{From: model.StateConnecting, To: model.StateLive, Event: EvSuccess},
	{From: model.StatePreparing, To: model.StateIdle, Event: EvPrepareFailed},

	// Meters and credential acknowledgements
	{From: model.StateConnecting, To: model.StateConnecting, Event: EvAuthSuccess},
	{From: model.StateConnecting, To: model.StateConnecting, Event: EvBitrateSample},
	{From: model.StateConnecting, To: model.StateConnecting, Event: EvFPSSample},
	{From: model.StateLive, To: model.StateLive, Event: EvAuthSuccess},
	{From: model.StateLive, To: model.StateLive, Event: EvBitrateSample},
	{From: model.StateLive, To: model.StateLive, Event: EvFPSSample},

	// Connection loss
	{From: model.StateConnecting, To: model.StateReconnecting, Event: EvFailed},
	{From: model.StateConnecting, To: model.StateReconnecting, Event: EvDisconnected},
	{From: model.StateLive, To: model.StateReconnecting, Event: EvFailed},
	{From: model.StateLive, To: model.StateReconnecting, Event: EvDisconnected},
	{From: model.StateConnecting, To: model.StateIdle, Event: EvRetriesExhausted},
	{From: model.StateLive, To: model.StateIdle, Event: EvRetriesExhausted},
	{From: model.StateReconnecting, To: model.StatePreparing, Event: EvRetryTimerFired},

	// Credential rejection is terminal
	{From: model.StatePreparing, To: model.StateIdle, Event: EvAuthError},
	{From: model.StateConnecting, To: model.StateIdle, Event: EvAuthError},
	{From: model.StateLive, To: model.StateIdle, Event: EvAuthError},
	{From: model.StateReconnecting, To: model.StateIdle, Event: EvAuthError},

	// Stop intent
	{From: model.StatePreparing, To: model.StateStopping, Event: EvStopRequested},
	{From: model.StateConnecting, To: model.StateStopping, Event: EvStopRequested},
	{From: model.StateLive, To: model.StateStopping, Event: EvStopRequested},
	{From: model.StateReconnecting, To: model.StateStopping, Event: EvStopRequested},
	{From: model.StateStopping, To: model.StateIdle, Event: EvStopCompleted},
}

var transitionsIndex = func() map[model.State]map[EventKind]Transition {
	idx := make(map[model.State]map[EventKind]Transition)
	for _, tr := range transitionsTable {
		if _, ok := idx[tr.From]; !ok {
			idx[tr.From] = make(map[EventKind]Transition)
		}
		idx[tr.From][tr.Event] = tr
	}
	return idx
}()

// TransitionFor returns the edge for the given state and event, if any.
func TransitionFor(from model.State, ev EventKind) (Transition, bool) {
	byEvent, ok := transitionsIndex[from]
	if !ok {
		return Transition{}, false
	}
	tr, ok := byEvent[ev]
	return tr, ok
}
