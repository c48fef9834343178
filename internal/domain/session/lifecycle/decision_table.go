// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "github.com/ManuGH/golive/internal/domain/session/model"

const (
	ForbiddenAlreadyActive       = "already_active"
	ForbiddenStopInFlight        = "stop_in_flight"
	ForbiddenAlreadyIdle         = "already_idle"
	ForbiddenAlreadyInState      = "already_in_state"
	ForbiddenAlreadyReconnecting = "already_reconnecting"
	ForbiddenOutOfOrder          = "out_of_order"
	ForbiddenNotTransporting     = "not_transporting"
	ForbiddenStoppingAbsorbs     = "stopping_absorbs"
)

func allowed() Decision        { return Decision{Allowed: true} }
func forbid(r string) Decision { return Decision{Allowed: false, Reason: r} }

// decisionTable defines an explicit decision for every State×Event combination.
var decisionTable = map[model.State]map[EventKind]Decision{
	model.StateIdle: {
		EvStartRequested:   allowed(),
		EvPublisherReady:   forbid(ForbiddenOutOfOrder),
		EvPrepareFailed:    forbid(ForbiddenOutOfOrder),
		EvStarted:          forbid(ForbiddenNotTransporting),
		EvSuccess:          forbid(ForbiddenNotTransporting),
		EvFailed:           forbid(ForbiddenNotTransporting),
		EvDisconnected:     forbid(ForbiddenNotTransporting),
		EvAuthError:        forbid(ForbiddenNotTransporting),
		EvAuthSuccess:      forbid(ForbiddenNotTransporting),
		EvBitrateSample:    forbid(ForbiddenNotTransporting),
		EvFPSSample:        forbid(ForbiddenNotTransporting),
		EvRetryTimerFired:  forbid(ForbiddenOutOfOrder),
		EvRetriesExhausted: forbid(ForbiddenOutOfOrder),
		EvStopRequested:    forbid(ForbiddenAlreadyIdle),
		EvStopCompleted:    forbid(ForbiddenOutOfOrder),
	},
	model.StatePreparing: {
		EvStartRequested:   forbid(ForbiddenAlreadyActive),
		EvPublisherReady:   allowed(),
		EvPrepareFailed:    allowed(),
		EvStarted:          forbid(ForbiddenNotTransporting),
		EvSuccess:          forbid(ForbiddenNotTransporting),
		EvFailed:           forbid(ForbiddenNotTransporting),
		EvDisconnected:     forbid(ForbiddenNotTransporting),
		EvAuthError:        allowed(),
		EvAuthSuccess:      forbid(ForbiddenNotTransporting),
		EvBitrateSample:    forbid(ForbiddenNotTransporting),
		EvFPSSample:        forbid(ForbiddenNotTransporting),
		EvRetryTimerFired:  forbid(ForbiddenOutOfOrder),
		EvRetriesExhausted: forbid(ForbiddenOutOfOrder),
		EvStopRequested:    allowed(),
		EvStopCompleted:    forbid(ForbiddenOutOfOrder),
	},
	model.StateConnecting: {
		EvStartRequested:   forbid(ForbiddenAlreadyActive),
		EvPublisherReady:   forbid(ForbiddenOutOfOrder),
		EvPrepareFailed:    forbid(ForbiddenOutOfOrder),
		EvStarted:          allowed(),
		EvSuccess:          allowed(),
		EvFailed:           allowed(),
		EvDisconnected:     allowed(),
		EvAuthError:        allowed(),
		EvAuthSuccess:      allowed(),
		EvBitrateSample:    allowed(),
		EvFPSSample:        allowed(),
		EvRetryTimerFired:  forbid(ForbiddenOutOfOrder),
		EvRetriesExhausted: allowed(),
		EvStopRequested:    allowed(),
		EvStopCompleted:    forbid(ForbiddenOutOfOrder),
	},
	model.StateLive: {
		EvStartRequested:   forbid(ForbiddenAlreadyActive),
		EvPublisherReady:   forbid(ForbiddenOutOfOrder),
		EvPrepareFailed:    forbid(ForbiddenOutOfOrder),
		EvStarted:          forbid(ForbiddenOutOfOrder),
		EvSuccess:          forbid(ForbiddenAlreadyInState),
		EvFailed:           allowed(),
		EvDisconnected:     allowed(),
		EvAuthError:        allowed(),
		EvAuthSuccess:      allowed(),
		EvBitrateSample:    allowed(),
		EvFPSSample:        allowed(),
		EvRetryTimerFired:  forbid(ForbiddenOutOfOrder),
		EvRetriesExhausted: allowed(),
		EvStopRequested:    allowed(),
		EvStopCompleted:    forbid(ForbiddenOutOfOrder),
	},
	model.StateReconnecting: {
		EvStartRequested:   forbid(ForbiddenAlreadyActive),
		EvPublisherReady:   forbid(ForbiddenOutOfOrder),
		EvPrepareFailed:    forbid(ForbiddenOutOfOrder),
		EvStarted:          forbid(ForbiddenNotTransporting),
		EvSuccess:          forbid(ForbiddenNotTransporting),
		EvFailed:           forbid(ForbiddenAlreadyReconnecting),
		EvDisconnected:     forbid(ForbiddenAlreadyReconnecting),
		EvAuthError:        allowed(),
		EvAuthSuccess:      forbid(ForbiddenNotTransporting),
		EvBitrateSample:    forbid(ForbiddenNotTransporting),
		EvFPSSample:        forbid(ForbiddenNotTransporting),
		EvRetryTimerFired:  allowed(),
		EvRetriesExhausted: forbid(ForbiddenOutOfOrder),
		EvStopRequested:    allowed(),
		EvStopCompleted:    forbid(ForbiddenOutOfOrder),
	},
	model.StateStopping: {
		EvStartRequested:   forbid(ForbiddenStopInFlight),
		EvPublisherReady:   forbid(ForbiddenStoppingAbsorbs),
		EvPrepareFailed:    forbid(ForbiddenStoppingAbsorbs),
		EvStarted:          forbid(ForbiddenStoppingAbsorbs),
		EvSuccess:          forbid(ForbiddenStoppingAbsorbs),
		EvFailed:           forbid(ForbiddenStoppingAbsorbs),
		EvDisconnected:     forbid(ForbiddenStoppingAbsorbs),
		EvAuthError:        forbid(ForbiddenStoppingAbsorbs),
		EvAuthSuccess:      forbid(ForbiddenStoppingAbsorbs),
		EvBitrateSample:    forbid(ForbiddenStoppingAbsorbs),
		EvFPSSample:        forbid(ForbiddenStoppingAbsorbs),
		EvRetryTimerFired:  forbid(ForbiddenStoppingAbsorbs),
		EvRetriesExhausted: forbid(ForbiddenStoppingAbsorbs),
		EvStopRequested:    forbid(ForbiddenStopInFlight),
		EvStopCompleted:    allowed(),
	},
}

// DecisionFor returns the explicit decision for the given state and event.
func DecisionFor(state model.State, ev EventKind) (Decision, bool) {
	byEvent, ok := decisionTable[state]
	if !ok {
		return Decision{}, false
	}
	decision, ok := byEvent[ev]
	return decision, ok
}

// ForbiddenTransitionReason documents why a transition is disallowed.
func ForbiddenTransitionReason(from model.State, ev EventKind) string {
	decision, ok := DecisionFor(from, ev)
	if !ok || decision.Allowed {
		return ""
	}
	return decision.Reason
}
