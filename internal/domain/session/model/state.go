// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// State is the lifecycle state of the outbound stream session.
type State string

const (
	StateIdle         State = "idle"
	StatePreparing    State = "preparing"
	StateConnecting   State = "connecting"
	StateLive         State = "live"
	StateReconnecting State = "reconnecting"
	StateStopping     State = "stopping"
)

// States lists every state in lifecycle order.
func States() []State {
	return []State{StateIdle, StatePreparing, StateConnecting, StateLive, StateReconnecting, StateStopping}
}

// Active reports whether the session holds (or is acquiring) the publisher.
func (s State) Active() bool {
	return s != StateIdle
}

// Transporting reports whether the publisher is expected to be connecting or connected.
func (s State) Transporting() bool {
	return s == StateConnecting || s == StateLive
}

// ZeroesMeters reports whether entering s resets the bitrate and fps readouts.
func (s State) ZeroesMeters() bool {
	switch s {
	case StateIdle, StateReconnecting, StateStopping:
		return true
	}
	return false
}
