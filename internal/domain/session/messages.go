// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"github.com/ManuGH/golive/internal/domain/backoff"
	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/orientation"
	"github.com/ManuGH/golive/internal/domain/preset"
	"github.com/ManuGH/golive/internal/domain/session/ports"
)

// message is anything the actor accepts from its mailbox.
type message interface {
	isMessage()
}

// Intents carry a buffered reply channel; the actor answers exactly once.
type (
	startMsg struct {
		id     preset.ID
		preset preset.Preset
		key    string
		reply  chan error
	}
	stopMsg struct {
		reply chan error
	}
	facingMsg struct {
		target facing.Facing
		toggle bool
		reply  chan error
	}
	rotationMsg struct {
		rotation orientation.Rotation
		reply    chan error
	}
	policyMsg struct {
		policy backoff.Policy
		reply  chan error
	}
	inspectMsg struct {
		reply chan Info
	}
	waitIdleMsg struct {
		reply chan struct{}
	}
)

// Asynchronous inputs.
type (
	connMsg struct {
		ev ports.ConnectionEvent
	}
	prepareDone struct {
		gen uint64
		err error
	}
	startDone struct {
		gen uint64
		err error
	}
	stopDone struct {
		gen    uint64
		issued bool
		err    error
	}
	facingDone struct {
		target facing.Facing
		err    error
	}
	retryFired struct {
		token uint64
	}
)

func (startMsg) isMessage()    {}
func (stopMsg) isMessage()     {}
func (facingMsg) isMessage()   {}
func (rotationMsg) isMessage() {}
func (policyMsg) isMessage()   {}
func (inspectMsg) isMessage()  {}
func (waitIdleMsg) isMessage() {}
func (connMsg) isMessage()     {}
func (prepareDone) isMessage() {}
func (startDone) isMessage()   {}
func (stopDone) isMessage()    {}
func (facingDone) isMessage()  {}
func (retryFired) isMessage()  {}
