// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package facing tracks which camera feeds the stream and serializes switches
// between them.
package facing

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Facing identifies the physical camera supplying video.
type Facing string

const (
	Back  Facing = "back"
	Front Facing = "front"
)

// Opposite returns the other camera.
func (f Facing) Opposite() Facing {
	if f == Front {
		return Back
	}
	return Front
}

var (
	// ErrBusy is returned when a switch is already in flight. Requests are not queued.
	ErrBusy = errors.New("camera switch already in progress")
	// ErrSwitch wraps failures reported by the underlying camera switch.
	ErrSwitch = errors.New("camera switch failed")
)

// Switcher performs the hardware-level camera toggle.
type Switcher interface {
	SwitchCameraFacing(ctx context.Context) error
}

// Controller owns the logical facing and allows one switch at a time.
type Controller struct {
	mu       sync.Mutex
	current  Facing
	inFlight bool
	switcher Switcher
}

// NewController starts on the given facing (the back camera when empty).
func NewController(initial Facing, sw Switcher) *Controller {
	if initial == "" {
		initial = Back
	}
	return &Controller{current: initial, switcher: sw}
}

// Current returns the facing confirmed by the last successful switch.
func (c *Controller) Current() Facing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// InFlight reports whether a switch is running.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Switch is a reserved camera switch. Run must be called exactly once.
type Switch struct {
	c      *Controller
	target Facing
	once   sync.Once
}

// Target is the facing this switch moves to.
func (s *Switch) Target() Facing {
	return s.target
}

// Reserve claims the in-flight slot for a switch to target. It returns a nil
// Switch and nil error when target is already current, and ErrBusy while
// another switch runs.
func (c *Controller) Reserve(target Facing) (*Switch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return nil, ErrBusy
	}
	if target == c.current {
		return nil, nil
	}
	c.inFlight = true
	return &Switch{c: c, target: target}, nil
}

// Run performs the hardware switch and releases the in-flight slot.
// The current facing changes only on success.
func (s *Switch) Run(ctx context.Context) error {
	var err error
	ran := false
	s.once.Do(func() {
		ran = true
		err = s.c.switcher.SwitchCameraFacing(ctx)
		s.c.mu.Lock()
		if err == nil {
			s.c.current = s.target
		}
		s.c.inFlight = false
		s.c.mu.Unlock()
	})
	if !ran {
		return fmt.Errorf("switch to %s already ran", s.target)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSwitch, err)
	}
	return nil
}

// RequestFacing switches to target and blocks until the switch completes.
func (c *Controller) RequestFacing(ctx context.Context, target Facing) error {
	sw, err := c.Reserve(target)
	if err != nil || sw == nil {
		return err
	}
	return sw.Run(ctx)
}
