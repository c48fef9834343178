// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package backoff decides how long to wait before the next reconnect attempt
// and when to stop trying.
package backoff

import "time"

// DefaultDelay is the constant wait between reconnect attempts.
const DefaultDelay = 3 * time.Second

// Policy is a fixed-delay retry policy. MaxAttempts == 0 means unbounded:
// retries continue until the user stops the session.
type Policy struct {
	Delay       time.Duration
	MaxAttempts uint32
}

// Default returns the unbounded 3 second policy.
func Default() Policy {
	return Policy{Delay: DefaultDelay}
}

// NextDelay returns the wait before attempt number attempt (1-based).
func (p Policy) NextDelay(attempt uint32) time.Duration {
	if p.Delay <= 0 {
		return DefaultDelay
	}
	return p.Delay
}

// Exhausted reports whether attempt exceeds the configured cap.
func (p Policy) Exhausted(attempt uint32) bool {
	return p.MaxAttempts > 0 && attempt > p.MaxAttempts
}

// Unbounded reports whether the policy never gives up on its own.
func (p Policy) Unbounded() bool {
	return p.MaxAttempts == 0
}
