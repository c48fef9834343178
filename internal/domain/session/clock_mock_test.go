// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"sync"
	"time"
)

// MockClock provides deterministic time control for testing. Timers only fire
// through Advance or MockTimer.Fire.
type MockClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*MockTimer
}

// NewMockClock creates a mock clock starting at the given time.
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *MockClock) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &MockTimer{clock: m, at: m.now.Add(d), d: d, f: f}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward and fires every due, unstopped timer in
// deadline order on the calling goroutine.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	var due []*MockTimer
	for _, t := range m.timers {
		if !t.stopped && !t.fired && !t.at.After(m.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	m.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// Timers returns every timer created so far, including stopped ones.
func (m *MockClock) Timers() []*MockTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockTimer(nil), m.timers...)
}

// Pending returns the timers that are neither stopped nor fired.
func (m *MockClock) Pending() []*MockTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*MockTimer
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// MockTimer is a timer owned by a MockClock.
type MockTimer struct {
	clock   *MockClock
	at      time.Time
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *MockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Duration is the delay the timer was created with.
func (t *MockTimer) Duration() time.Duration { return t.d }

// Stopped reports whether Stop was called.
func (t *MockTimer) Stopped() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.stopped
}

// Fire runs the callback even if the timer was stopped, emulating a fire that
// raced with cancellation.
func (t *MockTimer) Fire() {
	t.clock.mu.Lock()
	t.fired = true
	t.clock.mu.Unlock()
	t.f()
}
