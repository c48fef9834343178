// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/golive/internal/bus"
	"github.com/ManuGH/golive/internal/domain/backoff"
	"github.com/ManuGH/golive/internal/domain/orientation"
	"github.com/ManuGH/golive/internal/domain/session/model"
	"github.com/ManuGH/golive/internal/domain/session/ports"
)

const testBaseURL = "rtmps://live.fastpix.app:443/live"

// gate blocks a publisher call until released. A nil gate never blocks.
type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) open() {
	if g == nil {
		return
	}
	g.once.Do(func() { close(g.release) })
}

// fakePublisher records every command in call order.
type fakePublisher struct {
	mu        sync.Mutex
	calls     []string
	streaming bool

	prepareVideoErr error
	prepareAudioErr error
	startErr        error
	stopErr         error
	switchErr       error

	prepareGate *gate
	stopGate    *gate
	switchGate  *gate

	stopCount atomic.Int32
}

func (p *fakePublisher) record(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
}

func (p *fakePublisher) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePublisher) count(prefix string) int {
	n := 0
	for _, c := range p.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (p *fakePublisher) PrepareVideo(ctx context.Context, v ports.VideoParams) error {
	p.record("PrepareVideo %dx%d@%d %dbps keyframe=%ds rotation=%d",
		v.Width, v.Height, v.FrameRate, v.BitrateBps, v.KeyframeIntervalSeconds, v.Orientation)
	if err := p.prepareGate.wait(ctx); err != nil {
		return err
	}
	return p.prepareVideoErr
}

func (p *fakePublisher) PrepareAudio(_ context.Context, a ports.AudioParams) error {
	p.record("PrepareAudio %dbps %dHz stereo=%t", a.BitrateBps, a.SampleRate, a.Stereo)
	return p.prepareAudioErr
}

func (p *fakePublisher) StartStream(_ context.Context, url string) error {
	p.record("StartStream %s", url)
	if p.startErr != nil {
		return p.startErr
	}
	p.mu.Lock()
	p.streaming = true
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) StopStream(ctx context.Context) error {
	p.stopCount.Add(1)
	p.record("StopStream")
	if err := p.stopGate.wait(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	p.streaming = false
	p.mu.Unlock()
	return p.stopErr
}

func (p *fakePublisher) IsStreaming() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streaming
}

func (p *fakePublisher) SwitchCameraFacing(ctx context.Context) error {
	p.record("SwitchCameraFacing")
	if err := p.switchGate.wait(ctx); err != nil {
		return err
	}
	return p.switchErr
}

func (p *fakePublisher) openGates() {
	p.prepareGate.open()
	p.stopGate.open()
	p.switchGate.open()
}

// fakeDisplay records display commands.
type fakeDisplay struct {
	mu   sync.Mutex
	cmds []string
}

func (d *fakeDisplay) add(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cmds = append(d.cmds, s)
}

func (d *fakeDisplay) LockOrientation(l orientation.Lock) { d.add("lock:" + string(l)) }
func (d *fakeDisplay) UnlockOrientation()                 { d.add("unlock") }
func (d *fakeDisplay) ApplyAspect(a orientation.Aspect)   { d.add("aspect:" + string(a)) }

func (d *fakeDisplay) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.cmds...)
}

type harness struct {
	t      *testing.T
	c      *Controller
	pub    *fakePublisher
	disp   *fakeDisplay
	clock  *MockClock
	bus    *bus.MemoryBus
	cancel context.CancelFunc
	runErr chan error
	once   sync.Once
}

func newHarness(t *testing.T, pub *fakePublisher, mutate ...func(*Options)) *harness {
	t.Helper()
	if pub == nil {
		pub = &fakePublisher{}
	}
	h := &harness{
		t:      t,
		pub:    pub,
		disp:   &fakeDisplay{},
		clock:  NewMockClock(time.Unix(1_700_000_000, 0)),
		bus:    bus.NewMemoryBus(),
		runErr: make(chan error, 1),
	}
	opts := Options{
		Publisher: h.pub,
		Display:   h.disp,
		Bus:       h.bus,
		BaseURL:   testBaseURL,
		Policy:    backoff.Default(),
		Clock:     h.clock,
	}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := New(opts)
	require.NoError(t, err)
	h.c = c

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.runErr <- c.Run(ctx) }()
	t.Cleanup(h.shutdown)
	return h
}

func (h *harness) shutdown() {
	h.once.Do(func() {
		h.pub.openGates()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(h.t, h.c.Close(ctx))
		h.cancel()
		select {
		case err := <-h.runErr:
			require.NoError(h.t, err)
		case <-ctx.Done():
			h.t.Fatal("controller did not exit")
		}
	})
}

func (h *harness) inspect() Info {
	h.t.Helper()
	info, err := h.c.Inspect(context.Background())
	require.NoError(h.t, err)
	return info
}

func (h *harness) waitState(want model.State) Info {
	h.t.Helper()
	var last atomic.Value
	require.Eventually(h.t, func() bool {
		info, err := h.c.Inspect(context.Background())
		if err != nil {
			return false
		}
		last.Store(info)
		return info.State == want
	}, 2*time.Second, 2*time.Millisecond, "state never became %s", want)
	return last.Load().(Info)
}

func (h *harness) waitCalls(prefix string, n int) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		return h.pub.count(prefix) >= n
	}, 2*time.Second, 2*time.Millisecond, "expected %d %s calls, got %v", n, prefix, h.pub.Calls())
}

// connect drives a fresh session to Connecting with StartStream issued.
func (h *harness) connect(key string) {
	h.t.Helper()
	before := h.pub.count("StartStream")
	require.NoError(h.t, h.c.StartRequested(context.Background(), "360p", key))
	h.waitCalls("StartStream", before+1)
	h.waitState(model.StateConnecting)
}

// goLive drives a fresh session to Live.
func (h *harness) goLive(key string) {
	h.t.Helper()
	h.connect(key)
	require.NoError(h.t, h.c.Submit(ports.Success{}))
	h.waitState(model.StateLive)
}

// fail reports a connection failure and waits for the resulting state.
func (h *harness) fail(reason string, want model.State) Info {
	h.t.Helper()
	require.NoError(h.t, h.c.Submit(ports.Failed{Reason: reason}))
	return h.waitState(want)
}

// fireRetry advances past the only pending retry timer.
func (h *harness) fireRetry() {
	h.t.Helper()
	pending := h.clock.Pending()
	require.Len(h.t, pending, 1)
	before := h.pub.count("StartStream")
	h.clock.Advance(pending[0].Duration())
	h.waitCalls("StartStream", before+1)
	h.waitState(model.StateConnecting)
}
