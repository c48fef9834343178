// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build unix

package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/session/ports"
)

const testURL = "rtmps://live.fastpix.app:443/live/secretkey1234"

type recordingSink struct {
	mu     sync.Mutex
	events []ports.ConnectionEvent
}

func (s *recordingSink) Submit(ev ports.ConnectionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Kind()
	}
	return out
}

func (s *recordingSink) last() ports.ConnectionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil
	}
	return s.events[len(s.events)-1]
}

// fakeEncoder writes an executable script standing in for ffmpeg.
func fakeEncoder(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o700)) // #nosec G306
	return path
}

const progressScript = `echo "$*" >> "$GOLIVE_TEST_ARGS"
printf 'fps=29.97\nbitrate=1000.0kbits/s\ntotal_size=4096\nout_time_us=1000000\nprogress=continue\n'
exec sleep 30`

func newTestPublisher(t *testing.T, script string) (*Publisher, *recordingSink) {
	t.Helper()
	t.Setenv("GOLIVE_TEST_ARGS", filepath.Join(t.TempDir(), "args.log"))
	p := New(Config{
		Bin:        fakeEncoder(t, script),
		Input:      Input{VideoFormat: "v4l2", VideoDevice: "/dev/front", AudioFormat: "alsa", AudioDevice: "default"},
		BackCamera: "/dev/back",
		StopGrace:  time.Second,
		Facing:     facing.Front,
	})
	sink := &recordingSink{}
	p.AttachSink(sink)

	ctx := context.Background()
	require.NoError(t, p.PrepareVideo(ctx, ports.VideoParams{Width: 640, Height: 360, FrameRate: 30, BitrateBps: 1_000_000}))
	require.NoError(t, p.PrepareAudio(ctx, ports.DefaultAudio()))
	t.Cleanup(func() { _ = p.StopStream(context.Background()) })
	return p, sink
}

func waitKinds(t *testing.T, sink *recordingSink, want ...string) {
	t.Helper()
	require.Eventually(t, func() bool {
		got := sink.kinds()
		return len(got) >= len(want) && assert.ObjectsAreEqual(want, got[:len(want)])
	}, 5*time.Second, 10*time.Millisecond, "events: %v", sink.kinds())
}

func TestPublisherLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)
	p, sink := newTestPublisher(t, progressScript)

	require.NoError(t, p.StartStream(context.Background(), testURL))
	assert.True(t, p.IsStreaming())
	waitKinds(t, sink, "started", "success", "bitrate_sample", "fps_sample")

	require.ErrorIs(t, p.StartStream(context.Background(), testURL), ErrAlreadyStreaming)

	err := p.StopStream(context.Background())
	if err != nil {
		require.True(t, ports.IsTeardown(err), "unexpected stop error: %v", err)
	}
	assert.False(t, p.IsStreaming())

	// an intentional stop never surfaces as a connection failure
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, sink.kinds(), 4)
	require.NoError(t, p.StopStream(context.Background()))
}

func TestPublisherAuthFailure(t *testing.T) {
	p, sink := newTestPublisher(t, `echo "`+testURL+`: Authentication failed" >&2; exit 1`)
	require.NoError(t, p.StartStream(context.Background(), testURL))

	require.Eventually(t, func() bool { return sink.last() == ports.AuthError{} }, 5*time.Second, 10*time.Millisecond)
	assert.False(t, p.IsStreaming())
}

func TestPublisherFailureReasonIsScrubbed(t *testing.T) {
	p, sink := newTestPublisher(t, `echo "Error opening output `+testURL+`: Input/output error" >&2; exit 1`)
	require.NoError(t, p.StartStream(context.Background(), testURL))

	require.Eventually(t, func() bool {
		_, ok := sink.last().(ports.Failed)
		return ok
	}, 5*time.Second, 10*time.Millisecond)
	reason := sink.last().(ports.Failed).Reason
	assert.NotContains(t, reason, "secretkey1234")
	assert.Contains(t, reason, "secr***")
}

func TestPublisherSwitchCameraRestartsEncoder(t *testing.T) {
	p, sink := newTestPublisher(t, progressScript)
	require.NoError(t, p.StartStream(context.Background(), testURL))
	waitKinds(t, sink, "started", "success")

	require.NoError(t, p.SwitchCameraFacing(context.Background()))
	assert.True(t, p.IsStreaming())

	argsLog := os.Getenv("GOLIVE_TEST_ARGS")
	require.Eventually(t, func() bool {
		body, _ := os.ReadFile(argsLog) // #nosec G304
		return strings.Count(string(body), "\n") == 2
	}, 5*time.Second, 10*time.Millisecond)
	body, err := os.ReadFile(argsLog) // #nosec G304
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	assert.Contains(t, lines[0], "-i /dev/front")
	assert.Contains(t, lines[1], "-i /dev/back")

	// the restart is not announced again
	time.Sleep(100 * time.Millisecond)
	kinds := sink.kinds()
	assert.Equal(t, 1, strings.Count(strings.Join(kinds, ","), "started"))
	assert.Equal(t, 1, strings.Count(strings.Join(kinds, ","), "success"))
	assert.NotContains(t, kinds, "failed")
}

func TestPublisherGuards(t *testing.T) {
	p := New(Config{Bin: "/nonexistent/ffmpeg"})
	ctx := context.Background()

	require.ErrorIs(t, p.StartStream(ctx, testURL), ErrNotPrepared)
	require.Error(t, p.PrepareVideo(ctx, ports.VideoParams{Width: 640, Height: 360, BitrateBps: 1}))
	require.Error(t, p.PrepareVideo(ctx, ports.VideoParams{}))
	require.Error(t, p.PrepareAudio(ctx, ports.AudioParams{}))
	require.ErrorIs(t, p.SwitchCameraFacing(ctx), ErrNoBackCamera)
	assert.False(t, p.IsStreaming())
	require.NoError(t, p.StopStream(ctx))
}

func TestPublisherInitialFacing(t *testing.T) {
	in := Input{VideoDevice: "/dev/front"}
	assert.Equal(t, facing.Back, New(Config{Input: in, BackCamera: "/dev/back"}).Facing())
	assert.Equal(t, facing.Front, New(Config{Input: in, BackCamera: "/dev/back", Facing: facing.Front}).Facing())
	// Without a back device the front camera is the only choice.
	assert.Equal(t, facing.Front, New(Config{Input: in}).Facing())
	assert.Equal(t, facing.Front, New(Config{Input: in, Facing: facing.Back}).Facing())
}
