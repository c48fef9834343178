// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/golive/internal/domain/backoff"
	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/orientation"
	"github.com/ManuGH/golive/internal/domain/preset"
	"github.com/ManuGH/golive/internal/domain/session/model"
	"github.com/ManuGH/golive/internal/domain/session/ports"
	"github.com/ManuGH/golive/internal/domain/status"
	"github.com/ManuGH/golive/internal/publisher/stub"
)

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{BaseURL: testBaseURL})
	require.ErrorIs(t, err, ErrValidation)

	_, err = New(Options{Publisher: &fakePublisher{}, BaseURL: "  "})
	require.ErrorIs(t, err, ErrValidation)
}

func TestGoLive360pScenario(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.Equal(t, status.LabelGoLive, h.c.Status().Label)

	require.NoError(t, h.c.StartRequested(ctx, preset.SD360p, "abc123"))
	h.waitCalls("StartStream", 1)
	h.waitState(model.StateConnecting)
	require.NoError(t, h.c.Submit(ports.Started{URL: testBaseURL + "/abc123"}))
	require.NoError(t, h.c.Submit(ports.Success{}))
	info := h.waitState(model.StateLive)
	require.Equal(t, uint32(0), info.Attempt)
	require.NotEmpty(t, info.SessionID)

	wantCalls := []string{
		"PrepareVideo 640x360@30 1000000bps keyframe=2s rotation=0",
		"PrepareAudio 131072bps 48000Hz stereo=true",
		"StartStream rtmps://live.fastpix.app:443/live/abc123",
	}
	if diff := cmp.Diff(wantCalls, h.pub.Calls()); diff != "" {
		t.Fatalf("publisher calls mismatch (-want +got):\n%s", diff)
	}

	wantDisplay := []string{"lock:portrait", "aspect:h,9:16", "unlock"}
	if diff := cmp.Diff(wantDisplay, h.disp.Commands()); diff != "" {
		t.Fatalf("display commands mismatch (-want +got):\n%s", diff)
	}

	st := h.c.Status()
	assert.Equal(t, status.LabelLive, st.Label)
	assert.Equal(t, status.Green, st.Indicator)
	assert.Equal(t, NoticeConnected, st.Notice)
}

func TestMetersFollowSamplesAndReset(t *testing.T) {
	h := newHarness(t, nil)
	h.goLive("abc123")

	require.NoError(t, h.c.Submit(ports.BitrateSample{Bps: 2_048_000}))
	require.NoError(t, h.c.Submit(ports.FPSSample{FPS: 29}))
	h.inspect()
	st := h.c.Status()
	assert.Equal(t, "2000 kbps", st.BitrateText)
	assert.Equal(t, "29 fps", st.FPSText)

	require.NoError(t, h.c.StopRequested(context.Background()))
	h.waitState(model.StateIdle)
	st = h.c.Status()
	assert.Equal(t, "0 kbps", st.BitrateText)
	assert.Equal(t, "0 fps", st.FPSText)
}

func TestStartValidation(t *testing.T) {
	t.Run("empty key without fallback", func(t *testing.T) {
		h := newHarness(t, nil)
		err := h.c.StartRequested(context.Background(), preset.SD360p, "  ")
		require.ErrorIs(t, err, ErrValidation)
		require.Equal(t, model.StateIdle, h.inspect().State)
		require.Empty(t, h.pub.Calls())
	})

	t.Run("empty key uses fallback", func(t *testing.T) {
		h := newHarness(t, nil, func(o *Options) { o.FallbackKey = "fallback-key" })
		h.connect("")
		require.Contains(t, h.pub.Calls(), "StartStream "+testBaseURL+"/fallback-key")
	})

	t.Run("unknown preset panics on caller", func(t *testing.T) {
		h := newHarness(t, nil)
		require.Panics(t, func() {
			_ = h.c.StartRequested(context.Background(), preset.ID("4k"), "abc123")
		})
		require.Equal(t, model.StateIdle, h.inspect().State)
	})
}

func TestStartWhileActive(t *testing.T) {
	h := newHarness(t, nil)
	h.goLive("abc123")

	err := h.c.StartRequested(context.Background(), preset.HD720p, "other")
	require.ErrorIs(t, err, ErrAlreadyActive)
	require.Equal(t, 1, h.pub.count("StartStream"))
}

func TestStartWhileStopInFlight(t *testing.T) {
	pub := &fakePublisher{stopGate: newGate()}
	h := newHarness(t, pub)
	h.goLive("abc123")

	require.NoError(t, h.c.StopRequested(context.Background()))
	<-pub.stopGate.entered
	info := h.inspect()
	require.Equal(t, model.StateStopping, info.State)
	require.True(t, info.StopInFlight)

	err := h.c.StartRequested(context.Background(), preset.SD360p, "abc123")
	require.ErrorIs(t, err, ErrStopInFlight)

	pub.stopGate.open()
	info = h.waitState(model.StateIdle)
	require.False(t, info.StopInFlight)
	require.NoError(t, h.c.StartRequested(context.Background(), preset.SD360p, "abc123"))
}

func TestDoubleStopIssuesSingleStopStream(t *testing.T) {
	pub := &fakePublisher{stopGate: newGate()}
	h := newHarness(t, pub)
	h.goLive("abc123")

	ctx := context.Background()
	require.NoError(t, h.c.StopRequested(ctx))
	<-pub.stopGate.entered
	require.NoError(t, h.c.StopRequested(ctx), "second stop must not error")
	require.Equal(t, model.StateStopping, h.inspect().State)

	pub.stopGate.open()
	h.waitState(model.StateIdle)
	require.NoError(t, h.c.StopRequested(ctx), "stop while idle is a no-op")
	require.Equal(t, int32(1), pub.stopCount.Load())
}

func TestStopFromEveryStateReachesIdle(t *testing.T) {
	cases := []struct {
		name  string
		pub   func() *fakePublisher
		drive func(h *harness)
		want  model.State
	}{
		{
			name:  "idle",
			pub:   func() *fakePublisher { return &fakePublisher{} },
			drive: func(h *harness) {},
			want:  model.StateIdle,
		},
		{
			name: "preparing",
			pub:  func() *fakePublisher { return &fakePublisher{prepareGate: newGate()} },
			drive: func(h *harness) {
				require.NoError(h.t, h.c.StartRequested(context.Background(), preset.SD360p, "abc123"))
				<-h.pub.prepareGate.entered
			},
			want: model.StatePreparing,
		},
		{
			name:  "connecting",
			pub:   func() *fakePublisher { return &fakePublisher{} },
			drive: func(h *harness) { h.connect("abc123") },
			want:  model.StateConnecting,
		},
		{
			name:  "live",
			pub:   func() *fakePublisher { return &fakePublisher{} },
			drive: func(h *harness) { h.goLive("abc123") },
			want:  model.StateLive,
		},
		{
			name: "reconnecting",
			pub:  func() *fakePublisher { return &fakePublisher{} },
			drive: func(h *harness) {
				h.goLive("abc123")
				h.fail("network down", model.StateReconnecting)
			},
			want: model.StateReconnecting,
		},
		{
			name: "stopping",
			pub:  func() *fakePublisher { return &fakePublisher{stopGate: newGate()} },
			drive: func(h *harness) {
				h.goLive("abc123")
				require.NoError(h.t, h.c.StopRequested(context.Background()))
				<-h.pub.stopGate.entered
			},
			want: model.StateStopping,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, tc.pub())
			tc.drive(h)
			require.Equal(t, tc.want, h.inspect().State)

			require.NoError(t, h.c.StopRequested(context.Background()))
			h.pub.openGates()
			info := h.waitState(model.StateIdle)
			assert.False(t, info.PendingRetry, "no retry token may survive a stop")
			assert.False(t, info.StopInFlight)
			assert.Equal(t, uint32(0), info.Attempt)
			assert.Empty(t, h.clock.Pending())
			assert.LessOrEqual(t, h.pub.stopCount.Load(), int32(1))
		})
	}
}

func TestStopDuringPrepareNeverStartsStream(t *testing.T) {
	pub := &fakePublisher{prepareGate: newGate()}
	h := newHarness(t, pub)

	require.NoError(t, h.c.StartRequested(context.Background(), preset.SD360p, "abc123"))
	<-pub.prepareGate.entered
	require.NoError(t, h.c.StopRequested(context.Background()))
	require.Equal(t, model.StateStopping, h.inspect().State)

	pub.prepareGate.open()
	h.waitState(model.StateIdle)
	require.NoError(t, h.c.Close(context.Background()))

	require.Zero(t, pub.count("StartStream"))
	require.Zero(t, pub.stopCount.Load(), "publisher never streamed")
}

func TestThreeFailuresScheduleThreeRetries(t *testing.T) {
	h := newHarness(t, nil)
	h.connect("abc123")

	var info Info
	for i := 1; i <= 3; i++ {
		info = h.fail(fmt.Sprintf("failure %d", i), model.StateReconnecting)
		require.Equal(t, uint32(i), info.Attempt, "attempt must be non-decreasing")
		require.True(t, info.PendingRetry)
		require.Equal(t, status.LabelReconnecting, h.c.Status().Label)
		if i < 3 {
			h.fireRetry()
		}
	}

	timers := h.clock.Timers()
	require.Len(t, timers, 3)
	for _, tm := range timers {
		require.Equal(t, backoff.DefaultDelay, tm.Duration())
	}
	require.Equal(t, uint32(3), info.Attempt)
	require.Equal(t, 3, h.pub.count("StartStream"))
}

func TestRetryReusesPresetKeyAndRotation(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.c.RotationChanged(context.Background(), orientation.Rotation90))
	require.NoError(t, h.c.StartRequested(context.Background(), preset.HD720p, "abc123"))
	h.waitCalls("StartStream", 1)
	h.waitState(model.StateConnecting)

	h.fail("timeout", model.StateReconnecting)
	h.fireRetry()

	calls := h.pub.Calls()
	require.Equal(t, calls[:3], calls[3:6], "retry must repeat the same publisher sequence")
	require.Equal(t, "PrepareVideo 1280x720@30 3000000bps keyframe=2s rotation=90", calls[0])
}

func TestSuccessResetsAttempt(t *testing.T) {
	h := newHarness(t, nil)
	h.connect("abc123")
	h.fail("x", model.StateReconnecting)
	h.fireRetry()
	h.fail("y", model.StateReconnecting)
	require.Equal(t, uint32(2), h.inspect().Attempt)
	h.fireRetry()

	require.NoError(t, h.c.Submit(ports.Success{}))
	info := h.waitState(model.StateLive)
	require.Equal(t, uint32(0), info.Attempt)

	info = h.fail("z", model.StateReconnecting)
	require.Equal(t, uint32(1), info.Attempt)
}

func TestDisconnectedFromLiveReconnects(t *testing.T) {
	h := newHarness(t, nil)
	h.goLive("abc123")
	require.NoError(t, h.c.Submit(ports.Disconnected{}))
	info := h.waitState(model.StateReconnecting)
	require.Equal(t, uint32(1), info.Attempt)

	// A second loss report while already reconnecting is absorbed.
	require.NoError(t, h.c.Submit(ports.Failed{Reason: "late"}))
	require.Equal(t, uint32(1), h.inspect().Attempt)
	require.Len(t, h.clock.Timers(), 1)
}

func TestRetriesExhausted(t *testing.T) {
	h := newHarness(t, nil, func(o *Options) {
		o.Policy = backoff.Policy{Delay: time.Second, MaxAttempts: 1}
	})
	h.connect("abc123")
	h.fail("first", model.StateReconnecting)
	h.fireRetry()
	info := h.fail("second", model.StateIdle)

	require.False(t, info.PendingRetry)
	require.Equal(t, NoticeConnectionFailed, h.c.Status().Notice)
	require.Equal(t, status.LabelGoLive, h.c.Status().Label)
	require.Len(t, h.clock.Timers(), 1)
}

func TestAuthErrorNeverReconnects(t *testing.T) {
	states := []model.State{model.StatePreparing, model.StateConnecting, model.StateLive, model.StateReconnecting}
	for _, from := range states {
		t.Run(string(from), func(t *testing.T) {
			pub := &fakePublisher{}
			if from == model.StatePreparing {
				pub.prepareGate = newGate()
			}
			h := newHarness(t, pub)
			switch from {
			case model.StatePreparing:
				require.NoError(t, h.c.StartRequested(context.Background(), preset.SD360p, "abc123"))
				<-pub.prepareGate.entered
				require.Equal(t, model.StatePreparing, h.inspect().State)
			case model.StateConnecting:
				h.connect("abc123")
			case model.StateLive:
				h.goLive("abc123")
			case model.StateReconnecting:
				h.goLive("abc123")
				h.fail("drop", model.StateReconnecting)
			}

			require.NoError(t, h.c.Submit(ports.AuthError{}))
			info := h.waitState(model.StateIdle)
			require.False(t, info.PendingRetry)
			require.Empty(t, h.clock.Pending())
			require.Equal(t, NoticeAuthFailed, h.c.Status().Notice)

			before := len(h.pub.Calls())
			h.clock.Advance(time.Minute)
			require.Equal(t, model.StateIdle, h.inspect().State)
			require.Len(t, h.pub.Calls(), before)
		})
	}
}

func TestSynchronousStartErrors(t *testing.T) {
	t.Run("auth", func(t *testing.T) {
		pub := &fakePublisher{startErr: fmt.Errorf("handshake: %w", ports.ErrAuth)}
		h := newHarness(t, pub)
		require.NoError(t, h.c.StartRequested(context.Background(), preset.SD360p, "abc123"))
		h.waitState(model.StateIdle)
		require.Equal(t, NoticeAuthFailed, h.c.Status().Notice)
		require.Empty(t, h.clock.Timers())
	})

	t.Run("transport", func(t *testing.T) {
		pub := &fakePublisher{startErr: errors.New("dial tcp: connection refused")}
		h := newHarness(t, pub)
		require.NoError(t, h.c.StartRequested(context.Background(), preset.SD360p, "abc123"))
		info := h.waitState(model.StateReconnecting)
		require.Equal(t, uint32(1), info.Attempt)
		require.Contains(t, h.c.Status().Notice, "connection refused")
	})
}

func TestPrepareFailureEndsWithoutRetry(t *testing.T) {
	pub := &fakePublisher{prepareVideoErr: errors.New("unsupported resolution")}
	h := newHarness(t, pub)

	require.NoError(t, h.c.StartRequested(context.Background(), preset.HD1080p, "abc123"))
	info := h.waitState(model.StateIdle)
	require.False(t, info.PendingRetry)
	require.Empty(t, h.clock.Timers())
	require.Equal(t, NoticePrepareFailed+" (video)", h.c.Status().Notice)
	require.Zero(t, pub.count("StartStream"))
	require.Equal(t, []string{"lock:portrait", "aspect:h,9:16", "unlock"}, h.disp.Commands())
}

func TestStaleTimerAfterStopIsNoop(t *testing.T) {
	h := newHarness(t, nil)
	h.goLive("abc123")
	h.fail("drop", model.StateReconnecting)
	timer := h.clock.Pending()[0]

	require.NoError(t, h.c.StopRequested(context.Background()))
	h.waitState(model.StateIdle)
	require.True(t, timer.Stopped(), "stop must cancel the retry timer")

	calls := len(h.pub.Calls())
	timer.Fire()
	info := h.inspect()
	require.Equal(t, model.StateIdle, info.State)
	require.Len(t, h.pub.Calls(), calls)
}

func TestStaleTimerFromPreviousSessionIsNoop(t *testing.T) {
	h := newHarness(t, nil)
	h.goLive("abc123")
	h.fail("drop", model.StateReconnecting)
	old := h.clock.Pending()[0]
	require.NoError(t, h.c.StopRequested(context.Background()))
	h.waitState(model.StateIdle)

	h.connect("abc123")
	h.fail("drop again", model.StateReconnecting)
	current := h.inspect().RetryToken

	old.Fire()
	info := h.inspect()
	require.Equal(t, model.StateReconnecting, info.State, "old token must not trigger a retry")
	require.Equal(t, current, info.RetryToken)
}

func TestConnectionEventsIgnoredWhileStopping(t *testing.T) {
	pub := &fakePublisher{stopGate: newGate()}
	h := newHarness(t, pub)
	h.goLive("abc123")
	require.NoError(t, h.c.StopRequested(context.Background()))
	<-pub.stopGate.entered

	for _, ev := range []ports.ConnectionEvent{
		ports.Failed{Reason: "Channel is closed for write"},
		ports.Disconnected{},
		ports.AuthError{},
		ports.Success{},
		ports.BitrateSample{Bps: 1},
	} {
		require.NoError(t, h.c.Submit(ev))
	}
	info := h.inspect()
	require.Equal(t, model.StateStopping, info.State)
	require.False(t, info.PendingRetry)
	require.Equal(t, "0 kbps", h.c.Status().BitrateText)

	pub.stopGate.open()
	h.waitState(model.StateIdle)
	require.Empty(t, h.clock.Timers())
}

func TestTeardownErrorIsSwallowed(t *testing.T) {
	pub := &fakePublisher{stopErr: fmt.Errorf("write: %w", ports.ErrTeardown)}
	h := newHarness(t, pub)
	h.goLive("abc123")

	require.NoError(t, h.c.StopRequested(context.Background()))
	h.waitState(model.StateIdle)
	require.Empty(t, h.c.Status().Notice)
}

func TestStopFailureStillReachesIdle(t *testing.T) {
	pub := &fakePublisher{stopErr: errors.New("socket reset")}
	h := newHarness(t, pub)
	h.goLive("abc123")

	require.NoError(t, h.c.StopRequested(context.Background()))
	info := h.waitState(model.StateIdle)
	require.False(t, info.StopInFlight)
}

func TestFacingRequests(t *testing.T) {
	pub := &fakePublisher{switchGate: newGate()}
	h := newHarness(t, pub)
	ctx := context.Background()

	require.NoError(t, h.c.SelectFacing(ctx, facing.Back), "selecting the active camera is a no-op")
	require.Zero(t, pub.count("SwitchCameraFacing"))

	require.NoError(t, h.c.SwitchFacingRequested(ctx))
	<-pub.switchGate.entered
	require.ErrorIs(t, h.c.SwitchFacingRequested(ctx), facing.ErrBusy)
	require.ErrorIs(t, h.c.SelectFacing(ctx, facing.Front), facing.ErrBusy)

	pub.switchGate.open()
	require.Eventually(t, func() bool {
		return h.c.Status().Facing == facing.Front
	}, 2*time.Second, 2*time.Millisecond)
	require.Equal(t, 1, pub.count("SwitchCameraFacing"))

	require.ErrorIs(t, h.c.SelectFacing(ctx, facing.Facing("side")), ErrValidation)
}

func TestFacingFollowsPublisherCamera(t *testing.T) {
	pub := stub.New(stub.Config{})
	c, err := New(Options{Publisher: pub, BaseURL: testBaseURL, Clock: NewMockClock(time.Unix(1_700_000_000, 0))})
	require.NoError(t, err)
	require.True(t, pub.BackCamera())
	require.Equal(t, facing.Back, c.Status().Facing)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	require.NoError(t, c.SelectFacing(ctx, facing.Front))
	require.Eventually(t, func() bool {
		return c.Status().Facing == facing.Front
	}, 2*time.Second, 2*time.Millisecond)
	assert.False(t, pub.BackCamera())

	require.NoError(t, c.SwitchFacingRequested(ctx))
	require.Eventually(t, func() bool {
		return c.Status().Facing == facing.Back
	}, 2*time.Second, 2*time.Millisecond)
	assert.True(t, pub.BackCamera())

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	require.NoError(t, c.Close(closeCtx))
	require.NoError(t, <-runErr)
}

func TestInitialFacingMustMatchPublisher(t *testing.T) {
	pub := stub.New(stub.Config{Facing: facing.Front})
	_, err := New(Options{Publisher: pub, BaseURL: testBaseURL, InitialFacing: facing.Back})
	require.ErrorIs(t, err, ErrValidation)

	c, err := New(Options{Publisher: pub, BaseURL: testBaseURL, InitialFacing: facing.Front})
	require.NoError(t, err)
	require.Equal(t, facing.Front, c.Status().Facing)
}

func TestFacingSwitchFailureKeepsCurrent(t *testing.T) {
	pub := &fakePublisher{switchErr: errors.New("camera unavailable")}
	h := newHarness(t, pub, func(o *Options) { o.InitialFacing = facing.Front })

	require.NoError(t, h.c.SwitchFacingRequested(context.Background()))
	require.Eventually(t, func() bool {
		return h.c.Status().Notice == NoticeSwitchFailed
	}, 2*time.Second, 2*time.Millisecond)
	require.Equal(t, facing.Front, h.inspect().Facing)
}

func TestRotationReletterboxesWithoutRelocking(t *testing.T) {
	h := newHarness(t, nil)
	h.connect("abc123")

	require.NoError(t, h.c.RotationChanged(context.Background(), orientation.Rotation270))
	require.NoError(t, h.c.RotationChanged(context.Background(), orientation.Rotation(45)))

	want := []string{"lock:portrait", "aspect:h,9:16", "aspect:w,16:9", "aspect:h,9:16"}
	if diff := cmp.Diff(want, h.disp.Commands()); diff != "" {
		t.Fatalf("display commands mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, orientation.Rotation(45), h.inspect().Rotation)
}

func TestStatusPublishedOnBus(t *testing.T) {
	h := newHarness(t, nil)
	sub, err := h.bus.Subscribe(context.Background(), TopicStatus)
	require.NoError(t, err)
	defer sub.Close()

	h.goLive("abc123")

	var labels []string
	timeout := time.After(2 * time.Second)
	for len(labels) == 0 || labels[len(labels)-1] != status.LabelLive {
		select {
		case msg := <-sub.C():
			labels = append(labels, msg.(status.UiStatus).Label)
		case <-timeout:
			t.Fatalf("live status never published, got %v", labels)
		}
	}
	require.Equal(t, status.LabelConnecting, labels[0])
}

func TestSetPolicyAppliesToNextSession(t *testing.T) {
	h := newHarness(t, nil)
	h.connect("abc123")
	require.NoError(t, h.c.SetPolicy(context.Background(), backoff.Policy{Delay: 7 * time.Second}))

	h.fail("x", model.StateReconnecting)
	require.Equal(t, backoff.DefaultDelay, h.clock.Pending()[0].Duration())

	require.NoError(t, h.c.StopRequested(context.Background()))
	h.waitState(model.StateIdle)
	h.connect("abc123")
	h.fail("y", model.StateReconnecting)
	require.Equal(t, 7*time.Second, h.clock.Pending()[0].Duration())
}

func TestConcurrentSubmittersAndStop(t *testing.T) {
	h := newHarness(t, nil)
	h.goLive("abc123")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = h.c.Submit(ports.BitrateSample{Bps: uint64(i*1000 + j)})
				_ = h.c.Submit(ports.FPSSample{FPS: 30})
			}
		}(i)
	}
	require.NoError(t, h.c.StopRequested(context.Background()))
	wg.Wait()

	info := h.waitState(model.StateIdle)
	require.False(t, info.StopInFlight)
	require.Equal(t, int32(1), h.pub.stopCount.Load())
	require.Equal(t, "0 kbps", h.c.Status().BitrateText)
}

func TestCloseStopsLiveStreamWithoutLeaks(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(t, nil)
	h.goLive("abc123")
	h.shutdown()

	require.Equal(t, int32(1), h.pub.stopCount.Load())
	require.False(t, h.pub.IsStreaming())
	require.ErrorIs(t, h.c.StopRequested(context.Background()), ErrClosed)
	require.ErrorIs(t, h.c.Submit(ports.Success{}), ErrClosed)
}

func TestCloseDuringReconnectCancelsTimer(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(t, nil)
	h.goLive("abc123")
	h.fail("drop", model.StateReconnecting)
	timer := h.clock.Pending()[0]
	h.shutdown()

	require.True(t, timer.Stopped())
	timer.Fire() // must not panic or block after close
}

func TestSubmitRejectsNil(t *testing.T) {
	h := newHarness(t, nil)
	require.ErrorIs(t, h.c.Submit(nil), ErrValidation)
}

func TestRunTwiceFails(t *testing.T) {
	h := newHarness(t, nil)
	// The harness loop has served a request, so it owns the controller.
	h.inspect()
	require.Error(t, h.c.Run(context.Background()))
}
