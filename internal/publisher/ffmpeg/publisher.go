// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ffmpeg publishes the capture devices to an RTMP(S) ingest by
// supervising an ffmpeg process.
package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/session/ports"
	"github.com/ManuGH/golive/internal/log"
	"github.com/ManuGH/golive/internal/metrics"
	"github.com/ManuGH/golive/internal/procgroup"
)

const (
	backendName      = "ffmpeg"
	defaultStopGrace = 5 * time.Second
	stderrTail       = 64
)

var (
	ErrNotPrepared      = errors.New("ffmpeg: encoder not prepared")
	ErrAlreadyStreaming = errors.New("ffmpeg: already streaming")
	ErrNoBackCamera     = errors.New("ffmpeg: no back camera configured")
)

// Config configures the ffmpeg backend.
type Config struct {
	Bin string
	// Input.VideoDevice is the front camera.
	Input      Input
	BackCamera string
	StopGrace  time.Duration
	// Facing is the camera captured first. Empty selects the back camera
	// when one is configured, otherwise the front one.
	Facing facing.Facing
}

// Publisher implements ports.Publisher on top of an ffmpeg child process.
// Commands are serialized by the caller; process exits arrive concurrently.
type Publisher struct {
	cfg    Config
	logger zerolog.Logger

	mu        sync.Mutex
	sink      ports.EventSink
	video     *ports.VideoParams
	audio     *ports.AudioParams
	back      bool
	url       string
	proc      *process
	announced bool
}

type process struct {
	cmd    *exec.Cmd
	stderr *LineRing
	// ready gates event delivery so Started always precedes the process's own events.
	ready    chan struct{}
	done     chan struct{}
	err      error
	stopping atomic.Bool
}

// wait returns a channel that yields the exit error once, for procgroup.Terminate.
func (pr *process) wait() <-chan error {
	ch := make(chan error, 1)
	go func() {
		<-pr.done
		ch <- pr.err
	}()
	return ch
}

// New creates an ffmpeg publisher.
func New(cfg Config) *Publisher {
	if cfg.Bin == "" {
		cfg.Bin = "ffmpeg"
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = defaultStopGrace
	}
	back := cfg.BackCamera != "" && cfg.Facing != facing.Front
	return &Publisher{
		cfg:    cfg,
		logger: log.WithComponent("ffmpeg"),
		back:   back,
	}
}

// AttachSink registers the receiver for connection events.
func (p *Publisher) AttachSink(s ports.EventSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = s
}

// PrepareVideo checks the encoder binary and stores the video settings for the next start.
func (p *Publisher) PrepareVideo(_ context.Context, v ports.VideoParams) error {
	if v.Width == 0 || v.Height == 0 || v.BitrateBps == 0 {
		return fmt.Errorf("invalid video params %dx%d@%dbps", v.Width, v.Height, v.BitrateBps)
	}
	if _, err := exec.LookPath(p.cfg.Bin); err != nil {
		return fmt.Errorf("locate %s: %w", p.cfg.Bin, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.video = &v
	return nil
}

// PrepareAudio stores the audio settings for the next start.
func (p *Publisher) PrepareAudio(_ context.Context, a ports.AudioParams) error {
	if a.SampleRate == 0 || a.BitrateBps == 0 {
		return fmt.Errorf("invalid audio params %dHz@%dbps", a.SampleRate, a.BitrateBps)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.audio = &a
	return nil
}

// StartStream launches ffmpeg against url. It returns once the process is
// running; the connection outcome arrives as events.
func (p *Publisher) StartStream(_ context.Context, url string) error {
	p.mu.Lock()
	if p.video == nil || p.audio == nil {
		p.mu.Unlock()
		return ErrNotPrepared
	}
	if p.proc != nil {
		p.mu.Unlock()
		return ErrAlreadyStreaming
	}
	p.url = url
	p.announced = false
	proc, err := p.spawnLocked()
	p.mu.Unlock()
	if err != nil {
		return err
	}

	p.submit(ports.Started{URL: url})
	close(proc.ready)
	return nil
}

// StopStream terminates the running process. A non-zero exit caused by the
// termination itself is reported as ports.ErrTeardown.
func (p *Publisher) StopStream(ctx context.Context) error {
	p.mu.Lock()
	proc := p.proc
	p.proc = nil
	p.url = ""
	p.mu.Unlock()
	if proc == nil {
		return nil
	}

	err := p.terminate(ctx, proc)
	metrics.ObserveProcessExit(backendName, "stopped")
	metrics.SetOutboundBitrate(backendName, 0)
	if err != nil {
		return fmt.Errorf("%w: %w", ports.ErrTeardown, err)
	}
	return nil
}

// IsStreaming reports whether an encoder process is running.
func (p *Publisher) IsStreaming() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.proc != nil
}

// SwitchCameraFacing toggles between the front and back camera. While
// streaming the encoder is restarted on the other device without
// re-announcing the connection.
func (p *Publisher) SwitchCameraFacing(ctx context.Context) error {
	if p.cfg.BackCamera == "" {
		return ErrNoBackCamera
	}

	p.mu.Lock()
	p.back = !p.back
	proc := p.proc
	p.proc = nil
	p.mu.Unlock()
	if proc == nil {
		return nil
	}

	_ = p.terminate(ctx, proc)

	p.mu.Lock()
	next, err := p.spawnLocked()
	if err != nil {
		p.back = !p.back
	}
	p.mu.Unlock()
	if err != nil {
		p.submit(ports.Failed{Reason: "encoder restart after camera switch failed"})
		return err
	}
	close(next.ready)
	return nil
}

func (p *Publisher) terminate(ctx context.Context, proc *process) error {
	proc.stopping.Store(true)
	grace := p.cfg.StopGrace
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < grace {
			grace = max(left, 0)
		}
	}
	return procgroup.Terminate(proc.cmd, proc.wait(), grace)
}

// Facing returns the camera the next or current encoder captures from.
func (p *Publisher) Facing() facing.Facing {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.back {
		return facing.Back
	}
	return facing.Front
}

// spawnLocked starts one ffmpeg process for p.url. Caller holds p.mu.
func (p *Publisher) spawnLocked() (*process, error) {
	in := p.cfg.Input
	if p.back {
		in.VideoDevice = p.cfg.BackCamera
	}
	args := BuildArgs(in, *p.video, *p.audio, p.url)

	// Not CommandContext: the process outlives the StartStream call.
	cmd := exec.Command(p.cfg.Bin, args...) // #nosec G204 -- binary and devices come from operator config
	procgroup.Set(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", p.cfg.Bin, err)
	}

	proc := &process{
		cmd:    cmd,
		stderr: NewLineRing(stderrTail),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	p.proc = proc

	// The argument list carries the credential, so only the masked URL is logged.
	p.logger.Info().
		Int(log.FieldPID, cmd.Process.Pid).
		Str("video_device", in.VideoDevice).
		Str(log.FieldBaseURL, log.MaskURL(p.url)).
		Msg("encoder started")

	scrub := strings.NewReplacer(p.url, log.MaskURL(p.url))
	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		p.readProgress(stdout, proc)
	}()
	go func() {
		defer readers.Done()
		p.readStderr(stderr, proc, scrub)
	}()
	go func() {
		// Wait must not run before the pipes are drained.
		readers.Wait()
		proc.err = cmd.Wait()
		close(proc.done)
		<-proc.ready
		p.onExit(proc)
	}()
	return proc, nil
}

func (p *Publisher) readProgress(r io.Reader, proc *process) {
	var parser ProgressParser
	<-proc.ready
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		prog, ok := parser.Feed(sc.Text())
		if !ok || prog.End || proc.stopping.Load() {
			continue
		}
		p.onProgress(prog)
	}
}

func (p *Publisher) readStderr(r io.Reader, proc *process, scrub *strings.Replacer) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := scrub.Replace(sc.Text())
		proc.stderr.Add(line)
		p.logger.Debug().Str("line", line).Msg("ffmpeg stderr")
	}
}

func (p *Publisher) onProgress(prog Progress) {
	p.mu.Lock()
	announce := !p.announced && prog.Flowing()
	if announce {
		p.announced = true
	}
	p.mu.Unlock()

	if announce {
		p.submit(ports.Success{})
	}
	if prog.BitrateBps > 0 {
		metrics.SetOutboundBitrate(backendName, prog.BitrateBps)
		p.submit(ports.BitrateSample{Bps: prog.BitrateBps})
	}
	if prog.FPS > 0 {
		p.submit(ports.FPSSample{FPS: prog.FPS})
	}
}

func (p *Publisher) onExit(proc *process) {
	if proc.stopping.Load() {
		return
	}

	p.mu.Lock()
	current := p.proc == proc
	if current {
		p.proc = nil
	}
	p.mu.Unlock()
	if !current {
		return
	}

	tail := proc.stderr.LastN(8)
	ev, cause := Classify(proc.err, tail)
	metrics.ObserveProcessExit(backendName, cause)
	metrics.SetOutboundBitrate(backendName, 0)
	p.logger.Warn().
		Err(proc.err).
		Str(log.FieldReason, cause).
		Strs("stderr", tail).
		Msg("encoder exited unexpectedly")
	p.submit(ev)
}

func (p *Publisher) submit(ev ports.ConnectionEvent) {
	p.mu.Lock()
	sink := p.sink
	p.mu.Unlock()
	if sink == nil {
		return
	}
	if err := sink.Submit(ev); err != nil {
		p.logger.Debug().Err(err).Str(log.FieldEvent, ev.Kind()).Msg("connection event dropped")
	}
}

var (
	_ ports.Publisher      = (*Publisher)(nil)
	_ ports.SinkAttacher   = (*Publisher)(nil)
	_ ports.FacingReporter = (*Publisher)(nil)
)
