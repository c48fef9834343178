// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package stub is an in-memory publisher for dry runs and tests. It never
// touches the network; it replays a plausible connection sequence instead.
package stub

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/session/ports"
	"github.com/ManuGH/golive/internal/log"
)

const (
	defaultConnectDelay   = 200 * time.Millisecond
	defaultSampleInterval = time.Second
)

// ErrNotPrepared is returned by StartStream before PrepareVideo and PrepareAudio.
var ErrNotPrepared = errors.New("stub: encoder not prepared")

// Config tunes the simulated connection.
type Config struct {
	ConnectDelay   time.Duration
	SampleInterval time.Duration
	// RejectKeys are stream keys the simulated ingest refuses with AuthError.
	RejectKeys []string
	// Facing is the camera selected at construction; empty means back.
	Facing facing.Facing
}

// Publisher simulates a publisher backend.
type Publisher struct {
	cfg Config

	mu        sync.Mutex
	sink      ports.EventSink
	video     *ports.VideoParams
	audio     *ports.AudioParams
	streaming bool
	back      bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a stub publisher.
func New(cfg Config) *Publisher {
	if cfg.ConnectDelay <= 0 {
		cfg.ConnectDelay = defaultConnectDelay
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = defaultSampleInterval
	}
	return &Publisher{cfg: cfg, back: cfg.Facing != facing.Front}
}

func (p *Publisher) AttachSink(s ports.EventSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = s
}

func (p *Publisher) PrepareVideo(_ context.Context, v ports.VideoParams) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.video = &v
	return nil
}

func (p *Publisher) PrepareAudio(_ context.Context, a ports.AudioParams) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.audio = &a
	return nil
}

func (p *Publisher) StartStream(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.video == nil || p.audio == nil {
		return ErrNotPrepared
	}
	if p.streaming {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.streaming = true
	video := *p.video

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx, url, video)
	}()
	return nil
}

func (p *Publisher) run(ctx context.Context, url string, video ports.VideoParams) {
	p.submit(ports.Started{URL: url})

	select {
	case <-ctx.Done():
		return
	case <-time.After(p.cfg.ConnectDelay):
	}

	key := url[strings.LastIndex(url, "/")+1:]
	if slices.Contains(p.cfg.RejectKeys, key) {
		logger := log.WithComponent("stub")
		logger.Info().Str(log.FieldStreamKey, log.MaskKey(key)).Msg("simulated ingest rejected key")
		p.mu.Lock()
		p.streaming = false
		p.mu.Unlock()
		p.submit(ports.AuthError{})
		return
	}
	p.submit(ports.Success{})

	ticker := time.NewTicker(p.cfg.SampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.submit(ports.BitrateSample{Bps: uint64(video.BitrateBps)})
			p.submit(ports.FPSSample{FPS: video.FrameRate})
		}
	}
}

func (p *Publisher) StopStream(_ context.Context) error {
	p.halt()
	return nil
}

// Disconnect simulates the ingest dropping the connection.
func (p *Publisher) Disconnect() {
	if p.halt() {
		p.submit(ports.Disconnected{})
	}
}

// halt stops the simulation and reports whether it was running.
func (p *Publisher) halt() bool {
	p.mu.Lock()
	cancel := p.cancel
	was := p.streaming
	p.cancel = nil
	p.streaming = false
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	return was
}

func (p *Publisher) IsStreaming() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streaming
}

func (p *Publisher) SwitchCameraFacing(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.back = !p.back
	return nil
}

// BackCamera reports whether the simulated back camera is selected.
func (p *Publisher) BackCamera() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.back
}

// Facing returns the selected camera.
func (p *Publisher) Facing() facing.Facing {
	if p.BackCamera() {
		return facing.Back
	}
	return facing.Front
}

func (p *Publisher) submit(ev ports.ConnectionEvent) {
	p.mu.Lock()
	sink := p.sink
	p.mu.Unlock()
	if sink != nil {
		_ = sink.Submit(ev)
	}
}

var (
	_ ports.Publisher      = (*Publisher)(nil)
	_ ports.SinkAttacher   = (*Publisher)(nil)
	_ ports.FacingReporter = (*Publisher)(nil)
)
