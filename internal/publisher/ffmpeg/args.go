// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/ManuGH/golive/internal/domain/orientation"
	"github.com/ManuGH/golive/internal/domain/session/ports"
)

// Input describes the capture devices.
type Input struct {
	VideoFormat string
	VideoDevice string
	AudioFormat string
	AudioDevice string
}

// rotationFilter returns the -vf chain that turns sensor frames upright.
func rotationFilter(r orientation.Rotation) string {
	switch r {
	case orientation.Rotation90:
		return "transpose=1"
	case orientation.Rotation180:
		return "hflip,vflip"
	case orientation.Rotation270:
		return "transpose=2"
	}
	return ""
}

// BuildArgs assembles the ffmpeg command line for one publish run. Progress
// is written to stdout as key=value blocks.
func BuildArgs(in Input, v ports.VideoParams, a ports.AudioParams, url string) []string {
	fps := v.FrameRate
	if fps == 0 {
		fps = 30
	}
	keyint := v.KeyframeIntervalSeconds
	if keyint == 0 {
		keyint = ports.KeyframeIntervalSeconds
	}
	gop := strconv.FormatUint(uint64(fps*keyint), 10)
	bitrate := strconv.FormatUint(uint64(v.BitrateBps), 10)
	channels := "1"
	if a.Stereo {
		channels = "2"
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-nostats",
		"-progress", "pipe:1",
		"-f", in.VideoFormat,
		"-framerate", strconv.FormatUint(uint64(fps), 10),
		"-video_size", fmt.Sprintf("%dx%d", v.Width, v.Height),
		"-i", in.VideoDevice,
		"-f", in.AudioFormat,
		"-i", in.AudioDevice,
	}
	if vf := rotationFilter(v.Orientation); vf != "" {
		args = append(args, "-vf", vf)
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-tune", "zerolatency",
		"-pix_fmt", "yuv420p",
		"-b:v", bitrate,
		"-maxrate", bitrate,
		"-bufsize", strconv.FormatUint(uint64(v.BitrateBps)*2, 10),
		"-g", gop,
		"-keyint_min", gop,
		"-sc_threshold", "0",
		"-r", strconv.FormatUint(uint64(fps), 10),
		"-c:a", "aac",
		"-b:a", strconv.FormatUint(uint64(a.BitrateBps), 10),
		"-ar", strconv.FormatUint(uint64(a.SampleRate), 10),
		"-ac", channels,
		"-f", "flv",
		url,
	)
	return args
}
