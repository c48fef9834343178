// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ffmpeg

import (
	"math"
	"strconv"
	"strings"
)

// Progress is one completed block of `-progress` output.
type Progress struct {
	FPS        uint32
	BitrateBps uint64
	TotalSize  int64
	OutTimeUs  int64
	End        bool
}

// Flowing reports whether media has actually been written to the output.
func (p Progress) Flowing() bool {
	return p.TotalSize > 0 || p.OutTimeUs > 0
}

// ProgressParser accumulates key=value lines until a "progress=" terminator.
// Not safe for concurrent use; one parser per process stdout.
type ProgressParser struct {
	cur Progress
}

// Feed consumes one line and returns a completed block when the line closes one.
func (p *ProgressParser) Feed(line string) (Progress, bool) {
	key, val, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return Progress{}, false
	}
	key = strings.TrimSpace(key)
	val = strings.TrimSpace(val)

	switch key {
	case "fps":
		if f, err := strconv.ParseFloat(val, 64); err == nil && f >= 0 {
			p.cur.FPS = uint32(math.Round(f))
		}
	case "bitrate":
		if bps, ok := parseBitrate(val); ok {
			p.cur.BitrateBps = bps
		}
	case "total_size":
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			p.cur.TotalSize = n
		}
	case "out_time_us", "out_time_ms":
		// ffmpeg reports microseconds under both keys.
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			p.cur.OutTimeUs = n
		}
	case "progress":
		done := p.cur
		done.End = val == "end"
		p.cur = Progress{}
		return done, true
	}
	return Progress{}, false
}

// parseBitrate converts ffmpeg's "1234.5kbits/s" into bits per second.
func parseBitrate(val string) (uint64, bool) {
	num, ok := strings.CutSuffix(val, "kbits/s")
	if !ok {
		return 0, false
	}
	kbps, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil || kbps < 0 || math.IsInf(kbps, 0) || math.IsNaN(kbps) {
		return 0, false
	}
	return uint64(math.Round(kbps * 1000)), true
}
