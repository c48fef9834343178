// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package preset holds the compiled-in catalog of publish quality presets.
package preset

import (
	"fmt"
	"strings"
)

// ID names one of the fixed catalog entries.
type ID string

const (
	SD360p  ID = "360p"
	SD540p  ID = "540p"
	HD720p  ID = "720p"
	HD1080p ID = "1080p"
)

// Default is used when no preset is configured.
const Default = SD360p

// Preset is an immutable video quality profile.
type Preset struct {
	BitrateBps uint32
	Width      uint32
	Height     uint32
	FrameRate  uint32
}

func (p Preset) String() string {
	return fmt.Sprintf("%dx%d@%dfps/%dkbps", p.Width, p.Height, p.FrameRate, p.BitrateBps/1000)
}

// Resolution returns the frame size as "WxH".
func (p Preset) Resolution() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

var catalog = map[ID]Preset{
	SD360p:  {BitrateBps: 1_000_000, Width: 640, Height: 360, FrameRate: 30},
	SD540p:  {BitrateBps: 2_000_000, Width: 960, Height: 540, FrameRate: 30},
	HD720p:  {BitrateBps: 3_000_000, Width: 1280, Height: 720, FrameRate: 30},
	HD1080p: {BitrateBps: 5_000_000, Width: 1920, Height: 1080, FrameRate: 30},
}

// Lookup returns the preset for id. The catalog is closed, so an unknown id is
// a programming error and panics.
func Lookup(id ID) Preset {
	p, ok := catalog[id]
	if !ok {
		panic(fmt.Sprintf("preset: unknown id %q", string(id)))
	}
	return p
}

// Parse validates external input (config, HTTP) against the catalog.
func Parse(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := catalog[id]; !ok {
		return "", fmt.Errorf("unknown preset %q (supported: %s)", s, strings.Join(names(), ", "))
	}
	return id, nil
}

// All returns the catalog ids from lowest to highest quality.
func All() []ID {
	return []ID{SD360p, SD540p, HD720p, HD1080p}
}

func names() []string {
	ids := All()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
