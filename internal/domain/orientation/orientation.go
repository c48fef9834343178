// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package orientation maps device rotation to a screen lock and a preview aspect hint.
package orientation

// Rotation is the display rotation in degrees as reported by the device.
type Rotation int

const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

// Lock is the screen orientation requested while a session is being set up.
type Lock string

const (
	Portrait         Lock = "portrait"
	Landscape        Lock = "landscape"
	ReversePortrait  Lock = "reverse_portrait"
	ReverseLandscape Lock = "reverse_landscape"
)

// Aspect tells the rendering surface how to letterbox the preview.
type Aspect string

const (
	// WidthBound16x9 constrains the width to a 16:9 ratio (landscape rotations).
	WidthBound16x9 Aspect = "w,16:9"
	// HeightBound9x16 constrains the height to a 9:16 ratio (portrait rotations).
	HeightBound9x16 Aspect = "h,9:16"
)

// Valid reports whether r is one of the four quarter-turn rotations.
func (r Rotation) Valid() bool {
	switch r {
	case Rotation0, Rotation90, Rotation180, Rotation270:
		return true
	}
	return false
}

// Landscape reports whether r puts the long edge horizontal.
func (r Rotation) Landscape() bool {
	return r == Rotation90 || r == Rotation270
}

// Map returns the orientation lock and aspect hint for a rotation.
// Anything other than 90, 180 or 270 is treated as upright portrait.
func Map(r Rotation) (Lock, Aspect) {
	switch r {
	case Rotation90:
		return Landscape, WidthBound16x9
	case Rotation180:
		return ReversePortrait, HeightBound9x16
	case Rotation270:
		return ReverseLandscape, WidthBound16x9
	default:
		return Portrait, HeightBound9x16
	}
}
