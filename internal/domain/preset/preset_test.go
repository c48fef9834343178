// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package preset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCatalog(t *testing.T) {
	cases := []struct {
		id   ID
		want Preset
	}{
		{SD360p, Preset{BitrateBps: 1_000_000, Width: 640, Height: 360, FrameRate: 30}},
		{SD540p, Preset{BitrateBps: 2_000_000, Width: 960, Height: 540, FrameRate: 30}},
		{HD720p, Preset{BitrateBps: 3_000_000, Width: 1280, Height: 720, FrameRate: 30}},
		{HD1080p, Preset{BitrateBps: 5_000_000, Width: 1920, Height: 1080, FrameRate: 30}},
	}
	for _, tc := range cases {
		t.Run(string(tc.id), func(t *testing.T) {
			assert.Equal(t, tc.want, Lookup(tc.id))
		})
	}
}

func TestLookupUnknownPanics(t *testing.T) {
	assert.Panics(t, func() { Lookup("4k") })
}

func TestParse(t *testing.T) {
	id, err := Parse(" 720P ")
	require.NoError(t, err)
	assert.Equal(t, HD720p, id)

	_, err = Parse("4k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "360p, 540p, 720p, 1080p")
}

func TestAllIsTotal(t *testing.T) {
	for _, id := range All() {
		assert.NotPanics(t, func() { _ = Lookup(id) })
	}
	assert.Len(t, All(), len(catalog))
}

func TestString(t *testing.T) {
	assert.Equal(t, "640x360@30fps/1000kbps", Lookup(SD360p).String())
	assert.Equal(t, "1920x1080", Lookup(HD1080p).Resolution())
}
