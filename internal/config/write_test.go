// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "golive.yaml")
	require.NoError(t, WriteDefault(path, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "golive.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: debug\n"), 0o600))

	err := WriteDefault(path, false)
	require.ErrorIs(t, err, ErrExists)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "logLevel: debug\n", string(body))

	require.NoError(t, WriteDefault(path, true))
	body, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "baseUrl: rtmps://live.fastpix.app:443/live")
}
