// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestURL(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"rtmps", "rtmps://live.fastpix.app:443/live", false},
		{"rtmp", "rtmp://127.0.0.1/live", false},
		{"empty", "", true},
		{"http scheme", "https://example.com/live", true},
		{"no host", "rtmp:///live", true},
		{"query", "rtmp://example.com/live?key=abc", true},
		{"garbage", "://", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.IngestURL("stream.base_url", tt.value)
			assert.Equal(t, tt.wantErr, !v.IsValid(), v.Errors())
		})
	}
}

func TestListenAddr(t *testing.T) {
	v := New()
	v.ListenAddr("a", ":8088")
	v.ListenAddr("b", "127.0.0.1:0")
	require.True(t, v.IsValid(), v.Errors())

	v.ListenAddr("c", "8088")
	v.ListenAddr("d", "localhost:http")
	v.ListenAddr("e", ":70000")
	require.Len(t, v.Errors(), 3)
}

func TestValidatorAccumulatesErrors(t *testing.T) {
	v := New()
	v.Range("retry.max_attempts", -1, 0, 100)
	v.DurationRange("retry.delay", 10*time.Millisecond, 100*time.Millisecond, time.Minute)
	v.NotEmpty("publisher.ffmpeg_bin", "   ")
	v.OneOf("publisher.backend", "gstreamer", []string{"ffmpeg", "stub"})
	v.Custom("stream.preset", "4k", func(any) error { return errors.New("unknown preset") })

	err := v.Err()
	require.Error(t, err)
	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Errors(), 5)
	assert.Contains(t, err.Error(), "retry.max_attempts")
	assert.Contains(t, err.Error(), "; ")

	assert.NoError(t, New().Err())
}

func TestSingleErrorMessage(t *testing.T) {
	v := New()
	v.NotEmpty("field", "")
	assert.Equal(t, "validation failed for field: value cannot be empty", v.Err().Error())
}
