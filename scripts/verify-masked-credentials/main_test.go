// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzerFlagsUnmaskedFields(t *testing.T) {
	path, err := filepath.Abs(filepath.Join("testdata", "violation.go"))
	require.NoError(t, err)

	violations, err := Analyze("file=" + path)
	require.NoError(t, err)
	require.Len(t, violations, 3, "%v", violations)
	assert.Contains(t, violations[0], "FieldStreamKey written via Str without log.MaskKey")
	assert.Contains(t, violations[1], "FieldBaseURL written via Str without log.MaskURL")
	assert.Contains(t, violations[2], "FieldBaseURL")
}
