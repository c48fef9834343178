// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import "strings"

const maskPrefixLen = 4

// MaskKey reduces a stream credential to a short non-identifying prefix.
func MaskKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if len(key) <= maskPrefixLen*2 {
		return "***"
	}
	return key[:maskPrefixLen] + "***"
}

// MaskURL replaces the final path segment of an ingest URL (the credential) with its masked form.
func MaskURL(raw string) string {
	idx := strings.LastIndex(raw, "/")
	if idx < 0 || idx == len(raw)-1 {
		return raw
	}
	return raw[:idx+1] + MaskKey(raw[idx+1:])
}
