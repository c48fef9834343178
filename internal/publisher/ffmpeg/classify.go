// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ffmpeg

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ManuGH/golive/internal/domain/session/ports"
)

// Exit causes, also used as metric labels.
const (
	CauseAuth         = "auth"
	CauseDisconnected = "disconnected"
	CauseFailed       = "failed"
	CauseClean        = "clean"
)

var authMarkers = []string{
	"authentication failed",
	"unauthorized",
	"403 forbidden",
	"netstream.publish.badname",
	"publish.rejected",
	"invalid stream key",
}

var disconnectMarkers = []string{
	"broken pipe",
	"connection reset by peer",
	"connection timed out",
	"end of file",
	"network is unreachable",
	"server closed the connection",
}

// Classify maps an unexpected process exit to the connection event the
// session should see. tail is the most recent stderr output, oldest first.
func Classify(waitErr error, tail []string) (ports.ConnectionEvent, string) {
	text := strings.ToLower(strings.Join(tail, "\n"))
	for _, m := range authMarkers {
		if strings.Contains(text, m) {
			return ports.AuthError{}, CauseAuth
		}
	}
	for _, m := range disconnectMarkers {
		if strings.Contains(text, m) {
			return ports.Disconnected{}, CauseDisconnected
		}
	}
	if waitErr == nil {
		// ffmpeg only exits 0 on its own when the output was closed.
		return ports.Disconnected{}, CauseClean
	}
	return ports.Failed{Reason: exitReason(waitErr, tail)}, CauseFailed
}

func exitReason(waitErr error, tail []string) string {
	if len(tail) > 0 {
		return tail[len(tail)-1]
	}
	var exitErr *exec.ExitError
	switch {
	case errors.As(waitErr, &exitErr):
		return fmt.Sprintf("encoder exited with code %d", exitErr.ExitCode())
	case waitErr != nil:
		return waitErr.Error()
	}
	return "encoder exited"
}
