// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package procgroup starts encoder processes in their own process group and
// tears the whole group down on stop.
package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/golive/internal/log"
	"github.com/ManuGH/golive/internal/metrics"
)

// ErrGone reports that the process group no longer exists.
var ErrGone = errors.New("process group already gone")

// Terminate stops a process group: SIGTERM, wait up to grace, then SIGKILL.
// It always drains waitCh and returns the process's Wait error. Safe to call
// on a nil command.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid

	if err := Kill(cmd, syscall.SIGTERM); err != nil {
		if errors.Is(err, ErrGone) {
			metrics.IncProcessTerminate("gone")
			return <-waitCh
		}
		log.L().Debug().Err(err).Int(log.FieldPID, pid).Msg("SIGTERM to process group failed")
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-waitCh:
		metrics.IncProcessTerminate("graceful")
		return err
	case <-timer.C:
	}

	log.L().Warn().Int(log.FieldPID, pid).Dur("grace", grace).
		Msg("SIGTERM grace period exceeded, sending SIGKILL to process group")
	if err := Kill(cmd, syscall.SIGKILL); err != nil && !errors.Is(err, ErrGone) {
		metrics.IncProcessTerminate("failed")
		log.L().Error().Err(err).Int(log.FieldPID, pid).Msg("SIGKILL to process group failed")
	} else {
		metrics.IncProcessTerminate("killed")
	}
	return <-waitCh
}
