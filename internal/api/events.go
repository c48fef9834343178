// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ManuGH/golive/internal/domain/session"
	"github.com/ManuGH/golive/internal/domain/status"
	"github.com/ManuGH/golive/internal/log"
)

const statusEvent = "status"

// handleEvents streams status updates as server-sent events. The current
// status is sent first; slow clients miss intermediate updates.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)

	sub, err := s.bus.Subscribe(ctx, session.TopicStatus)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = sub.Close() }()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-store")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	logger := log.WithComponentFromContext(ctx, "api")
	logger.Debug().Msg("event stream opened")
	defer logger.Debug().Msg("event stream closed")

	send := func(st status.UiStatus) bool {
		if err := writeEvent(w, statusEvent, st); err != nil {
			return false
		}
		return rc.Flush() == nil
	}
	if !send(s.ctrl.Status()) {
		return
	}

	keepAlive := time.NewTicker(s.cfg.KeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil || rc.Flush() != nil {
				return
			}
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			st, ok := msg.(status.UiStatus)
			if !ok {
				continue
			}
			if !send(st) {
				return
			}
		}
	}
}

func writeEvent(w io.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
