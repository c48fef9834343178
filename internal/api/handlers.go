// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ManuGH/golive/internal/domain/facing"
	"github.com/ManuGH/golive/internal/domain/orientation"
	"github.com/ManuGH/golive/internal/domain/preset"
	"github.com/ManuGH/golive/internal/domain/session"
	"github.com/ManuGH/golive/internal/log"
	"github.com/ManuGH/golive/internal/metrics"
)

// StartRequest is the body of POST /session/start. Both fields are optional.
type StartRequest struct {
	Preset string `json:"preset,omitempty"`
	Key    string `json:"key,omitempty"`
}

// FacingRequest selects a camera. An empty target toggles.
type FacingRequest struct {
	Target string `json:"target,omitempty"`
}

// RotationRequest reports the device rotation in degrees.
type RotationRequest struct {
	Degrees int `json:"degrees"`
}

// decodeBody decodes an optional JSON body strictly. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing content", errInvalidBody)
	}
	return nil
}

// control runs one intent under the request timeout and records the outcome.
func (s *Server) control(r *http.Request, intent string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()
	err := fn(ctx)
	result := "ok"
	if err != nil {
		_, result = classify(err)
	}
	metrics.IncControlRequest(intent, result)
	return err
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()
	info, err := s.ctrl.Inspect(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decodeBody(w, r, &req); err != nil {
		metrics.IncControlRequest("start", CodeInvalidRequest)
		writeError(w, r, err)
		return
	}

	id := s.cfg.DefaultPreset
	if strings.TrimSpace(req.Preset) != "" {
		parsed, err := preset.Parse(req.Preset)
		if err != nil {
			metrics.IncControlRequest("start", CodeInvalidRequest)
			writeError(w, r, fmt.Errorf("%w: %v", session.ErrValidation, err))
			return
		}
		id = parsed
	}

	err := s.control(r, "start", func(ctx context.Context) error {
		return s.ctrl.StartRequested(ctx, id, strings.TrimSpace(req.Key))
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str(log.FieldPreset, string(id)).
		Str(log.FieldStreamKey, log.MaskKey(req.Key)).
		Msg("start accepted")
	writeJSON(w, http.StatusAccepted, s.ctrl.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.control(r, "stop", s.ctrl.StopRequested); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.ctrl.Status())
}

func (s *Server) handleFacing(w http.ResponseWriter, r *http.Request) {
	var req FacingRequest
	if err := decodeBody(w, r, &req); err != nil {
		metrics.IncControlRequest("facing", CodeInvalidRequest)
		writeError(w, r, err)
		return
	}
	target := facing.Facing(strings.ToLower(strings.TrimSpace(req.Target)))
	err := s.control(r, "facing", func(ctx context.Context) error {
		if target == "" {
			return s.ctrl.SwitchFacingRequested(ctx)
		}
		return s.ctrl.SelectFacing(ctx, target)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.ctrl.Status())
}

func (s *Server) handleRotation(w http.ResponseWriter, r *http.Request) {
	var req RotationRequest
	if err := decodeBody(w, r, &req); err != nil {
		metrics.IncControlRequest("rotation", CodeInvalidRequest)
		writeError(w, r, err)
		return
	}
	rot := orientation.Rotation(req.Degrees)
	if err := s.control(r, "rotation", func(ctx context.Context) error {
		return s.ctrl.RotationChanged(ctx, rot)
	}); err != nil {
		writeError(w, r, err)
		return
	}
	lock, aspect := orientation.Map(rot)
	writeJSON(w, http.StatusOK, map[string]string{"lock": string(lock), "aspect": string(aspect)})
}
