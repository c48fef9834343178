// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import "errors"

var (
	// ErrMissingSession is returned when an App is created without a session controller.
	ErrMissingSession = errors.New("session controller is required")

	// ErrMissingServer is returned when an App is created without an API server.
	ErrMissingServer = errors.New("API server is required")
)
