// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

// ConnectionEvent is a notification emitted by a Publisher. The concrete
// variants below are the only implementations.
type ConnectionEvent interface {
	// Kind is a stable lowercase name used in logs and metrics.
	Kind() string
	connectionEvent()
}

// Started reports that the transport began connecting to URL.
type Started struct{ URL string }

// Success reports that the ingest accepted the stream.
type Success struct{}

// Failed reports a connection failure.
type Failed struct{ Reason string }

// BitrateSample reports the current outbound bitrate.
type BitrateSample struct{ Bps uint64 }

// FPSSample reports the current encoder frame rate.
type FPSSample struct{ FPS uint32 }

// Disconnected reports that an established connection dropped.
type Disconnected struct{}

// AuthError reports that the ingest rejected the credential.
type AuthError struct{}

// AuthSuccess reports that the ingest accepted the credential.
type AuthSuccess struct{}

func (Started) Kind() string       { return "started" }
func (Success) Kind() string       { return "success" }
func (Failed) Kind() string        { return "failed" }
func (BitrateSample) Kind() string { return "bitrate_sample" }
func (FPSSample) Kind() string     { return "fps_sample" }
func (Disconnected) Kind() string  { return "disconnected" }
func (AuthError) Kind() string     { return "auth_error" }
func (AuthSuccess) Kind() string   { return "auth_success" }

func (Started) connectionEvent()       {}
func (Success) connectionEvent()       {}
func (Failed) connectionEvent()        {}
func (BitrateSample) connectionEvent() {}
func (FPSSample) connectionEvent()     {}
func (Disconnected) connectionEvent()  {}
func (AuthError) connectionEvent()     {}
func (AuthSuccess) connectionEvent()   {}
