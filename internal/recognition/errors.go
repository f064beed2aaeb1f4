package recognition

import "errors"

var (
	// ErrStreamUnavailable means a recognition stream could not be opened.
	ErrStreamUnavailable = errors.New("recognition stream unavailable")

	// ErrSessionNotFound means no session is registered under the given id.
	ErrSessionNotFound = errors.New("recognition session not found")

	// ErrSessionNotActive means the session exists but no longer accepts
	// audio frames.
	ErrSessionNotActive = errors.New("recognition session not active")
)
