package domain

import "errors"

var (
	// ErrTransport marks an unreachable row store or mail server.
	ErrTransport = errors.New("transport failure")
	// ErrNoCandidate means every source and entry was exhausted.
	ErrNoCandidate = errors.New("no candidate found")
	// ErrGeneration wraps a failed language-model call.
	ErrGeneration = errors.New("generation failure")
	// ErrMalformedRow marks a store row missing expected columns.
	ErrMalformedRow = errors.New("malformed row")
	// ErrUnknownTask is returned for task names outside TaskTypes.
	ErrUnknownTask = errors.New("unknown task type")
)
