package core

import "errors"

var (
	// ErrEmptyContent is returned when analysis is requested for an empty
	// string. Whitespace-only input is not an error; it resolves through
	// the edge-case chain instead.
	ErrEmptyContent = errors.New("content is empty")

	// ErrNotFound is returned by verdict stores when no record exists for
	// the requested fingerprint.
	ErrNotFound = errors.New("verdict not found")
)
