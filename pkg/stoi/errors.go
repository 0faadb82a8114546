package stoi

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrInvalidInput is returned before any numeric work when signals or
	// rates violate the preconditions of Compute.
	ErrInvalidInput = errors.New("stoi: invalid input")

	// ErrInvalidConfig is returned by New for unknown option values.
	ErrInvalidConfig = errors.New("stoi: invalid config")

	// ErrAllSilent is reported by Result.Err when fewer than SegmentLen
	// frames survive silence removal.
	ErrAllSilent = errors.New("stoi: not enough non-silent frames")

	// ErrNoValidSegments is reported by Result.Err when every segment was
	// skipped for a zero-variance envelope.
	ErrNoValidSegments = errors.New("stoi: no valid segments")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
