package model

import "errors"

// Failure conditions with distinct handling contracts. Implementations wrap
// these with fmt.Errorf("...: %w", ...) and callers match with errors.Is.
var (
	// ErrStoreUnavailable reports that the knowledge store backend failed.
	// Ingestion propagates it; the aggregator catches it and degrades.
	ErrStoreUnavailable = errors.New("knowledge store unavailable")

	// ErrInvalidBirthDate reports an impossible calendar date or hour.
	// Always propagates: a profile is never fabricated from bad input.
	ErrInvalidBirthDate = errors.New("invalid birth date")

	// ErrInsufficientHistory reports an empty or all-zero frequency table,
	// distinct from a low-confidence success.
	ErrInsufficientHistory = errors.New("insufficient draw history")
)
