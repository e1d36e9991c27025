package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfigIncomplete indicates the primary sink's connection
	// parameters are not all present. Commits are routed to the
	// fallback log instead; this is never surfaced to the operator
	// as a run failure.
	ErrConfigIncomplete = errors.New("sink configuration incomplete")

	// ErrGenerationUnavailable indicates the generation service is not
	// configured. The run cannot start without it.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrEmptyGeneration indicates the generation service returned no
	// usable candidate text for a figure.
	ErrEmptyGeneration = errors.New("generation returned no candidates")
)
