package keyset

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error returned by the package wraps exactly one of
// these sentinels, so callers can classify failures with errors.Is.
var (
	// ErrConfiguration reports a misconfigured adapter or request: a base
	// query that is already bounded, a missing or duplicated sort column, an
	// unrecognized direction, a boundary that does not match the ordering, or
	// a count requested without a limit.
	ErrConfiguration = errors.New("keyset: configuration error")

	// ErrExecution reports a backend fault, or a count path that could not
	// produce a definite non-negative count when one was required.
	ErrExecution = errors.New("keyset: execution error")

	// ErrValidation reports a structural inconsistency in the source query,
	// such as a sort alias that cannot be resolved to a known column.
	ErrValidation = errors.New("keyset: validation error")
)

func configurationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func executionErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrExecution, fmt.Sprintf(format, args...))
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
