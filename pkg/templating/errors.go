package templating

import "errors"

// Sentinel errors for template evaluation.
var (
	// ErrMalformedTemplate is returned when an expansion exceeds the pass or depth limits.
	ErrMalformedTemplate = errors.New("malformed template")

	// ErrTooManyCombinations is returned when Spread would produce more results than allowed.
	ErrTooManyCombinations = errors.New("too many combinations")
)
