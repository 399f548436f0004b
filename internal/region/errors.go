package region

import "errors"

var (
	// ErrInputShape reports an empty or malformed input image. Nothing is
	// returned alongside it.
	ErrInputShape = errors.New("invalid input shape")

	// ErrPrecondition reports invalid detection parameters.
	ErrPrecondition = errors.New("precondition violated")
)
