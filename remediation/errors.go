package remediation

import "errors"

var (
	// ErrHandlerPanic indicates a handler panicked during Execute. The
	// panic is contained and surfaced as a handler exception.
	ErrHandlerPanic = errors.New("remediation: handler panic")
)
