package health

import "errors"

var (
	// ErrCheckFailed indicates a check reported the module unhealthy.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a check exceeded its timeout and was
	// abandoned.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrModuleNotFound indicates the named module is not registered.
	ErrModuleNotFound = errors.New("health: module not found")

	// ErrRegistryStopped indicates the registry has been stopped.
	ErrRegistryStopped = errors.New("health: registry stopped")
)
