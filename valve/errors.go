package valve

import "errors"

var (
	// ErrInitFailed is returned by Run when the modem could not be brought
	// into a usable state.
	ErrInitFailed = errors.New("valve: modem initialization failed")

	// ErrStopped is returned by Send once the controller loop has ended.
	ErrStopped = errors.New("valve: controller stopped")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("valve: controller already running")

	ErrInvalidValve = errors.New("valve: no such valve")
)
