package modem

import "errors"

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a Modem
	// that has no serial line.
	//
	// This can occur if the Dialer returned a nil Transport or if the Modem
	// was not created via New or Open.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Modem that has
	// already been closed, and by every operation issued after Close.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrUnsupportedMode is returned by SerialDialer when the line settings
	// cannot be expressed by the host serial driver, such as nine data bits
	// or the reserved parity mode.
	ErrUnsupportedMode = errors.New("serial mode not supported by host driver")

	// ErrInvalidMessage is returned by SendMsg for a body the text-mode
	// protocol cannot carry.
	ErrInvalidMessage = errors.New("invalid message body")

	// errExhausted ends a poll whose budget ran out. It never leaves the
	// package: operations report it as the Timeout status.
	errExhausted = errors.New("poll budget exhausted")
)
