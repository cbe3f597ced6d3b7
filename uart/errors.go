package uart

import "errors"

var (
	// ErrOverflow is returned when the RX ring filled up and incoming bytes
	// were dropped since the overflow was last reported.
	//
	// The stream is desynchronised at this point. Callers should flush
	// the line before issuing the next command.
	ErrOverflow = errors.New("receive buffer overflow")

	// ErrResponseTooLong is returned when a framed receive hits the
	// capacity of its destination before the end of the frame.
	ErrResponseTooLong = errors.New("response too long")

	// ErrTimeout is returned when a receive deadline elapsed before the
	// frame was complete.
	ErrTimeout = errors.New("receive timeout")

	// ErrInvalidConfig wraps every Config validation failure.
	ErrInvalidConfig = errors.New("invalid line configuration")
)
