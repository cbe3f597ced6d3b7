package modem

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"go.bug.st/serial"

	"i4.energy/across/valvegw/uart"
)

// Transport represents an established, bidirectional byte stream to a GSM modem.
//
// A Transport is assumed to be already connected and ready for use. The
// serial line reads it from its RX pump and writes it from SendChar or its
// TX pump. Typical implementations include serial ports, TCP connections
// to emulators, or in-memory fakes used for testing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to a GSM modem.
//
// Dialer abstracts how the modem connection is created (for example, via a
// serial port, TCP-based emulator, or test double) and is intended to be used
// during modem construction only. Once a Transport is obtained, the Dialer is
// no longer needed.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It may
	// perform blocking operations and should respect cancellation and deadlines
	// provided by the context. Dial returns an error if the transport cannot be
	// established.
	Dial(ctx context.Context) (Transport, error)
}

// SerialDialer opens a GSM modem over a serial port using go.bug.st/serial.
type SerialDialer struct {
	PortName string
	// Serial carries the line settings. The zero value means 9600 8N1.
	Serial uart.Config
	Logger *slog.Logger
}

func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("modem: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("modem: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode, err := SerialMode(d.Serial)
	if err != nil {
		return nil, err
	}
	if d.Serial.DoubleSpeed && d.Logger != nil {
		d.Logger.Info("double speed requested, host UART has no U2X bit; ignoring", "port", d.PortName)
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.PortName, err)
	}
	return port, nil
}

// SerialMode maps line settings onto a go.bug.st/serial mode. Nine data
// bits and the reserved parity exist on the appliance UART but not on host
// drivers, so they fail with ErrUnsupportedMode.
func SerialMode(c uart.Config) (*serial.Mode, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if mode.BaudRate == 0 {
		mode.BaudRate = 9600
	}
	switch {
	case mode.DataBits == 0:
		mode.DataBits = 8
	case mode.DataBits > 8:
		return nil, fmt.Errorf("%w: %d data bits", ErrUnsupportedMode, c.DataBits)
	}

	switch c.Parity {
	case uart.ParityEven:
		mode.Parity = serial.EvenParity
	case uart.ParityOdd:
		mode.Parity = serial.OddParity
	case uart.ParityReserve:
		return nil, fmt.Errorf("%w: parity %v", ErrUnsupportedMode, c.Parity)
	}
	if c.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	return mode, nil
}

// TCPDialer connects to a modem emulator or a serial-to-TCP bridge.
type TCPDialer struct {
	Address string
	Timeout time.Duration
}

func (d TCPDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("modem: context is nil")
	}
	if d.Address == "" {
		return nil, errors.New("modem: tcp address is required")
	}
	nd := net.Dialer{Timeout: d.Timeout}
	conn, err := nd.DialContext(ctx, "tcp", d.Address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.Address, err)
	}
	return conn, nil
}
