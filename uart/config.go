package uart

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Parity is the parity mode of the line. The values follow the UPM bit
// names of the AVR USART the appliance was designed around.
type Parity int

const (
	ParityNone Parity = iota
	ParityReserve
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityReserve:
		return "reserve"
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return fmt.Sprintf("Parity(%d)", int(p))
	}
}

// ParseParity accepts none, even, odd and reserve, case-insensitively.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "n":
		return ParityNone, nil
	case "even", "e":
		return ParityEven, nil
	case "odd", "o":
		return ParityOdd, nil
	case "reserve", "reserved":
		return ParityReserve, nil
	}
	return ParityNone, fmt.Errorf("%w: unknown parity %q", ErrInvalidConfig, s)
}

// TxMode selects how SendChar hands bytes to the hardware.
type TxMode int

const (
	// TxBlocking writes every byte straight to the hardware and returns
	// once the write completed.
	TxBlocking TxMode = iota
	// TxInterrupt queues bytes in the TX ring; the TX pump drains them.
	TxInterrupt
)

func (m TxMode) String() string {
	switch m {
	case TxBlocking:
		return "blocking"
	case TxInterrupt:
		return "interrupt"
	default:
		return fmt.Sprintf("TxMode(%d)", int(m))
	}
}

// ParseTxMode accepts blocking and interrupt.
func ParseTxMode(s string) (TxMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blocking":
		return TxBlocking, nil
	case "interrupt", "isr":
		return TxInterrupt, nil
	}
	return TxBlocking, fmt.Errorf("%w: unknown tx mode %q", ErrInvalidConfig, s)
}

// Config describes one serial line.
type Config struct {
	BaudRate    int
	DataBits    int // 6 to 9
	Parity      Parity
	StopBits    int // 1 or 2
	DoubleSpeed bool

	TxMode     TxMode
	RxCapacity int
	TxCapacity int

	// ReceiveTimeout bounds ReceiveChar and is the default ReceiveLine
	// deadline.
	ReceiveTimeout time.Duration
	// PollInterval is the delay between two looks at an empty RX ring.
	PollInterval time.Duration

	Clock  Clock
	Logger *slog.Logger
}

// DefaultConfig matches the appliance: 9600 8N1, 128-byte rings and a
// five second receive timeout.
func DefaultConfig() Config {
	return Config{
		BaudRate:       9600,
		DataBits:       8,
		Parity:         ParityNone,
		StopBits:       1,
		TxMode:         TxBlocking,
		RxCapacity:     128,
		TxCapacity:     128,
		ReceiveTimeout: 5 * time.Second,
		PollInterval:   time.Millisecond,
	}
}

func (c *Config) setDefaults() {
	d := DefaultConfig()
	if c.BaudRate == 0 {
		c.BaudRate = d.BaudRate
	}
	if c.DataBits == 0 {
		c.DataBits = d.DataBits
	}
	if c.StopBits == 0 {
		c.StopBits = d.StopBits
	}
	if c.RxCapacity == 0 {
		c.RxCapacity = d.RxCapacity
	}
	if c.TxCapacity == 0 {
		c.TxCapacity = d.TxCapacity
	}
	if c.ReceiveTimeout == 0 {
		c.ReceiveTimeout = d.ReceiveTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = d.PollInterval
	}
	if c.Clock == nil {
		c.Clock = SystemClock
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

// Validate reports configuration misuse. Zero values are not errors;
// they are replaced by defaults when the line is created.
func (c Config) Validate() error {
	if c.BaudRate < 0 {
		return fmt.Errorf("%w: baud rate %d", ErrInvalidConfig, c.BaudRate)
	}
	if c.DataBits != 0 && (c.DataBits < 6 || c.DataBits > 9) {
		return fmt.Errorf("%w: data bits %d not in [6,9]", ErrInvalidConfig, c.DataBits)
	}
	switch c.Parity {
	case ParityNone, ParityEven, ParityOdd, ParityReserve:
	default:
		return fmt.Errorf("%w: parity %v", ErrInvalidConfig, c.Parity)
	}
	if c.StopBits != 0 && c.StopBits != 1 && c.StopBits != 2 {
		return fmt.Errorf("%w: stop bits %d", ErrInvalidConfig, c.StopBits)
	}
	switch c.TxMode {
	case TxBlocking, TxInterrupt:
	default:
		return fmt.Errorf("%w: tx mode %v", ErrInvalidConfig, c.TxMode)
	}
	if c.RxCapacity < 0 || c.TxCapacity < 0 {
		return fmt.Errorf("%w: negative ring capacity", ErrInvalidConfig)
	}
	if c.ReceiveTimeout < 0 || c.PollInterval < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	return nil
}
