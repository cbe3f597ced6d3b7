package uart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.uber.org/atomic"
)

// Line is one serial line: the hardware byte stream plus the RX and TX
// rings that decouple it from the polling caller.
//
// The RX pump started by Start plays the part of the receive-complete
// interrupt: it is the only producer of the RX ring. The caller of the
// receive methods is its only consumer. In TxInterrupt mode the roles are
// mirrored on the TX ring. A Line must be driven by a single foreground
// caller; the modem session guarantees that.
type Line struct {
	cfg    Config
	hw     io.ReadWriter
	rx     *Ring
	tx     *Ring
	clock  Clock
	logger *slog.Logger

	// txWake nudges the TX pump after a push, txSpace tells a blocked
	// SendChar that the pump freed room.
	txWake  chan struct{}
	txSpace chan struct{}

	overflows  atomic.Uint64
	overflowed atomic.Bool
	rxErr      atomic.Error
	txErr      atomic.Error
	started    atomic.Bool
}

// NewLine creates a line over hw. The line does not read from hw until
// Start is called, which lets tests feed it through Receive alone.
func NewLine(hw io.ReadWriter, cfg Config) (*Line, error) {
	if hw == nil {
		return nil, fmt.Errorf("%w: nil hardware stream", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	return &Line{
		cfg:     cfg,
		hw:      hw,
		rx:      NewRing(cfg.RxCapacity),
		tx:      NewRing(cfg.TxCapacity),
		clock:   cfg.Clock,
		logger:  cfg.Logger,
		txWake:  make(chan struct{}, 1),
		txSpace: make(chan struct{}, 1),
	}, nil
}

// Config returns the effective configuration, defaults applied.
func (l *Line) Config() Config {
	return l.cfg
}

// Clock returns the time source of the line.
func (l *Line) Clock() Clock {
	return l.clock
}

// Start launches the RX pump and, in TxInterrupt mode, the TX pump. The
// pumps stop when ctx is cancelled or the hardware stream fails; closing
// the hardware is the caller's job.
func (l *Line) Start(ctx context.Context) {
	if l.started.Swap(true) {
		return
	}
	go l.rxPump(ctx)
	if l.cfg.TxMode == TxInterrupt {
		go l.txPump(ctx)
	}
}

func (l *Line) rxPump(ctx context.Context) {
	buf := make([]byte, 64)
	for {
		n, err := l.hw.Read(buf)
		for _, b := range buf[:n] {
			l.Receive(b)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				l.logger.Error("serial read failed", "error", err)
			}
			l.rxErr.Store(err)
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (l *Line) txPump(ctx context.Context) {
	chunk := make([]byte, 0, 64)
	for {
		chunk = chunk[:0]
		for len(chunk) < cap(chunk) {
			b, ok := l.tx.Pop()
			if !ok {
				break
			}
			chunk = append(chunk, b)
		}
		if len(chunk) > 0 {
			if _, err := l.hw.Write(chunk); err != nil {
				l.logger.Error("serial write failed", "error", err)
				l.txErr.Store(err)
				signal(l.txSpace)
				return
			}
			signal(l.txSpace)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-l.txWake:
		}
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Receive is the receive-complete handler: it stores one byte arriving
// from the hardware. When the RX ring is full the byte is dropped and the
// overflow is latched for Overflowed to report.
func (l *Line) Receive(b byte) {
	if l.rx.Push(b) {
		return
	}
	l.overflows.Inc()
	if !l.overflowed.Swap(true) {
		l.logger.Warn("receive buffer overflow", "capacity", l.rx.Cap())
	}
}

// Overflowed returns ErrOverflow once per overflow episode, nil otherwise.
func (l *Line) Overflowed() error {
	if l.overflowed.Swap(false) {
		return ErrOverflow
	}
	return nil
}

// Overflows is the total number of bytes dropped since the line was
// created.
func (l *Line) Overflows() uint64 {
	return l.overflows.Load()
}

// Err returns the error that stopped the RX pump, if any.
func (l *Line) Err() error {
	return l.rxErr.Load()
}

// SendChar hands one byte to the transmitter. In TxBlocking mode it
// returns once the hardware accepted the byte. In TxInterrupt mode it waits
// for room in the TX ring, queues the byte and wakes the TX pump.
func (l *Line) SendChar(ctx context.Context, b byte) error {
	if l.cfg.TxMode == TxBlocking {
		if _, err := l.hw.Write([]byte{b}); err != nil {
			return fmt.Errorf("write byte: %w", err)
		}
		return nil
	}

	for !l.tx.Push(b) {
		if err := l.txErr.Load(); err != nil {
			return fmt.Errorf("write byte: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.txSpace:
		}
	}
	signal(l.txWake)
	return nil
}

// SendString sends s byte by byte. No terminator is appended.
func (l *Line) SendString(ctx context.Context, s string) error {
	for i := 0; i < len(s); i++ {
		if err := l.SendChar(ctx, s[i]); err != nil {
			return err
		}
	}
	return nil
}

// Drain waits until the TX ring is empty. It returns immediately in
// TxBlocking mode.
func (l *Line) Drain(ctx context.Context) error {
	if l.cfg.TxMode == TxBlocking {
		return nil
	}
	for l.tx.Available() > 0 {
		if err := l.txErr.Load(); err != nil {
			return fmt.Errorf("write byte: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.txSpace:
		case <-l.clock.After(l.cfg.PollInterval):
		}
	}
	return nil
}

// ReceiveChar returns the next received byte. If none is pending it polls
// the RX ring until ReceiveTimeout elapses on the line clock, then reports
// false. Cancelling ctx also reports false.
func (l *Line) ReceiveChar(ctx context.Context) (byte, bool) {
	deadline := l.clock.Now().Add(l.cfg.ReceiveTimeout)
	for {
		if b, ok := l.rx.Pop(); ok {
			return b, true
		}
		if !l.sleep(ctx, deadline) {
			return 0, false
		}
	}
}

// RxCap returns how many received bytes the line can hold.
func (l *Line) RxCap() int {
	return l.rx.Cap()
}

// Available returns the number of received bytes not yet consumed.
func (l *Line) Available() int {
	return l.rx.Available()
}

// Flush discards pending received bytes and returns how many were dropped.
func (l *Line) Flush() int {
	return l.rx.Flush()
}

// sleep waits one poll interval, or less if the deadline is closer. It
// reports false once the deadline has passed or ctx is done.
func (l *Line) sleep(ctx context.Context, deadline time.Time) bool {
	now := l.clock.Now()
	if !now.Before(deadline) {
		return false
	}
	wait := l.cfg.PollInterval
	if left := deadline.Sub(now); left < wait {
		wait = left
	}
	select {
	case <-ctx.Done():
		return false
	case <-l.clock.After(wait):
		return true
	}
}
