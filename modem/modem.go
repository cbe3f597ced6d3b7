package modem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/atomic"

	"i4.energy/across/valvegw/at"
	"i4.energy/across/valvegw/uart"
)

// Modem is a session with a SIM900-class GSM modem over one serial line.
//
// Every operation is a synchronous exchange: it writes one command, waits
// within a configured budget and classifies what came back. Only one
// operation is in flight at a time; a second caller blocks on the session
// guard until the first one returns or its own context ends.
type Modem struct {
	// transport is the dialed connection, nil when the session was opened
	// on an existing line.
	transport Transport
	line      *uart.Line
	config    Config
	logger    *slog.Logger
	clock     uart.Clock

	// guard holds one token per operation in flight.
	guard  chan struct{}
	closed atomic.Bool
	cancel context.CancelFunc

	// Owned by the guard holder.
	buf  []byte
	last []byte
}

// New dials the modem, wraps the connection in a serial line and starts the
// line's interrupt pumps. It does not talk to the modem; call Init for that.
func New(ctx context.Context, config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial modem: %w", err)
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	serialCfg := config.Serial
	if serialCfg.Logger == nil {
		serialCfg.Logger = config.Logger.With("component", "uart")
	}
	line, err := uart.NewLine(transport, serialCfg)
	if err != nil {
		transport.Close()
		return nil, err
	}

	m := newModem(line, config)
	m.transport = transport

	var lineCtx context.Context
	lineCtx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	line.Start(lineCtx)
	return m, nil
}

// Open creates a session on a line the caller already owns. Close will not
// stop its pumps nor close its hardware.
func Open(line *uart.Line, config Config) (*Modem, error) {
	if line == nil {
		return nil, ErrNotInitialized
	}
	config.setDefaults()
	return newModem(line, config), nil
}

func newModem(line *uart.Line, config Config) *Modem {
	return &Modem{
		line:   line,
		config: config,
		logger: config.Logger,
		clock:  line.Clock(),
		guard:  make(chan struct{}, 1),
		buf:    make([]byte, config.MaxResponse),
	}
}

// Close stops the line pumps and closes the transport. After calling
// Close, every operation fails with ErrAlreadyClosed.
func (m *Modem) Close() error {
	if m.closed.Swap(true) {
		return ErrAlreadyClosed
	}
	if m.cancel != nil {
		m.cancel()
	}
	if m.transport != nil {
		return m.transport.Close()
	}
	return nil
}

// LastResponse returns a copy of the response captured by the most recent
// Init, Cmd or GetNetStat, or the last line read by the other operations.
func (m *Modem) LastResponse() []byte {
	if err := m.acquire(context.Background()); err != nil {
		return nil
	}
	defer m.release()
	return bytes.Clone(m.last)
}

// Flush discards pending input once no operation is in flight and returns
// the number of bytes dropped.
func (m *Modem) Flush() int {
	if err := m.acquire(context.Background()); err != nil {
		return 0
	}
	defer m.release()
	return m.flush()
}

// Overflows reports how many received bytes were dropped because the RX
// ring was full.
func (m *Modem) Overflows() uint64 {
	return m.line.Overflows()
}

// Init checks that the modem answers. It sends AT and, once anything came
// back within the InitPoll budget, validates the answer against CRLF OK
// CRLF: broken framing is InvalidResponse, other content is Fail.
func (m *Modem) Init(ctx context.Context) (st Status, err error) {
	defer m.observe("init", m.clock.Now(), &st)
	if err := m.acquire(ctx); err != nil {
		return classify(ctx, err)
	}
	defer m.release()

	if err := m.send(ctx, at.CmdAt); err != nil {
		return classify(ctx, err)
	}
	if err := poll(ctx, m.clock, m.config.InitPoll, m.received(1)); err != nil {
		return classify(ctx, err)
	}
	resp, err := m.capture(ctx)
	if err != nil {
		return classify(ctx, err)
	}
	return CheckResponse(resp, at.OK), nil
}

// Cmd sends cmd and waits up to 10 ticks per command byte, terminator
// included, for any answer. Whatever arrives is captured for LastResponse;
// its content is not judged.
func (m *Modem) Cmd(ctx context.Context, cmd string) (st Status, err error) {
	defer m.observe("cmd", m.clock.Now(), &st)
	if err := m.acquire(ctx); err != nil {
		return classify(ctx, err)
	}
	defer m.release()

	if err := m.send(ctx, cmd); err != nil {
		return classify(ctx, err)
	}
	budget := PollConfig{Interval: m.config.CmdTick, MaxRetries: 10 * (len(cmd) + 1)}
	if err := poll(ctx, m.clock, budget, m.received(1)); err != nil {
		return classify(ctx, err)
	}
	if _, err := m.capture(ctx); err != nil {
		return classify(ctx, err)
	}
	return OK, nil
}

// GetNetStat queries the registration state. It waits for a complete
// +CREG answer, at least at.RegistrationResponseLen bytes, and maps <stat>
// onto the network statuses. Anything unparseable is NetworkError.
func (m *Modem) GetNetStat(ctx context.Context) (st Status, err error) {
	defer m.observe("netstat", m.clock.Now(), &st)
	if err := m.acquire(ctx); err != nil {
		return classify(ctx, err)
	}
	defer m.release()

	if err := m.send(ctx, at.CmdRegistration); err != nil {
		return classify(ctx, err)
	}
	if err := poll(ctx, m.clock, m.config.NetStatPoll, m.received(at.RegistrationResponseLen)); err != nil {
		return classify(ctx, err)
	}
	resp, err := m.capture(ctx)
	m.flush()
	if err != nil {
		return classify(ctx, err)
	}

	stat, ok := at.ParseRegistration(resp)
	if !ok {
		m.logger.Debug("unparseable registration answer", "response", resp)
		return NetworkError, nil
	}
	return registrationStatus(stat), nil
}

func (m *Modem) acquire(ctx context.Context) error {
	if m.closed.Load() {
		return ErrAlreadyClosed
	}
	if m.line == nil {
		return ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case m.guard <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Modem) release() {
	<-m.guard
}

func (m *Modem) observe(op string, start time.Time, st *Status) {
	elapsed := m.clock.Now().Sub(start)
	m.logger.Debug("modem operation", "op", op, "status", st.String(), "elapsed", elapsed)
	if m.config.Recorder != nil {
		m.config.Recorder.ObserveResult(op, *st, elapsed)
	}
}

// send writes cmd and the CR terminator.
func (m *Modem) send(ctx context.Context, cmd string) error {
	m.logger.Debug("sending command", "cmd", cmd)
	if err := m.line.SendString(ctx, cmd); err != nil {
		return fmt.Errorf("send %q: %w", cmd, err)
	}
	if err := m.line.SendChar(ctx, at.CR); err != nil {
		return fmt.Errorf("send %q: %w", cmd, err)
	}
	return m.line.Drain(ctx)
}

func (m *Modem) received(n int) func() bool {
	return func() bool { return m.line.Available() >= n }
}

// flush drops pending input together with any overflow it caused.
func (m *Modem) flush() int {
	n := m.line.Flush()
	m.line.Overflowed()
	return n
}

func (m *Modem) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.clock.After(d):
		return nil
	}
}

// capture takes one whole response off the line using the configured
// framing.
func (m *Modem) capture(ctx context.Context) ([]byte, error) {
	var (
		resp []byte
		err  error
	)
	if m.config.Framing == FramingSentinel {
		resp, err = m.line.ReceiveFramed(m.config.MaxResponse)
	} else {
		resp, err = m.captureLines(ctx)
	}
	if oerr := m.line.Overflowed(); oerr != nil {
		err = oerr
	}
	m.last = append(m.last[:0], resp...)
	return m.last, err
}

// captureLines reads lines until a final result code or a prompt, or until
// no further line starts within LineTimeout.
func (m *Modem) captureLines(ctx context.Context) ([]byte, error) {
	n := 0
	for {
		if n == len(m.buf) {
			if m.line.Available() > 0 {
				return m.buf[:n], uart.ErrResponseTooLong
			}
			return m.buf[:n], nil
		}

		k, err := m.line.ReceiveLine(ctx, m.buf[n:], m.config.LineTimeout)
		line := m.buf[n : n+k]
		n += k
		switch {
		case errors.Is(err, uart.ErrTimeout):
			return m.buf[:n], ctx.Err()
		case err != nil:
			return m.buf[:n], err
		}

		switch at.Classify(at.Content(line)) {
		case at.TypeFinal, at.TypePrompt:
			return m.buf[:n], nil
		}
	}
}

// readLine reads one CR-terminated line and returns its content.
func (m *Modem) readLine(ctx context.Context, timeout time.Duration) (string, error) {
	n, err := m.line.ReceiveLine(ctx, m.buf, timeout)
	m.last = append(m.last[:0], m.buf[:n]...)
	if oerr := m.line.Overflowed(); oerr != nil {
		return "", oerr
	}
	if err != nil {
		return "", err
	}
	return at.Content(m.buf[:n]), nil
}

// classify maps a failure below the protocol onto a status. Exhausted
// budgets are plain timeouts and carry no error.
func classify(ctx context.Context, err error) (Status, error) {
	if cerr := ctx.Err(); cerr != nil {
		return Timeout, cerr
	}
	switch {
	case errors.Is(err, errExhausted), errors.Is(err, uart.ErrTimeout):
		return Timeout, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Timeout, err
	case errors.Is(err, uart.ErrOverflow), errors.Is(err, uart.ErrResponseTooLong):
		return InvalidResponse, err
	default:
		return Fail, err
	}
}
