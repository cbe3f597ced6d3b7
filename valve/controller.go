package valve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/atomic"

	"i4.energy/across/valvegw/at"
	"i4.energy/across/valvegw/modem"
	"i4.energy/across/valvegw/uart"
)

//go:generate go tool mockgen -source=controller.go -destination=mock_modem.go -package=valve

// Modem is the part of *modem.Modem the controller drives.
type Modem interface {
	Init(ctx context.Context) (modem.Status, error)
	Cmd(ctx context.Context, cmd string) (modem.Status, error)
	GetNetStat(ctx context.Context) (modem.Status, error)
	WaitForMsg(ctx context.Context) (int, modem.Status, error)
	ReadSMS(ctx context.Context, slot int) (modem.SMS, modem.Status, error)
	SendMsg(ctx context.Context, number, body string) (int, modem.Status, error)
	DeleteMsg(ctx context.Context, slot int) (modem.Status, error)
	LastResponse() []byte
	Flush() int
}

// Journal keeps a record of the traffic handled by the controller.
type Journal interface {
	RecordReceived(ctx context.Context, sms modem.SMS, command string, applied bool) error
	RecordSent(ctx context.Context, number, body string, ref int, st modem.Status) error
}

// TestMessage is the body of the message sent once after start-up.
const TestMessage = "Test"

type Config struct {
	Modem   Modem
	Bank    *Bank
	Display Display
	Journal Journal
	Logger  *slog.Logger
	Clock   uart.Clock

	// Setup commands run after a successful Init.
	Setup []string
	// The network is polled up to SearchAttempts times, SearchInterval
	// apart, while the modem reports it is searching.
	SearchAttempts int
	SearchInterval time.Duration
	// TestNumber receives TestMessage after start-up when set.
	TestNumber string
	// QueueSize is the capacity of the outbound message queue.
	QueueSize int
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Display == nil {
		c.Display = LogDisplay{Logger: c.Logger}
	}
	if c.Clock == nil {
		c.Clock = uart.SystemClock
	}
	if c.Setup == nil {
		c.Setup = []string{"ATE0", "AT+CMGF=1"}
	}
	if c.SearchAttempts == 0 {
		c.SearchAttempts = 600
	}
	if c.SearchInterval == 0 {
		c.SearchInterval = 50 * time.Millisecond
	}
	if c.QueueSize == 0 {
		c.QueueSize = 8
	}
}

// SendResult is the outcome of a queued outbound message.
type SendResult struct {
	Ref    int
	Status modem.Status
	Err    error
}

type sendRequest struct {
	number string
	body   string
	result chan SendResult
}

// Controller runs the appliance: it brings the modem up, then turns every
// received SMS into a valve command. Outbound messages queued with Send are
// transmitted between polls for incoming ones.
type Controller struct {
	modem   Modem
	bank    *Bank
	display Display
	journal Journal
	logger  *slog.Logger
	clock   uart.Clock
	config  Config

	outbox  chan sendRequest
	running atomic.Bool
	done    chan struct{}
	network atomic.Int32
}

func NewController(config Config) (*Controller, error) {
	if config.Modem == nil {
		return nil, errors.New("valve: modem is required")
	}
	if config.Bank == nil {
		return nil, errors.New("valve: bank is required")
	}
	if config.SearchAttempts < 0 || config.QueueSize < 0 {
		return nil, errors.New("valve: negative controller budget")
	}
	config.setDefaults()

	c := &Controller{
		modem:   config.Modem,
		bank:    config.Bank,
		display: config.Display,
		journal: config.Journal,
		logger:  config.Logger,
		clock:   config.Clock,
		config:  config,
		outbox:  make(chan sendRequest, config.QueueSize),
		done:    make(chan struct{}),
	}
	c.network.Store(int32(modem.NetworkSearching))
	return c, nil
}

// Network returns the registration status found by the last search.
func (c *Controller) Network() modem.Status {
	return modem.Status(c.network.Load())
}

// Run starts the modem and serves incoming messages until ctx ends or the
// modem becomes unusable. It can be called once.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)

	if err := c.start(ctx); err != nil {
		return err
	}

	c.display.Show(textWaiting)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.drainOutbox(ctx)

		slot, st, err := c.modem.WaitForMsg(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, modem.ErrAlreadyClosed) {
			return err
		}
		switch st {
		case modem.OK:
			c.display.Show(textReceived)
			if err := c.handle(ctx, slot); err != nil {
				return err
			}
			c.display.Show(textWaiting)
		case modem.Timeout:
		case modem.InvalidResponse:
			c.logger.Warn("Discarding garbled input", "error", err, "bytes", c.modem.Flush())
		default:
			c.logger.Debug("Ignoring unsolicited line", "status", st)
		}
	}
}

func (c *Controller) start(ctx context.Context) error {
	c.display.Show(textInitializing)
	st, err := c.modem.Init(ctx)
	c.display.Show(InitText(st))
	if st != modem.OK {
		c.logger.Error("Modem did not initialize", "status", st, "error", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s", ErrInitFailed, st)
	}

	for _, cmd := range c.config.Setup {
		st, err := c.modem.Cmd(ctx, cmd)
		if st != modem.OK {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("Modem did not answer setup command", "command", cmd, "status", st, "error", err)
			return fmt.Errorf("%w: %s: %s", ErrInitFailed, cmd, st)
		}
		// Cmd does not judge the answer; a quiet modem is given the
		// benefit of the doubt, an explicit error is not.
		if result := finalResult(c.modem.LastResponse()); result != "" && result != at.OK {
			c.logger.Error("Modem rejected setup command", "command", cmd, "result", result)
			return fmt.Errorf("%w: %s: %s", ErrInitFailed, cmd, result)
		}
	}

	c.display.Show(textSearching)
	st, err = c.searchNetwork(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.network.Store(int32(st))
	c.display.Show(NetworkText(st))
	if st.Registered() {
		c.logger.Info("Registered on network", "status", st)
	} else {
		c.logger.Warn("No network registration, waiting for messages anyway", "status", st, "error", err)
	}

	if c.config.TestNumber != "" {
		ref, st, err := c.modem.SendMsg(ctx, c.config.TestNumber, TestMessage)
		c.display.Show(SendText(ref, st))
		c.recordSent(ctx, c.config.TestNumber, TestMessage, ref, st, err)
		c.modem.Flush()
	}
	return nil
}

// finalResult returns the last final result code in resp, or "".
func finalResult(resp []byte) string {
	lines := at.Lines(resp)
	for i := len(lines) - 1; i >= 0; i-- {
		if at.Classify(lines[i]) == at.TypeFinal {
			return lines[i]
		}
	}
	return ""
}

func (c *Controller) searchNetwork(ctx context.Context) (modem.Status, error) {
	for attempt := 1; ; attempt++ {
		st, err := c.modem.GetNetStat(ctx)
		if st != modem.NetworkSearching || attempt >= c.config.SearchAttempts {
			return st, err
		}
		select {
		case <-ctx.Done():
			return modem.Timeout, ctx.Err()
		case <-c.clock.After(c.config.SearchInterval):
		}
	}
}

// handle reads, applies and deletes the message in slot. The slot is
// deleted even when reading it failed, so a broken message cannot block
// the storage.
func (c *Controller) handle(ctx context.Context, slot int) error {
	sms, st, err := c.modem.ReadSMS(ctx, slot)
	if st == modem.OK {
		c.display.Show(sms.Text)
		c.apply(ctx, sms)
	} else {
		c.display.Show(textReadError)
		c.logger.Warn("Could not read message", "slot", slot, "status", st, "error", err)
		if errors.Is(err, modem.ErrAlreadyClosed) {
			return err
		}
	}

	st, err = c.modem.DeleteMsg(ctx, slot)
	if st != modem.OK {
		c.display.Show(textDeleteError)
		c.logger.Warn("Could not delete message", "slot", slot, "status", st, "error", err)
		if errors.Is(err, modem.ErrAlreadyClosed) {
			return err
		}
	}
	return nil
}

func (c *Controller) apply(ctx context.Context, sms modem.SMS) {
	cmd, ok := ParseCommand(sms.Text)
	applied := false
	if !ok {
		c.logger.Info("Ignoring message without command", "sender", sms.Sender, "slot", sms.Index)
	} else if ev, err := c.bank.Apply(cmd, sms.Sender); err != nil {
		c.logger.Error("Failed to apply command", "command", cmd, "error", err)
	} else {
		applied = true
		c.logger.Info("Applied command", "command", cmd, "valve", ev.Valve, "open", ev.Open, "sender", sms.Sender)
	}

	if c.journal != nil {
		if err := c.journal.RecordReceived(ctx, sms, cmd.String(), applied); err != nil {
			c.logger.Error("Failed to journal received message", "error", err)
		}
	}
}

// Send queues a message and waits for the controller to transmit it.
func (c *Controller) Send(ctx context.Context, number, body string) (int, modem.Status, error) {
	req := sendRequest{number: number, body: body, result: make(chan SendResult, 1)}
	select {
	case c.outbox <- req:
	case <-c.done:
		return 0, modem.Fail, ErrStopped
	case <-ctx.Done():
		return 0, modem.Timeout, ctx.Err()
	}

	select {
	case r := <-req.result:
		return r.Ref, r.Status, r.Err
	case <-c.done:
		return 0, modem.Fail, ErrStopped
	case <-ctx.Done():
		return 0, modem.Timeout, ctx.Err()
	}
}

func (c *Controller) drainOutbox(ctx context.Context) {
	for {
		select {
		case req := <-c.outbox:
			ref, st, err := c.modem.SendMsg(ctx, req.number, req.body)
			c.display.Show(SendText(ref, st))
			c.recordSent(ctx, req.number, req.body, ref, st, err)
			req.result <- SendResult{Ref: ref, Status: st, Err: err}
		default:
			return
		}
	}
}

func (c *Controller) recordSent(ctx context.Context, number, body string, ref int, st modem.Status, err error) {
	if st == modem.OK {
		c.logger.Info("SMS sent", "to", number, "ref", ref, "message_length", len(body))
	} else {
		c.logger.Warn("SMS not sent", "to", number, "status", st, "error", err)
	}
	if c.journal != nil {
		if err := c.journal.RecordSent(ctx, number, body, ref, st); err != nil {
			c.logger.Error("Failed to journal sent message", "error", err)
		}
	}
}
