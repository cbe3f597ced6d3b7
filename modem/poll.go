package modem

import (
	"context"
	"time"

	"i4.energy/across/valvegw/uart"
)

// PollConfig bounds a wait on the serial line. The wait gives up after
// MaxRetries intervals or once Timeout has elapsed, whichever comes first.
// Zero fields are derived from the others.
type PollConfig struct {
	// Interval is the time between polling attempts
	Interval time.Duration
	// Timeout is the maximum time to wait for the condition
	Timeout time.Duration
	// MaxRetries is the maximum number of polling attempts
	MaxRetries int
}

func (p PollConfig) normalize() PollConfig {
	if p.Interval <= 0 {
		p.Interval = 10 * time.Millisecond
	}
	if p.MaxRetries <= 0 && p.Timeout <= 0 {
		p.MaxRetries = 10
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = int((p.Timeout + p.Interval - 1) / p.Interval)
	}
	if p.Timeout <= 0 {
		p.Timeout = time.Duration(p.MaxRetries) * p.Interval
	}
	return p
}

// poll evaluates cond, then once per interval until it holds. It returns
// errExhausted when the budget runs out and the context error when ctx
// ends first. Time is measured on clock.
func poll(ctx context.Context, clock uart.Clock, cfg PollConfig, cond func() bool) error {
	cfg = cfg.normalize()
	if cond() {
		return nil
	}

	deadline := clock.Now().Add(cfg.Timeout)
	for retries := 0; retries < cfg.MaxRetries; retries++ {
		wait := cfg.Interval
		if left := deadline.Sub(clock.Now()); left <= 0 {
			break
		} else if left < wait {
			wait = left
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(wait):
		}
		if cond() {
			return nil
		}
	}
	return errExhausted
}
