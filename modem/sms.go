package modem

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"i4.energy/across/valvegw/at"
)

// maxSendLines bounds how many prompt or echo lines SendMsg skips while
// looking for the +CMGS result.
const maxSendLines = 4

// SMS represents a text message stored on the modem.
type SMS struct {
	Index  int
	Status string // "REC UNREAD", "REC READ", "STO UNSENT", "STO SENT"
	Sender string
	Time   string
	Text   string
}

// WaitForMsg waits WaitMsgTimeout for a +CMTI notification and returns the
// storage slot it announces. Silence is Timeout; any other line is Fail.
func (m *Modem) WaitForMsg(ctx context.Context) (slot int, st Status, err error) {
	defer m.observe("wait", m.clock.Now(), &st)
	if err := m.acquire(ctx); err != nil {
		st, err = classify(ctx, err)
		return 0, st, err
	}
	defer m.release()

	line, err := m.readLine(ctx, m.config.WaitMsgTimeout)
	if err != nil {
		st, err = classify(ctx, err)
		return 0, st, err
	}
	slot, ok := at.ParseNewMessage(line)
	if !ok {
		m.logger.Debug("not a new message notification", "line", line)
		return 0, Fail, nil
	}
	return slot, OK, nil
}

// ReadMsg returns the text of the message stored in slot.
func (m *Modem) ReadMsg(ctx context.Context, slot int) (string, Status, error) {
	sms, st, err := m.ReadSMS(ctx, slot)
	return sms.Text, st, err
}

// ReadSMS reads the message stored in slot with AT+CMGR. The answer to
// an empty slot is a bare OK (MsgEmpty); a SIM still booting answers
// +CMS ERROR: 517 (SimNotReady). Otherwise the header line is followed by
// the body line.
func (m *Modem) ReadSMS(ctx context.Context, slot int) (sms SMS, st Status, err error) {
	defer m.observe("read", m.clock.Now(), &st)
	if err := m.acquire(ctx); err != nil {
		st, err = classify(ctx, err)
		return SMS{}, st, err
	}
	defer m.release()

	m.flush()
	if err := m.send(ctx, at.ReadMessage(slot)); err != nil {
		st, err = classify(ctx, err)
		return SMS{}, st, err
	}

	header, err := m.readLine(ctx, m.config.ReadTimeout)
	if err != nil {
		st, err = classify(ctx, err)
		return SMS{}, st, err
	}
	switch {
	case strings.EqualFold(header, at.SimNotReady):
		return SMS{}, SimNotReady, nil
	case strings.EqualFold(header, at.OK):
		return SMS{}, MsgEmpty, nil
	case header == at.ERROR, strings.HasPrefix(header, at.CmsError), strings.HasPrefix(header, at.CmeError):
		m.logger.Debug("read rejected", "slot", slot, "line", header)
		return SMS{}, Fail, nil
	}

	body, err := m.readLine(ctx, m.config.ReadTimeout)
	if err != nil {
		st, err = classify(ctx, err)
		return SMS{}, st, err
	}

	sms = SMS{Index: slot, Text: body}
	if h, ok := at.ParseReadHeader(header); ok {
		sms.Status, sms.Sender, sms.Time = h.Status, h.Sender, h.Time
	}
	return sms, OK, nil
}

// SendMsg sends body to number in text mode and returns the message
// reference the network assigned.
//
// The body follows the command after SendSettle and is terminated with
// Ctrl-Z. The answer is awaited until at least len(body)+5 bytes are
// pending, as many as the RX ring holds at most, or SendTimeout elapsed.
// That count assumes an echoed body; with echo off a shorter answer is
// still read once the budget is spent. Only silence is a Timeout. Pending
// input is flushed before returning, whatever the outcome.
func (m *Modem) SendMsg(ctx context.Context, number, body string) (ref int, st Status, err error) {
	defer m.observe("send", m.clock.Now(), &st)
	if strings.ContainsAny(body, "\x1a\x1b") {
		return 0, Fail, fmt.Errorf("%w: body contains Ctrl-Z or ESC", ErrInvalidMessage)
	}
	if err := m.acquire(ctx); err != nil {
		st, err = classify(ctx, err)
		return 0, st, err
	}
	defer m.release()
	defer m.flush()

	m.flush()
	if err := m.send(ctx, at.SendMessage(number)); err != nil {
		st, err = classify(ctx, err)
		return 0, st, err
	}
	if err := m.sleep(ctx, m.config.SendSettle); err != nil {
		st, err = classify(ctx, err)
		return 0, st, err
	}
	if err := m.sendBody(ctx, body); err != nil {
		st, err = classify(ctx, err)
		return 0, st, err
	}

	budget := PollConfig{Interval: m.config.CmdTick, Timeout: m.config.SendTimeout}
	want := min(len(body)+5, m.line.RxCap())
	if err := poll(ctx, m.clock, budget, m.received(want)); err != nil {
		if !errors.Is(err, errExhausted) || m.line.Available() == 0 {
			st, err = classify(ctx, err)
			return 0, st, err
		}
	}

	for range maxSendLines {
		line, err := m.readLine(ctx, m.config.ReadTimeout)
		if err != nil {
			st, err = classify(ctx, err)
			return 0, st, err
		}
		if line == "" || line == body || at.Classify(line) == at.TypePrompt {
			continue
		}
		if ref, ok := at.ParseMessageRef(line); ok {
			return ref, OK, nil
		}
		m.logger.Debug("send rejected", "line", line)
		break
	}
	return 0, Fail, nil
}

func (m *Modem) sendBody(ctx context.Context, body string) error {
	if err := m.line.SendString(ctx, body); err != nil {
		return fmt.Errorf("send body: %w", err)
	}
	if err := m.line.SendChar(ctx, at.CtrlZ); err != nil {
		return fmt.Errorf("send body: %w", err)
	}
	return m.line.Drain(ctx)
}

// DeleteMsg deletes the message stored in slot. Only an OK answer counts
// as success.
func (m *Modem) DeleteMsg(ctx context.Context, slot int) (st Status, err error) {
	defer m.observe("delete", m.clock.Now(), &st)
	if err := m.acquire(ctx); err != nil {
		return classify(ctx, err)
	}
	defer m.release()

	m.flush()
	if err := m.send(ctx, at.DeleteMessage(slot)); err != nil {
		return classify(ctx, err)
	}
	line, err := m.readLine(ctx, m.config.DeleteTimeout)
	if err != nil {
		return classify(ctx, err)
	}
	if !strings.EqualFold(line, at.OK) {
		m.logger.Debug("delete rejected", "slot", slot, "line", line)
		return Fail, nil
	}
	return OK, nil
}
