package modem_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"i4.energy/across/valvegw/modem"
	"i4.energy/across/valvegw/uart"
)

func TestWaitForMsg(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		slot     int
		want     modem.Status
		elapsed  time.Duration
	}{
		{name: "New message", incoming: "\r\n+CMTI: \"SM\",7\r\n", slot: 7, want: modem.OK},
		{name: "Two digit slot", incoming: "\r\n+CMTI: \"SM\",12\r\n", slot: 12, want: modem.OK},
		{name: "Ring", incoming: "\r\nRING\r\n", want: modem.Fail},
		{name: "Tag not at start", incoming: "\r\nX+CMTI: \"SM\",7\r\n", want: modem.Fail},
		{name: "Missing comma", incoming: "\r\n+CMTI: \"SM\"\r\n", want: modem.Fail},
		{name: "Silence", incoming: "", want: modem.Timeout, elapsed: 250 * time.Millisecond},
		{name: "Partial line", incoming: "\r\n+CMTI: \"SM\"", want: modem.Timeout, elapsed: 250 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, nil)
			s.transport.SendData(tt.incoming)

			slot, st, err := s.modem.WaitForMsg(context.Background())
			if err != nil {
				t.Fatalf("WaitForMsg() error: %v", err)
			}
			if st != tt.want || slot != tt.slot {
				t.Errorf("WaitForMsg() = %d, %v; want %d, %v", slot, st, tt.slot, tt.want)
			}
			if got := s.clock.Elapsed(); got != tt.elapsed {
				t.Errorf("waited %v, want %v", got, tt.elapsed)
			}
		})
	}
}

func TestReadMsg(t *testing.T) {
	const header = "\r\n+CMGR: \"REC UNREAD\",\"+989121234567\",\"\",\"16/12/22,10:15:00+14\"\r\n"

	tests := []struct {
		name  string
		reply string
		text  string
		want  modem.Status
	}{
		{name: "Message", reply: header + "OpenValve1\r\n\r\nOK\r\n", text: "OpenValve1", want: modem.OK},
		{name: "Body with spaces", reply: header + "Close Valve 2 now\r\n\r\nOK\r\n", text: "Close Valve 2 now", want: modem.OK},
		{name: "SIM not ready", reply: "\r\n+CMS ERROR: 517\r\n", want: modem.SimNotReady},
		{name: "SIM not ready lower case", reply: "\r\n+cms error: 517\r\n", want: modem.SimNotReady},
		{name: "Empty slot", reply: "\r\nOK\r\n", want: modem.MsgEmpty},
		{name: "Other CMS error", reply: "\r\n+CMS ERROR: 321\r\n", want: modem.Fail},
		{name: "ERROR", reply: "\r\nERROR\r\n", want: modem.Fail},
		{name: "Silence", reply: "", want: modem.Timeout},
		{name: "Header only", reply: header, want: modem.Timeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, nil)
			s.transport.Expect("AT+CMGR=3", tt.reply)

			text, st, err := s.modem.ReadMsg(context.Background(), 3)
			if err != nil {
				t.Fatalf("ReadMsg() error: %v", err)
			}
			if st != tt.want || text != tt.text {
				t.Errorf("ReadMsg() = %q, %v; want %q, %v", text, st, tt.text, tt.want)
			}
		})
	}
}

func TestReadSMS(t *testing.T) {
	s := newSession(t, nil)
	s.transport.SendData("\r\nstale\r\n")
	s.transport.Expect("AT+CMGR=1", "\r\n+CMGR: \"REC READ\",\"+15551234567\",\"\",\"16/12/22,10:15:00+14\"\r\nCloseValve2\r\n\r\nOK\r\n")

	sms, st, err := s.modem.ReadSMS(context.Background(), 1)
	if st != modem.OK || err != nil {
		t.Fatalf("ReadSMS() = %v, %v", st, err)
	}
	want := modem.SMS{Index: 1, Status: "REC READ", Sender: "+15551234567", Time: "16/12/22,10:15:00+14", Text: "CloseValve2"}
	if sms != want {
		t.Errorf("ReadSMS() = %+v, want %+v", sms, want)
	}
}

func TestReadSMSFullLengthBody(t *testing.T) {
	body := strings.Repeat("OpenValve1 ", 14) + "Close2"
	s := newSession(t, func(_ *modem.Config, serial *uart.Config) { serial.RxCapacity = 512 })
	s.transport.Expect("AT+CMGR=2", "\r\n+CMGR: \"REC UNREAD\",\"+15551234567\",\"\",\"16/12/22,10:15:00+14\"\r\n"+body+"\r\n\r\nOK\r\n")

	sms, st, err := s.modem.ReadSMS(context.Background(), 2)
	if st != modem.OK || err != nil {
		t.Fatalf("ReadSMS() = %v, %v", st, err)
	}
	if len(body) != 160 || sms.Text != body {
		t.Errorf("Text = %q (%d bytes), want the %d byte body", sms.Text, len(sms.Text), len(body))
	}
}

func TestSendMsg(t *testing.T) {
	t.Run("Message reference", func(t *testing.T) {
		s := newSession(t, nil)
		s.transport.
			Expect(`AT+CMGS="+15551234567"`, "").
			Expect("Test", "\r\n+CMGS: 42\r\n")

		ref, st, err := s.modem.SendMsg(context.Background(), "+15551234567", "Test")
		if st != modem.OK || err != nil || ref != 42 {
			t.Fatalf("SendMsg() = %d, %v, %v; want 42, OK", ref, st, err)
		}
		if got := s.transport.Written(); got != "AT+CMGS=\"+15551234567\"\rTest\x1a" {
			t.Errorf("wrote %q", got)
		}
	})

	t.Run("Prompt and final OK", func(t *testing.T) {
		s := newSession(t, nil)
		s.transport.
			Expect(`AT+CMGS="+4915112345678"`, "\r\n> ").
			Expect("OpenValve1 done", "\r\n+CMGS: 7\r\n\r\nOK\r\n")

		ref, st, err := s.modem.SendMsg(context.Background(), "+4915112345678", "OpenValve1 done")
		if st != modem.OK || err != nil || ref != 7 {
			t.Fatalf("SendMsg() = %d, %v, %v; want 7, OK", ref, st, err)
		}
		if n := s.line.Available(); n != 0 {
			t.Errorf("%d bytes left pending", n)
		}
	})

	t.Run("No answer within six seconds", func(t *testing.T) {
		s := newSession(t, nil)
		s.transport.
			Expect(`AT+CMGS="+15551234567"`, "").
			Expect("Test", "")

		_, st, err := s.modem.SendMsg(context.Background(), "+15551234567", "Test")
		if st != modem.Timeout || err != nil {
			t.Fatalf("SendMsg() = %v, %v; want Timeout", st, err)
		}
		if got, want := s.clock.Elapsed(), 6*time.Second+100*time.Millisecond; got != want {
			t.Errorf("waited %v, want %v", got, want)
		}
	})

	t.Run("Echo off", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{name: "Body longer than the answer", body: "CloseValve2 acknowledged"},
			{name: "Body longer than the RX ring", body: strings.Repeat("Valve 1 open. ", 9) + "Bye."},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s := newSession(t, nil)
				s.transport.
					Expect(`AT+CMGS="+15551234567"`, "\r\n> ").
					Expect(tt.body, "\r\n+CMGS: 42\r\n\r\nOK\r\n")

				ref, st, err := s.modem.SendMsg(context.Background(), "+15551234567", tt.body)
				if st != modem.OK || err != nil || ref != 42 {
					t.Fatalf("SendMsg() = %d, %v, %v; want 42, OK", ref, st, err)
				}
				if got, want := s.clock.Elapsed(), 6*time.Second+100*time.Millisecond; got != want {
					t.Errorf("waited %v, want %v", got, want)
				}
			})
		}
	})

	t.Run("Prompt without result", func(t *testing.T) {
		s := newSession(t, nil)
		s.transport.
			Expect(`AT+CMGS="+15551234567"`, "\r\n> ").
			Expect("CloseValve2 acknowledged", "")

		_, st, err := s.modem.SendMsg(context.Background(), "+15551234567", "CloseValve2 acknowledged")
		if st != modem.Timeout || err != nil {
			t.Fatalf("SendMsg() = %v, %v; want Timeout", st, err)
		}
	})

	t.Run("Mismatch fails and flushes", func(t *testing.T) {
		s := newSession(t, nil)
		s.transport.
			Expect(`AT+CMGS="+15551234567"`, "").
			Expect("Test", "\r\n+CMS ERROR: 500\r\n\r\nmore\r\n")

		_, st, err := s.modem.SendMsg(context.Background(), "+15551234567", "Test")
		if st != modem.Fail || err != nil {
			t.Fatalf("SendMsg() = %v, %v; want Fail", st, err)
		}
		if n := s.line.Available(); n != 0 {
			t.Errorf("%d bytes left pending", n)
		}
	})

	t.Run("Stale input flushed first", func(t *testing.T) {
		s := newSession(t, nil)
		s.transport.SendData("\r\nRING\r\n")
		s.transport.
			Expect(`AT+CMGS="+15551234567"`, "").
			Expect("Test", "\r\n+CMGS: 9\r\n")

		if ref, st, _ := s.modem.SendMsg(context.Background(), "+15551234567", "Test"); st != modem.OK || ref != 9 {
			t.Errorf("SendMsg() = %d, %v", ref, st)
		}
	})

	t.Run("Ctrl-Z in body", func(t *testing.T) {
		s := newSession(t, nil)
		_, st, err := s.modem.SendMsg(context.Background(), "+15551234567", "a\x1ab")
		if st != modem.Fail || !errors.Is(err, modem.ErrInvalidMessage) {
			t.Errorf("SendMsg() = %v, %v; want Fail, ErrInvalidMessage", st, err)
		}
		if got := s.transport.Written(); got != "" {
			t.Errorf("wrote %q", got)
		}
	})
}

func TestDeleteMsg(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  modem.Status
	}{
		{name: "OK", reply: "\r\nOK\r\n", want: modem.OK},
		{name: "Lower case ok", reply: "\r\nok\r\n", want: modem.OK},
		{name: "ERROR", reply: "\r\nERROR\r\n", want: modem.Fail},
		{name: "CMS error", reply: "\r\n+CMS ERROR: 321\r\n", want: modem.Fail},
		{name: "Silence", reply: "", want: modem.Timeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, nil)
			s.transport.SendData("\r\n+CMTI: \"SM\",4\r\n")
			s.transport.Expect("AT+CMGD=4", tt.reply)

			st, err := s.modem.DeleteMsg(context.Background(), 4)
			if st != tt.want || err != nil {
				t.Errorf("DeleteMsg() = %v, %v; want %v", st, err, tt.want)
			}
		})
	}
}
