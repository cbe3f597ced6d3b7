package modem

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"i4.energy/across/valvegw/at"
)

// TestTransport is a test helper that plays the modem side of a scripted
// conversation.
//
// Written bytes are collected until a CR or Ctrl-Z ends a command. The
// command is matched against the next scripted exchange and the reply is
// delivered as if the modem had sent it. Once Attach is called replies go
// straight to the receive handler, in the writer's goroutine, so a test on
// a simulated clock sees them before its first poll. Until then they are
// queued for Read, like bytes from a real serial port.
type TestTransport struct {
	mu       sync.Mutex
	script   []exchange
	pending  []byte
	written  bytes.Buffer
	problems []string
	receive  func(byte)

	readChan chan []byte
	closed   bool
}

type exchange struct {
	cmd   string
	reply string
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 64),
	}
}

// Expect appends one exchange to the script. cmd is compared without its
// terminator; reply may be empty to simulate a silent modem.
func (t *TestTransport) Expect(cmd, reply string) *TestTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.script = append(t.script, exchange{cmd: cmd, reply: reply})
	return t
}

// Attach delivers every later reply to receive, typically uart.Line.Receive.
func (t *TestTransport) Attach(receive func(byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.receive = receive
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}

	t.written.Write(p)
	for _, b := range p {
		if b != at.CR && b != at.CtrlZ {
			t.pending = append(t.pending, b)
			continue
		}
		cmd := string(t.pending)
		t.pending = t.pending[:0]
		t.answer(cmd)
	}
	return len(p), nil
}

func (t *TestTransport) answer(cmd string) {
	if len(t.script) == 0 {
		t.problems = append(t.problems, fmt.Sprintf("unexpected command %q", cmd))
		return
	}
	next := t.script[0]
	t.script = t.script[1:]
	if next.cmd != cmd {
		t.problems = append(t.problems, fmt.Sprintf("got command %q, want %q", cmd, next.cmd))
	}
	t.deliver(next.reply)
}

func (t *TestTransport) deliver(data string) {
	if data == "" {
		return
	}
	if t.receive != nil {
		for i := 0; i < len(data); i++ {
			t.receive(data[i])
		}
		return
	}
	t.readChan <- []byte(data)
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	data, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData delivers data outside of any exchange.
// This simulates an unsolicited result code from the modem.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.deliver(data)
	}
}

// Written returns everything written so far.
func (t *TestTransport) Written() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written.String()
}

// Unmet lists unconsumed exchanges and every command that did not match
// the script. It is empty when the conversation went as scripted.
func (t *TestTransport) Unmet() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := append([]string(nil), t.problems...)
	for _, e := range t.script {
		out = append(out, fmt.Sprintf("command %q never sent", e.cmd))
	}
	return out
}
