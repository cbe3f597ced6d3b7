package modem_test

import (
	"i4.energy/across/valvegw/modem"
	"i4.energy/across/valvegw/uart"
)

// MockSequenceBuilder scripts a MockTransport for a blocking line: every
// command byte is one Write call, and the write of the terminator feeds the
// reply into the line's receive handler.
type MockSequenceBuilder struct {
	transport *modem.MockTransport
	line      *uart.Line
	calls     []any
}

func NewMockSequence(transport *modem.MockTransport, line *uart.Line) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		line:      line,
		calls:     []any{},
	}
}

func (b *MockSequenceBuilder) Command(wire, reply string) *MockSequenceBuilder {
	for i := 0; i < len(wire)-1; i++ {
		b.calls = append(b.calls, b.transport.EXPECT().Write([]byte{wire[i]}).Return(1, nil))
	}
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte{wire[len(wire)-1]}).DoAndReturn(func(p []byte) (int, error) {
			for i := 0; i < len(reply); i++ {
				b.line.Receive(reply[i])
			}
			return len(p), nil
		}),
	)
	return b
}

func (b *MockSequenceBuilder) AT(reply string) *MockSequenceBuilder {
	return b.Command("AT\r", reply)
}

func (b *MockSequenceBuilder) EchoOff() *MockSequenceBuilder {
	return b.Command("ATE0\r", "\r\nOK\r\n")
}

func (b *MockSequenceBuilder) SMSTextMode() *MockSequenceBuilder {
	return b.Command("AT+CMGF=1\r", "\r\nOK\r\n")
}

func (b *MockSequenceBuilder) Registration(stat byte) *MockSequenceBuilder {
	return b.Command("AT+CREG?\r", "\r\n+CREG: 0,"+string(stat)+"\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}
