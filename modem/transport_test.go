package modem

import (
	"context"
	"errors"
	"net"
	"testing"

	"go.bug.st/serial"
	"go.uber.org/mock/gomock"

	"i4.energy/across/valvegw/uart"
)

func TestSerialDialerRejects(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		dialer  SerialDialer
		ctx     context.Context
		wantErr error
		message string
	}{
		{name: "No port", ctx: context.Background(), message: "modem: serial port name is required"},
		{name: "Nil context", dialer: SerialDialer{PortName: "/dev/ttyS1"}, message: "modem: context is nil"},
		{name: "Canceled", dialer: SerialDialer{PortName: "/dev/ttyS1"}, ctx: canceled, wantErr: context.Canceled},
		{
			name:    "Nine data bits",
			dialer:  SerialDialer{PortName: "/dev/ttyS1", Serial: uart.Config{DataBits: 9}},
			ctx:     context.Background(),
			wantErr: ErrUnsupportedMode,
		},
		{
			name:   "Missing device",
			dialer: SerialDialer{PortName: "/dev/valvegw-missing", Serial: uart.Config{BaudRate: 9600, DataBits: 8, StopBits: 1}},
			ctx:    context.Background(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport, err := tt.dialer.Dial(tt.ctx)
			if err == nil || transport != nil {
				t.Fatalf("Dial() = %v, %v; want error", transport, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Dial() error = %v, want %v", err, tt.wantErr)
			}
			if tt.message != "" && err.Error() != tt.message {
				t.Errorf("Dial() error = %q, want %q", err, tt.message)
			}
		})
	}
}

func TestSerialMode(t *testing.T) {
	tests := []struct {
		name    string
		config  uart.Config
		want    serial.Mode
		wantErr error
	}{
		{
			name:   "Zero value is 9600 8N1",
			config: uart.Config{},
			want:   serial.Mode{BaudRate: 9600, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit},
		},
		{
			name:   "7E2",
			config: uart.Config{BaudRate: 19200, DataBits: 7, Parity: uart.ParityEven, StopBits: 2},
			want:   serial.Mode{BaudRate: 19200, DataBits: 7, Parity: serial.EvenParity, StopBits: serial.TwoStopBits},
		},
		{
			name:   "Odd parity with double speed",
			config: uart.Config{BaudRate: 115200, DataBits: 8, Parity: uart.ParityOdd, DoubleSpeed: true},
			want:   serial.Mode{BaudRate: 115200, DataBits: 8, Parity: serial.OddParity, StopBits: serial.OneStopBit},
		},
		{
			name:    "Nine data bits",
			config:  uart.Config{DataBits: 9},
			wantErr: ErrUnsupportedMode,
		},
		{
			name:    "Reserve parity",
			config:  uart.Config{Parity: uart.ParityReserve},
			wantErr: ErrUnsupportedMode,
		},
		{
			name:    "Out of range",
			config:  uart.Config{DataBits: 4},
			wantErr: uart.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := SerialMode(tt.config)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got: %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *mode != tt.want {
				t.Errorf("mode = %+v, want %+v", *mode, tt.want)
			}
		})
	}
}

func TestTCPDialer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("\r\nOK\r\n"))
	}()

	transport, err := TCPDialer{Address: ln.Addr().String()}.Dial(context.Background())
	if err != nil {
		t.Fatalf("unexpected dial error: %v", err)
	}
	defer transport.Close()

	buf := make([]byte, 6)
	n, err := transport.Read(buf)
	if err != nil || n == 0 {
		t.Errorf("read %d bytes, err %v", n, err)
	}

	if _, err := (TCPDialer{}).Dial(context.Background()); err == nil {
		t.Error("expected error for empty address")
	}
}

func TestDialerInterface(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDialer := NewMockDialer(ctrl)
	mockTransport := NewMockTransport(ctrl)

	var _ Dialer = mockDialer
	var _ Dialer = SerialDialer{}
	var _ Dialer = TCPDialer{}

	ctx := context.Background()
	mockDialer.EXPECT().Dial(ctx).Return(mockTransport, nil)

	transport, err := mockDialer.Dial(ctx)
	if err != nil {
		t.Errorf("unexpected dial error: %v", err)
	}
	if transport != mockTransport {
		t.Error("expected mock transport to be returned")
	}
}
