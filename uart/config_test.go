package uart_test

import (
	"errors"
	"testing"
	"time"

	"i4.energy/across/valvegw/uart"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*uart.Config)
		wantErr bool
	}{
		{name: "Default", mutate: func(*uart.Config) {}},
		{name: "Zero value", mutate: func(c *uart.Config) { *c = uart.Config{} }},
		{name: "Six data bits", mutate: func(c *uart.Config) { c.DataBits = 6 }},
		{name: "Nine data bits", mutate: func(c *uart.Config) { c.DataBits = 9 }},
		{name: "Five data bits", mutate: func(c *uart.Config) { c.DataBits = 5 }, wantErr: true},
		{name: "Ten data bits", mutate: func(c *uart.Config) { c.DataBits = 10 }, wantErr: true},
		{name: "Two stop bits", mutate: func(c *uart.Config) { c.StopBits = 2 }},
		{name: "Three stop bits", mutate: func(c *uart.Config) { c.StopBits = 3 }, wantErr: true},
		{name: "Reserve parity", mutate: func(c *uart.Config) { c.Parity = uart.ParityReserve }},
		{name: "Unknown parity", mutate: func(c *uart.Config) { c.Parity = uart.Parity(9) }, wantErr: true},
		{name: "Unknown tx mode", mutate: func(c *uart.Config) { c.TxMode = uart.TxMode(4) }, wantErr: true},
		{name: "Negative baud", mutate: func(c *uart.Config) { c.BaudRate = -1 }, wantErr: true},
		{name: "Negative capacity", mutate: func(c *uart.Config) { c.RxCapacity = -8 }, wantErr: true},
		{name: "Negative timeout", mutate: func(c *uart.Config) { c.ReceiveTimeout = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := uart.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, uart.ErrInvalidConfig) {
					t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestParseParity(t *testing.T) {
	tests := []struct {
		in      string
		want    uart.Parity
		wantErr bool
	}{
		{in: "", want: uart.ParityNone},
		{in: "none", want: uart.ParityNone},
		{in: "EVEN", want: uart.ParityEven},
		{in: "o", want: uart.ParityOdd},
		{in: "reserve", want: uart.ParityReserve},
		{in: "mark", wantErr: true},
	}

	for _, tt := range tests {
		got, err := uart.ParseParity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseParity(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseParity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTxMode(t *testing.T) {
	tests := []struct {
		in      string
		want    uart.TxMode
		wantErr bool
	}{
		{in: "", want: uart.TxBlocking},
		{in: "blocking", want: uart.TxBlocking},
		{in: "Interrupt", want: uart.TxInterrupt},
		{in: "dma", wantErr: true},
	}

	for _, tt := range tests {
		got, err := uart.ParseTxMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTxMode(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseTxMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr && got.String() == "" {
			t.Errorf("%v has no name", got)
		}
	}
}
