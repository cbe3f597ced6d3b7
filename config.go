package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"i4.energy/across/valvegw/modem"
	"i4.energy/across/valvegw/uart"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string
	// ModemAddress dials a modem emulator over TCP instead of the serial port
	ModemAddress string
	// BaudRate is the baud rate for serial communication with the modem (e.g. 9600)
	BaudRate int
	DataBits int
	// Parity is one of none, even, odd
	Parity      string
	StopBits    int
	DoubleSpeed bool
	// TxMode is blocking or interrupt
	TxMode string
	// Framing is line or sentinel
	Framing string
	// ReceiveTimeout bounds every wait for a single received byte
	ReceiveTimeout time.Duration
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// JournalPath is the SQLite file recording traffic; empty disables it
	JournalPath string
	// TestNumber receives a test message after start-up; empty disables it
	TestNumber string
	// MaxResponse caps one modem response line in bytes
	MaxResponse int

	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
	MQTTPrefix   string
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 9600
		c.DataBits = 8
		c.Parity = "none"
		c.StopBits = 1
		c.TxMode = "blocking"
		c.Framing = "line"
		c.ReceiveTimeout = 5 * time.Second
		c.LogLevel = "info"
		c.JournalPath = "data/journal.db"
		c.MaxResponse = 256
		c.MQTTClientID = "valvegw"
		c.MQTTPrefix = "valvegw"
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		for name, dst := range map[string]*string{
			"BIND_ADDRESS":   &c.BindAddress,
			"SERIAL_PORT":    &c.SerialPort,
			"MODEM_ADDRESS":  &c.ModemAddress,
			"PARITY":         &c.Parity,
			"TX_MODE":        &c.TxMode,
			"FRAMING":        &c.Framing,
			"LOG_LEVEL":      &c.LogLevel,
			"JOURNAL_PATH":   &c.JournalPath,
			"TEST_NUMBER":    &c.TestNumber,
			"MQTT_BROKER":    &c.MQTTBroker,
			"MQTT_CLIENT_ID": &c.MQTTClientID,
			"MQTT_USERNAME":  &c.MQTTUsername,
			"MQTT_PASSWORD":  &c.MQTTPassword,
			"MQTT_PREFIX":    &c.MQTTPrefix,
		} {
			if v := os.Getenv(name); v != "" {
				*dst = v
			}
		}

		for name, dst := range map[string]*int{
			"BAUD_RATE":    &c.BaudRate,
			"DATA_BITS":    &c.DataBits,
			"STOP_BITS":    &c.StopBits,
			"MAX_RESPONSE": &c.MaxResponse,
		} {
			if v := os.Getenv(name); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				*dst = n
			}
		}

		if v := os.Getenv("DOUBLE_SPEED"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("DOUBLE_SPEED: %w", err)
			}
			c.DoubleSpeed = b
		}

		if v := os.Getenv("RECEIVE_TIMEOUT"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("RECEIVE_TIMEOUT: %w", err)
			}
			c.ReceiveTimeout = d
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *flag.Flag) {
			v := f.Value.String()
			switch f.Name {
			case "bind-address":
				c.BindAddress = v
			case "serial-port":
				c.SerialPort = v
			case "modem-address":
				c.ModemAddress = v
			case "baud-rate":
				err = errors.Join(err, setInt(&c.BaudRate, f.Name, v))
			case "data-bits":
				err = errors.Join(err, setInt(&c.DataBits, f.Name, v))
			case "parity":
				c.Parity = v
			case "stop-bits":
				err = errors.Join(err, setInt(&c.StopBits, f.Name, v))
			case "double-speed":
				c.DoubleSpeed = v == "true"
			case "tx-mode":
				c.TxMode = v
			case "framing":
				c.Framing = v
			case "receive-timeout":
				d, perr := time.ParseDuration(v)
				if perr != nil {
					err = errors.Join(err, fmt.Errorf("%s: %w", f.Name, perr))
				} else {
					c.ReceiveTimeout = d
				}
			case "max-response":
				err = errors.Join(err, setInt(&c.MaxResponse, f.Name, v))
			case "log-level":
				c.LogLevel = v
			case "journal":
				c.JournalPath = v
			case "test-number":
				c.TestNumber = v
			case "mqtt-broker":
				c.MQTTBroker = v
			case "mqtt-prefix":
				c.MQTTPrefix = v
			}
		})
		return err
	}
}

func setInt(dst *int, name, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

// Serial returns the serial line settings.
func (c *Config) Serial() (uart.Config, error) {
	parity, err := uart.ParseParity(c.Parity)
	if err != nil {
		return uart.Config{}, err
	}
	txMode, err := uart.ParseTxMode(c.TxMode)
	if err != nil {
		return uart.Config{}, err
	}

	s := uart.DefaultConfig()
	s.BaudRate = c.BaudRate
	s.DataBits = c.DataBits
	s.Parity = parity
	s.StopBits = c.StopBits
	s.DoubleSpeed = c.DoubleSpeed
	s.TxMode = txMode
	s.ReceiveTimeout = c.ReceiveTimeout
	return s, s.Validate()
}

// Dialer returns the TCP dialer when a modem address is configured and the
// serial port dialer otherwise.
func (c *Config) Dialer(serial uart.Config, logger *slog.Logger) modem.Dialer {
	if c.ModemAddress != "" {
		return modem.TCPDialer{Address: c.ModemAddress}
	}
	return modem.SerialDialer{PortName: c.SerialPort, Serial: serial, Logger: logger}
}
