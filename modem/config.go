package modem

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"i4.energy/across/valvegw/uart"
)

// Framing selects how Init, Cmd and GetNetStat cut a whole response out of
// the byte stream. The per-line operations always use CR-terminated lines.
type Framing int

const (
	// FramingLine reads CR-terminated lines until a final result code or
	// until the line goes quiet.
	FramingLine Framing = iota
	// FramingSentinel takes one 'S'...'E' frame from the pending input.
	FramingSentinel
)

func (f Framing) String() string {
	switch f {
	case FramingLine:
		return "line"
	case FramingSentinel:
		return "sentinel"
	default:
		return fmt.Sprintf("Framing(%d)", int(f))
	}
}

// ParseFraming accepts line and sentinel.
func ParseFraming(s string) (Framing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "line", "cr":
		return FramingLine, nil
	case "sentinel":
		return FramingSentinel, nil
	}
	return FramingLine, fmt.Errorf("unknown framing %q", s)
}

// Recorder receives the outcome of every modem operation.
type Recorder interface {
	ObserveResult(op string, st Status, elapsed time.Duration)
}

type Config struct {
	Dialer  Dialer
	Serial  uart.Config
	Framing Framing
	Logger  *slog.Logger

	// Recorder is optional.
	Recorder Recorder

	// InitPoll bounds the wait for the first byte of the answer to AT.
	InitPoll PollConfig
	// CmdTick is the unit of the Cmd budget, 10 ticks per command byte.
	CmdTick time.Duration
	// NetStatPoll bounds the wait for a complete +CREG answer.
	NetStatPoll PollConfig
	// LineTimeout bounds each further line of a whole-response capture.
	LineTimeout time.Duration

	WaitMsgTimeout time.Duration
	ReadTimeout    time.Duration
	DeleteTimeout  time.Duration
	SendSettle     time.Duration
	SendTimeout    time.Duration

	// MaxResponse caps a captured response or line. The default holds a
	// 160 character text body with its CRLF and the +CMGR header line.
	MaxResponse int
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return c.Serial.Validate()
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.InitPoll == (PollConfig{}) {
		c.InitPoll = PollConfig{Interval: 10 * time.Millisecond, MaxRetries: 10}
	}
	if c.CmdTick == 0 {
		c.CmdTick = 10 * time.Millisecond
	}
	if c.NetStatPoll == (PollConfig{}) {
		c.NetStatPoll = PollConfig{Interval: 10 * time.Millisecond, MaxRetries: 10}
	}
	if c.LineTimeout == 0 {
		c.LineTimeout = 500 * time.Millisecond
	}
	if c.WaitMsgTimeout == 0 {
		c.WaitMsgTimeout = 250 * time.Millisecond
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = time.Second
	}
	if c.DeleteTimeout == 0 {
		c.DeleteTimeout = time.Second
	}
	if c.SendSettle == 0 {
		c.SendSettle = 100 * time.Millisecond
	}
	if c.SendTimeout == 0 {
		c.SendTimeout = 6 * time.Second
	}
	if c.MaxResponse == 0 {
		c.MaxResponse = 256
	}
}

// ConfigBuilder assembles a Config step by step.
//
//	cfg, err := modem.NewConfigBuilder().
//		WithDialer(modem.SerialDialer{PortName: "/dev/ttyUSB0"}).
//		WithLogger(logger).
//		Build()
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: Config{Serial: uart.DefaultConfig()}}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithSerial(s uart.Config) *ConfigBuilder {
	b.config.Serial = s
	return b
}

func (b *ConfigBuilder) WithFraming(f Framing) *ConfigBuilder {
	b.config.Framing = f
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

func (b *ConfigBuilder) WithRecorder(r Recorder) *ConfigBuilder {
	b.config.Recorder = r
	return b
}

// WithClock sets the time source of the serial line, and so of every
// wait the modem performs.
func (b *ConfigBuilder) WithClock(c uart.Clock) *ConfigBuilder {
	b.config.Serial.Clock = c
	return b
}

func (b *ConfigBuilder) WithInitPoll(p PollConfig) *ConfigBuilder {
	b.config.InitPoll = p
	return b
}

func (b *ConfigBuilder) WithCmdTick(d time.Duration) *ConfigBuilder {
	b.config.CmdTick = d
	return b
}

func (b *ConfigBuilder) WithNetStatPoll(p PollConfig) *ConfigBuilder {
	b.config.NetStatPoll = p
	return b
}

func (b *ConfigBuilder) WithLineTimeout(d time.Duration) *ConfigBuilder {
	b.config.LineTimeout = d
	return b
}

func (b *ConfigBuilder) WithWaitMsgTimeout(d time.Duration) *ConfigBuilder {
	b.config.WaitMsgTimeout = d
	return b
}

func (b *ConfigBuilder) WithReadTimeout(d time.Duration) *ConfigBuilder {
	b.config.ReadTimeout = d
	return b
}

func (b *ConfigBuilder) WithDeleteTimeout(d time.Duration) *ConfigBuilder {
	b.config.DeleteTimeout = d
	return b
}

func (b *ConfigBuilder) WithSendTiming(settle, timeout time.Duration) *ConfigBuilder {
	b.config.SendSettle = settle
	b.config.SendTimeout = timeout
	return b
}

func (b *ConfigBuilder) WithMaxResponse(n int) *ConfigBuilder {
	b.config.MaxResponse = n
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	cfg := b.config
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.MaxResponse < 0 || cfg.CmdTick < 0 {
		return Config{}, errors.New("negative modem budget")
	}
	cfg.setDefaults()
	return cfg, nil
}
