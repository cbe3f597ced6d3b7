package valve

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Valves is the number of outputs on the board.
const Valves = 2

// Actuator drives the physical outputs.
type Actuator interface {
	Set(valve int, open bool) error
}

// Event reports one applied command.
type Event struct {
	Valve   int       `json:"valve"`
	Open    bool      `json:"open"`
	Changed bool      `json:"changed"`
	Command string    `json:"command"`
	Source  string    `json:"source,omitempty"`
	At      time.Time `json:"at"`
}

// Observer is told about every applied command, after the output was set.
type Observer interface {
	ValveChanged(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) ValveChanged(e Event) { f(e) }

// State is the current position of one valve.
type State struct {
	Valve int  `json:"valve"`
	Open  bool `json:"open"`
}

// Bank holds the state of the valve outputs and fans out changes.
type Bank struct {
	// notify is held across a whole Apply so observers see changes in
	// the order they were made. It is taken before mu.
	notify    sync.Mutex
	mu        sync.Mutex
	actuator  Actuator
	open      [Valves]bool
	observers []Observer
	subs      map[chan Event]struct{}
	logger    *slog.Logger
	now       func() time.Time
}

// NewBank returns a bank with all valves closed. The actuator is not
// touched until the first command.
func NewBank(actuator Actuator, logger *slog.Logger, observers ...Observer) *Bank {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bank{
		actuator:  actuator,
		observers: observers,
		subs:      make(map[chan Event]struct{}),
		logger:    logger,
		now:       time.Now,
	}
}

// Apply drives the output named by cmd. Applying a command that does not
// change the state still sets the output again. Observers are called before
// Apply returns and must not call Apply themselves.
func (b *Bank) Apply(cmd Command, source string) (Event, error) {
	n := cmd.Valve()
	if n == 0 {
		return Event{}, fmt.Errorf("%w: %s", ErrInvalidValve, cmd)
	}

	b.notify.Lock()
	defer b.notify.Unlock()

	b.mu.Lock()
	if err := b.actuator.Set(n, cmd.Open()); err != nil {
		b.mu.Unlock()
		return Event{}, fmt.Errorf("set valve %d: %w", n, err)
	}
	ev := Event{
		Valve:   n,
		Open:    cmd.Open(),
		Changed: b.open[n-1] != cmd.Open(),
		Command: cmd.String(),
		Source:  source,
		At:      b.now(),
	}
	b.open[n-1] = ev.Open
	observers := b.observers
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("Dropping valve event for slow subscriber", "valve", n)
		}
	}
	b.mu.Unlock()

	for _, o := range observers {
		o.ValveChanged(ev)
	}
	return ev, nil
}

// States returns the position of every valve, valve 1 first.
func (b *Bank) States() []State {
	b.mu.Lock()
	defer b.mu.Unlock()
	states := make([]State, Valves)
	for i := range states {
		states[i] = State{Valve: i + 1, Open: b.open[i]}
	}
	return states
}

// Open reports whether valve n is open.
func (b *Bank) Open(n int) (bool, error) {
	if n < 1 || n > Valves {
		return false, fmt.Errorf("%w: %d", ErrInvalidValve, n)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open[n-1], nil
}

// Subscribe returns a channel receiving every later event. Events are
// dropped when the channel is full. The returned function unsubscribes
// and closes the channel.
func (b *Bank) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// LogActuator stands in for output pins by logging every change.
type LogActuator struct {
	Logger *slog.Logger
}

func (a LogActuator) Set(valve int, open bool) error {
	if a.Logger != nil {
		a.Logger.Info("Valve output", "valve", valve, "open", open)
	}
	return nil
}
