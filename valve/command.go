package valve

import (
	"fmt"
	"strings"
)

// Command is an instruction carried in the body of an SMS.
type Command int

const (
	Unknown Command = iota
	OpenValve1
	CloseValve1
	OpenValve2
	CloseValve2
)

var commandNames = [...]string{
	Unknown:     "Unknown",
	OpenValve1:  "OpenValve1",
	CloseValve1: "CloseValve1",
	OpenValve2:  "OpenValve2",
	CloseValve2: "CloseValve2",
}

func (c Command) String() string {
	if c >= 0 && int(c) < len(commandNames) {
		return commandNames[c]
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// ParseCommand matches a message body against the known commands. The
// comparison is on the whole body, exact case, ignoring surrounding white
// space.
func ParseCommand(body string) (Command, bool) {
	body = strings.TrimSpace(body)
	for c := OpenValve1; c <= CloseValve2; c++ {
		if body == commandNames[c] {
			return c, true
		}
	}
	return Unknown, false
}

// Valve returns the 1-based valve the command drives, or 0.
func (c Command) Valve() int {
	switch c {
	case OpenValve1, CloseValve1:
		return 1
	case OpenValve2, CloseValve2:
		return 2
	}
	return 0
}

// Open reports whether the command opens its valve.
func (c Command) Open() bool {
	return c == OpenValve1 || c == OpenValve2
}

// CommandFor returns the command that moves valve n to the given position.
func CommandFor(n int, open bool) (Command, bool) {
	switch {
	case n == 1 && open:
		return OpenValve1, true
	case n == 1:
		return CloseValve1, true
	case n == 2 && open:
		return OpenValve2, true
	case n == 2:
		return CloseValve2, true
	}
	return Unknown, false
}
