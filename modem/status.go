package modem

import (
	"fmt"

	"i4.energy/across/valvegw/at"
)

// Status is the outcome of a modem operation. It is the only value the
// application has to act on; the accompanying error only explains
// failures below the protocol.
type Status int

const (
	OK Status = iota
	// InvalidResponse means the response framing was broken. The stream is
	// out of step and should be flushed before the next command.
	InvalidResponse
	// Fail means a well-framed but negative answer.
	Fail
	// Timeout means nothing usable arrived within the budget, or the
	// context ended first.
	Timeout
	NetworkRegisteredHome
	NetworkSearching
	NetworkRegisteredRoaming
	NetworkError
	SimNotReady
	MsgEmpty
)

var statusNames = [...]string{
	OK:                       "OK",
	InvalidResponse:          "InvalidResponse",
	Fail:                     "Fail",
	Timeout:                  "Timeout",
	NetworkRegisteredHome:    "NetworkRegisteredHome",
	NetworkSearching:         "NetworkSearching",
	NetworkRegisteredRoaming: "NetworkRegisteredRoaming",
	NetworkError:             "NetworkError",
	SimNotReady:              "SimNotReady",
	MsgEmpty:                 "MsgEmpty",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Statuses lists every status in declaration order.
func Statuses() []Status {
	all := make([]Status, len(statusNames))
	for i := range all {
		all[i] = Status(i)
	}
	return all
}

// Registered reports whether s is one of the registered network states.
func (s Status) Registered() bool {
	return s == NetworkRegisteredHome || s == NetworkRegisteredRoaming
}

// CheckResponse validates that resp is exactly CRLF + expected + CRLF:
// broken framing is InvalidResponse, a content mismatch is Fail.
func CheckResponse(resp []byte, expected string) Status {
	switch at.CheckResponse(resp, expected) {
	case at.CheckOK:
		return OK
	case at.CheckMismatch:
		return Fail
	default:
		return InvalidResponse
	}
}

func registrationStatus(stat byte) Status {
	switch stat {
	case at.RegHome:
		return NetworkRegisteredHome
	case at.RegSearching:
		return NetworkSearching
	case at.RegRoaming:
		return NetworkRegisteredRoaming
	default:
		return NetworkError
	}
}
