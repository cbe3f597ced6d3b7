package valve

import (
	"fmt"
	"log/slog"

	"i4.energy/across/valvegw/modem"
)

// Display shows one line of status text to the operator.
type Display interface {
	Show(text string)
}

// LogDisplay writes display text to a logger.
type LogDisplay struct {
	Logger *slog.Logger
}

func (d LogDisplay) Show(text string) {
	if d.Logger != nil {
		d.Logger.Info("Display", "text", text)
	}
}

const (
	textInitializing = "Initializing SIM900"
	textSearching    = "Searching Network"
	textNetworkFound = "Network Found."
	textNoNetwork    = "Can not Connect to NW!"
	textWaiting      = "Waiting For Message!!!"
	textReceived     = "MSG Received"
	textReadError    = "Error in Reading Message"
	textDeleteError  = "Error in Deleting Message!"
)

// InitText is the display text for the outcome of modem initialization.
func InitText(st modem.Status) string {
	switch st {
	case modem.OK:
		return "OK!"
	case modem.Timeout:
		return "No Response!"
	case modem.InvalidResponse:
		return "Invalid Response!"
	case modem.Fail:
		return "Fail!"
	}
	return "Unknown Error!"
}

// NetworkText is the display text for the result of the network search.
func NetworkText(st modem.Status) string {
	if st.Registered() {
		return textNetworkFound
	}
	return textNoNetwork
}

// SendText is the display text for the outcome of sending an SMS.
func SendText(ref int, st modem.Status) string {
	switch st {
	case modem.OK:
		return fmt.Sprintf("Success %3d", ref)
	case modem.Timeout:
		return "Time out!"
	}
	return "Fail!"
}
