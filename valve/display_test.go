package valve

import (
	"testing"

	"i4.energy/across/valvegw/modem"
)

func TestStatusTexts(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Init OK", InitText(modem.OK), "OK!"},
		{"Init timeout", InitText(modem.Timeout), "No Response!"},
		{"Init invalid", InitText(modem.InvalidResponse), "Invalid Response!"},
		{"Init fail", InitText(modem.Fail), "Fail!"},
		{"Init other", InitText(modem.SimNotReady), "Unknown Error!"},
		{"Home network", NetworkText(modem.NetworkRegisteredHome), "Network Found."},
		{"Roaming", NetworkText(modem.NetworkRegisteredRoaming), "Network Found."},
		{"Still searching", NetworkText(modem.NetworkSearching), "Can not Connect to NW!"},
		{"Network error", NetworkText(modem.NetworkError), "Can not Connect to NW!"},
		{"Sent", SendText(42, modem.OK), "Success  42"},
		{"Send timeout", SendText(0, modem.Timeout), "Time out!"},
		{"Send fail", SendText(0, modem.Fail), "Fail!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
