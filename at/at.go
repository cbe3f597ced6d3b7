package at

import "strconv"

const (
	// Terminal Control
	CR     = '\r'
	LF     = '\n'
	CRLF   = "\r\n"
	Prompt = "> "
	// CtrlZ terminates an SMS body in text mode.
	CtrlZ = '\x1a'

	// Response Codes
	OK         = "OK"
	ERROR      = "ERROR"
	NoCarrier  = "NO CARRIER"
	NoDialtone = "NO DIALTONE"
	Busy       = "BUSY"
	NoAnswer   = "NO ANSWER"
	CmeError   = "+CME ERROR:"
	CmsError   = "+CMS ERROR:"

	// SimNotReady is the +CMS error a SIM900 answers AT+CMGR with while
	// the SIM is still initialising.
	SimNotReady = "+CMS ERROR: 517"

	// Information responses
	Registration = "+CREG:"
	MessageRef   = "+CMGS:"
	ReadResult   = "+CMGR:"

	// URCs (Unsolicited Result Codes)
	UrcNewMsg         = "+CMTI:"
	UrcMessageReport  = "+CDSI:"
	UrcSignalStrength = "+CSQ:"
	UrcCall           = "RING"

	// Commands
	CmdAt           = "AT"
	CmdEchoOff      = "ATE0"
	CmdSetTextMode  = "AT+CMGF=1"
	CmdRegistration = "AT+CREG?"
	cmdReadMsg      = "AT+CMGR="
	cmdDeleteMsg    = "AT+CMGD="
	cmdSendMsg      = "AT+CMGS="
)

// The answer to AT+CREG? (echo off) is
//
//	<CR><LF>+CREG: <n>,<stat><CR><LF><CR><LF>OK<CR><LF>
//
// With the single digit <n> every SIM900 firmware reports, <stat> sits at
// byte 11 and the complete answer is 20 bytes long.
const (
	RegistrationStatOffset  = len(CRLF) + len(Registration+" ") + len("0,")
	RegistrationResponseLen = len(CRLF+Registration+" 0,1"+CRLF+CRLF+OK+CRLF)
)

// Registration <stat> values of +CREG.
const (
	RegNotSearching byte = '0'
	RegHome         byte = '1'
	RegSearching    byte = '2'
	RegDenied       byte = '3'
	RegUnknown      byte = '4'
	RegRoaming      byte = '5'
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CSQ: ...)
	TypePrompt                     // SMS input prompt
)

// ReadMessage builds AT+CMGR=<slot>.
func ReadMessage(slot int) string {
	return cmdReadMsg + strconv.Itoa(slot)
}

// DeleteMessage builds AT+CMGD=<slot>.
func DeleteMessage(slot int) string {
	return cmdDeleteMsg + strconv.Itoa(slot)
}

// SendMessage builds AT+CMGS="<number>". Quotes already present around
// number are not doubled.
func SendMessage(number string) string {
	if len(number) >= 2 && number[0] == '"' && number[len(number)-1] == '"' {
		number = number[1 : len(number)-1]
	}
	b := make([]byte, 0, len(cmdSendMsg)+len(number)+2)
	b = append(b, cmdSendMsg...)
	b = append(b, '"')
	b = append(b, number...)
	b = append(b, '"')
	return string(b)
}
