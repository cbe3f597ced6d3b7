package at

import (
	"bytes"
	"strconv"
	"strings"
)

// Check is the outcome of validating a CRLF-framed response.
type Check int

const (
	CheckOK       Check = iota // framing intact, content matches
	CheckFraming               // leading or trailing CRLF missing
	CheckMismatch              // framing intact, content differs
)

// CheckResponse validates that resp is exactly CRLF + expected + CRLF.
// Framing is checked first: the two leading bytes and the two bytes at
// len(resp)-2 must both be CR LF. Only then is the interior compared.
func CheckResponse(resp []byte, expected string) Check {
	n := len(resp)
	if n < 2*len(CRLF) {
		return CheckFraming
	}
	if resp[0] != CR || resp[1] != LF {
		return CheckFraming
	}
	if resp[n-2] != CR || resp[n-1] != LF {
		return CheckFraming
	}
	if string(resp[2:n-2]) != expected {
		return CheckMismatch
	}
	return CheckOK
}

// ParseRegistration extracts <stat> from a "+CREG: <n>,<stat>" answer.
// The field is located by the grammar (prefix, then first comma on the
// same line) rather than by RegistrationStatOffset, so a multi-digit <n>
// or a leading echo still parse.
func ParseRegistration(resp []byte) (byte, bool) {
	i := bytes.Index(resp, []byte(Registration))
	if i < 0 {
		return 0, false
	}
	rest := resp[i+len(Registration):]
	comma := bytes.IndexByte(rest, ',')
	if comma < 0 {
		return 0, false
	}
	if eol := bytes.IndexAny(rest, CRLF); eol >= 0 && eol < comma {
		return 0, false
	}
	j := comma + 1
	for j < len(rest) && rest[j] == ' ' {
		j++
	}
	if j >= len(rest) {
		return 0, false
	}
	return rest[j], true
}

// ParseNewMessage extracts the storage slot from a +CMTI URC such as
// `+CMTI: "SM",7`. The line must start with the tag.
func ParseNewMessage(line string) (int, bool) {
	if !strings.HasPrefix(line, UrcNewMsg) {
		return 0, false
	}
	comma := strings.IndexByte(line, ',')
	if comma < 0 {
		return 0, false
	}
	return leadingInt(line[comma+1:])
}

// ParseMessageRef extracts <mr> from a "+CMGS: <mr>" result. Firmware
// that drops the leading '+' is accepted as well.
func ParseMessageRef(line string) (int, bool) {
	tag := MessageRef[1:]
	switch {
	case strings.HasPrefix(line, MessageRef):
		line = line[len(MessageRef):]
	case strings.HasPrefix(line, tag):
		line = line[len(tag):]
	default:
		return 0, false
	}
	return leadingInt(line)
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " ")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ReadHeader is the first line of a text-mode AT+CMGR answer:
//
//	+CMGR: <stat>,<oa>,[<alpha>],<scts>
type ReadHeader struct {
	Status string
	Sender string
	Time   string
}

// ParseReadHeader splits a +CMGR header into its fields. Quoted fields
// may contain commas; missing trailing fields are left empty.
func ParseReadHeader(line string) (ReadHeader, bool) {
	if !strings.HasPrefix(line, ReadResult) {
		return ReadHeader{}, false
	}
	fields := splitQuoted(strings.TrimSpace(line[len(ReadResult):]))

	var h ReadHeader
	if len(fields) > 0 {
		h.Status = fields[0]
	}
	if len(fields) > 1 {
		h.Sender = fields[1]
	}
	if len(fields) > 3 {
		h.Time = fields[3]
	}
	return h, true
}

func splitQuoted(s string) []string {
	var (
		fields []string
		field  strings.Builder
		quoted bool
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			quoted = !quoted
		case c == ',' && !quoted:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}
	return append(fields, field.String())
}
