package at

import (
	"bufio"
	"bytes"
	"strings"
)

// Splitter is a bufio.SplitFunc over SIM900 output. Tokens end at CRLF,
// except the "> " prompt after AT+CMGS which never gets a line ending.
// A trailing fragment without CRLF becomes the last token at EOF.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if bytes.HasPrefix(data, []byte(Prompt)) {
		return len(Prompt), data[0:len(Prompt)], nil
	}

	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		return i + len(CRLF), data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Lines splits a captured response into its non-empty lines.
func Lines(resp []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(resp))
	scanner.Split(Splitter)
	for scanner.Scan() {
		if token := scanner.Text(); token != "" {
			lines = append(lines, token)
		}
	}
	return lines
}

// Content strips the line framing from a single received line: any
// leading CR/LF run and the trailing CR/LF terminator.
func Content(line []byte) string {
	return strings.TrimRight(strings.TrimLeft(string(line), CRLF), CRLF)
}

// Classify sorts a response line into final result, URC, prompt or data.
func Classify(line string) ResponseType {
	if line == Prompt || line == strings.TrimSpace(Prompt) {
		return TypePrompt
	}

	// Direct matches for final results
	switch line {
	case OK, ERROR, NoCarrier, NoDialtone, Busy, NoAnswer:
		return TypeFinal
	}

	// Prefix matches
	switch {
	case strings.HasPrefix(line, CmeError), strings.HasPrefix(line, CmsError):
		return TypeFinal
	case strings.HasPrefix(line, UrcNewMsg), line == UrcCall:
		return TypeURC
	case strings.HasPrefix(line, Prompt):
		return TypePrompt
	default:
		return TypeData
	}
}
