package uart

import (
	"context"
	"time"
)

// Sentinel bytes delimiting a frame in sentinel framing.
const (
	StartSentinel byte = 'S'
	EndSentinel   byte = 'E'
)

const (
	cr = '\r'
	lf = '\n'
)

// ReceiveFramed drains one sentinel-delimited frame from the RX ring without
// waiting. Bytes before StartSentinel are discarded. Collection ends at
// EndSentinel, which is consumed but not returned, or when the ring runs
// dry. If no start sentinel is pending the record is empty.
//
// A frame longer than limit is cut: the first limit bytes are returned with
// ErrResponseTooLong and the remainder is discarded through EndSentinel.
// A non-positive limit means the RX capacity.
func (l *Line) ReceiveFramed(limit int) ([]byte, error) {
	if limit <= 0 {
		limit = l.rx.Cap()
	}

	for {
		b, ok := l.rx.Pop()
		if !ok {
			return nil, nil
		}
		if b == StartSentinel {
			break
		}
	}

	rec := make([]byte, 0, min(limit, l.rx.Available()))
	for {
		b, ok := l.rx.Pop()
		if !ok || b == EndSentinel {
			return rec, nil
		}
		if len(rec) == limit {
			l.discardThrough(EndSentinel)
			return rec, ErrResponseTooLong
		}
		rec = append(rec, b)
	}
}

func (l *Line) discardThrough(end byte) {
	for {
		b, ok := l.rx.Pop()
		if !ok || b == end {
			return
		}
	}
}

// ReceiveLine reads one CR-terminated line into dst and returns the number
// of bytes stored, terminator included. A run of CR and LF bytes before the
// first other byte is stored but never ends the line, so the CRLF opening a
// modem response is skipped over. An LF already pending right after the
// terminating CR is consumed and counted as well.
//
// The whole read shares one deadline, timeout from now or ReceiveTimeout if
// timeout is not positive. On expiry or cancellation the partial count is
// returned with ErrTimeout. When dst fills up before a CR arrives the
// result is len(dst) and ErrResponseTooLong.
func (l *Line) ReceiveLine(ctx context.Context, dst []byte, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		timeout = l.cfg.ReceiveTimeout
	}
	deadline := l.clock.Now().Add(timeout)

	n := 0
	started := false
	for {
		if n == len(dst) {
			return n, ErrResponseTooLong
		}

		b, ok := l.rx.Pop()
		if !ok {
			if !l.sleep(ctx, deadline) {
				return n, ErrTimeout
			}
			continue
		}

		dst[n] = b
		n++
		switch {
		case b == cr && started:
			if next, ok := l.rx.Peek(); ok && next == lf && n < len(dst) {
				l.rx.Pop()
				dst[n] = lf
				n++
			}
			return n, nil
		case b != cr && b != lf:
			started = true
		}
	}
}
