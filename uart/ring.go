package uart

import (
	"fmt"

	"go.uber.org/atomic"
)

// Ring is a fixed-capacity byte FIFO shared between exactly one producer
// and one consumer, typically an interrupt pump on one side and a polling
// caller on the other.
//
// The producer only ever stores the write index and the consumer only ever
// stores the read index, so no lock is needed. One slot of the backing
// array is kept free so that a full ring can be told apart from an empty
// one; Cap reports the usable capacity.
type Ring struct {
	buf   []byte
	read  atomic.Uint32
	write atomic.Uint32
}

// NewRing creates a ring holding up to capacity bytes.
// It panics if capacity is not positive.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		panic(fmt.Sprintf("uart: ring capacity must be > 0, got %d", capacity))
	}
	return &Ring{buf: make([]byte, capacity+1)}
}

func (r *Ring) next(i uint32) uint32 {
	i++
	if i == uint32(len(r.buf)) {
		return 0
	}
	return i
}

// Push appends b. It returns false and leaves the ring untouched when the
// ring is full. Producer side only.
func (r *Ring) Push(b byte) bool {
	w := r.write.Load()
	n := r.next(w)
	if n == r.read.Load() {
		return false
	}
	r.buf[w] = b
	r.write.Store(n)
	return true
}

// Pop removes the oldest byte. Consumer side only.
func (r *Ring) Pop() (byte, bool) {
	rd := r.read.Load()
	if rd == r.write.Load() {
		return 0, false
	}
	b := r.buf[rd]
	r.read.Store(r.next(rd))
	return b, true
}

// Peek returns the oldest byte without removing it. Consumer side only.
func (r *Ring) Peek() (byte, bool) {
	rd := r.read.Load()
	if rd == r.write.Load() {
		return 0, false
	}
	return r.buf[rd], true
}

// Available returns the number of bytes waiting to be popped.
func (r *Ring) Available() int {
	return r.count(r.read.Load(), r.write.Load())
}

func (r *Ring) count(rd, w uint32) int {
	if w >= rd {
		return int(w - rd)
	}
	return len(r.buf) - int(rd) + int(w)
}

// Free returns how many more bytes Push will accept.
func (r *Ring) Free() int {
	return r.Cap() - r.Available()
}

// Cap returns the usable capacity.
func (r *Ring) Cap() int {
	return len(r.buf) - 1
}

// Flush discards everything pending and returns how many bytes were
// dropped. Consumer side only.
func (r *Ring) Flush() int {
	rd := r.read.Load()
	w := r.write.Load()
	r.read.Store(w)
	return r.count(rd, w)
}
