package client

import "sync"

// RingBuffer is a fixed-capacity circular buffer of raw payloads.
// It lets handlers attached after the channel opened catch up on recent
// payloads before receiving live ones.
type RingBuffer struct {
	mu       sync.RWMutex
	buf      [][]byte
	capacity int
	pos      int // next write position
	full     bool
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		buf:      make([][]byte, capacity),
		capacity: capacity,
	}
}

// Write adds a payload to the ring buffer.
func (rb *RingBuffer) Write(payload []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.buf[rb.pos] = payload
	rb.pos = (rb.pos + 1) % rb.capacity
	if rb.pos == 0 {
		rb.full = true
	}
}

// Len returns the number of payloads currently buffered.
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.length()
}

func (rb *RingBuffer) length() int {
	if rb.full {
		return rb.capacity
	}
	return rb.pos
}

// ReadAll returns all payloads in the buffer in arrival order.
func (rb *RingBuffer) ReadAll() [][]byte {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	result := make([][]byte, 0, rb.length())
	if rb.full {
		result = append(result, rb.buf[rb.pos:]...)
	}
	return append(result, rb.buf[:rb.pos]...)
}
