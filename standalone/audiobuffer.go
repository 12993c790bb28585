package standalone

import (
	"io"
	"sync"
)

// AudioRingBuffer is a fixed-size byte FIFO between the emulation goroutine
// and oto's pull-model player. Writes never block: when the buffer is full
// the oldest bytes are dropped. Reads block until data arrives or the
// buffer is closed.
type AudioRingBuffer struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []byte
	readPos  int
	writePos int
	count    int
	closed   bool
}

// NewAudioRingBuffer creates a ring buffer holding at most capacity bytes.
func NewAudioRingBuffer(capacity int) *AudioRingBuffer {
	rb := &AudioRingBuffer{buf: make([]byte, capacity)}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write appends data, dropping the oldest buffered bytes on overflow.
// Writes after Close are ignored.
func (rb *AudioRingBuffer) Write(data []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed || len(data) == 0 {
		return
	}

	size := len(rb.buf)
	// Only the newest capacity bytes can survive
	if len(data) >= size {
		copy(rb.buf, data[len(data)-size:])
		rb.readPos = 0
		rb.writePos = 0
		rb.count = size
		rb.cond.Broadcast()
		return
	}

	if over := rb.count + len(data) - size; over > 0 {
		rb.readPos = (rb.readPos + over) % size
		rb.count -= over
	}

	n := copy(rb.buf[rb.writePos:], data)
	if n < len(data) {
		copy(rb.buf, data[n:])
	}
	rb.writePos = (rb.writePos + len(data)) % size
	rb.count += len(data)
	rb.cond.Broadcast()
}

// Read implements io.Reader. It blocks until at least one byte is buffered
// and returns io.EOF once the buffer is closed and drained.
func (rb *AudioRingBuffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count == 0 && !rb.closed {
		rb.cond.Wait()
	}
	if rb.count == 0 {
		return 0, io.EOF
	}

	n := min(len(p), rb.count)
	first := copy(p[:n], rb.buf[rb.readPos:])
	if first < n {
		copy(p[first:n], rb.buf)
	}
	rb.readPos = (rb.readPos + n) % len(rb.buf)
	rb.count -= n
	return n, nil
}

// Buffered returns the number of unread bytes.
func (rb *AudioRingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Clear discards all buffered bytes.
func (rb *AudioRingBuffer) Clear() {
	rb.mu.Lock()
	rb.readPos = 0
	rb.writePos = 0
	rb.count = 0
	rb.mu.Unlock()
}

// Close stops accepting writes and wakes blocked readers. Buffered data can
// still be read.
func (rb *AudioRingBuffer) Close() {
	rb.mu.Lock()
	rb.closed = true
	rb.cond.Broadcast()
	rb.mu.Unlock()
}
