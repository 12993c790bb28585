package bridge

// BufferCache hands out a reusable byte buffer. The backing array only
// grows; asking for the same or a smaller size returns the same memory.
//
// The slice returned by Get is overwritten by the next Get, so it must not
// be retained past the callback it was handed to.
type BufferCache struct {
	buf []byte
}

// Get returns a buffer of exactly size bytes.
func (c *BufferCache) Get(size int) []byte {
	if size < 0 {
		size = 0
	}
	if cap(c.buf) < size {
		c.buf = make([]byte, size)
	}
	return c.buf[:size]
}

// Cap returns the capacity of the cached buffer.
func (c *BufferCache) Cap() int {
	return cap(c.buf)
}
