package standalone

import (
	"image"
	"sync"

	"github.com/user-none/retrohost/bridge"
)

// SharedFramebuffer holds RGBA pixels written by the emulation goroutine
// and read by Ebiten's Draw() method. Uses separate write and read buffers
// so the emu goroutine can write new data while Draw uses the read copy.
type SharedFramebuffer struct {
	mu          sync.Mutex
	writePixels []byte // Written by emu goroutine under lock
	readPixels  []byte // Snapshot copied on Read for safe external use
	width       int
	height      int
}

// NewSharedFramebuffer creates an empty framebuffer. Storage grows to fit
// the largest frame seen.
func NewSharedFramebuffer() *SharedFramebuffer {
	return &SharedFramebuffer{}
}

// Update converts a core frame to RGBA. It is the bridge's video callback,
// so the frame is only valid for the duration of the call.
func (sf *SharedFramebuffer) Update(frame *bridge.Frame) {
	sf.mu.Lock()
	sf.writePixels = frame.ToRGBA(sf.writePixels)
	sf.width = frame.Width
	sf.height = frame.Height
	sf.mu.Unlock()
}

// Read returns a snapshot of the current framebuffer state.
// Copies the write buffer into the read buffer under the lock,
// then returns the read buffer which is safe to use until the next Read.
func (sf *SharedFramebuffer) Read() (pixels []byte, width, height int) {
	sf.mu.Lock()
	width, height = sf.width, sf.height
	n := width * height * 4
	if cap(sf.readPixels) < n {
		sf.readPixels = make([]byte, n)
	}
	sf.readPixels = sf.readPixels[:n]
	copy(sf.readPixels, sf.writePixels[:n])
	pixels = sf.readPixels
	sf.mu.Unlock()
	return
}

// Image returns an independent copy of the current frame, or nil before
// the first frame.
func (sf *SharedFramebuffer) Image() *image.RGBA {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.width == 0 || sf.height == 0 {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, sf.width, sf.height))
	copy(img.Pix, sf.writePixels[:sf.width*sf.height*4])
	return img
}
