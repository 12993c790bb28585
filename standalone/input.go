package standalone

import (
	"github.com/user-none/retrohost/bridge"
)

// InputSink receives host input events. bridge.Session implements it.
type InputSink interface {
	KeyDown(k bridge.KeyCode)
	KeyUp(k bridge.KeyCode)
	Motion(x, y float32)
}

// InputForwarder turns polled input snapshots into the press, release and
// motion events the bridge expects. Only changes are forwarded.
type InputForwarder struct {
	sink    InputSink
	held    map[bridge.KeyCode]bool
	motionX float32
	motionY float32
}

// NewInputForwarder creates a forwarder with nothing held.
func NewInputForwarder(sink InputSink) *InputForwarder {
	return &InputForwarder{
		sink: sink,
		held: make(map[bridge.KeyCode]bool),
	}
}

// Apply forwards the difference between the previous snapshot and this one.
// A stick that changes direction sends a motion sample; because motion
// writes the d-pad directly, held d-pad keys are asserted again after it.
// Releasing a d-pad key the stick is still pushing toward is not forwarded.
func (f *InputForwarder) Apply(pressed map[bridge.KeyCode]bool, x, y float32) {
	motion := x != f.motionX || y != f.motionY
	if motion {
		f.motionX, f.motionY = x, y
		f.sink.Motion(x, y)
	}

	for k := range f.held {
		if !pressed[k] {
			delete(f.held, k)
			if !f.stickHolds(k) {
				f.sink.KeyUp(k)
			}
		}
	}
	for k, down := range pressed {
		if !down {
			continue
		}
		if !f.held[k] || (motion && isDpad(k)) {
			f.held[k] = true
			f.sink.KeyDown(k)
		}
	}
}

// ReleaseAll releases every held key and centers the stick.
func (f *InputForwarder) ReleaseAll() {
	f.Apply(nil, 0, 0)
}

// stickHolds reports whether the last motion sample asserts direction k.
func (f *InputForwarder) stickHolds(k bridge.KeyCode) bool {
	switch k {
	case bridge.KeyDpadLeft:
		return f.motionX == -1
	case bridge.KeyDpadRight:
		return f.motionX == 1
	case bridge.KeyDpadUp:
		return f.motionY == -1
	case bridge.KeyDpadDown:
		return f.motionY == 1
	}
	return false
}

func isDpad(k bridge.KeyCode) bool {
	switch k {
	case bridge.KeyDpadUp, bridge.KeyDpadDown, bridge.KeyDpadLeft, bridge.KeyDpadRight:
		return true
	}
	return false
}
