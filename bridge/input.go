package bridge

import (
	"sort"
	"sync"

	emucore "github.com/user-none/retrohost/api"
)

// KeyCode is a host key or gamepad button. Hosts translate their own input
// events into these codes before handing them to the session.
type KeyCode int

const (
	KeyUnknown KeyCode = iota

	// Keyboard keys
	KeyA
	KeyB
	KeyX
	KeyY
	KeyEnter

	// Directional pad, shared by keyboard arrows, gamepad d-pad and motion
	KeyDpadUp
	KeyDpadDown
	KeyDpadLeft
	KeyDpadRight

	// Gamepad buttons
	KeyButtonA
	KeyButtonB
	KeyButtonX
	KeyButtonY
	KeyButtonL1
	KeyButtonR1
	KeyButtonL2
	KeyButtonR2
	KeyButtonSelect
	KeyButtonStart
)

// joypadKeys lists the key codes that press each joypad button, indexed by
// RETRO_DEVICE_ID_JOYPAD_*. L3 and R3 have no binding.
var joypadKeys = [...][]KeyCode{
	emucore.JoypadB:      {KeyB, KeyButtonB},
	emucore.JoypadY:      {KeyY, KeyButtonY},
	emucore.JoypadSelect: {KeyButtonSelect},
	emucore.JoypadStart:  {KeyButtonStart, KeyEnter},
	emucore.JoypadUp:     {KeyDpadUp},
	emucore.JoypadDown:   {KeyDpadDown},
	emucore.JoypadLeft:   {KeyDpadLeft},
	emucore.JoypadRight:  {KeyDpadRight},
	emucore.JoypadA:      {KeyA, KeyButtonA},
	emucore.JoypadX:      {KeyX, KeyButtonX},
	emucore.JoypadL:      {KeyButtonL1},
	emucore.JoypadR:      {KeyButtonR1},
	emucore.JoypadL2:     {KeyButtonL2},
	emucore.JoypadR2:     {KeyButtonR2},
	emucore.JoypadL3:     nil,
	emucore.JoypadR3:     nil,
}

// JoypadKeys returns the key codes bound to a joypad button id.
func JoypadKeys(id uint) []KeyCode {
	if id >= uint(len(joypadKeys)) {
		return nil
	}
	return joypadKeys[id]
}

// InputState is the set of pressed keys. It is written by the host's input
// delivery and read by the emulation goroutine mid-frame.
type InputState struct {
	mu      sync.Mutex
	pressed map[KeyCode]struct{}
}

// NewInputState creates an empty input state.
func NewInputState() *InputState {
	return &InputState{pressed: make(map[KeyCode]struct{})}
}

// Press marks a key as held.
func (s *InputState) Press(k KeyCode) {
	s.mu.Lock()
	s.pressed[k] = struct{}{}
	s.mu.Unlock()
}

// Release marks a key as no longer held.
func (s *InputState) Release(k KeyCode) {
	s.mu.Lock()
	delete(s.pressed, k)
	s.mu.Unlock()
}

// Pressed reports whether k is held.
func (s *InputState) Pressed(k KeyCode) bool {
	s.mu.Lock()
	_, ok := s.pressed[k]
	s.mu.Unlock()
	return ok
}

// AnyPressed reports whether any of keys is held.
func (s *InputState) AnyPressed(keys ...KeyCode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if _, ok := s.pressed[k]; ok {
			return true
		}
	}
	return false
}

// Motion converts a two-axis sample into d-pad state. Only the exact values
// +1 and -1 assert a direction; anything else releases both directions on
// that axis. Positive y is down.
func (s *InputState) Motion(x, y float32) {
	s.mu.Lock()
	s.applyAxis(x, KeyDpadLeft, KeyDpadRight)
	s.applyAxis(y, KeyDpadUp, KeyDpadDown)
	s.mu.Unlock()
}

func (s *InputState) applyAxis(v float32, negative, positive KeyCode) {
	switch v {
	case 1:
		s.pressed[positive] = struct{}{}
		delete(s.pressed, negative)
	case -1:
		s.pressed[negative] = struct{}{}
		delete(s.pressed, positive)
	default:
		delete(s.pressed, negative)
		delete(s.pressed, positive)
	}
}

// Clear releases every key.
func (s *InputState) Clear() {
	s.mu.Lock()
	clear(s.pressed)
	s.mu.Unlock()
}

// Snapshot returns the held keys in ascending order.
func (s *InputState) Snapshot() []KeyCode {
	s.mu.Lock()
	keys := make([]KeyCode, 0, len(s.pressed))
	for k := range s.pressed {
		keys = append(keys, k)
	}
	s.mu.Unlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// KeyDown records a key press from the host.
func (s *Session) KeyDown(k KeyCode) { s.input.Press(k) }

// KeyUp records a key release from the host.
func (s *Session) KeyUp(k KeyCode) { s.input.Release(k) }

// Motion records a two-axis motion sample from the host.
func (s *Session) Motion(x, y float32) { s.input.Motion(x, y) }

// Input returns the session's pressed key set.
func (s *Session) Input() *InputState { return s.input }

// InputPoll implements emucore.InputPoller. Host events are pushed into the
// input state as they arrive, so there is nothing to sample here.
func (s *Session) InputPoll() {}

// InputState implements emucore.InputStater. Only the joypad on port 0 is
// supported; every other port and device class reads as released.
func (s *Session) InputState(port uint, device emucore.Device, index, id uint) bool {
	if port != 0 {
		return false
	}
	switch device.Base() {
	case emucore.DeviceJoypad:
		keys := JoypadKeys(id)
		if len(keys) == 0 {
			return false
		}
		return s.input.AnyPressed(keys...)
	default:
		// mouse, keyboard, lightgun, analog and pointer are not implemented
		return false
	}
}
