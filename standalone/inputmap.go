package standalone

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/retrohost/bridge"
)

// InputMapping maps bridge key codes to ebiten input types.
type InputMapping struct {
	Keys    map[bridge.KeyCode]ebiten.Key                   // key code -> keyboard key
	Gamepad map[bridge.KeyCode]ebiten.StandardGamepadButton // key code -> gamepad button
}

// keyNameMap maps short key name strings to ebiten.Key values.
var keyNameMap = map[string]ebiten.Key{
	"A":          ebiten.KeyA,
	"B":          ebiten.KeyB,
	"C":          ebiten.KeyC,
	"D":          ebiten.KeyD,
	"E":          ebiten.KeyE,
	"F":          ebiten.KeyF,
	"G":          ebiten.KeyG,
	"H":          ebiten.KeyH,
	"I":          ebiten.KeyI,
	"J":          ebiten.KeyJ,
	"K":          ebiten.KeyK,
	"L":          ebiten.KeyL,
	"M":          ebiten.KeyM,
	"N":          ebiten.KeyN,
	"O":          ebiten.KeyO,
	"P":          ebiten.KeyP,
	"Q":          ebiten.KeyQ,
	"R":          ebiten.KeyR,
	"S":          ebiten.KeyS,
	"T":          ebiten.KeyT,
	"U":          ebiten.KeyU,
	"V":          ebiten.KeyV,
	"W":          ebiten.KeyW,
	"X":          ebiten.KeyX,
	"Y":          ebiten.KeyY,
	"Z":          ebiten.KeyZ,
	"0":          ebiten.Key0,
	"1":          ebiten.Key1,
	"2":          ebiten.Key2,
	"3":          ebiten.Key3,
	"4":          ebiten.Key4,
	"5":          ebiten.Key5,
	"6":          ebiten.Key6,
	"7":          ebiten.Key7,
	"8":          ebiten.Key8,
	"9":          ebiten.Key9,
	"Enter":      ebiten.KeyEnter,
	"Backspace":  ebiten.KeyBackspace,
	"Space":      ebiten.KeySpace,
	"Semicolon":  ebiten.KeySemicolon,
	"Comma":      ebiten.KeyComma,
	"Period":     ebiten.KeyPeriod,
	"Slash":      ebiten.KeySlash,
	"Tab":        ebiten.KeyTab,
	"Escape":     ebiten.KeyEscape,
	"Shift":      ebiten.KeyShift,
	"ArrowUp":    ebiten.KeyArrowUp,
	"ArrowDown":  ebiten.KeyArrowDown,
	"ArrowLeft":  ebiten.KeyArrowLeft,
	"ArrowRight": ebiten.KeyArrowRight,
	"[":          ebiten.KeyLeftBracket,
	"]":          ebiten.KeyRightBracket,
	"-":          ebiten.KeyMinus,
	"=":          ebiten.KeyEqual,
	"'":          ebiten.KeyApostrophe,
	"F1":         ebiten.KeyF1,
	"F2":         ebiten.KeyF2,
	"F3":         ebiten.KeyF3,
	"F4":         ebiten.KeyF4,
	"F5":         ebiten.KeyF5,
	"F6":         ebiten.KeyF6,
	"F7":         ebiten.KeyF7,
	"F8":         ebiten.KeyF8,
	"F9":         ebiten.KeyF9,
	"F10":        ebiten.KeyF10,
	"F11":        ebiten.KeyF11,
	"F12":        ebiten.KeyF12,
}

// padNameMap maps gamepad button name strings to ebiten StandardGamepadButton values.
var padNameMap = map[string]ebiten.StandardGamepadButton{
	"A":         ebiten.StandardGamepadButtonRightBottom,
	"B":         ebiten.StandardGamepadButtonRightRight,
	"X":         ebiten.StandardGamepadButtonRightLeft,
	"Y":         ebiten.StandardGamepadButtonRightTop,
	"L1":        ebiten.StandardGamepadButtonFrontTopLeft,
	"R1":        ebiten.StandardGamepadButtonFrontTopRight,
	"L2":        ebiten.StandardGamepadButtonFrontBottomLeft,
	"R2":        ebiten.StandardGamepadButtonFrontBottomRight,
	"Start":     ebiten.StandardGamepadButtonCenterRight,
	"Select":    ebiten.StandardGamepadButtonCenterLeft,
	"DpadUp":    ebiten.StandardGamepadButtonLeftTop,
	"DpadDown":  ebiten.StandardGamepadButtonLeftBottom,
	"DpadLeft":  ebiten.StandardGamepadButtonLeftLeft,
	"DpadRight": ebiten.StandardGamepadButtonLeftRight,
	"L3":        ebiten.StandardGamepadButtonLeftStick,
	"R3":        ebiten.StandardGamepadButtonRightStick,
}

// reservedKeys are keyboard keys used by the host for non-gameplay
// functions. These cannot be assigned as button bindings.
var reservedKeys = map[ebiten.Key]bool{
	ebiten.KeyEscape:  true, // Quit
	ebiten.KeyF1:      true, // Save state
	ebiten.KeyF2:      true, // Cycle slot
	ebiten.KeyF3:      true, // Load state
	ebiten.KeyF4:      true, // Mute
	ebiten.KeyF5:      true, // Reset
	ebiten.KeyF11:     true, // Fullscreen
	ebiten.KeyF12:     true, // Screenshot
	ebiten.KeyShift:   true, // Modifier (Shift+F2, Shift+F12)
	ebiten.KeyControl: true,
	ebiten.KeyAlt:     true,
	ebiten.KeyMeta:    true,
}

// ParseKey converts a key name string to an ebiten.Key.
// Returns the key and true if the name is valid, or 0 and false otherwise.
func ParseKey(name string) (ebiten.Key, bool) {
	k, ok := keyNameMap[name]
	return k, ok
}

// ParsePad converts a gamepad button name string to an ebiten.StandardGamepadButton.
// Returns the button and true if the name is valid, or 0 and false otherwise.
func ParsePad(name string) (ebiten.StandardGamepadButton, bool) {
	b, ok := padNameMap[name]
	return b, ok
}

// binding names a bindable key code and its default host input.
type binding struct {
	Name    string
	Code    bridge.KeyCode
	Default string
}

// keyboardBindings are the keyboard-driven key codes. Names are what config
// overrides refer to.
var keyboardBindings = []binding{
	{"Up", bridge.KeyDpadUp, "ArrowUp"},
	{"Down", bridge.KeyDpadDown, "ArrowDown"},
	{"Left", bridge.KeyDpadLeft, "ArrowLeft"},
	{"Right", bridge.KeyDpadRight, "ArrowRight"},
	{"A", bridge.KeyA, "A"},
	{"B", bridge.KeyB, "B"},
	{"X", bridge.KeyX, "X"},
	{"Y", bridge.KeyY, "Y"},
	{"Start", bridge.KeyEnter, "Enter"},
}

// gamepadBindings are the controller-driven key codes.
var gamepadBindings = []binding{
	{"Up", bridge.KeyDpadUp, "DpadUp"},
	{"Down", bridge.KeyDpadDown, "DpadDown"},
	{"Left", bridge.KeyDpadLeft, "DpadLeft"},
	{"Right", bridge.KeyDpadRight, "DpadRight"},
	{"A", bridge.KeyButtonA, "A"},
	{"B", bridge.KeyButtonB, "B"},
	{"X", bridge.KeyButtonX, "X"},
	{"Y", bridge.KeyButtonY, "Y"},
	{"L1", bridge.KeyButtonL1, "L1"},
	{"R1", bridge.KeyButtonR1, "R1"},
	{"L2", bridge.KeyButtonL2, "L2"},
	{"R2", bridge.KeyButtonR2, "R2"},
	{"Select", bridge.KeyButtonSelect, "Select"},
	{"Start", bridge.KeyButtonStart, "Start"},
}

// BuildMappingFromConfig creates an InputMapping using config overrides with
// the defaults as fallback. For each binding the override map is checked
// first; if absent or invalid, the default is used. Reserved keys are never
// bound.
func BuildMappingFromConfig(kbOverrides, padOverrides map[string]string) InputMapping {
	m := InputMapping{
		Keys:    make(map[bridge.KeyCode]ebiten.Key),
		Gamepad: make(map[bridge.KeyCode]ebiten.StandardGamepadButton),
	}

	for _, b := range keyboardBindings {
		if override, ok := kbOverrides[b.Name]; ok {
			if k, ok := ParseKey(override); ok && !reservedKeys[k] {
				m.Keys[b.Code] = k
				continue
			}
		}
		if k, ok := ParseKey(b.Default); ok {
			m.Keys[b.Code] = k
		}
	}

	for _, b := range gamepadBindings {
		if override, ok := padOverrides[b.Name]; ok {
			if p, ok := ParsePad(override); ok {
				m.Gamepad[b.Code] = p
				continue
			}
		}
		if p, ok := ParsePad(b.Default); ok {
			m.Gamepad[b.Code] = p
		}
	}

	return m
}

// analogThreshold is how far the stick must move before it counts as a
// direction.
const analogThreshold = 0.5

// AxisToMotion quantizes a stick axis to -1, 0 or +1.
func AxisToMotion(v float64) float32 {
	switch {
	case v <= -analogThreshold:
		return -1
	case v >= analogThreshold:
		return 1
	default:
		return 0
	}
}

// PollKeys returns the key codes currently held on the keyboard and, when
// hasGamepad is set, on the given gamepad.
func PollKeys(mapping InputMapping, gamepadID ebiten.GamepadID, hasGamepad bool) map[bridge.KeyCode]bool {
	held := make(map[bridge.KeyCode]bool)

	for code, key := range mapping.Keys {
		if ebiten.IsKeyPressed(key) {
			held[code] = true
		}
	}

	if !hasGamepad {
		return held
	}

	for code, padBtn := range mapping.Gamepad {
		if ebiten.IsStandardGamepadButtonPressed(gamepadID, padBtn) {
			held[code] = true
		}
	}

	return held
}

// PollStick reads the left analog stick as a motion sample.
func PollStick(gamepadID ebiten.GamepadID) (x, y float32) {
	x = AxisToMotion(ebiten.StandardGamepadAxisValue(gamepadID, ebiten.StandardGamepadAxisLeftStickHorizontal))
	y = AxisToMotion(ebiten.StandardGamepadAxisValue(gamepadID, ebiten.StandardGamepadAxisLeftStickVertical))
	return x, y
}
