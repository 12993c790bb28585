package emucore

// Device is an input device class. Values match RETRO_DEVICE_*.
type Device uint

const (
	DeviceNone     Device = 0
	DeviceJoypad   Device = 1
	DeviceMouse    Device = 2
	DeviceKeyboard Device = 3
	DeviceLightgun Device = 4
	DeviceAnalog   Device = 5
	DevicePointer  Device = 6
)

// DeviceMask strips a subclass from a device id.
const DeviceMask = 0xff

// Base returns the device class without any subclass bits.
func (d Device) Base() Device {
	return d & DeviceMask
}

func (d Device) String() string {
	switch d.Base() {
	case DeviceNone:
		return "none"
	case DeviceJoypad:
		return "joypad"
	case DeviceMouse:
		return "mouse"
	case DeviceKeyboard:
		return "keyboard"
	case DeviceLightgun:
		return "lightgun"
	case DeviceAnalog:
		return "analog"
	case DevicePointer:
		return "pointer"
	default:
		return "unknown"
	}
}

// Joypad button ids (RETRO_DEVICE_ID_JOYPAD_*).
const (
	JoypadB      = 0
	JoypadY      = 1
	JoypadSelect = 2
	JoypadStart  = 3
	JoypadUp     = 4
	JoypadDown   = 5
	JoypadLeft   = 6
	JoypadRight  = 7
	JoypadA      = 8
	JoypadX      = 9
	JoypadL      = 10
	JoypadR      = 11
	JoypadL2     = 12
	JoypadR2     = 13
	JoypadL3     = 14
	JoypadR3     = 15
)

// InputDescriptor is a human readable label the core attaches to an input.
type InputDescriptor struct {
	Port        uint
	Device      Device
	Index       uint
	ID          uint
	Description string
}

// ControllerDescription names one controller type a port accepts.
type ControllerDescription struct {
	Desc string
	ID   Device
}

// ControllerInfo lists the controller types available on one port.
type ControllerInfo struct {
	Types []ControllerDescription
}
