package libretro

import (
	"unsafe"

	emucore "github.com/user-none/retrohost/api"
)

// RETRO_ENVIRONMENT_* commands the decoder understands.
const (
	envExperimental = 0x10000

	envGetCanDupe             = 3
	envShutdown               = 7
	envSetPerformanceLevel    = 8
	envGetSystemDirectory     = 9
	envSetPixelFormat         = 10
	envSetInputDescriptors    = 11
	envGetVariable            = 15
	envSetVariables           = 16
	envGetVariableUpdate      = 17
	envGetLogInterface        = 27
	envGetSaveDirectory       = 31
	envSetSystemAVInfo        = 32
	envSetControllerInfo      = 35
	envSetMemoryMaps          = 36 | envExperimental
	envSetGeometry            = 37
	envSetSupportAchievements = 42 | envExperimental
)

// environment decodes one raw command into a call on the environment
// handler. The experimental flag is ignored when matching commands.
func (c *dylibCore) environment(cmd uint32, data unsafe.Pointer) bool {
	env := c.env
	switch cmd &^ envExperimental {
	case envGetCanDupe:
		if data == nil {
			return false
		}
		*(*bool)(data) = env.CanDupe()
		return true

	case envShutdown:
		env.Shutdown()
		return true

	case envSetPerformanceLevel:
		if data == nil {
			return false
		}
		env.SetPerformanceLevel(uint(*(*uint32)(data)))
		return true

	case envGetSystemDirectory:
		return c.putDirectory(data, env.SystemDirectory)

	case envGetSaveDirectory:
		return c.putDirectory(data, env.SaveDirectory)

	case envSetPixelFormat:
		if data == nil {
			return false
		}
		return env.SetPixelFormat(emucore.PixelFormat(*(*int32)(data)))

	case envSetInputDescriptors:
		env.SetInputDescriptors(readInputDescriptors(data))
		return true

	case envGetVariable:
		if data == nil {
			return false
		}
		v := (*retroVariable)(data)
		key := goString(v.key)
		value, ok := env.Variable(key)
		if !ok {
			v.value = nil
			return false
		}
		v.value = c.varValue(key, value)
		return true

	case envSetVariables:
		env.SetVariables(readVariables(data))
		return true

	case envGetVariableUpdate:
		if data == nil {
			return false
		}
		*(*bool)(data) = env.VariableUpdated()
		return true

	case envGetLogInterface:
		if data == nil || cbLog == 0 {
			return false
		}
		fn, ok := env.LogInterface()
		if !ok {
			return false
		}
		c.log = fn
		(*retroLogCallback)(data).log = cbLog
		return true

	case envSetSystemAVInfo:
		if data == nil {
			return false
		}
		env.SetSystemAVInfo(convertAVInfo((*retroSystemAVInfo)(data)))
		return true

	case envSetGeometry:
		if data == nil {
			return false
		}
		env.SetGeometry(convertGeometry((*retroGameGeometry)(data)))
		return true

	case envSetControllerInfo:
		env.SetControllerInfo(readControllerInfo(data))
		return true

	case envSetMemoryMaps &^ envExperimental:
		if data == nil {
			return false
		}
		env.SetMemoryMaps(int((*retroMemoryMap)(data).numDescriptors))
		return true

	case envSetSupportAchievements &^ envExperimental:
		if data == nil {
			return false
		}
		env.SetSupportAchievements(*(*bool)(data))
		return true
	}

	env.UnsupportedCommand(uint(cmd))
	return false
}

func (c *dylibCore) putDirectory(data unsafe.Pointer, get func() (string, bool)) bool {
	if data == nil {
		return false
	}
	dir, ok := get()
	if !ok {
		*(**byte)(data) = nil
		return false
	}
	*(**byte)(data) = c.cstr(dir)
	return true
}

// readVariables walks a retro_variable array up to its NULL key.
func readVariables(data unsafe.Pointer) []emucore.Variable {
	var vars []emucore.Variable
	for p := (*retroVariable)(data); p != nil && p.key != nil; p = next(p) {
		vars = append(vars, emucore.Variable{Key: goString(p.key), Value: goString(p.value)})
	}
	return vars
}

// readInputDescriptors walks a retro_input_descriptor array up to its NULL
// description.
func readInputDescriptors(data unsafe.Pointer) []emucore.InputDescriptor {
	var out []emucore.InputDescriptor
	for p := (*retroInputDescriptor)(data); p != nil && p.description != nil; p = next(p) {
		out = append(out, emucore.InputDescriptor{
			Port:        uint(p.port),
			Device:      emucore.Device(p.device),
			Index:       uint(p.index),
			ID:          uint(p.id),
			Description: goString(p.description),
		})
	}
	return out
}

// readControllerInfo walks a retro_controller_info array up to its NULL
// types entry.
func readControllerInfo(data unsafe.Pointer) []emucore.ControllerInfo {
	var out []emucore.ControllerInfo
	for p := (*retroControllerInfo)(data); p != nil && p.types != nil; p = next(p) {
		types := unsafe.Slice(p.types, p.numTypes)
		info := emucore.ControllerInfo{Types: make([]emucore.ControllerDescription, 0, len(types))}
		for _, t := range types {
			info.Types = append(info.Types, emucore.ControllerDescription{Desc: goString(t.desc), ID: emucore.Device(t.id)})
		}
		out = append(out, info)
	}
	return out
}

// next steps to the following element of a C array.
func next[T any](p *T) *T {
	var zero T
	return (*T)(unsafe.Add(unsafe.Pointer(p), unsafe.Sizeof(zero)))
}
