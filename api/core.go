package emucore

// Core is the set of entry points a loaded libretro core exposes.
// Implementations forward straight to the core; ordering rules
// (Init before anything else, nothing after Deinit) are enforced by the
// caller.
type Core interface {
	// APIVersion returns the libretro API version the core was built for.
	APIVersion() uint

	// SetEnvironment and the other Set* methods register the frontend
	// handlers. They must all be called before Init.
	SetEnvironment(h Environment)
	SetVideoRefresh(h VideoRefresher)
	SetAudioSample(h AudioSampler)
	SetAudioSampleBatch(h AudioBatcher)
	SetInputPoll(h InputPoller)
	SetInputState(h InputStater)

	Init()
	Deinit()

	// SystemInfo may be called at any time, even before Init.
	SystemInfo() SystemInfo
	SystemAVInfo() SystemAVInfo

	SetControllerPortDevice(port uint, device Device)
	Reset()
	Run()

	// LoadGame returns false when the core rejects the content.
	LoadGame(game GameInfo) bool
	UnloadGame()
	Region() Region

	// MemoryData returns a view of the core-owned memory region, or nil
	// when the core does not expose it. The view is only valid until the
	// game is unloaded.
	MemoryData(id MemoryID) []byte

	SerializeSize() int
	Serialize(dst []byte) bool
	Unserialize(src []byte) bool

	// Close releases the library. No other method may be called after it.
	Close() error
}

// Loader binds a core from a library path. The mechanism (shared library,
// subprocess, sandbox) is up to the implementation.
type Loader interface {
	Load(path string) (Core, error)
}

// LogFunc receives messages the core logs through the log interface.
type LogFunc func(level LogLevel, msg string)

// Environment answers the core's capability and configuration queries.
// It is called on the goroutine running Init, LoadGame or Run and must not
// block.
type Environment interface {
	SetVariables(vars []Variable)
	Variable(key string) (string, bool)
	VariableUpdated() bool

	// SetPixelFormat returns false if the format is refused.
	SetPixelFormat(format PixelFormat) bool
	SetGeometry(geometry GameGeometry)
	SetSystemAVInfo(info SystemAVInfo)

	// LogInterface returns nil, false when core logging is disabled.
	LogInterface() (LogFunc, bool)
	SystemDirectory() (string, bool)
	SaveDirectory() (string, bool)
	CanDupe() bool

	SetSupportAchievements(supported bool)
	SetPerformanceLevel(level uint)
	SetInputDescriptors(descriptors []InputDescriptor)
	SetControllerInfo(info []ControllerInfo)
	SetMemoryMaps(descriptors int)
	Shutdown()

	// UnsupportedCommand is told about any command the decoder does not
	// handle. The core is answered with false.
	UnsupportedCommand(cmd uint)
}

// VideoRefresher receives finished frames. data is nil when the core
// repeats the previous frame. data is only valid during the call.
type VideoRefresher interface {
	VideoRefresh(data []byte, width, height, pitch int)
}

// AudioSampler receives one stereo frame at a time.
type AudioSampler interface {
	AudioSample(left, right int16)
}

// AudioBatcher receives interleaved little-endian 16-bit stereo frames.
// data is only valid during the call. It returns the frames consumed.
type AudioBatcher interface {
	AudioSampleBatch(data []byte, frames int) int
}

// InputPoller is told that the core is about to query input state.
type InputPoller interface {
	InputPoll()
}

// InputStater answers per-button queries.
type InputStater interface {
	InputState(port uint, device Device, index, id uint) bool
}
