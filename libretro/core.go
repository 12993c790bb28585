package libretro

import (
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	emucore "github.com/user-none/retrohost/api"
)

// active is the core the process-wide callbacks dispatch to.
var active atomic.Pointer[dylibCore]

// dylibCore is a core bound from a shared library. The function fields are
// the resolved retro_* entry points.
type dylibCore struct {
	handle uintptr
	path   string

	apiVersion              func() uint32
	setEnvironment          func(cb uintptr)
	setVideoRefresh         func(cb uintptr)
	setAudioSample          func(cb uintptr)
	setAudioSampleBatch     func(cb uintptr)
	setInputPoll            func(cb uintptr)
	setInputState           func(cb uintptr)
	init                    func()
	deinit                  func()
	getSystemInfo           func(info *retroSystemInfo)
	getSystemAVInfo         func(info *retroSystemAVInfo)
	setControllerPortDevice func(port, device uint32)
	reset                   func()
	run                     func()
	serializeSize           func() uintptr
	serialize               func(data unsafe.Pointer, size uintptr) bool
	unserialize             func(data unsafe.Pointer, size uintptr) bool
	loadGame                func(game *retroGameInfo) bool
	unloadGame              func()
	getRegion               func() uint32
	getMemoryData           func(id uint32) unsafe.Pointer
	getMemorySize           func(id uint32) uintptr

	closeLibrary func(handle uintptr) error

	env   emucore.Environment
	video emucore.VideoRefresher
	audio emucore.AudioSampler
	batch emucore.AudioBatcher
	poll  emucore.InputPoller
	input emucore.InputStater
	log   emucore.LogFunc

	// C strings handed to the core stay pinned until Close
	strMu sync.Mutex
	strs  map[string]*byte
	pin   runtime.Pinner

	// Variable values, one reused buffer per key
	vars map[string]*varSlot

	// Pins the content buffer while a game is loaded
	gamePin runtime.Pinner

	closeOnce sync.Once
	closeErr  error
}

var _ emucore.Core = (*dylibCore)(nil)

// entryPoints pairs each symbol with the field it binds to.
func (c *dylibCore) entryPoints() []struct {
	name string
	fptr any
} {
	return []struct {
		name string
		fptr any
	}{
		{"retro_api_version", &c.apiVersion},
		{"retro_set_environment", &c.setEnvironment},
		{"retro_set_video_refresh", &c.setVideoRefresh},
		{"retro_set_audio_sample", &c.setAudioSample},
		{"retro_set_audio_sample_batch", &c.setAudioSampleBatch},
		{"retro_set_input_poll", &c.setInputPoll},
		{"retro_set_input_state", &c.setInputState},
		{"retro_init", &c.init},
		{"retro_deinit", &c.deinit},
		{"retro_get_system_info", &c.getSystemInfo},
		{"retro_get_system_av_info", &c.getSystemAVInfo},
		{"retro_set_controller_port_device", &c.setControllerPortDevice},
		{"retro_reset", &c.reset},
		{"retro_run", &c.run},
		{"retro_serialize_size", &c.serializeSize},
		{"retro_serialize", &c.serialize},
		{"retro_unserialize", &c.unserialize},
		{"retro_load_game", &c.loadGame},
		{"retro_unload_game", &c.unloadGame},
		{"retro_get_region", &c.getRegion},
		{"retro_get_memory_data", &c.getMemoryData},
		{"retro_get_memory_size", &c.getMemorySize},
	}
}

// cstr returns a NUL terminated copy of s that stays valid until Close.
// Identical strings share one copy.
func (c *dylibCore) cstr(s string) *byte {
	c.strMu.Lock()
	defer c.strMu.Unlock()
	if p, ok := c.strs[s]; ok {
		return p
	}
	if c.strs == nil {
		c.strs = make(map[string]*byte)
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	p := &b[0]
	c.pin.Pin(p)
	c.strs[s] = p
	return p
}

// varSlot holds the C string last returned for one variable key.
type varSlot struct {
	buf []byte
	pin runtime.Pinner
}

// varValue returns value as a C string stored in key's slot. The pointer
// stays valid until the next lookup of the same key returns a different
// value.
func (c *dylibCore) varValue(key, value string) *byte {
	c.strMu.Lock()
	defer c.strMu.Unlock()
	if c.vars == nil {
		c.vars = make(map[string]*varSlot)
	}
	slot, ok := c.vars[key]
	if !ok {
		slot = &varSlot{}
		c.vars[key] = slot
	}

	n := len(value) + 1
	if cap(slot.buf) < n {
		slot.pin.Unpin()
		slot.buf = make([]byte, n, max(n, 32))
		slot.pin.Pin(&slot.buf[0])
	} else if len(slot.buf) == n && string(slot.buf[:n-1]) == value {
		return &slot.buf[0]
	}
	slot.buf = slot.buf[:n]
	copy(slot.buf, value)
	slot.buf[n-1] = 0
	return &slot.buf[0]
}

func (c *dylibCore) releaseStrings() {
	c.strMu.Lock()
	defer c.strMu.Unlock()
	c.pin.Unpin()
	for _, slot := range c.vars {
		slot.pin.Unpin()
	}
	c.strs, c.vars = nil, nil
}

func (c *dylibCore) APIVersion() uint { return uint(c.apiVersion()) }

func (c *dylibCore) SetEnvironment(h emucore.Environment) {
	c.env = h
	c.setEnvironment(cbEnvironment)
}

func (c *dylibCore) SetVideoRefresh(h emucore.VideoRefresher) {
	c.video = h
	c.setVideoRefresh(cbVideoRefresh)
}

func (c *dylibCore) SetAudioSample(h emucore.AudioSampler) {
	c.audio = h
	c.setAudioSample(cbAudioSample)
}

func (c *dylibCore) SetAudioSampleBatch(h emucore.AudioBatcher) {
	c.batch = h
	c.setAudioSampleBatch(cbAudioSampleBatch)
}

func (c *dylibCore) SetInputPoll(h emucore.InputPoller) {
	c.poll = h
	c.setInputPoll(cbInputPoll)
}

func (c *dylibCore) SetInputState(h emucore.InputStater) {
	c.input = h
	c.setInputState(cbInputState)
}

func (c *dylibCore) Init()   { c.init() }
func (c *dylibCore) Deinit() { c.deinit() }

func (c *dylibCore) SystemInfo() emucore.SystemInfo {
	var info retroSystemInfo
	c.getSystemInfo(&info)
	return emucore.SystemInfo{
		LibraryName:     goString(info.libraryName),
		LibraryVersion:  goString(info.libraryVersion),
		ValidExtensions: splitExtensions(goString(info.validExtensions)),
		NeedFullPath:    info.needFullpath,
		BlockExtract:    info.blockExtract,
	}
}

func (c *dylibCore) SystemAVInfo() emucore.SystemAVInfo {
	var info retroSystemAVInfo
	c.getSystemAVInfo(&info)
	return convertAVInfo(&info)
}

func convertGeometry(g *retroGameGeometry) emucore.GameGeometry {
	return emucore.GameGeometry{
		BaseWidth:   int(g.baseWidth),
		BaseHeight:  int(g.baseHeight),
		MaxWidth:    int(g.maxWidth),
		MaxHeight:   int(g.maxHeight),
		AspectRatio: float64(g.aspectRatio),
	}
}

func convertAVInfo(info *retroSystemAVInfo) emucore.SystemAVInfo {
	return emucore.SystemAVInfo{
		Geometry: convertGeometry(&info.geometry),
		Timing: emucore.Timing{
			FPS:        info.timing.fps,
			SampleRate: info.timing.sampleRate,
		},
	}
}

func (c *dylibCore) SetControllerPortDevice(port uint, device emucore.Device) {
	c.setControllerPortDevice(uint32(port), uint32(device))
}

func (c *dylibCore) Reset() { c.reset() }
func (c *dylibCore) Run()   { c.run() }

func (c *dylibCore) LoadGame(game emucore.GameInfo) bool {
	info := retroGameInfo{size: uintptr(len(game.Data))}
	if game.Path != "" {
		info.path = c.cstr(game.Path)
	}
	if game.Meta != "" {
		info.meta = c.cstr(game.Meta)
	}
	if len(game.Data) > 0 {
		c.gamePin.Pin(&game.Data[0])
		info.data = unsafe.Pointer(&game.Data[0])
	}
	if !c.loadGame(&info) {
		c.gamePin.Unpin()
		return false
	}
	return true
}

func (c *dylibCore) UnloadGame() {
	c.unloadGame()
	c.gamePin.Unpin()
}

func (c *dylibCore) Region() emucore.Region {
	if c.getRegion() == 1 {
		return emucore.RegionPAL
	}
	return emucore.RegionNTSC
}

func (c *dylibCore) MemoryData(id emucore.MemoryID) []byte {
	p := c.getMemoryData(uint32(id))
	size := c.getMemorySize(uint32(id))
	if p == nil || size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), size)
}

func (c *dylibCore) SerializeSize() int { return int(c.serializeSize()) }

func (c *dylibCore) Serialize(dst []byte) bool {
	if len(dst) == 0 {
		return false
	}
	return c.serialize(unsafe.Pointer(&dst[0]), uintptr(len(dst)))
}

func (c *dylibCore) Unserialize(src []byte) bool {
	if len(src) == 0 {
		return false
	}
	return c.unserialize(unsafe.Pointer(&src[0]), uintptr(len(src)))
}

// Close releases the library and frees the callback slot for another core.
func (c *dylibCore) Close() error {
	c.closeOnce.Do(func() {
		if c.closeLibrary != nil {
			c.closeErr = c.closeLibrary(c.handle)
		}
		c.gamePin.Unpin()
		c.releaseStrings()
		active.CompareAndSwap(c, nil)
	})
	return c.closeErr
}

// Process-wide callback trampolines, created once and pointed at the
// active core.
var (
	cbEnvironment      uintptr
	cbVideoRefresh     uintptr
	cbAudioSample      uintptr
	cbAudioSampleBatch uintptr
	cbInputPoll        uintptr
	cbInputState       uintptr
	cbLog              uintptr
)

// hwFrameBufferValid is the data pointer a hardware rendered core passes
// instead of pixels.
const hwFrameBufferValid = ^uintptr(0)

func onEnvironment(cmd uint32, data unsafe.Pointer) bool {
	c := active.Load()
	if c == nil || c.env == nil {
		return false
	}
	return c.environment(cmd, data)
}

// The frame pointer arrives as a uintptr since it may hold the
// hwFrameBufferValid sentinel.
func onVideoRefresh(data uintptr, width, height uint32, pitch uintptr) {
	c := active.Load()
	if c == nil || c.video == nil {
		return
	}
	if data == 0 || data == hwFrameBufferValid {
		c.video.VideoRefresh(nil, int(width), int(height), int(pitch))
		return
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(data)), pitch*uintptr(height))
	c.video.VideoRefresh(buf, int(width), int(height), int(pitch))
}

func onAudioSample(left, right int16) {
	if c := active.Load(); c != nil && c.audio != nil {
		c.audio.AudioSample(left, right)
	}
}

func onAudioSampleBatch(data unsafe.Pointer, frames uintptr) uintptr {
	c := active.Load()
	if c == nil || c.batch == nil || data == nil {
		return frames
	}
	return uintptr(c.batch.AudioSampleBatch(unsafe.Slice((*byte)(data), frames*4), int(frames)))
}

func onInputPoll() {
	if c := active.Load(); c != nil && c.poll != nil {
		c.poll.InputPoll()
	}
}

func onInputState(port, device, index, id uint32) int16 {
	c := active.Load()
	if c == nil || c.input == nil {
		return 0
	}
	if c.input.InputState(uint(port), emucore.Device(device), uint(index), uint(id)) {
		return 1
	}
	return 0
}

// onLog receives retro_log_printf_t calls. Format arguments are not
// expanded; the format string is logged as is.
func onLog(level uint32, format *byte) {
	c := active.Load()
	if c == nil || c.log == nil {
		return
	}
	c.log(emucore.LogLevel(level), goString(format))
}
