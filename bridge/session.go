package bridge

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	emucore "github.com/user-none/retrohost/api"
	"github.com/user-none/retrohost/romloader"
)

// Frontend receives what the core produces. Every callback is optional and
// is invoked on the goroutine running the core, normally the Loop's, while
// that goroutine holds the session's core lock. A callback may only use the
// session's state accessors (Region, SystemAVInfo, SystemInfo, GamePath,
// PixelFormat, Variables, Diagnostics, Running) and its input methods. Any
// method that calls into the core or stops the loop deadlocks: LoadGame,
// RunFrame, Reset, MemoryData, SetMemoryData, SerializeState,
// UnserializeState, ValidExtensions, Start, Stop, UnloadGame, Deinit and
// Close.
type Frontend struct {
	// Log receives messages the core writes through the log interface.
	// Without it the core is told logging is unavailable.
	Log func(level emucore.LogLevel, msg string)

	// PrepareAudio is called with the core's sample rate once AV info is
	// first known and again whenever the rate changes.
	PrepareAudio func(sampleRate int)

	// Video receives each finished frame. The frame is reused and is only
	// valid until Video returns.
	Video func(frame *Frame)

	// Audio receives interleaved little-endian signed 16-bit stereo. The
	// slice is only valid until Audio returns.
	Audio func(samples []byte)
}

// Options configure a Session.
type Options struct {
	Logger *zap.Logger

	// SystemDir and SaveDir are reported to the core and created on first
	// request. An empty path is reported as unavailable.
	SystemDir string
	SaveDir   string

	// Variables seeds core option values. Host values win over the
	// defaults a core declares.
	Variables map[string]string

	// MaxContentSize bounds content read from disk for buffer loading.
	// Zero uses romloader.DefaultMaxSize.
	MaxContentSize int64

	Frontend Frontend
}

type lifecycle int

const (
	stateLoaded lifecycle = iota
	stateInitialized
	stateDeinitialized
)

// Session hosts one loaded core. It owns the core handle, answers the
// core's callbacks and drives it from a Loop.
//
// Core entry points are serialized by coreMu. Callbacks from the core arrive
// while coreMu is held and only take mu, so host goroutines can read session
// state while a frame runs.
type Session struct {
	core  emucore.Core
	path  string
	log   *zap.Logger
	opts  Options
	front Frontend

	coreMu sync.Mutex

	mu          sync.Mutex
	state       lifecycle
	game        bool
	gamePath    string
	sysInfo     emucore.SystemInfo
	avInfo      emucore.SystemAVInfo
	hasAV       bool
	region      emucore.Region
	pixelFormat emucore.PixelFormat
	firstFrame  bool
	variables   map[string]string
	options     []CoreOption
	varsUpdated bool
	diag        Diagnostics
	unsupported map[uint]struct{}
	systemReady bool
	saveReady   bool

	// Touched only by the goroutine holding coreMu
	frames  FrameCache
	samples BufferCache
	content []byte

	input *InputState
	loop  *Loop
}

var (
	_ emucore.Environment    = (*Session)(nil)
	_ emucore.VideoRefresher = (*Session)(nil)
	_ emucore.AudioSampler   = (*Session)(nil)
	_ emucore.AudioBatcher   = (*Session)(nil)
	_ emucore.InputPoller    = (*Session)(nil)
	_ emucore.InputStater    = (*Session)(nil)
)

// Open loads the core library at path. The session must be initialized
// with Init before a game can be loaded.
func Open(loader emucore.Loader, path string, opts Options) (*Session, error) {
	core, err := loader.Load(path)
	if err != nil {
		var loadErr *CoreLoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, &CoreLoadError{Path: path, Err: err}
	}
	return newSession(core, path, opts), nil
}

func newSession(core emucore.Core, path string, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		core:        core,
		path:        path,
		log:         log,
		opts:        opts,
		front:       opts.Frontend,
		pixelFormat: emucore.PixelFormat0RGB1555,
		variables:   make(map[string]string, len(opts.Variables)),
		unsupported: make(map[uint]struct{}),
		input:       NewInputState(),
	}
	for k, v := range opts.Variables {
		s.variables[k] = v
	}
	s.loop = NewLoop(s.tick)
	return s
}

// Path returns the core library path the session was opened with.
func (s *Session) Path() string { return s.path }

// Init registers the frontend callbacks and initializes the core. It may
// only be called once.
func (s *Session) Init() error {
	s.coreMu.Lock()
	defer s.coreMu.Unlock()

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	switch state {
	case stateInitialized:
		return ErrAlreadyInitialized
	case stateDeinitialized:
		return ErrDeinitialized
	}

	s.core.SetEnvironment(s)
	s.core.SetVideoRefresh(s)
	s.core.SetAudioSample(s)
	s.core.SetAudioSampleBatch(s)
	s.core.SetInputPoll(s)
	s.core.SetInputState(s)
	s.core.Init()

	s.mu.Lock()
	s.state = stateInitialized
	s.mu.Unlock()

	info := s.core.SystemInfo()
	s.log.Info("core initialized",
		zap.String("library", info.LibraryName),
		zap.String("version", info.LibraryVersion),
		zap.Uint("api", s.core.APIVersion()))
	return nil
}

// checkState returns the lifecycle error for calling into the core, or for
// calling into a loaded game when needGame is set.
func (s *Session) checkState(needGame bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case stateLoaded:
		return ErrNotInitialized
	case stateDeinitialized:
		return ErrDeinitialized
	}
	if needGame && !s.game {
		return ErrNoGame
	}
	return nil
}

// ValidExtensions returns the content extensions the core accepts, without
// a leading dot.
func (s *Session) ValidExtensions() []string {
	s.coreMu.Lock()
	defer s.coreMu.Unlock()
	s.mu.Lock()
	closed := s.state == stateDeinitialized
	s.mu.Unlock()
	if closed {
		return nil
	}
	return s.core.SystemInfo().ValidExtensions
}

// LoadGame hands content to the core. Cores that need a full path get
// path; all others get content, which is read from path when nil.
// Archives are extracted unless the core asks for them untouched.
func (s *Session) LoadGame(path string, content []byte) error {
	s.coreMu.Lock()
	defer s.coreMu.Unlock()

	if err := s.checkState(false); err != nil {
		return err
	}
	s.mu.Lock()
	loaded := s.game
	s.mu.Unlock()
	if loaded {
		return ErrGameLoaded
	}

	info := s.core.SystemInfo()
	game := emucore.GameInfo{Path: path}
	if !info.NeedFullPath {
		if content == nil {
			c, err := romloader.Load(path, romloader.Options{
				Extensions: info.ValidExtensions,
				MaxSize:    s.opts.MaxContentSize,
				Raw:        info.BlockExtract,
			})
			if err != nil {
				return &GameLoadError{Path: path, Err: err}
			}
			content = c.Data
			s.log.Debug("content read",
				zap.String("name", c.Name),
				zap.String("archive", c.Archive),
				zap.Int("size", len(c.Data)))
		}
		game.Data = content
	}

	// The core may keep pointing into the buffer until unload
	s.content = game.Data
	if !s.core.LoadGame(game) {
		s.content = nil
		return &GameLoadError{Path: path, Size: len(game.Data), ByPath: info.NeedFullPath, Err: errGameRejected}
	}

	region := s.core.Region()
	av := s.core.SystemAVInfo()

	s.mu.Lock()
	s.game = true
	s.gamePath = path
	s.sysInfo = info
	s.region = region
	ports := max(1, len(s.diag.ControllerInfo))
	s.mu.Unlock()

	s.applyAVInfo(av)
	for port := 0; port < ports; port++ {
		s.core.SetControllerPortDevice(uint(port), emucore.DeviceJoypad)
	}

	s.log.Info("game loaded",
		zap.String("path", path),
		zap.Bool("fullPath", info.NeedFullPath),
		zap.Stringer("region", region),
		zap.Stringer("av", av))
	return nil
}

// applyAVInfo replaces the cached AV info and propagates frame rate and
// sample rate changes. It runs on the goroutine holding coreMu.
func (s *Session) applyAVInfo(av emucore.SystemAVInfo) {
	s.mu.Lock()
	prev, had := s.avInfo, s.hasAV
	s.avInfo = av
	s.hasAV = true
	s.mu.Unlock()

	s.frames.Invalidate()
	if interval := FrameInterval(av.Timing.FPS); interval > 0 {
		s.loop.SetInterval(interval)
	} else {
		s.log.Warn("core reported an invalid frame rate", zap.Float64("fps", av.Timing.FPS))
	}

	if had && prev.Timing.SampleRate == av.Timing.SampleRate {
		return
	}
	if s.front.PrepareAudio != nil && av.Timing.SampleRate > 0 {
		s.front.PrepareAudio(int(av.Timing.SampleRate + 0.5))
	}
}

// Region returns the region of the loaded game.
func (s *Session) Region() (emucore.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.game {
		return 0, ErrNoGame
	}
	return s.region, nil
}

// SystemAVInfo returns the current geometry and timing of the loaded game.
func (s *Session) SystemAVInfo() (emucore.SystemAVInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.game {
		return emucore.SystemAVInfo{}, ErrNoGame
	}
	return s.avInfo, nil
}

// SystemInfo returns the core's system info as cached at game load.
func (s *Session) SystemInfo() (emucore.SystemInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.game {
		return emucore.SystemInfo{}, ErrNoGame
	}
	return s.sysInfo, nil
}

// GamePath returns the path of the loaded game, or "" when none is loaded.
func (s *Session) GamePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.game {
		return ""
	}
	return s.gamePath
}

// PixelFormat returns the negotiated pixel format.
func (s *Session) PixelFormat() emucore.PixelFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pixelFormat
}

// SetMemoryData copies data into a core memory region. Regions the core
// does not expose are ignored. Data longer than the region is truncated.
func (s *Session) SetMemoryData(id emucore.MemoryID, data []byte) error {
	s.coreMu.Lock()
	defer s.coreMu.Unlock()
	if err := s.checkState(true); err != nil {
		return err
	}

	mem := s.core.MemoryData(id)
	if len(mem) == 0 || len(data) == 0 {
		return nil
	}
	if len(mem) != len(data) {
		s.log.Debug("memory size mismatch",
			zap.Uint("id", uint(id)),
			zap.Int("core", len(mem)),
			zap.Int("data", len(data)))
	}
	copy(mem, data)
	return nil
}

// MemoryData returns a copy of a core memory region, or nil when the core
// does not expose it.
func (s *Session) MemoryData(id emucore.MemoryID) ([]byte, error) {
	s.coreMu.Lock()
	defer s.coreMu.Unlock()
	if err := s.checkState(true); err != nil {
		return nil, err
	}
	return s.copyMemory(id), nil
}

func (s *Session) copyMemory(id emucore.MemoryID) []byte {
	mem := s.core.MemoryData(id)
	if len(mem) == 0 {
		return nil
	}
	out := make([]byte, len(mem))
	copy(out, mem)
	return out
}

// UnloadGame stops the loop, copies save RAM out and unloads the game.
// The returned save data may be all zeros; see IsAllZeros.
func (s *Session) UnloadGame() ([]byte, error) {
	s.loop.Stop()
	// Catches a Start that got coreMu between the first Stop and the unload
	defer s.loop.Stop()

	s.coreMu.Lock()
	defer s.coreMu.Unlock()
	if err := s.checkState(true); err != nil {
		return nil, err
	}
	return s.unloadLocked(), nil
}

// unloadLocked must be called with coreMu held and a game loaded.
func (s *Session) unloadLocked() []byte {
	save := s.copyMemory(emucore.MemorySaveRAM)
	s.core.UnloadGame()

	s.mu.Lock()
	s.game = false
	s.gamePath = ""
	s.hasAV = false
	s.firstFrame = false
	s.mu.Unlock()

	s.frames.Invalidate()
	s.content = nil
	s.log.Info("game unloaded", zap.Int("saveBytes", len(save)))
	return save
}

// Deinit stops the loop, deinitializes the core and closes the library.
// A loaded game is unloaded first without saving.
func (s *Session) Deinit() error {
	s.loop.Stop()
	defer s.loop.Stop()

	s.coreMu.Lock()
	defer s.coreMu.Unlock()
	if err := s.checkState(false); err != nil {
		return err
	}
	return s.deinitLocked()
}

func (s *Session) deinitLocked() error {
	s.mu.Lock()
	game := s.game
	s.mu.Unlock()
	if game {
		s.unloadLocked()
	}

	s.mu.Lock()
	s.state = stateDeinitialized
	s.mu.Unlock()

	s.core.Deinit()
	if err := s.core.Close(); err != nil {
		return &CoreLoadError{Path: s.path, Err: err}
	}
	s.log.Info("core deinitialized")
	return nil
}

// Close shuts the session down in order: stop the loop, copy save RAM,
// unload the game, deinitialize the core and close the library. It returns
// the save RAM of the game that was loaded, if any. Close is safe to call in
// any state.
func (s *Session) Close() ([]byte, error) {
	s.loop.Stop()
	defer s.loop.Stop()

	s.coreMu.Lock()
	defer s.coreMu.Unlock()

	s.mu.Lock()
	state, game := s.state, s.game
	s.mu.Unlock()

	switch state {
	case stateDeinitialized:
		return nil, nil
	case stateLoaded:
		s.mu.Lock()
		s.state = stateDeinitialized
		s.mu.Unlock()
		return nil, s.core.Close()
	}

	var save []byte
	if game {
		save = s.unloadLocked()
	}
	return save, s.deinitLocked()
}

// RunFrame runs the core for one frame.
func (s *Session) RunFrame() error {
	s.coreMu.Lock()
	defer s.coreMu.Unlock()
	if err := s.checkState(true); err != nil {
		return err
	}
	s.core.Run()
	return nil
}

// Reset soft resets the loaded game.
func (s *Session) Reset() error {
	s.coreMu.Lock()
	defer s.coreMu.Unlock()
	if err := s.checkState(true); err != nil {
		return err
	}
	s.core.Reset()
	s.log.Info("game reset")
	return nil
}

// SerializeState captures the core's full state.
func (s *Session) SerializeState() ([]byte, error) {
	s.coreMu.Lock()
	defer s.coreMu.Unlock()
	if err := s.checkState(true); err != nil {
		return nil, err
	}

	size := s.core.SerializeSize()
	if size <= 0 {
		return nil, ErrSerializeFailed
	}
	buf := make([]byte, size)
	if !s.core.Serialize(buf) {
		return nil, ErrSerializeFailed
	}
	return buf, nil
}

// UnserializeState restores state captured by SerializeState.
func (s *Session) UnserializeState(data []byte) error {
	s.coreMu.Lock()
	defer s.coreMu.Unlock()
	if err := s.checkState(true); err != nil {
		return err
	}
	if len(data) == 0 || !s.core.Unserialize(data) {
		return ErrUnserializeFailed
	}
	return nil
}

// Start begins running frames at the core's frame rate. It returns false
// when the loop is already running or no game is loaded yet.
//
// The check and the launch happen under coreMu so an unload either sees the
// loop running and stops it, or Start sees the game gone.
func (s *Session) Start() bool {
	s.coreMu.Lock()
	defer s.coreMu.Unlock()

	s.mu.Lock()
	ready := s.state == stateInitialized && s.game && s.hasAV
	s.mu.Unlock()
	if !ready {
		return false
	}
	if !s.loop.Start(s.loop.Interval()) {
		return false
	}
	s.log.Debug("loop started", zap.Duration("interval", s.loop.Interval()))
	return true
}

// Stop halts the loop and waits for a frame in progress to finish.
func (s *Session) Stop() {
	s.loop.Stop()
}

// Running reports whether the loop is running.
func (s *Session) Running() bool {
	return s.loop.Running()
}

// FrameInterval returns the loop's current tick interval.
func (s *Session) FrameInterval() time.Duration {
	return s.loop.Interval()
}

func (s *Session) tick() {
	if err := s.RunFrame(); err != nil {
		s.log.Debug("frame skipped", zap.Error(err))
	}
}

// IsAllZeros reports whether data holds nothing but zero bytes. Save RAM
// that was never written is all zeros and not worth persisting.
func IsAllZeros(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
