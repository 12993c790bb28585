package bridge

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	emucore "github.com/user-none/retrohost/api"
)

// fakeCore is an in-memory core that records the entry points called on it.
type fakeCore struct {
	mu    sync.Mutex
	calls []string

	env   emucore.Environment
	video emucore.VideoRefresher
	audio emucore.AudioSampler
	batch emucore.AudioBatcher
	poll  emucore.InputPoller
	input emucore.InputStater

	info       emucore.SystemInfo
	av         emucore.SystemAVInfo
	region     emucore.Region
	rejectGame bool
	game       emucore.GameInfo
	sram       []byte
	state      []byte
	ports      map[uint]emucore.Device
	closeErr   error

	runs   atomic.Int32
	onInit func(c *fakeCore)
	onLoad func(c *fakeCore)
	onRun  func(c *fakeCore)
}

var _ emucore.Core = (*fakeCore)(nil)

func newFakeCore() *fakeCore {
	return &fakeCore{
		info: emucore.SystemInfo{
			LibraryName:     "Fake",
			LibraryVersion:  "1.0",
			ValidExtensions: []string{"md", "bin"},
		},
		av: emucore.SystemAVInfo{
			Geometry: emucore.GameGeometry{BaseWidth: 320, BaseHeight: 224, MaxWidth: 320, MaxHeight: 240},
			Timing:   emucore.Timing{FPS: 60, SampleRate: 44100},
		},
		ports: make(map[uint]emucore.Device),
	}
}

func (c *fakeCore) record(name string) {
	c.mu.Lock()
	c.calls = append(c.calls, name)
	c.mu.Unlock()
}

func (c *fakeCore) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *fakeCore) APIVersion() uint { return 1 }

func (c *fakeCore) SetEnvironment(h emucore.Environment) {
	c.record("set_environment")
	c.env = h
}

func (c *fakeCore) SetVideoRefresh(h emucore.VideoRefresher) {
	c.record("set_video_refresh")
	c.video = h
}

func (c *fakeCore) SetAudioSample(h emucore.AudioSampler) {
	c.record("set_audio_sample")
	c.audio = h
}

func (c *fakeCore) SetAudioSampleBatch(h emucore.AudioBatcher) {
	c.record("set_audio_sample_batch")
	c.batch = h
}

func (c *fakeCore) SetInputPoll(h emucore.InputPoller) {
	c.record("set_input_poll")
	c.poll = h
}

func (c *fakeCore) SetInputState(h emucore.InputStater) {
	c.record("set_input_state")
	c.input = h
}

func (c *fakeCore) Init() {
	c.record("init")
	if c.onInit != nil {
		c.onInit(c)
	}
}

func (c *fakeCore) Deinit() { c.record("deinit") }

func (c *fakeCore) SystemInfo() emucore.SystemInfo { return c.info }

func (c *fakeCore) SystemAVInfo() emucore.SystemAVInfo { return c.av }

func (c *fakeCore) SetControllerPortDevice(port uint, device emucore.Device) {
	c.mu.Lock()
	c.ports[port] = device
	c.mu.Unlock()
}

func (c *fakeCore) Reset() { c.record("reset") }

func (c *fakeCore) Run() {
	c.runs.Add(1)
	if c.onRun != nil {
		c.onRun(c)
	}
}

func (c *fakeCore) LoadGame(game emucore.GameInfo) bool {
	c.record("load_game")
	if c.rejectGame {
		return false
	}
	c.game = game
	if c.onLoad != nil {
		c.onLoad(c)
	}
	return true
}

func (c *fakeCore) UnloadGame() { c.record("unload_game") }

func (c *fakeCore) Region() emucore.Region { return c.region }

func (c *fakeCore) MemoryData(id emucore.MemoryID) []byte {
	if id != emucore.MemorySaveRAM {
		return nil
	}
	c.record("get_memory_data")
	return c.sram
}

func (c *fakeCore) SerializeSize() int { return len(c.sram) }

func (c *fakeCore) Serialize(dst []byte) bool {
	return copy(dst, c.sram) == len(c.sram)
}

func (c *fakeCore) Unserialize(src []byte) bool {
	if len(src) != len(c.sram) {
		return false
	}
	copy(c.sram, src)
	return true
}

func (c *fakeCore) Close() error {
	c.record("close")
	return c.closeErr
}

type fakeLoader struct {
	core *fakeCore
	err  error
}

func (l fakeLoader) Load(path string) (emucore.Core, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.core, nil
}

var errNoLibrary = errors.New("no such library")

// newTestSession opens a session on core with debug logging captured.
func newTestSession(t *testing.T, core *fakeCore, opts Options) (*Session, *observer.ObservedLogs) {
	t.Helper()
	obs, logs := observer.New(zapcore.DebugLevel)
	opts.Logger = zap.New(obs)
	s, err := Open(fakeLoader{core: core}, "/cores/fake_libretro.so", opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, logs
}

// loadedSession returns an initialized session with a game loaded.
func loadedSession(t *testing.T, core *fakeCore, opts Options) (*Session, *observer.ObservedLogs) {
	t.Helper()
	s, logs := newTestSession(t, core, opts)
	require.NoError(t, s.Init())
	require.NoError(t, s.LoadGame("/roms/game.md", []byte{1, 2, 3, 4}))
	return s, logs
}
