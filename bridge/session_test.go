package bridge

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emucore "github.com/user-none/retrohost/api"
)

func TestOpen_CoreLoadError(t *testing.T) {
	_, err := Open(fakeLoader{err: errNoLibrary}, "/cores/missing.so", Options{})

	var loadErr *CoreLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "/cores/missing.so", loadErr.Path)
	assert.ErrorIs(t, err, errNoLibrary)
}

func TestOpen_KeepsLoaderCoreLoadError(t *testing.T) {
	inner := &CoreLoadError{Path: "/cores/libfoo.so", Err: errNoLibrary}
	_, err := Open(fakeLoader{err: inner}, "/cores/foo.so", Options{})
	assert.Same(t, inner, err)
}

func TestInit_RegistersCallbacksFirst(t *testing.T) {
	core := newFakeCore()
	s, _ := newTestSession(t, core, Options{})

	require.NoError(t, s.Init())

	assert.Equal(t, []string{
		"set_environment",
		"set_video_refresh",
		"set_audio_sample",
		"set_audio_sample_batch",
		"set_input_poll",
		"set_input_state",
		"init",
	}, core.Calls())
	assert.NotNil(t, core.env)
	assert.NotNil(t, core.input)
}

func TestInit_Twice(t *testing.T) {
	s, _ := newTestSession(t, newFakeCore(), Options{})
	require.NoError(t, s.Init())
	assert.ErrorIs(t, s.Init(), ErrAlreadyInitialized)
}

func TestEntryPointsBeforeInit(t *testing.T) {
	core := newFakeCore()
	s, _ := newTestSession(t, core, Options{})

	assert.ErrorIs(t, s.LoadGame("/roms/game.md", []byte{1}), ErrNotInitialized)
	assert.ErrorIs(t, s.RunFrame(), ErrNotInitialized)
	assert.ErrorIs(t, s.Reset(), ErrNotInitialized)
	assert.ErrorIs(t, s.Deinit(), ErrNotInitialized)
	_, err := s.UnloadGame()
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.Equal(t, int32(0), core.runs.Load())
	assert.Empty(t, core.Calls())
}

func TestQueriesBeforeLoad(t *testing.T) {
	s, _ := newTestSession(t, newFakeCore(), Options{})
	require.NoError(t, s.Init())

	_, err := s.Region()
	assert.ErrorIs(t, err, ErrNoGame)
	_, err = s.SystemAVInfo()
	assert.ErrorIs(t, err, ErrNoGame)
	_, err = s.SystemInfo()
	assert.ErrorIs(t, err, ErrNoGame)
	assert.ErrorIs(t, s.RunFrame(), ErrNoGame)
	_, err = s.MemoryData(emucore.MemorySaveRAM)
	assert.ErrorIs(t, err, ErrNoGame)
}

func TestLoadGame_Buffer(t *testing.T) {
	core := newFakeCore()
	core.region = emucore.RegionPAL
	var rates []int
	s, _ := newTestSession(t, core, Options{Frontend: Frontend{
		PrepareAudio: func(rate int) { rates = append(rates, rate) },
	}})
	require.NoError(t, s.Init())

	content := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	require.NoError(t, s.LoadGame("/roms/sonic.md", content))

	assert.Equal(t, content, core.game.Data)
	assert.Equal(t, "/roms/sonic.md", core.game.Path)

	region, err := s.Region()
	require.NoError(t, err)
	assert.Equal(t, emucore.RegionPAL, region)

	av, err := s.SystemAVInfo()
	require.NoError(t, err)
	assert.Equal(t, core.av, av)

	info, err := s.SystemInfo()
	require.NoError(t, err)
	assert.Equal(t, "Fake", info.LibraryName)

	assert.Equal(t, []int{44100}, rates)
	assert.Equal(t, emucore.DeviceJoypad, core.ports[0])
	assert.Equal(t, FrameInterval(60), s.FrameInterval())
	assert.Equal(t, "/roms/sonic.md", s.GamePath())
}

func TestLoadGame_FullPath(t *testing.T) {
	core := newFakeCore()
	core.info.NeedFullPath = true
	s, _ := newTestSession(t, core, Options{})
	require.NoError(t, s.Init())

	require.NoError(t, s.LoadGame("/roms/disc.cue", nil))
	assert.Equal(t, "/roms/disc.cue", core.game.Path)
	assert.Nil(t, core.game.Data)
}

func TestLoadGame_ReadsContentFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.bin")
	require.NoError(t, os.WriteFile(path, []byte{9, 8, 7}, 0644))

	core := newFakeCore()
	s, _ := newTestSession(t, core, Options{})
	require.NoError(t, s.Init())

	require.NoError(t, s.LoadGame(path, nil))
	assert.Equal(t, []byte{9, 8, 7}, core.game.Data)
}

func TestLoadGame_UnreadableContent(t *testing.T) {
	core := newFakeCore()
	s, _ := newTestSession(t, core, Options{})
	require.NoError(t, s.Init())

	err := s.LoadGame(filepath.Join(t.TempDir(), "missing.md"), nil)
	var gameErr *GameLoadError
	require.ErrorAs(t, err, &gameErr)
	assert.False(t, gameErr.ByPath)
	assert.NotContains(t, core.Calls(), "load_game")
}

func TestLoadGame_Rejected(t *testing.T) {
	core := newFakeCore()
	core.rejectGame = true
	s, _ := newTestSession(t, core, Options{})
	require.NoError(t, s.Init())

	err := s.LoadGame("/roms/bad.md", []byte{1, 2, 3})

	var gameErr *GameLoadError
	require.ErrorAs(t, err, &gameErr)
	assert.Equal(t, "/roms/bad.md", gameErr.Path)
	assert.Equal(t, 3, gameErr.Size)
	assert.False(t, gameErr.ByPath)
	assert.ErrorIs(t, err, errGameRejected)

	_, err = s.Region()
	assert.ErrorIs(t, err, ErrNoGame)
	assert.False(t, s.Start())
}

func TestLoadGame_Twice(t *testing.T) {
	s, _ := loadedSession(t, newFakeCore(), Options{})
	assert.ErrorIs(t, s.LoadGame("/roms/other.md", []byte{1}), ErrGameLoaded)
}

func TestLoadGame_AllDeclaredPortsUseJoypad(t *testing.T) {
	core := newFakeCore()
	core.onInit = func(c *fakeCore) {
		c.env.SetControllerInfo([]emucore.ControllerInfo{
			{Types: []emucore.ControllerDescription{{Desc: "Pad", ID: emucore.DeviceJoypad}}},
			{Types: []emucore.ControllerDescription{{Desc: "Pad", ID: emucore.DeviceJoypad}}},
		})
	}
	s, _ := newTestSession(t, core, Options{})
	require.NoError(t, s.Init())
	require.NoError(t, s.LoadGame("/roms/game.md", []byte{1}))

	assert.Equal(t, map[uint]emucore.Device{0: emucore.DeviceJoypad, 1: emucore.DeviceJoypad}, core.ports)
}

func TestSaveRAM_RoundTrip(t *testing.T) {
	core := newFakeCore()
	core.sram = make([]byte, 8)
	s, _ := loadedSession(t, core, Options{})

	save := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, s.SetMemoryData(emucore.MemorySaveRAM, save))
	assert.Equal(t, save, core.sram)

	got, err := s.MemoryData(emucore.MemorySaveRAM)
	require.NoError(t, err)
	assert.Equal(t, save, got)

	out, err := s.UnloadGame()
	require.NoError(t, err)
	assert.Equal(t, save, out)

	// Save RAM is copied out before the game is unloaded
	calls := core.Calls()
	unload := slices.Index(calls, "unload_game")
	require.GreaterOrEqual(t, unload, 1)
	assert.Equal(t, "get_memory_data", calls[unload-1])
}

func TestSaveRAM_ZeroSize(t *testing.T) {
	core := newFakeCore()
	s, _ := loadedSession(t, core, Options{})

	require.NoError(t, s.SetMemoryData(emucore.MemorySaveRAM, []byte{1, 2, 3}))
	got, err := s.MemoryData(emucore.MemorySaveRAM)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.MemoryData(emucore.MemoryRTC)
	require.NoError(t, err)
	assert.Nil(t, got)

	out, err := s.UnloadGame()
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSaveRAM_Truncated(t *testing.T) {
	core := newFakeCore()
	core.sram = make([]byte, 4)
	s, _ := loadedSession(t, core, Options{})

	require.NoError(t, s.SetMemoryData(emucore.MemorySaveRAM, []byte{1, 2, 3, 4, 5, 6}))
	assert.Equal(t, []byte{1, 2, 3, 4}, core.sram)
}

func TestUnloadGame_MemoryViewNotRetained(t *testing.T) {
	core := newFakeCore()
	core.sram = []byte{5, 5}
	s, _ := loadedSession(t, core, Options{})

	out, err := s.UnloadGame()
	require.NoError(t, err)
	core.sram[0] = 0
	assert.Equal(t, []byte{5, 5}, out)

	_, err = s.UnloadGame()
	assert.ErrorIs(t, err, ErrNoGame)
}

func TestDeinit(t *testing.T) {
	core := newFakeCore()
	s, _ := loadedSession(t, core, Options{})

	require.NoError(t, s.Deinit())

	calls := core.Calls()
	assert.Equal(t, []string{"unload_game", "deinit", "close"}, calls[len(calls)-3:])

	assert.ErrorIs(t, s.Deinit(), ErrDeinitialized)
	assert.ErrorIs(t, s.RunFrame(), ErrDeinitialized)
	assert.ErrorIs(t, s.LoadGame("/roms/game.md", []byte{1}), ErrDeinitialized)
	assert.ErrorIs(t, s.Init(), ErrDeinitialized)
	assert.False(t, s.Start())
	assert.Nil(t, s.ValidExtensions())
}

func TestDeinit_CloseError(t *testing.T) {
	core := newFakeCore()
	core.closeErr = errors.New("dlclose failed")
	s, _ := newTestSession(t, core, Options{})
	require.NoError(t, s.Init())

	var loadErr *CoreLoadError
	assert.ErrorAs(t, s.Deinit(), &loadErr)
}

func TestClose_ShutdownOrder(t *testing.T) {
	core := newFakeCore()
	core.sram = []byte{0, 0, 7}
	s, _ := loadedSession(t, core, Options{})
	require.True(t, s.Start())

	save, err := s.Close()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 7}, save)
	assert.False(t, s.Running())

	calls := core.Calls()
	assert.Equal(t, []string{"get_memory_data", "unload_game", "deinit", "close"}, calls[len(calls)-4:])

	// Closing again does nothing
	save, err = s.Close()
	assert.NoError(t, err)
	assert.Nil(t, save)
	assert.Equal(t, len(calls), len(core.Calls()))
}

func TestClose_BeforeInit(t *testing.T) {
	core := newFakeCore()
	s, _ := newTestSession(t, core, Options{})

	_, err := s.Close()
	require.NoError(t, err)
	assert.Equal(t, []string{"close"}, core.Calls())
}

func TestRunFrame(t *testing.T) {
	core := newFakeCore()
	s, _ := loadedSession(t, core, Options{})

	require.NoError(t, s.RunFrame())
	require.NoError(t, s.RunFrame())
	assert.Equal(t, int32(2), core.runs.Load())
}

func TestReset(t *testing.T) {
	core := newFakeCore()
	s, _ := loadedSession(t, core, Options{})

	require.NoError(t, s.Reset())
	assert.Contains(t, core.Calls(), "reset")
}

func TestSerializeState(t *testing.T) {
	core := newFakeCore()
	core.sram = []byte{1, 2, 3}
	s, _ := loadedSession(t, core, Options{})

	state, err := s.SerializeState()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, state)

	core.sram[0] = 9
	require.NoError(t, s.UnserializeState(state))
	assert.Equal(t, []byte{1, 2, 3}, core.sram)

	assert.ErrorIs(t, s.UnserializeState([]byte{1}), ErrUnserializeFailed)
	assert.ErrorIs(t, s.UnserializeState(nil), ErrUnserializeFailed)
}

func TestSerializeState_Unsupported(t *testing.T) {
	s, _ := loadedSession(t, newFakeCore(), Options{})
	_, err := s.SerializeState()
	assert.ErrorIs(t, err, ErrSerializeFailed)
}

func TestValidExtensions(t *testing.T) {
	s, _ := newTestSession(t, newFakeCore(), Options{})
	assert.Equal(t, []string{"md", "bin"}, s.ValidExtensions())
}

func TestIsAllZeros(t *testing.T) {
	assert.True(t, IsAllZeros(nil))
	assert.True(t, IsAllZeros(make([]byte, 32)))
	assert.False(t, IsAllZeros([]byte{0, 0, 1}))
}
