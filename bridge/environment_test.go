package bridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	emucore "github.com/user-none/retrohost/api"
)

func TestParseOption(t *testing.T) {
	tests := []struct {
		decl   string
		desc   string
		values []string
	}{
		{"Region; auto|ntsc|pal", "Region", []string{"auto", "ntsc", "pal"}},
		{"Sprite limit;enabled|disabled", "Sprite limit", []string{"enabled", "disabled"}},
		{"Single; only", "Single", []string{"only"}},
		{"No values here", "No values here", nil},
		{"Empty; ", "Empty", nil},
		{"Pipes; a||b", "Pipes", []string{"a", "b"}},
	}
	for _, tt := range tests {
		opt := ParseOption("key", tt.decl)
		assert.Equal(t, tt.desc, opt.Description, tt.decl)
		assert.Equal(t, tt.values, opt.Values, tt.decl)
	}

	assert.Equal(t, "auto", ParseOption("k", "Region; auto|pal").Default())
	assert.Equal(t, "", ParseOption("k", "Region").Default())
}

func TestSetVariables_DefaultsFirstWriteWins(t *testing.T) {
	s, _ := newTestSession(t, newFakeCore(), Options{
		Variables: map[string]string{"fake_region": "pal"},
	})

	s.SetVariables([]emucore.Variable{
		{Key: "fake_region", Value: "Region; auto|ntsc|pal"},
		{Key: "fake_sprites", Value: "Sprite limit; enabled|disabled"},
	})

	v, ok := s.Variable("fake_region")
	assert.True(t, ok)
	assert.Equal(t, "pal", v)
	v, ok = s.Variable("fake_sprites")
	assert.True(t, ok)
	assert.Equal(t, "enabled", v)

	// A second declaration does not reset values
	s.SetVariables([]emucore.Variable{{Key: "fake_sprites", Value: "Sprite limit; disabled|enabled"}})
	v, _ = s.Variable("fake_sprites")
	assert.Equal(t, "enabled", v)

	opts := s.CoreOptions()
	require.Len(t, opts, 1)
	assert.Equal(t, "fake_sprites", opts[0].Key)
	assert.Equal(t, "disabled", opts[0].Default())

	_, ok = s.Variable("unknown")
	assert.False(t, ok)
}

func TestVariableUpdated(t *testing.T) {
	s, _ := newTestSession(t, newFakeCore(), Options{})
	s.SetVariables([]emucore.Variable{{Key: "k", Value: "K; a|b"}})

	assert.False(t, s.VariableUpdated())

	s.SetVariable("k", "a")
	assert.False(t, s.VariableUpdated(), "same value is not an update")

	s.SetVariable("k", "b")
	assert.True(t, s.VariableUpdated())
	assert.False(t, s.VariableUpdated(), "reported once")

	v, _ := s.Variable("k")
	assert.Equal(t, "b", v)
	assert.Equal(t, map[string]string{"k": "b"}, s.Variables())
}

func TestSetPixelFormat(t *testing.T) {
	var frames int
	s, logs := loadedSession(t, newFakeCore(), Options{Frontend: Frontend{
		Video: func(*Frame) { frames++ },
	}})

	assert.Equal(t, emucore.PixelFormat0RGB1555, s.PixelFormat())
	assert.True(t, s.SetPixelFormat(emucore.PixelFormatRGB565))
	assert.True(t, s.SetPixelFormat(emucore.PixelFormatXRGB8888))
	assert.Equal(t, emucore.PixelFormatXRGB8888, s.PixelFormat())

	assert.False(t, s.SetPixelFormat(emucore.PixelFormat(7)))
	perr := s.Diagnostics().PixelFormatError
	require.NotNil(t, perr)
	assert.Equal(t, emucore.PixelFormat(7), perr.Format)
	assert.Equal(t, 1, logs.FilterMessage("refused pixel format").Len())

	s.VideoRefresh(make([]byte, 16), 2, 2, 8)
	require.Equal(t, 1, frames)

	// Fixed once a frame went out
	assert.True(t, s.SetPixelFormat(emucore.PixelFormatXRGB8888))
	assert.False(t, s.SetPixelFormat(emucore.PixelFormatRGB565))
	assert.Equal(t, emucore.PixelFormatXRGB8888, s.PixelFormat())
	assert.Equal(t, emucore.PixelFormatRGB565, s.Diagnostics().PixelFormatError.Format)
}

func TestLogInterface(t *testing.T) {
	s, _ := newTestSession(t, newFakeCore(), Options{})
	fn, ok := s.LogInterface()
	assert.False(t, ok)
	assert.Nil(t, fn)

	var got []string
	s, _ = newTestSession(t, newFakeCore(), Options{Frontend: Frontend{
		Log: func(level emucore.LogLevel, msg string) { got = append(got, level.String()+":"+msg) },
	}})
	fn, ok = s.LogInterface()
	require.True(t, ok)
	fn(emucore.LogWarn, "low battery\n")
	assert.Equal(t, []string{"warn:low battery"}, got)
}

func TestDirectories(t *testing.T) {
	base := t.TempDir()
	sys := filepath.Join(base, "system")
	save := filepath.Join(base, "saves", "fake")
	s, _ := newTestSession(t, newFakeCore(), Options{SystemDir: sys, SaveDir: save})

	dir, ok := s.SystemDirectory()
	require.True(t, ok)
	assert.Equal(t, sys, dir)
	assert.DirExists(t, sys)

	dir, ok = s.SaveDirectory()
	require.True(t, ok)
	assert.Equal(t, save, dir)
	assert.DirExists(t, save)

	s, _ = newTestSession(t, newFakeCore(), Options{})
	_, ok = s.SystemDirectory()
	assert.False(t, ok)
	_, ok = s.SaveDirectory()
	assert.False(t, ok)
}

func TestDirectories_CreateFails(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	s, logs := newTestSession(t, newFakeCore(), Options{SystemDir: filepath.Join(file, "system")})
	_, ok := s.SystemDirectory()
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("failed to create directory").Len())
}

func TestUnsupportedCommand(t *testing.T) {
	s, logs := newTestSession(t, newFakeCore(), Options{})

	s.UnsupportedCommand(47)
	s.UnsupportedCommand(65583)
	s.UnsupportedCommand(47)

	assert.Equal(t, []uint{47, 65583}, s.Diagnostics().UnsupportedCommands)
	entries := logs.FilterMessage("unsupported environment command").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
}

func TestDiagnostics(t *testing.T) {
	s, _ := newTestSession(t, newFakeCore(), Options{})

	s.SetSupportAchievements(true)
	s.SetPerformanceLevel(4)
	s.SetInputDescriptors([]emucore.InputDescriptor{{Device: emucore.DeviceJoypad, ID: emucore.JoypadA, Description: "Jump"}})
	s.SetControllerInfo([]emucore.ControllerInfo{{Types: []emucore.ControllerDescription{{Desc: "Pad", ID: emucore.DeviceJoypad}}}})
	s.SetMemoryMaps(3)
	assert.False(t, s.ShutdownRequested())
	s.Shutdown()

	d := s.Diagnostics()
	assert.True(t, d.SupportsAchievements)
	assert.Equal(t, uint(4), d.PerformanceLevel)
	require.Len(t, d.InputDescriptors, 1)
	assert.Equal(t, "Jump", d.InputDescriptors[0].Description)
	require.Len(t, d.ControllerInfo, 1)
	assert.Equal(t, 3, d.MemoryMapDescriptors)
	assert.True(t, d.ShutdownRequested)
	assert.True(t, s.ShutdownRequested())
	assert.True(t, s.CanDupe())

	// Snapshots are independent of later changes
	d.ControllerInfo[0].Types[0].Desc = "changed"
	assert.Equal(t, "Pad", s.Diagnostics().ControllerInfo[0].Types[0].Desc)
}

func TestSetSystemAVInfo(t *testing.T) {
	var rates []int
	s, _ := loadedSession(t, newFakeCore(), Options{Frontend: Frontend{
		PrepareAudio: func(rate int) { rates = append(rates, rate) },
	}})
	require.Equal(t, []int{44100}, rates)

	av := emucore.SystemAVInfo{
		Geometry: emucore.GameGeometry{BaseWidth: 256, BaseHeight: 240},
		Timing:   emucore.Timing{FPS: 50, SampleRate: 44100},
	}
	s.SetSystemAVInfo(av)
	assert.Equal(t, []int{44100}, rates, "same rate does not prepare again")
	assert.Equal(t, FrameInterval(50), s.FrameInterval())

	av.Timing.SampleRate = 48000
	s.SetSystemAVInfo(av)
	assert.Equal(t, []int{44100, 48000}, rates)

	got, err := s.SystemAVInfo()
	require.NoError(t, err)
	assert.Equal(t, av, got)
}

func TestSetGeometry(t *testing.T) {
	s, _ := loadedSession(t, newFakeCore(), Options{})

	g := emucore.GameGeometry{BaseWidth: 256, BaseHeight: 192, MaxWidth: 320, MaxHeight: 240, AspectRatio: 4.0 / 3.0}
	s.SetGeometry(g)

	av, err := s.SystemAVInfo()
	require.NoError(t, err)
	assert.Equal(t, g, av.Geometry)
	assert.Equal(t, float64(60), av.Timing.FPS)
}
