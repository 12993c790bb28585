package emucore

import "fmt"

// PixelFormat is the frame buffer format negotiated with the core.
// Values match the RETRO_PIXEL_FORMAT_* constants.
type PixelFormat int

const (
	PixelFormat0RGB1555 PixelFormat = iota
	PixelFormatXRGB8888
	PixelFormatRGB565
)

// Valid reports whether the format is one the bridge can present.
func (f PixelFormat) Valid() bool {
	return f >= PixelFormat0RGB1555 && f <= PixelFormatRGB565
}

// BytesPerPixel returns the size of one pixel, or 0 for unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatXRGB8888:
		return 4
	case PixelFormatRGB565, PixelFormat0RGB1555:
		return 2
	default:
		return 0
	}
}

func (f PixelFormat) String() string {
	switch f {
	case PixelFormat0RGB1555:
		return "0RGB1555"
	case PixelFormatXRGB8888:
		return "XRGB8888"
	case PixelFormatRGB565:
		return "RGB565"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// SystemInfo describes a loaded core. It is reported by the core itself and
// is stable for the lifetime of the library.
type SystemInfo struct {
	LibraryName     string
	LibraryVersion  string
	ValidExtensions []string // Without leading dot, e.g. "nes"
	NeedFullPath    bool     // Core wants a path instead of a memory buffer
	BlockExtract    bool     // Core wants archives passed through untouched
}

// GameGeometry describes the dimensions of the frames the core produces.
type GameGeometry struct {
	BaseWidth   int
	BaseHeight  int
	MaxWidth    int
	MaxHeight   int
	AspectRatio float64 // <= 0 means BaseWidth/BaseHeight
}

// DisplayAspect returns the aspect ratio the frame should be shown at.
func (g GameGeometry) DisplayAspect() float64 {
	if g.AspectRatio > 0 {
		return g.AspectRatio
	}
	if g.BaseHeight == 0 {
		return 0
	}
	return float64(g.BaseWidth) / float64(g.BaseHeight)
}

// SystemAVInfo is the timing and geometry the core reports after a game
// is loaded. The core may replace either part at runtime.
type SystemAVInfo struct {
	Geometry GameGeometry
	Timing   Timing
}

func (i SystemAVInfo) String() string {
	return fmt.Sprintf("%dx%d (max %dx%d) aspect %.3f, %.2ffps, %.0fHz",
		i.Geometry.BaseWidth, i.Geometry.BaseHeight,
		i.Geometry.MaxWidth, i.Geometry.MaxHeight,
		i.Geometry.DisplayAspect(), i.Timing.FPS, i.Timing.SampleRate)
}

// GameInfo is what the frontend hands to the core when loading content.
// Data is nil when the core asked for a full path.
type GameInfo struct {
	Path string
	Data []byte
	Meta string
}

// MemoryID identifies a memory region exposed by the core.
// Values match the RETRO_MEMORY_* constants.
type MemoryID uint

const (
	MemorySaveRAM   MemoryID = 0 // Battery backed save data
	MemoryRTC       MemoryID = 1
	MemorySystemRAM MemoryID = 2
	MemoryVideoRAM  MemoryID = 3
)

// LogLevel is the severity of a message logged by the core.
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
)

func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "debug"
	case LogInfo:
		return "info"
	case LogWarn:
		return "warn"
	case LogError:
		return "error"
	default:
		return "unknown"
	}
}

// Variable is a core option declaration or lookup. For declarations Value
// holds the libretro "Description; default|other|..." string.
type Variable struct {
	Key   string
	Value string
}
