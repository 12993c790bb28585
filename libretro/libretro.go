// Package libretro binds libretro cores built as shared libraries and
// exposes them as emucore.Core. Raw environment commands from the core are
// decoded here into typed emucore.Environment calls.
//
// libretro cores keep global state and the callback ABI carries no user
// data, so only one core can be loaded per process at a time.
package libretro

import (
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"unsafe"
)

// APIVersion is the RETRO_API_VERSION this package speaks.
const APIVersion = 1

var (
	// ErrCoreActive is returned by Load while another core is still open.
	ErrCoreActive = errors.New("another core is already loaded")

	// ErrUnsupportedPlatform is returned where shared libraries cannot be
	// opened.
	ErrUnsupportedPlatform = errors.New("dynamic core loading is not supported on " + runtime.GOOS)
)

// LibraryName derives the library identifier from a core filename by
// stripping the directory, the extension and a leading "lib".
// "/cores/libsnes9x_libretro.so" becomes "snes9x_libretro".
func LibraryName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.TrimPrefix(name, "lib")
}

// PlatformLibraryName returns the shared library file name the platform
// linker would look for given a library identifier.
func PlatformLibraryName(name string) string {
	return platformLibraryName(runtime.GOOS, name)
}

func platformLibraryName(goos, name string) string {
	switch goos {
	case "darwin", "ios":
		return "lib" + name + ".dylib"
	case "windows":
		return name + ".dll"
	default:
		return "lib" + name + ".so"
	}
}

// candidatePaths lists the files tried when loading path: the path itself,
// then the platform library name in the same directory.
func candidatePaths(path string) []string {
	alt := filepath.Join(filepath.Dir(path), PlatformLibraryName(LibraryName(path)))
	if alt == filepath.Clean(path) {
		return []string{path}
	}
	return []string{path, alt}
}

// splitExtensions parses the "|" separated extension list of
// retro_system_info.
func splitExtensions(list string) []string {
	var exts []string
	for _, e := range strings.Split(list, "|") {
		e = strings.TrimPrefix(strings.TrimSpace(e), ".")
		if e != "" {
			exts = append(exts, strings.ToLower(e))
		}
	}
	return exts
}

// goString copies a NUL terminated C string.
func goString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

// C struct layouts from libretro.h. Field order and widths must match the
// C definitions exactly.

type retroSystemInfo struct {
	libraryName     *byte
	libraryVersion  *byte
	validExtensions *byte
	needFullpath    bool
	blockExtract    bool
}

type retroGameGeometry struct {
	baseWidth   uint32
	baseHeight  uint32
	maxWidth    uint32
	maxHeight   uint32
	aspectRatio float32
}

type retroSystemTiming struct {
	fps        float64
	sampleRate float64
}

type retroSystemAVInfo struct {
	geometry retroGameGeometry
	timing   retroSystemTiming
}

type retroGameInfo struct {
	path *byte
	data unsafe.Pointer
	size uintptr
	meta *byte
}

type retroVariable struct {
	key   *byte
	value *byte
}

type retroInputDescriptor struct {
	port        uint32
	device      uint32
	index       uint32
	id          uint32
	description *byte
}

type retroControllerDescription struct {
	desc *byte
	id   uint32
}

type retroControllerInfo struct {
	types    *retroControllerDescription
	numTypes uint32
}

type retroMemoryMap struct {
	descriptors    unsafe.Pointer
	numDescriptors uint32
}

type retroLogCallback struct {
	log uintptr
}
