package bridge

import (
	"errors"
	"fmt"

	emucore "github.com/user-none/retrohost/api"
)

// Lifecycle errors returned when an operation is called out of order.
var (
	ErrNotInitialized     = errors.New("core not initialized")
	ErrAlreadyInitialized = errors.New("core already initialized")
	ErrDeinitialized      = errors.New("core deinitialized")
	ErrNoGame             = errors.New("no game loaded")
	ErrGameLoaded         = errors.New("game already loaded")
	ErrSerializeFailed    = errors.New("core failed to serialize state")
)

// errGameRejected is the cause of a GameLoadError when the core itself
// returned false from retro_load_game.
var errGameRejected = errors.New("core rejected content")

// CoreLoadError is returned when a core library or one of its required
// entry points cannot be resolved. The session cannot be used.
type CoreLoadError struct {
	Path string
	Err  error
}

func (e *CoreLoadError) Error() string {
	return fmt.Sprintf("failed to load core %s: %v", e.Path, e.Err)
}

func (e *CoreLoadError) Unwrap() error { return e.Err }

// GameLoadError is returned when content could not be read or the core
// refused it. Cores are not safe to retry after this.
type GameLoadError struct {
	Path   string
	Size   int  // Bytes handed to the core, 0 for path loading
	ByPath bool // Core was given a path rather than a buffer
	Err    error
}

func (e *GameLoadError) Error() string {
	if e.ByPath {
		return fmt.Sprintf("failed to load game via path %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to load game via buffer %s (%d bytes): %v", e.Path, e.Size, e.Err)
}

func (e *GameLoadError) Unwrap() error { return e.Err }

// UnsupportedPixelFormatError records a pixel format request the bridge
// refused. It is reported back to the core as a negotiation failure and kept
// in Diagnostics, never returned to the host.
type UnsupportedPixelFormatError struct {
	Format emucore.PixelFormat
	Reason string
}

func (e *UnsupportedPixelFormatError) Error() string {
	return fmt.Sprintf("unsupported pixel format %v: %s", e.Format, e.Reason)
}

// ErrUnserializeFailed is returned when the core refuses a save state.
var ErrUnserializeFailed = errors.New("core failed to restore state")
