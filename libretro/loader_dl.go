//go:build darwin || linux || freebsd

package libretro

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ebitengine/purego"

	emucore "github.com/user-none/retrohost/api"
)

// Trampolines are never freed and the process has a fixed budget of them,
// so they are made once and shared by every core loaded.
var callbacksOnce sync.Once

func initCallbacks() {
	callbacksOnce.Do(func() {
		cbEnvironment = purego.NewCallback(onEnvironment)
		cbVideoRefresh = purego.NewCallback(onVideoRefresh)
		cbAudioSample = purego.NewCallback(onAudioSample)
		cbAudioSampleBatch = purego.NewCallback(onAudioSampleBatch)
		cbInputPoll = purego.NewCallback(onInputPoll)
		cbInputState = purego.NewCallback(onInputState)
		cbLog = purego.NewCallback(onLog)
	})
}

// Loader opens cores with the system dynamic linker.
type Loader struct{}

var _ emucore.Loader = Loader{}

// Load opens the core at path, falling back to the platform library name
// in the same directory, and resolves every retro_* entry point.
func (Loader) Load(path string) (emucore.Core, error) {
	c := &dylibCore{path: path, closeLibrary: purego.Dlclose}
	if !active.CompareAndSwap(nil, c) {
		return nil, ErrCoreActive
	}

	handle, err := dlopen(path)
	if err != nil {
		active.CompareAndSwap(c, nil)
		return nil, err
	}
	c.handle = handle

	for _, ep := range c.entryPoints() {
		sym, err := purego.Dlsym(handle, ep.name)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("missing entry point %s: %w", ep.name, err)
		}
		purego.RegisterFunc(ep.fptr, sym)
	}

	if v := c.apiVersion(); v != APIVersion {
		c.Close()
		return nil, fmt.Errorf("core speaks API version %d, want %d", v, APIVersion)
	}

	initCallbacks()
	return c, nil
}

func dlopen(path string) (uintptr, error) {
	var errs []error
	for _, p := range candidatePaths(path) {
		handle, err := purego.Dlopen(p, purego.RTLD_NOW|purego.RTLD_LOCAL)
		if err == nil {
			return handle, nil
		}
		errs = append(errs, err)
	}
	return 0, errors.Join(errs...)
}
