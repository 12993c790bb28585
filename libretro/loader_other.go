//go:build !(darwin || linux || freebsd)

package libretro

import emucore "github.com/user-none/retrohost/api"

// Loader reports that cores cannot be loaded on this platform.
type Loader struct{}

var _ emucore.Loader = Loader{}

// Load always fails with ErrUnsupportedPlatform.
func (Loader) Load(path string) (emucore.Core, error) {
	return nil, ErrUnsupportedPlatform
}
