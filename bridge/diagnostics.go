package bridge

import (
	"slices"

	emucore "github.com/user-none/retrohost/api"
)

// Diagnostics records what a core told the frontend during negotiation that
// the bridge does not act on.
type Diagnostics struct {
	// Commands answered as unsupported, in order of first use
	UnsupportedCommands []uint

	SupportsAchievements bool
	PerformanceLevel     uint
	InputDescriptors     []emucore.InputDescriptor
	ControllerInfo       []emucore.ControllerInfo
	MemoryMapDescriptors int

	// Most recent refused pixel format request
	PixelFormatError *UnsupportedPixelFormatError

	ShutdownRequested bool
}

// Diagnostics returns a snapshot of the negotiation record.
func (s *Session) Diagnostics() Diagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.diag
	d.UnsupportedCommands = slices.Clone(s.diag.UnsupportedCommands)
	d.InputDescriptors = slices.Clone(s.diag.InputDescriptors)
	d.ControllerInfo = make([]emucore.ControllerInfo, len(s.diag.ControllerInfo))
	for i, ci := range s.diag.ControllerInfo {
		d.ControllerInfo[i] = emucore.ControllerInfo{Types: slices.Clone(ci.Types)}
	}
	return d
}

// ShutdownRequested reports whether the core asked the frontend to exit.
func (s *Session) ShutdownRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diag.ShutdownRequested
}
