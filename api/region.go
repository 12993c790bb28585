package emucore

// Region represents the video region a loaded game reports.
type Region int

const (
	RegionNTSC Region = iota
	RegionPAL
)

// String returns the display name of the region.
func (r Region) String() string {
	switch r {
	case RegionNTSC:
		return "NTSC"
	case RegionPAL:
		return "PAL"
	default:
		return "Unknown"
	}
}

// Timing holds the frame rate and audio sample rate the core runs at.
type Timing struct {
	FPS        float64
	SampleRate float64
}
