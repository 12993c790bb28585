package storage

// Config represents the application configuration stored in config.json
type Config struct {
	Version    int          `json:"version"`
	Core       CoreConfig   `json:"core"`
	Audio      AudioConfig  `json:"audio"`
	Window     WindowConfig `json:"window"`
	Input      InputConfig  `json:"input"`
	LastROMDir string       `json:"lastRomDir,omitempty"` // Starting directory for the ROM picker
}

// CoreConfig remembers the last core and the option values chosen for it.
type CoreConfig struct {
	Path      string            `json:"path,omitempty"`
	Variables map[string]string `json:"variables,omitempty"` // core option key -> value
}

// AudioConfig contains audio-related settings
type AudioConfig struct {
	Volume float64 `json:"volume"`
	Muted  bool    `json:"muted"`
}

// WindowConfig contains window size settings
type WindowConfig struct {
	Scale      int  `json:"scale"` // Multiple of the core's base resolution, 1-8
	Fullscreen bool `json:"fullscreen"`
}

// InputConfig contains input binding overrides for the keyboard and the
// first controller. Empty maps mean "use defaults"; only overrides are
// stored.
type InputConfig struct {
	Keyboard           map[string]string `json:"keyboard,omitempty"`   // button name -> key name override
	Controller         map[string]string `json:"controller,omitempty"` // button name -> pad button name override
	DisableAnalogStick bool              `json:"disableAnalogStick,omitempty"`
}

const (
	MinWindowScale = 1
	MaxWindowScale = 8
)

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Audio: AudioConfig{
			Volume: 1.0,
			Muted:  false,
		},
		Window: WindowConfig{
			Scale: 3,
		},
		Input: InputConfig{},
	}
}
