package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// LoadConfig reads config.json. A missing file yields DefaultConfig; fields
// the file leaves out keep their defaults. A file that is not valid JSON is
// an error.
func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return parseConfig(raw)
}

func parseConfig(raw []byte) (*Config, error) {
	config := &Config{}
	if err := json.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	ApplyMissingDefaults(config, detectPresentKeys(raw))
	return config, nil
}

// SaveConfig writes config.json atomically.
func SaveConfig(config *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return AtomicWriteJSON(path, config)
}

// CreateConfigIfMissing writes the default config on first start so the
// user has a file to edit. It reports whether a file was written.
func CreateConfigIfMissing() (bool, error) {
	path, err := GetConfigPath()
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := SaveConfig(DefaultConfig()); err != nil {
		return false, err
	}
	return true, nil
}
