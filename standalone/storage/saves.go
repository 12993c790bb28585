package storage

import (
	"errors"
	"fmt"
	"os"

	"github.com/user-none/retrohost/bridge"
)

// LoadSaveRAM reads the persisted save RAM for a content path. A missing
// file is not an error and returns nil.
func LoadSaveRAM(romPath string) ([]byte, error) {
	path, err := GetSaveRAMPath(romPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read save RAM: %w", err)
	}
	return data, nil
}

// WriteSaveRAM persists save RAM for a content path. Empty or all zero
// memory is never written, so a game that does not use battery saves
// leaves no file behind and an earlier save is not clobbered. It reports
// whether a file was written.
func WriteSaveRAM(romPath string, data []byte) (bool, error) {
	if len(data) == 0 || bridge.IsAllZeros(data) {
		return false, nil
	}

	path, err := GetSaveRAMPath(romPath)
	if err != nil {
		return false, err
	}
	if err := AtomicWriteFile(path, data); err != nil {
		return false, fmt.Errorf("failed to write save RAM: %w", err)
	}
	return true, nil
}
