package standalone

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/user-none/retrohost/standalone/storage"
)

// numSlots is the number of save state slots per game.
const numSlots = 10

// ErrNoState is returned when loading from an empty slot.
var ErrNoState = errors.New("no save state in slot")

// SaveStater is the part of the session used for save states.
type SaveStater interface {
	SerializeState() ([]byte, error)
	UnserializeState(data []byte) error
}

// SaveStateManager handles save state operations
type SaveStateManager struct {
	currentSlot int
	romPath     string
	dir         func(romPath string) (string, error)
}

// NewSaveStateManager creates a save state manager for one game.
func NewSaveStateManager(romPath string) *SaveStateManager {
	return &SaveStateManager{
		romPath: romPath,
		dir:     storage.GetGameStateDir,
	}
}

// GetCurrentSlot returns the current save slot
func (m *SaveStateManager) GetCurrentSlot() int {
	return m.currentSlot
}

// NextSlot cycles to the next save slot
func (m *SaveStateManager) NextSlot() int {
	m.currentSlot = (m.currentSlot + 1) % numSlots
	return m.currentSlot
}

// PreviousSlot cycles to the previous save slot
func (m *SaveStateManager) PreviousSlot() int {
	m.currentSlot--
	if m.currentSlot < 0 {
		m.currentSlot = numSlots - 1
	}
	return m.currentSlot
}

func (m *SaveStateManager) statePath(slot int) (string, error) {
	saveDir, err := m.dir(m.romPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(saveDir, fmt.Sprintf("state-%d.state", slot)), nil
}

// HasState reports whether the slot holds a save state.
func (m *SaveStateManager) HasState(slot int) bool {
	path, err := m.statePath(slot)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save writes the current state to the current slot
func (m *SaveStateManager) Save(s SaveStater) error {
	state, err := s.SerializeState()
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	statePath, err := m.statePath(m.currentSlot)
	if err != nil {
		return err
	}
	if err := storage.AtomicWriteFile(statePath, state); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Load restores the state from the current slot
func (m *SaveStateManager) Load(s SaveStater) error {
	statePath, err := m.statePath(m.currentSlot)
	if err != nil {
		return err
	}

	state, err := os.ReadFile(statePath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w %d", ErrNoState, m.currentSlot)
	}
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	if err := s.UnserializeState(state); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}
	return nil
}
