// Package relays maps logical relay intent (on/off, auto/manual) onto
// physical, polarity-aware GPIO output. The manager is the only writer of
// relay pins; both the HTTP layer and the automation loop mutate relay
// state exclusively through it.
package relays

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"homenode/internal/hardware"
	"homenode/internal/logger"
	"homenode/internal/models"
)

var (
	// ErrNotFound means no relay carries the requested label.
	ErrNotFound = errors.New("relay not found")
	// ErrInvalid marks a rejected relay configuration (user-fixable).
	ErrInvalid = errors.New("invalid relay configuration")
)

// Store persists relay declarations. Runtime fields (value, auto,
// last_error) are the store's job to strip.
type Store interface {
	Save(relays []models.Relay) error
}

// Manager owns the relay list and their GPIO output lines.
type Manager struct {
	mu    sync.Mutex
	chip  hardware.Chip
	store Store
	board *models.BoardProfile
	log   *logger.Logger

	relays []*models.Relay
	lines  map[int]hardware.OutputLine
}

// NewManager builds an empty manager. store and board may be nil (no
// persistence, no board pin validation).
func NewManager(chip hardware.Chip, store Store, board *models.BoardProfile, log *logger.Logger) *Manager {
	return &Manager{
		chip:  chip,
		store: store,
		board: board,
		log:   log,
		lines: make(map[int]hardware.OutputLine),
	}
}

// Load installs the startup configuration without persisting it back.
// Runtime fields are seeded from the declared defaults.
func (m *Manager) Load(relays []models.Relay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := validate(relays, m.board); err != nil {
		return err
	}
	m.installLocked(seedRuntime(relays))
	return nil
}

// ReplaceConfig atomically swaps the full relay list: validate, seed
// runtime fields, persist the declarative fields, then rebind every pin
// to its new output state. Invalid input leaves the prior configuration
// completely untouched.
func (m *Manager) ReplaceConfig(relays []models.Relay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := validate(relays, m.board); err != nil {
		return err
	}
	seeded := seedRuntime(relays)
	if m.store != nil {
		if err := m.store.Save(seeded); err != nil {
			return fmt.Errorf("persist relay config: %w", err)
		}
	}
	m.installLocked(seeded)
	return nil
}

// Set updates the relay's logical value and immediately drives the
// physical pin as value XOR inverted. keepAuto=false also drops the relay
// out of auto mode (manual override); the automation loop passes true.
func (m *Manager) Set(label string, value bool, keepAuto bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.findLocked(label)
	if r == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, label)
	}
	r.Value = value
	if !keepAuto {
		r.Auto = false
	}
	return m.driveLocked(r)
}

// SetError records a failure reason on the relay without touching its
// value or mode.
func (m *Manager) SetError(label, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.findLocked(label)
	if r == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, label)
	}
	r.LastError = msg
	return nil
}

// ClearError clears the failure reason, leaving value and mode alone.
func (m *Manager) ClearError(label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.findLocked(label)
	if r == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, label)
	}
	r.LastError = ""
	return nil
}

// List returns a copy of every relay in configuration order.
func (m *Manager) List() []models.Relay {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Relay, len(m.relays))
	for i, r := range m.relays {
		out[i] = *r
	}
	return out
}

// Get returns the relay with the given label.
func (m *Manager) Get(label string) (models.Relay, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := m.findLocked(label); r != nil {
		return *r, true
	}
	return models.Relay{}, false
}

// UsedPins returns the pins claimed by relays, ascending.
func (m *Manager) UsedPins() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	pins := make([]int, 0, len(m.relays))
	for _, r := range m.relays {
		pins = append(pins, r.Pin)
	}
	sort.Ints(pins)
	return pins
}

// Close releases all GPIO output lines.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLinesLocked()
}

func (m *Manager) findLocked(label string) *models.Relay {
	for _, r := range m.relays {
		if r.Label == label {
			return r
		}
	}
	return nil
}

// driveLocked writes the relay's physical level. A pin I/O failure is a
// hardware fault recorded on the relay, not a crash.
func (m *Manager) driveLocked(r *models.Relay) error {
	line, ok := m.lines[r.Pin]
	if !ok {
		return nil
	}
	if err := line.SetLevel(r.PhysicalLevel()); err != nil {
		r.LastError = err.Error()
		return fmt.Errorf("drive pin %d: %w", r.Pin, err)
	}
	return nil
}

// installLocked swaps in the relay list and rebinds every pin.
func (m *Manager) installLocked(relays []models.Relay) {
	m.closeLinesLocked()
	m.relays = make([]*models.Relay, len(relays))
	for i := range relays {
		r := relays[i]
		m.relays[i] = &r
	}
	if m.chip == nil {
		return
	}
	for _, r := range m.relays {
		line, err := m.chip.RequestOutput(r.Pin, r.PhysicalLevel())
		if err != nil {
			r.LastError = err.Error()
			if m.log != nil {
				m.log.Warnw("relay pin bind failed", "label", r.Label, "pin", r.Pin, "err", err)
			}
			continue
		}
		m.lines[r.Pin] = line
	}
}

func (m *Manager) closeLinesLocked() {
	for pin, line := range m.lines {
		_ = line.Close()
		delete(m.lines, pin)
	}
}

// seedRuntime resets runtime-only fields to their config-declared
// defaults.
func seedRuntime(relays []models.Relay) []models.Relay {
	out := make([]models.Relay, len(relays))
	for i, r := range relays {
		r.Value = r.DefaultValue
		r.Auto = r.DefaultAuto
		r.LastError = ""
		out[i] = r
	}
	return out
}

// validate enforces shape: non-empty unique labels, unique non-negative
// pins, pins valid on the board when a profile is present. A pin bound to
// two labels is rejected here rather than left as undefined behavior.
func validate(relays []models.Relay, board *models.BoardProfile) error {
	labels := make(map[string]bool, len(relays))
	pins := make(map[int]bool, len(relays))
	for i, r := range relays {
		if r.Label == "" {
			return fmt.Errorf("%w: relay %d: label is required", ErrInvalid, i)
		}
		if labels[r.Label] {
			return fmt.Errorf("%w: duplicate relay label %q", ErrInvalid, r.Label)
		}
		labels[r.Label] = true
		if r.Pin < 0 {
			return fmt.Errorf("%w: relay %q: invalid pin %d", ErrInvalid, r.Label, r.Pin)
		}
		if pins[r.Pin] {
			return fmt.Errorf("%w: pin %d bound to more than one relay", ErrInvalid, r.Pin)
		}
		pins[r.Pin] = true
		if board != nil && !board.PinValid(r.Pin) {
			return fmt.Errorf("%w: relay %q: pin %d not usable on board %s", ErrInvalid, r.Label, r.Pin, board.Name)
		}
	}
	return nil
}
