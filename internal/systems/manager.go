// Package systems switches ship systems on and off and ranks them for
// energy-shortage shutdown.
package systems

import (
	"sort"

	"github.com/talgya/starbase/internal/ship"
)

// Table is the static per-type data the manager consults.
type Table interface {
	Priority(t ship.SystemType) int
	DefaultMode(t ship.SystemType) ship.Mode
	RequiresCrew(t ship.SystemType) bool
}

// Manager activates and deactivates installed systems.
// It only changes modes; energy bookkeeping is left to the caller.
type Manager struct {
	table Table
}

// NewManager returns a manager backed by the given table.
func NewManager(table Table) *Manager {
	return &Manager{table: table}
}

// Activate switches a system on. Health, ALWAYS_OFF and crew gates apply
// even when forced; the energy gate is skipped when forced.
func (m *Manager) Activate(s *ship.Ship, t ship.SystemType, force bool) error {
	sys, err := s.System(t)
	if err != nil {
		return err
	}
	if sys.Active() {
		return nil
	}
	if !sys.Healthy() {
		return notActivatable(t, "system is destroyed")
	}
	if sys.Mode == ship.ModeAlwaysOff {
		return notActivatable(t, "system cannot be switched on")
	}
	if m.table.RequiresCrew(t) && !s.HasEnoughCrew() {
		return notActivatable(t, "not enough crew")
	}
	if !force {
		stored := 0
		if s.Eps != nil {
			stored = s.Eps.Eps
		}
		if stored < sys.EnergyCost {
			return notActivatable(t, "not enough energy")
		}
	}
	sys.Mode = ship.ModeOn
	return nil
}

// Deactivate switches a system off. Without force, ALWAYS_ON systems refuse.
func (m *Manager) Deactivate(s *ship.Ship, t ship.SystemType, force bool) error {
	sys, err := s.System(t)
	if err != nil {
		return err
	}
	if sys.Mode == ship.ModeOff {
		return nil
	}
	if sys.Mode == ship.ModeAlwaysOn && !force {
		return &ActivationError{Type: t, Reason: "system cannot be switched off", err: ErrSystemNotDeactivatable}
	}
	if sys.Mode == ship.ModeAlwaysOff {
		return nil
	}
	sys.Mode = ship.ModeOff
	return nil
}

// Priority returns the shutdown rank of a system type; lower goes first.
func (m *Manager) Priority(t ship.SystemType) int {
	return m.table.Priority(t)
}

// DefaultMode is the mode a repaired system returns to.
func (m *Manager) DefaultMode(t ship.SystemType) ship.Mode {
	return m.table.DefaultMode(t)
}

// ShutdownOrder returns the active systems in ascending priority; ties are
// broken by system type so the order is deterministic.
func (m *Manager) ShutdownOrder(s *ship.Ship) []*ship.System {
	var active []*ship.System
	for _, sys := range s.Systems {
		if sys.Active() {
			active = append(active, sys)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		pi, pj := m.table.Priority(active[i].Type), m.table.Priority(active[j].Type)
		if pi != pj {
			return pi < pj
		}
		return active[i].Type < active[j].Type
	})
	return active
}
