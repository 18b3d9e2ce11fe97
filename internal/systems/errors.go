package systems

import (
	"errors"
	"fmt"

	"github.com/talgya/starbase/internal/ship"
)

var (
	// ErrSystemNotFound is returned when the system is not installed.
	ErrSystemNotFound = ship.ErrSystemNotFound

	// ErrSystemNotActivatable is returned when health, crew or energy gating fails.
	ErrSystemNotActivatable = errors.New("system not activatable")

	// ErrSystemNotDeactivatable is returned when an always-on system is switched off without force.
	ErrSystemNotDeactivatable = errors.New("system not deactivatable")
)

// ActivationError explains why a mode change was refused.
type ActivationError struct {
	Type   ship.SystemType
	Reason string
	err    error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type.Description(), e.Reason)
}

func (e *ActivationError) Unwrap() error { return e.err }

func notActivatable(t ship.SystemType, reason string) error {
	return &ActivationError{Type: t, Reason: reason, err: ErrSystemNotActivatable}
}
