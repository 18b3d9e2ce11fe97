package ship

import (
	"errors"
	"fmt"
)

var (
	// ErrSystemNotFound is returned when a referenced system is not installed.
	ErrSystemNotFound = errors.New("system not found")

	// ErrInsufficientEnergy is returned when stored energy cannot cover a change.
	ErrInsufficientEnergy = errors.New("insufficient energy")
)

// NotFoundError names the missing system type.
type NotFoundError struct {
	Type SystemType
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("system %s not installed", e.Type)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrSystemNotFound }

// EnergyError carries how much energy a change would have needed.
type EnergyError struct {
	Needed int
	Stored int
}

func (e *EnergyError) Error() string {
	return fmt.Sprintf("insufficient energy: need %d, have %d", e.Needed, e.Stored)
}

func (e *EnergyError) Is(target error) bool { return target == ErrInsufficientEnergy }
