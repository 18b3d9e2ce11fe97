package engine

import (
	"errors"

	"github.com/talgya/starbase/internal/ship"
	"github.com/talgya/starbase/internal/systems"
)

// AlertReaction applies the automatic reactions of an entity's alert level
// before an engagement. Failed activations are reported, never fatal.
type AlertReaction struct {
	Systems *systems.Manager
}

// React runs the reactions for the current alert level and records them in rep.
func (a *AlertReaction) React(s *ship.Ship, rep *Report) {
	if a.greenToYellow(s, rep) {
		return
	}
	if s.AlertState == ship.AlertYellow && a.yellow(s, rep) {
		return
	}
	if s.AlertState == ship.AlertRed {
		if a.yellow(s, rep) {
			return
		}
		a.activate(s, ship.SystemTorpedo, rep, "The torpedo launcher was activated")
	}
}

func (a *AlertReaction) greenToYellow(s *ship.Ship, rep *Report) bool {
	if s.AlertState != ship.AlertGreen {
		return false
	}
	if err := s.SetAlertState(ship.AlertYellow); err != nil {
		if errors.Is(err, ship.ErrInsufficientEnergy) {
			rep.AddLine("- Not enough energy to change to Alert Yellow")
		}
		return true
	}
	rep.AddLine("- Alert level raised, Green -> Yellow")
	return true
}

// yellow returns true when dropping the cloak used up this pass.
func (a *AlertReaction) yellow(s *ship.Ship, rep *Report) bool {
	if s.CloakActive() {
		if err := a.Systems.Deactivate(s, ship.SystemCloak, false); err == nil {
			rep.AddLine("- The cloak was deactivated")
		}
		return true
	}

	if !s.IsTractoring() && !s.IsTractored() {
		a.activate(s, ship.SystemShields, rep, "The shields were activated")
	} else {
		rep.AddLine("- The shields could not be activated because of the tractor beam")
	}
	a.activate(s, ship.SystemShortRangeSensors, rep, "The short range sensors were activated")
	a.activate(s, ship.SystemPhaser, rep, "The energy weapon was activated")
	return false
}

func (a *AlertReaction) activate(s *ship.Ship, t ship.SystemType, rep *Report, line string) {
	if s.IsSystemActive(t) {
		return
	}
	if err := a.Systems.Activate(s, t, false); err != nil {
		if !errors.Is(err, ship.ErrSystemNotFound) {
			rep.Add("- %s could not be activated: %s", t.Description(), activationReason(err))
		}
		return
	}
	rep.AddLine("- " + line)
}

// activationReason extracts the refusal reason of a failed mode change.
func activationReason(err error) string {
	var ae *systems.ActivationError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return err.Error()
}

// FightReadiness prepares ships for an engagement.
type FightReadiness struct {
	Systems *systems.Manager
	Alert   *AlertReaction
}

// Ready undocks s, drops warp and cloak, and runs the alert reactions.
// It returns the resulting lines headed by the ship's name, or nil when
// the ship cannot act.
func (f *FightReadiness) Ready(s *ship.Ship) []string {
	if s.Destroyed || s.Rump.IsEscapePods || !s.HasEnoughCrew() {
		return nil
	}

	rep := &Report{}
	s.DockedTo = nil
	_ = f.Systems.Deactivate(s, ship.SystemWarpDrive, false)
	_ = f.Systems.Deactivate(s, ship.SystemCloak, false)
	f.Alert.React(s, rep)

	if rep.Empty() {
		return nil
	}
	return append([]string{"Actions of " + s.Name}, rep.Lines()...)
}
