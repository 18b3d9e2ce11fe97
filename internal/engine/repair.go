package engine

import (
	"errors"
	"fmt"

	"github.com/talgya/starbase/internal/catalog"
	"github.com/talgya/starbase/internal/ship"
	"github.com/talgya/starbase/internal/systems"
)

// systemsPerRepairTick is how many damaged systems one passive repair tick fixes.
const systemsPerRepairTick = 2

// RepairProcessor repairs stations in passive repair state.
type RepairProcessor struct {
	Systems *systems.Manager
	Rules   catalog.RepairConfig
}

func (RepairProcessor) Name() string { return "repair" }

func (r RepairProcessor) Apply(tc *TickContext) (Outcome, error) {
	s := tc.Ship
	if !s.IsBase || s.State != ship.StateRepairPassive {
		return Continue, nil
	}

	needed := ceilDiv(s.Rump.NeededWorkbees, 5)
	if s.DockedWorkbees < needed {
		tc.Report.Add("Not enough workbees (%d/%d) docked to continue repair", s.DockedWorkbees, needed)
		return Continue, nil
	}

	damaged := s.DamagedSystems(r.Systems.Priority)
	if len(damaged) > systemsPerRepairTick {
		damaged = damaged[:systemsPerRepairTick]
	}

	parts := r.neededSpareParts(s, len(damaged))
	if have, _ := s.Storage.Amount(r.Rules.SparePartCommodity); have < parts {
		tc.Report.Add("Not enough spare parts for repair (%d/%d)", have, parts)
		return Continue, nil
	}

	s.SetHull(s.Hull + s.RepairRate)
	for _, sys := range damaged {
		sys.Status = 100
		tc.Report.Add("%s has been repaired", sys.Type.Description())
		if s.Crew > 0 {
			r.restoreMode(s, sys, tc.Report)
		}
	}
	if parts > 0 {
		if err := s.Storage.Lower(r.Rules.SparePartCommodity, parts); err != nil {
			return Continue, err
		}
	}

	if !s.CanBeRepaired() {
		s.Hull = s.MaxHull
		s.State = ship.StateNone
		tc.Notify(s.UserID,
			fmt.Sprintf("The repair of station %s at %s has been completed", s.Name, s.Location.SectorString()),
			CategoryStation)
	}
	return Continue, nil
}

// restoreMode returns a repaired system to its default mode. Repair runs
// after the energy phase, so an active default goes through the activation
// gates and must fit in the stored energy.
func (r RepairProcessor) restoreMode(s *ship.Ship, sys *ship.System, rep *Report) {
	mode := r.Systems.DefaultMode(sys.Type)
	if mode != ship.ModeOn && mode != ship.ModeAlwaysOn || sys.Active() {
		sys.Mode = mode
		return
	}

	var err error
	switch {
	case !s.HasEnoughCrew():
		err = errors.New("not enough crew")
	case s.Eps == nil || s.EpsUsage()+sys.EnergyCost > s.Eps.Eps:
		err = errors.New("not enough energy")
	default:
		err = r.Systems.Activate(s, sys.Type, false)
	}
	if err != nil {
		rep.Add("%s stays offline: %s", sys.Type.Description(), activationReason(err))
		return
	}
	sys.Mode = mode
}

func (r RepairProcessor) neededSpareParts(s *ship.Ship, systemCount int) int {
	hull := min(s.RepairRate, max(0, s.MaxHull-s.Hull))
	parts := systemCount * r.Rules.PartsPerSystem
	if r.Rules.HullPerSparePart > 0 {
		parts += ceilDiv(hull, r.Rules.HullPerSparePart)
	}
	return parts
}
