package engine

import (
	"github.com/talgya/starbase/internal/ship"
)

// ConstructionProgressor advances station construction and dismantling.
// An entity with outstanding construction ticks does nothing else that tick.
type ConstructionProgressor struct{}

func (ConstructionProgressor) Name() string { return "construction" }

func (ConstructionProgressor) Apply(tc *TickContext) (Outcome, error) {
	s := tc.Ship
	p := s.Progress
	if p == nil || p.RemainingTicks <= 0 {
		return Continue, nil
	}

	scrapping := s.State == ship.StateUnderScrapping
	verb := "construction"
	needed := s.Rump.NeededWorkbees
	if scrapping {
		verb = "dismantling"
		needed = ceilDiv(needed, 2)
	}

	if s.DockedWorkbees < needed {
		tc.Report.Add("Not enough workbees (%d/%d) docked to continue %s", s.DockedWorkbees, needed, verb)
		return Finish, nil
	}

	if p.RemainingTicks == 1 {
		if scrapping {
			finishScrapping(s)
			tc.Report.Add("%s: Dismantling at %s completed", s.Rump.Name, s.Location.SectorString())
		} else {
			finishConstruction(s)
			tc.Report.Add("%s: Construction at %s completed", s.Rump.Name, s.Location.SectorString())
		}
		tc.Constructed = true
		return Finish, nil
	}

	p.RemainingTicks--
	if !scrapping {
		buildTime := max(1, s.Rump.BuildTime)
		s.SetHull(s.Hull + s.MaxHull/(2*buildTime))
	}
	return Finish, nil
}

func finishConstruction(s *ship.Ship) {
	s.State = ship.StateNone
	s.Hull = s.MaxHull
	s.Progress = nil
}

func finishScrapping(s *ship.Ship) {
	s.Scrapped = true
	s.Progress = nil
}
