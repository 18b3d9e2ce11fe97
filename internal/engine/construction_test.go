package engine

import (
	"context"
	"testing"

	"github.com/talgya/starbase/internal/ship"
)

func constructionSite(remaining, workbees int, state ship.State) *ship.Ship {
	return &ship.Ship{
		ID: 20, UserID: 101, Name: "New Outpost", IsBase: true,
		Rump:           ship.Rump{ID: 100, Name: "Outpost", BuildTime: 10, NeededWorkbees: 5, IsStation: true},
		State:          state,
		Hull:           100,
		MaxHull:        1000,
		DockedWorkbees: workbees,
		Progress:       &ship.ConstructionProgress{ID: 1, ShipID: 20, RemainingTicks: remaining},
		Location:       ship.Location{CX: 3, CY: 4},
	}
}

func applyConstruction(t *testing.T, s *ship.Ship) (*TickContext, Outcome) {
	t.Helper()
	tc := &TickContext{Ctx: context.Background(), Ship: s, Turn: 1, Report: &Report{}}
	out, err := ConstructionProgressor{}.Apply(tc)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	return tc, out
}

func TestConstruction_Blocked(t *testing.T) {
	s := constructionSite(5, 4, ship.StateUnderConstruction)
	tc, out := applyConstruction(t, s)

	if out != Finish {
		t.Fatalf("outcome: got %v want finish", out)
	}
	if s.Progress.RemainingTicks != 5 || s.Hull != 100 {
		t.Fatalf("blocked site progressed: ticks %d hull %d", s.Progress.RemainingTicks, s.Hull)
	}
	if got := tc.Report.Lines()[0]; got != "Not enough workbees (4/5) docked to continue construction" {
		t.Fatalf("line: %q", got)
	}
}

func TestConstruction_Progress(t *testing.T) {
	s := constructionSite(5, 5, ship.StateUnderConstruction)
	_, out := applyConstruction(t, s)

	if out != Finish {
		t.Fatalf("outcome: got %v", out)
	}
	if s.Progress.RemainingTicks != 4 {
		t.Fatalf("ticks: got %d want 4", s.Progress.RemainingTicks)
	}
	if s.Hull != 150 {
		t.Fatalf("hull: got %d want 150", s.Hull)
	}
}

func TestConstruction_Finish(t *testing.T) {
	s := constructionSite(1, 5, ship.StateUnderConstruction)
	tc, _ := applyConstruction(t, s)

	if s.Progress != nil || s.State != ship.StateNone || s.Hull != s.MaxHull {
		t.Fatalf("not finished: %+v", s)
	}
	if !tc.Constructed {
		t.Fatalf("construction not counted")
	}
	if got := tc.Report.Lines()[0]; got != "Outpost: Construction at 3|4 completed" {
		t.Fatalf("line: %q", got)
	}

	// The record is gone; a second tick does nothing.
	_, out := applyConstruction(t, s)
	if out != Continue {
		t.Fatalf("finished site still gated")
	}
}

func TestScrapping(t *testing.T) {
	s := constructionSite(2, 3, ship.StateUnderScrapping)
	applyConstruction(t, s)
	if s.Progress.RemainingTicks != 1 || s.Hull != 100 {
		t.Fatalf("dismantling: ticks %d hull %d", s.Progress.RemainingTicks, s.Hull)
	}

	tc, _ := applyConstruction(t, s)
	if !s.Scrapped || s.Progress != nil {
		t.Fatalf("not scrapped: %+v", s)
	}
	if got := tc.Report.Lines()[0]; got != "Outpost: Dismantling at 3|4 completed" {
		t.Fatalf("line: %q", got)
	}
}

func TestScrapping_NeedsHalfTheWorkbees(t *testing.T) {
	s := constructionSite(2, 2, ship.StateUnderScrapping)
	tc, _ := applyConstruction(t, s)
	if got := tc.Report.Lines()[0]; got != "Not enough workbees (2/3) docked to continue dismantling" {
		t.Fatalf("line: %q", got)
	}
}
