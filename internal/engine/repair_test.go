package engine

import (
	"context"
	"testing"

	"github.com/talgya/starbase/internal/catalog"
	"github.com/talgya/starbase/internal/ship"
	"github.com/talgya/starbase/internal/systems"
)

func repairStation() *ship.Ship {
	return &ship.Ship{
		ID: 30, UserID: 102, Name: "Deep Space", IsBase: true,
		Rump:           ship.Rump{Name: "Starbase", NeededWorkbees: 20, IsStation: true},
		State:          ship.StateRepairPassive,
		AlertState:     ship.AlertGreen,
		Hull:           900,
		MaxHull:        1000,
		RepairRate:     50,
		Crew:           10,
		Eps:            &ship.EpsSystemData{Eps: 10, MaxEps: 40},
		DockedWorkbees: 4,
		Storage:        ship.Storage{9: 10},
		MaxStorage:     1000,
		Systems: []*ship.System{
			{Type: ship.SystemPhaser, Mode: ship.ModeOff, Status: 40, EnergyCost: 1},
			{Type: ship.SystemShields, Mode: ship.ModeOff, Status: 0, EnergyCost: 1},
			{Type: ship.SystemDeflector, Mode: ship.ModeOff, Status: 10, EnergyCost: 1},
			newSys(ship.SystemLifeSupport, ship.ModeAlwaysOn, 1),
		},
	}
}

func applyRepair(t *testing.T, s *ship.Ship) *TickContext {
	t.Helper()
	cat := catalog.Default()
	r := RepairProcessor{Systems: systems.NewManager(cat), Rules: cat.Repair}
	tc := &TickContext{Ctx: context.Background(), Ship: s, Turn: 1, Report: &Report{}}
	if _, err := r.Apply(tc); err != nil {
		t.Fatalf("apply: %v", err)
	}
	return tc
}

func TestRepair_HighestPriorityFirst(t *testing.T) {
	s := repairStation()
	applyRepair(t, s)

	if s.Hull != 950 {
		t.Fatalf("hull: got %d want 950", s.Hull)
	}
	shields, _ := s.System(ship.SystemShields)
	deflector, _ := s.System(ship.SystemDeflector)
	phaser, _ := s.System(ship.SystemPhaser)
	if shields.Status != 100 || deflector.Status != 100 {
		t.Fatalf("shields %d deflector %d", shields.Status, deflector.Status)
	}
	if phaser.Status != 40 {
		t.Fatalf("phaser repaired out of order")
	}
	if deflector.Mode != ship.ModeOn {
		t.Fatalf("deflector mode: got %s want default on", deflector.Mode)
	}
	// ceil(50/20) + 2 systems.
	if got, _ := s.Storage.Amount(9); got != 5 {
		t.Fatalf("spare parts left: got %d want 5", got)
	}
}

func TestRepair_NoCrewKeepsModes(t *testing.T) {
	s := repairStation()
	s.Crew = 0
	applyRepair(t, s)
	deflector, _ := s.System(ship.SystemDeflector)
	if deflector.Status != 100 || deflector.Mode != ship.ModeOff {
		t.Fatalf("deflector: %+v", deflector)
	}
}

func TestRepair_RestoredModeRespectsCrewAndEnergy(t *testing.T) {
	tests := []struct {
		name string
		crew int
		eps  int
		want string
	}{
		{"short crew", 1, 10, "Deflector stays offline: not enough crew"},
		{"no headroom", 10, 1, "Deflector stays offline: not enough energy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := repairStation()
			s.Crew = tt.crew
			s.MinCrew = 5
			s.Eps.Eps = tt.eps
			tc := applyRepair(t, s)

			deflector, _ := s.System(ship.SystemDeflector)
			if deflector.Status != 100 || deflector.Mode != ship.ModeOff {
				t.Fatalf("deflector: %+v", deflector)
			}
			found := false
			for _, line := range tc.Report.Lines() {
				found = found || line == tt.want
			}
			if !found {
				t.Fatalf("missing %q in %v", tt.want, tc.Report.Lines())
			}
		})
	}
}

func TestRepair_NotEnoughSpareParts(t *testing.T) {
	s := repairStation()
	s.Storage = ship.Storage{9: 2}
	tc := applyRepair(t, s)

	if s.Hull != 900 {
		t.Fatalf("hull changed without parts")
	}
	if got := tc.Report.Lines()[0]; got != "Not enough spare parts for repair (2/5)" {
		t.Fatalf("line: %q", got)
	}
}

func TestRepair_NotEnoughWorkbees(t *testing.T) {
	s := repairStation()
	s.DockedWorkbees = 3
	tc := applyRepair(t, s)
	if s.Hull != 900 || tc.Report.Empty() {
		t.Fatalf("repair ran without workbees")
	}
}

func TestRepair_Completion(t *testing.T) {
	s := repairStation()
	s.Hull = 990
	s.Systems = []*ship.System{{Type: ship.SystemPhaser, Mode: ship.ModeOff, Status: 40, EnergyCost: 1}}

	tc := applyRepair(t, s)
	if s.State != ship.StateNone || s.Hull != s.MaxHull {
		t.Fatalf("repair not completed: state %s hull %d", s.State, s.Hull)
	}
	if len(tc.Notices) != 1 || tc.Notices[0].Recipient != 102 || tc.Notices[0].Category != CategoryStation {
		t.Fatalf("notices: %+v", tc.Notices)
	}
}
