package engine

import (
	"fmt"

	"github.com/talgya/starbase/internal/ship"
)

// AstroMapping finishes astrometric mapping once the laboratory has run long
// enough, and grants the location's database entry to the owner.
type AstroMapping struct {
	Entries       DatabaseEntries
	TurnsToFinish uint64
}

func (AstroMapping) Name() string { return "astro" }

func (a AstroMapping) Apply(tc *TickContext) (Outcome, error) {
	s := tc.Ship
	lab := s.AstroLab
	if s.State != ship.StateAstroFinalizing || lab == nil {
		return Continue, nil
	}
	if tc.Turn < lab.StartTurn+a.TurnsToFinish {
		return Continue, nil
	}
	entryID, label := s.Location.DatabaseEntry()
	if entryID == 0 {
		return Continue, nil
	}

	s.State = ship.StateNone
	lab.StartTurn = 0
	tc.Report.Add("Mapping %s completed", label)

	has, err := a.Entries.HasDatabaseEntry(tc.Ctx, s.UserID, entryID)
	if err != nil {
		return Continue, fmt.Errorf("database entry lookup: %w", err)
	}
	if has {
		return Continue, nil
	}
	entry, err := a.Entries.DatabaseEntry(tc.Ctx, entryID)
	if err != nil {
		return Continue, fmt.Errorf("database entry %d: %w", entryID, err)
	}
	if err := a.Entries.AddDatabaseEntry(tc.Ctx, s.UserID, entryID, tc.Turn); err != nil {
		return Continue, fmt.Errorf("grant database entry %d: %w", entryID, err)
	}
	tc.Report.Add("New database entry: %s (+%d points)", entry.Description, entry.Points)
	return Continue, nil
}
