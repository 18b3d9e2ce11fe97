package engine

import (
	"fmt"

	"github.com/talgya/starbase/internal/ship"
	"github.com/talgya/starbase/internal/systems"
)

// TrackerDevice counts down towards locating the tracked ship.
// The farther away the target, the faster the countdown runs out.
type TrackerDevice struct {
	Locator ShipLocator
	Systems *systems.Manager
	Divisor int // Distance per extra tick consumed
}

func (TrackerDevice) Name() string { return "tracker" }

func (d TrackerDevice) Apply(tc *TickContext) (Outcome, error) {
	s := tc.Ship
	tr := s.Tracker
	if tr == nil || tr.TargetID == nil {
		return Continue, nil
	}

	target, err := d.Locator.ShipLocation(tc.Ctx, *tr.TargetID)
	if err != nil {
		return Continue, fmt.Errorf("tracker target %d of ship %d: %w", *tr.TargetID, s.ID, err)
	}

	distance := abs(target.CX-s.Location.CX) + abs(target.CY-s.Location.CY)
	reduceBy := max(1, ceilDiv(distance, max(1, d.Divisor)))

	if tr.RemainingTicks > reduceBy {
		tr.RemainingTicks -= reduceBy
		return Continue, nil
	}

	_ = d.Systems.Deactivate(s, ship.SystemTracker, true)
	tr.TargetID = nil
	tr.RemainingTicks = 0
	tc.Report.AddLine("The tracker device was deactivated")
	return Continue, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
