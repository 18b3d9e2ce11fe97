package engine

import (
	"context"
	"fmt"

	"github.com/talgya/starbase/internal/ship"
	"github.com/talgya/starbase/internal/systems"
)

// Evacuator moves the crew off an entity and persists the result.
type Evacuator interface {
	Evacuate(ctx context.Context, s *ship.Ship) (string, error)
}

// CrewEvacuator sends the crew off in escape pods: crew drops to zero,
// crew-bound systems go off, alert returns to green, and the entity is saved.
type CrewEvacuator struct {
	Systems *systems.Manager
	Catalog interface {
		RequiresCrew(t ship.SystemType) bool
	}
	Store ShipStore
}

// Evacuate implements Evacuator.
func (e *CrewEvacuator) Evacuate(ctx context.Context, s *ship.Ship) (string, error) {
	crew := s.Crew
	if crew == 0 {
		return "There is no crew aboard to evacuate", nil
	}
	s.Crew = 0
	s.AlertState = ship.AlertGreen
	for _, sys := range s.Systems {
		if sys.Active() && e.Catalog.RequiresCrew(sys.Type) {
			_ = e.Systems.Deactivate(s, sys.Type, true)
		}
	}
	if err := e.Store.SaveShip(ctx, s); err != nil {
		return "", fmt.Errorf("evacuate ship %d: %w", s.ID, err)
	}
	return fmt.Sprintf("%d crew members left the ship in escape pods", crew), nil
}

// LifeSupportCheck evacuates an entity whose life support has failed.
type LifeSupportCheck struct {
	Evacuator Evacuator
}

func (LifeSupportCheck) Name() string { return "life_support" }

func (c LifeSupportCheck) Apply(tc *TickContext) (Outcome, error) {
	s := tc.Ship
	if s.Crew == 0 || s.IsSystemHealthy(ship.SystemLifeSupport) {
		return Continue, nil
	}
	tc.Report.AddLine("Life support has failed:")
	msg, err := c.Evacuator.Evacuate(tc.Ctx, s)
	if err != nil {
		return Continue, err
	}
	tc.Report.AddLine(msg)
	tc.Evacuated = true
	return Abandon, nil
}
