package engine

import (
	"github.com/talgya/starbase/internal/ship"
	"github.com/talgya/starbase/internal/systems"
)

// Allocation is the outcome of one entity's energy resolution.
type Allocation struct {
	Available     int // EPS available this tick before consumption
	Usage         int // Consumption after alert downgrade and shutdowns
	NewEps        int
	BatteryReload int
	WarpUsage     int // Energy spent charging the warp drive
	Consumed      int // Drawn from the reactor load

	AlertFrom ship.AlertState
	AlertTo   ship.AlertState
	Shutdowns []ship.SystemType

	// Evacuate is set when life support had to be shut down with crew aboard.
	// The allocation stops there and the entity's tick ends.
	Evacuate bool
}

// EnergyAllocator resolves an entity's energy budget for one tick.
type EnergyAllocator struct {
	systems *systems.Manager
}

// NewEnergyAllocator returns an allocator that switches systems through m.
func NewEnergyAllocator(m *systems.Manager) *EnergyAllocator {
	return &EnergyAllocator{systems: m}
}

// Allocate runs the energy resolution on s. s must have an EPS.
func (a *EnergyAllocator) Allocate(s *ship.Ship, rep *Report) Allocation {
	eps := s.Eps
	hasEnoughCrew := s.HasEnoughCrew()
	alloc := Allocation{AlertFrom: s.AlertState, AlertTo: s.AlertState}

	if !hasEnoughCrew {
		rep.AddLine("Not enough crew aboard, the ship is not fully functional! Systems are being deactivated!")
		for _, sys := range a.systems.ShutdownOrder(s) {
			if sys.Type == ship.SystemLifeSupport {
				continue
			}
			_ = a.systems.Deactivate(s, sys.Type, true)
		}
	}

	reactor := s.ReactorWrapper()
	alloc.WarpUsage = a.loadWarpDrive(s, reactor, hasEnoughCrew)
	alloc.Available = availableEps(s, reactor, hasEnoughCrew, alloc.WarpUsage)
	usage := s.EpsUsage()

	// Each alert level above green costs one unit, so stepping down is the cheapest saving.
	if usage > alloc.Available {
		malus := usage - alloc.Available
		if steps := min(malus, s.AlertState.EnergyUsage()); steps > 0 {
			from := s.AlertState
			s.AlertState = from - ship.AlertState(steps)
			usage -= steps
			alloc.AlertTo = s.AlertState
			rep.Add("Changed from %s to %s due to energy shortage", from.Description(), s.AlertState.Description())
		}
	}

	if usage > alloc.Available {
		for _, sys := range a.systems.ShutdownOrder(s) {
			if sys.EnergyCost < 1 {
				continue
			}
			_ = a.systems.Deactivate(s, sys.Type, true)
			usage -= sys.EnergyCost
			alloc.Shutdowns = append(alloc.Shutdowns, sys.Type)
			rep.Add("%s deactivated due to energy shortage", sys.Type.Description())

			if sys.Type == ship.SystemLifeSupport && s.Crew > 0 {
				alloc.Usage = usage
				alloc.Evacuate = true
				return alloc
			}
			if usage <= alloc.Available {
				break
			}
		}
	}
	alloc.Usage = usage

	newEps := alloc.Available - usage
	if s.IsBase && eps.ReloadBattery && newEps > eps.Eps {
		alloc.BatteryReload = max(0, min(
			ceilDiv(eps.MaxBattery, 10),
			newEps-eps.Eps,
			eps.MaxBattery-eps.Battery,
		))
	}
	newEps -= alloc.BatteryReload
	newEps = min(newEps, eps.MaxEps)

	// Load accounting uses the unclamped value; only the stored energy is floored at zero.
	alloc.Consumed = usage + alloc.BatteryReload + (newEps - eps.Eps) + alloc.WarpUsage
	alloc.NewEps = max(0, newEps)

	eps.Eps = alloc.NewEps
	eps.Battery += alloc.BatteryReload

	if alloc.Consumed > 0 && reactor != nil {
		reactor.ChangeLoad(-alloc.Consumed)
	}
	return alloc
}

// loadWarpDrive charges the warp drive from the reactor's warp share and
// returns the energy that cost.
func (a *EnergyAllocator) loadWarpDrive(s *ship.Ship, reactor *ship.Reactor, hasEnoughCrew bool) int {
	if !hasEnoughCrew || reactor == nil || s.WarpDrive == nil || !s.HasSystem(ship.SystemWarpDrive) {
		return 0
	}
	produced := reactor.EffectiveWarpDriveProduction()
	if produced <= 0 {
		return 0
	}
	s.WarpDrive.WarpDrive += produced
	return produced * s.Rump.FlightECost
}

func availableEps(s *ship.Ship, reactor *ship.Reactor, hasEnoughCrew bool, warpUsage int) int {
	if !hasEnoughCrew || reactor == nil {
		return s.Eps.Eps
	}
	carryOver := 0
	if s.WarpDrive != nil && s.WarpDrive.AutoCarryOver {
		carryOver = reactor.OutputCappedByLoad() - reactor.EpsProduction() - warpUsage
	}
	return s.Eps.Eps + reactor.EpsProduction() + carryOver
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
