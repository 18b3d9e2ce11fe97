package ship

// Reactor converts reactor load into EPS energy and warp-drive charge.
// All quantities are whole energy units.
type Reactor struct {
	ship   *Ship
	system *System
	data   *ReactorSystemData
}

// Type is the installed reactor's system type.
func (r *Reactor) Type() SystemType { return r.data.Type }

// Load is the remaining reactor fuel.
func (r *Reactor) Load() int { return r.data.Load }

// Output is the rated output; a destroyed reactor produces nothing.
func (r *Reactor) Output() int {
	if !r.system.Healthy() {
		return 0
	}
	return r.data.Output
}

// OutputCappedByLoad is the output the remaining load can sustain this tick.
func (r *Reactor) OutputCappedByLoad() int {
	return max(0, min(r.Output(), r.data.Load))
}

func (r *Reactor) warpShare() int {
	wd := r.ship.WarpDrive
	if wd == nil {
		return 0
	}
	split := max(0, min(wd.Split, 100))
	return r.OutputCappedByLoad() * split / 100
}

// EpsProduction is the part of the output that feeds the EPS.
func (r *Reactor) EpsProduction() int {
	return r.OutputCappedByLoad() - r.warpShare()
}

// EffectiveWarpDriveProduction is the warp-drive charge the reactor's warp
// share buys this tick, limited by the charge the warp drive can still take.
func (r *Reactor) EffectiveWarpDriveProduction() int {
	wd := r.ship.WarpDrive
	if wd == nil {
		return 0
	}
	cost := max(1, r.ship.Rump.FlightECost)
	return min(r.warpShare()/cost, wd.Missing())
}

// ChangeLoad adjusts the load, clamped to [0, Capacity].
func (r *Reactor) ChangeLoad(delta int) {
	load := r.data.Load + delta
	if r.data.Capacity > 0 {
		load = min(load, r.data.Capacity)
	}
	r.data.Load = max(0, load)
}
