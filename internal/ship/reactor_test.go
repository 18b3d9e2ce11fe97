package ship

import "testing"

func reactorShip() *Ship {
	s := testShip()
	s.Systems = append(s.Systems, &System{Type: SystemWarpCore, Mode: ModeAlwaysOn, Status: 100})
	s.Reactor = &ReactorSystemData{Type: SystemWarpCore, Load: 100, Capacity: 200, Output: 30}
	s.WarpDrive = &WarpDriveSystemData{WarpDrive: 5, MaxWarpDrive: 10, Split: 50, AutoCarryOver: true}
	return s
}

func TestReactorProduction(t *testing.T) {
	s := reactorShip()
	r := s.ReactorWrapper()
	if r == nil {
		t.Fatal("expected reactor wrapper")
	}

	if got := r.OutputCappedByLoad(); got != 30 {
		t.Errorf("capped output = %d, want 30", got)
	}
	// Half of 30 goes to the warp drive.
	if got := r.EpsProduction(); got != 15 {
		t.Errorf("eps production = %d, want 15", got)
	}
	// 15 / flight cost 2 = 7, limited to the 5 missing charge.
	if got := r.EffectiveWarpDriveProduction(); got != 5 {
		t.Errorf("warp production = %d, want 5", got)
	}
}

func TestReactorCappedByLoad(t *testing.T) {
	s := reactorShip()
	s.Reactor.Load = 12
	r := s.ReactorWrapper()
	if got := r.OutputCappedByLoad(); got != 12 {
		t.Errorf("capped output = %d, want 12", got)
	}
}

func TestReactorDestroyedProducesNothing(t *testing.T) {
	s := reactorShip()
	s.Systems[len(s.Systems)-1].Status = 0
	r := s.ReactorWrapper()
	if r.OutputCappedByLoad() != 0 || r.EpsProduction() != 0 || r.EffectiveWarpDriveProduction() != 0 {
		t.Error("destroyed reactor should produce nothing")
	}
}

func TestReactorChangeLoadClamps(t *testing.T) {
	s := reactorShip()
	r := s.ReactorWrapper()

	r.ChangeLoad(-500)
	if r.Load() != 0 {
		t.Errorf("load = %d, want floor 0", r.Load())
	}
	r.ChangeLoad(500)
	if r.Load() != 200 {
		t.Errorf("load = %d, want capacity 200", r.Load())
	}
}

func TestNoReactorWrapperWithoutSystem(t *testing.T) {
	s := testShip()
	s.Reactor = &ReactorSystemData{Type: SystemFusionReactor, Load: 10, Output: 5}
	if s.ReactorWrapper() != nil {
		t.Fatal("reactor data without installed system should yield no wrapper")
	}
}
