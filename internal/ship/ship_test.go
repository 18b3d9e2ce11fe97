package ship

import (
	"errors"
	"testing"
)

func testShip() *Ship {
	return &Ship{
		ID:         7,
		Name:       "Ganymede",
		Rump:       Rump{ID: 1, Name: "Frigate", FlightECost: 2},
		Hull:       80,
		MaxHull:    100,
		Crew:       10,
		MinCrew:    8,
		AlertState: AlertGreen,
		Systems: []*System{
			{Type: SystemShields, Mode: ModeOn, Status: 100, EnergyCost: 5},
			{Type: SystemShortRangeSensors, Mode: ModeOff, Status: 100, EnergyCost: 3},
			{Type: SystemLifeSupport, Mode: ModeAlwaysOn, Status: 60, EnergyCost: 2},
		},
		Eps: &EpsSystemData{Eps: 10, MaxEps: 50},
	}
}

func TestSystemLookup(t *testing.T) {
	s := testShip()

	sys, err := s.System(SystemShields)
	if err != nil {
		t.Fatalf("System(shields): %v", err)
	}
	if sys.EnergyCost != 5 {
		t.Errorf("energy cost = %d, want 5", sys.EnergyCost)
	}

	_, err = s.System(SystemCloak)
	if !errors.Is(err, ErrSystemNotFound) {
		t.Fatalf("System(cloak) err = %v, want ErrSystemNotFound", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Type != SystemCloak {
		t.Errorf("expected NotFoundError for cloak, got %#v", err)
	}
}

func TestEpsUsageIncludesAlertSurcharge(t *testing.T) {
	s := testShip()
	if got := s.EpsUsage(); got != 7 {
		t.Fatalf("green usage = %d, want 7", got)
	}
	s.AlertState = AlertRed
	if got := s.EpsUsage(); got != 9 {
		t.Fatalf("red usage = %d, want 9", got)
	}
}

func TestSetAlertStateNeedsEnergy(t *testing.T) {
	s := testShip()
	s.Eps.Eps = 0

	err := s.SetAlertState(AlertYellow)
	if !errors.Is(err, ErrInsufficientEnergy) {
		t.Fatalf("err = %v, want ErrInsufficientEnergy", err)
	}
	if s.AlertState != AlertGreen {
		t.Errorf("alert changed despite error: %v", s.AlertState)
	}

	s.Eps.Eps = 3
	if err := s.SetAlertState(AlertRed); err != nil {
		t.Fatalf("SetAlertState(red): %v", err)
	}
	if s.Eps.Eps != 2 {
		t.Errorf("eps = %d, want 2 after raising alert", s.Eps.Eps)
	}

	// Lowering is free.
	if err := s.SetAlertState(AlertGreen); err != nil || s.Eps.Eps != 2 {
		t.Errorf("lowering alert: err=%v eps=%d", err, s.Eps.Eps)
	}
}

func TestDamagedSystemsOrderedByPriority(t *testing.T) {
	s := testShip()
	s.Systems[0].Status = 40 // shields
	s.Systems[1].Status = 10 // sensors

	prio := map[SystemType]int{SystemShields: 3, SystemShortRangeSensors: 5, SystemLifeSupport: 10}
	damaged := s.DamagedSystems(func(t SystemType) int { return prio[t] })

	want := []SystemType{SystemLifeSupport, SystemShortRangeSensors, SystemShields}
	if len(damaged) != len(want) {
		t.Fatalf("got %d damaged systems, want %d", len(damaged), len(want))
	}
	for i, sys := range damaged {
		if sys.Type != want[i] {
			t.Errorf("damaged[%d] = %v, want %v", i, sys.Type, want[i])
		}
	}
}

func TestCanBeRepaired(t *testing.T) {
	s := testShip()
	if !s.CanBeRepaired() {
		t.Fatal("damaged ship should be repairable")
	}
	s.Hull = s.MaxHull
	s.Systems[2].Status = 100
	if s.CanBeRepaired() {
		t.Fatal("intact ship should not be repairable")
	}
}

func TestStorage(t *testing.T) {
	var st Storage
	st.Upper(4, 10)
	st.Upper(5, 3)
	if st.Sum() != 13 {
		t.Fatalf("sum = %d, want 13", st.Sum())
	}
	if err := st.Lower(5, 4); err == nil {
		t.Fatal("expected error lowering more than stored")
	}
	if err := st.Lower(5, 3); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if _, ok := st.Amount(5); ok {
		t.Error("commodity 5 should be gone")
	}
}

func TestSystemTypeKeysRoundTrip(t *testing.T) {
	for _, typ := range AllSystemTypes() {
		parsed, err := ParseSystemType(typ.Key())
		if err != nil || parsed != typ {
			t.Errorf("ParseSystemType(%q) = %v, %v", typ.Key(), parsed, err)
		}
	}
}
