package engine

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/talgya/starbase/internal/catalog"
	"github.com/talgya/starbase/internal/ship"
)

var harvestNow = time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)

func TestHarvest_SetsDepletionOnce(t *testing.T) {
	lm := &ship.LocationMining{ActualAmount: 60}

	if got := Harvest(lm, 100, 1000, harvestNow); got != 60 {
		t.Fatalf("gathered: got %d want 60", got)
	}
	if lm.ActualAmount != 0 || lm.DepletedAt == nil || !lm.DepletedAt.Equal(harvestNow) {
		t.Fatalf("depletion not recorded: %+v", lm)
	}

	later := harvestNow.Add(time.Hour)
	if got := Harvest(lm, 100, 1000, later); got != 0 {
		t.Fatalf("gathered from depleted field: %d", got)
	}
	if !lm.DepletedAt.Equal(harvestNow) {
		t.Fatalf("depletion timestamp moved to %v", lm.DepletedAt)
	}
}

func TestHarvest_RefilledFieldClearsDepletion(t *testing.T) {
	depleted := harvestNow.Add(-time.Hour)
	lm := &ship.LocationMining{ActualAmount: 500, DepletedAt: &depleted}

	if got := Harvest(lm, 100, 1000, harvestNow); got != 100 {
		t.Fatalf("gathered: got %d", got)
	}
	if lm.DepletedAt != nil {
		t.Fatalf("depletion not cleared")
	}
	if lm.ActualAmount != 400 {
		t.Fatalf("amount: got %d", lm.ActualAmount)
	}
}

func TestHarvest_BoundedByFreeStorage(t *testing.T) {
	lm := &ship.LocationMining{ActualAmount: 500}
	if got := Harvest(lm, 100, 30, harvestNow); got != 30 {
		t.Fatalf("gathered: got %d want 30", got)
	}
	if lm.DepletedAt != nil {
		t.Fatalf("field marked depleted")
	}
}

func TestRestore_UndoesDepletion(t *testing.T) {
	lm := &ship.LocationMining{ActualAmount: 30}
	gathered := Harvest(lm, 100, 1000, harvestNow)
	if lm.ActualAmount != 0 || lm.DepletedAt == nil {
		t.Fatalf("harvest: %+v", lm)
	}
	Restore(lm, gathered)
	if lm.ActualAmount != 30 || lm.DepletedAt != nil {
		t.Fatalf("restore: %+v", lm)
	}
}

func bussardShip(module *ship.Module) *ship.Ship {
	c := newSys(ship.SystemBussardCollector, ship.ModeOn, 1)
	c.Module = module
	return &ship.Ship{
		ID: 40, UserID: 103, Name: "Scoop",
		Systems:     []*ship.System{c},
		Storage:     ship.Storage{},
		MaxStorage:  1000,
		MiningQueue: &ship.MiningQueue{ShipID: 40, LocationMiningID: 1},
	}
}

func TestBussardCollector_DrawRanges(t *testing.T) {
	cat := catalog.Default()
	faction := 2

	tests := []struct {
		name     string
		module   *ship.Module
		min, max int
	}{
		{"standard", &ship.Module{ID: 1}, 95, 105},
		{"faction", &ship.Module{ID: 2, FactionID: &faction}, 190, 220},
		{"no module", nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mining := &memMining{fields: map[int64]*ship.LocationMining{
				1: {ID: 1, CommodityID: 1100, ActualAmount: 10000, MaxAmount: 10000},
			}}
			b := BussardCollector{
				Mining: mining,
				Ranges: cat.Bussard,
				Rand:   rand.New(rand.NewPCG(1, 2)),
				Now:    func() time.Time { return harvestNow },
			}
			for i := 0; i < 20; i++ {
				s := bussardShip(tt.module)
				tc := &TickContext{Ctx: context.Background(), Ship: s, Report: &Report{}}
				if _, err := b.Apply(tc); err != nil {
					t.Fatalf("apply: %v", err)
				}
				got, _ := s.Storage.Amount(1100)
				if got < tt.min || got > tt.max {
					t.Fatalf("gathered %d outside [%d,%d]", got, tt.min, tt.max)
				}
			}
		})
	}
}

func TestBussardCollector_SharedFieldIsSerialized(t *testing.T) {
	mining := &memMining{fields: map[int64]*ship.LocationMining{
		1: {ID: 1, CommodityID: 1101, ActualAmount: 150, MaxAmount: 1000},
	}}
	b := BussardCollector{
		Mining: mining,
		Ranges: catalog.Default().Bussard,
		Rand:   rand.New(rand.NewPCG(7, 7)),
		Now:    func() time.Time { return harvestNow },
	}

	total := 0
	for i := 0; i < 3; i++ {
		s := bussardShip(&ship.Module{ID: 1})
		tc := &TickContext{Ctx: context.Background(), Ship: s, Report: &Report{}}
		if _, err := b.Apply(tc); err != nil {
			t.Fatalf("apply: %v", err)
		}
		got, _ := s.Storage.Amount(1101)
		total += got
	}
	if total != 150 {
		t.Fatalf("total gathered: got %d want 150", total)
	}
	if lm := mining.fields[1]; lm.ActualAmount != 0 || lm.DepletedAt == nil {
		t.Fatalf("field: %+v", lm)
	}
}

func TestBussardCollector_InactiveSystemDoesNothing(t *testing.T) {
	mining := &memMining{fields: map[int64]*ship.LocationMining{
		1: {ID: 1, CommodityID: 1100, ActualAmount: 500},
	}}
	b := BussardCollector{Mining: mining, Ranges: catalog.Default().Bussard, Rand: rand.New(rand.NewPCG(1, 1)), Now: time.Now}
	s := bussardShip(&ship.Module{ID: 1})
	s.Systems[0].Mode = ship.ModeOff

	if _, err := b.Apply(&TickContext{Ctx: context.Background(), Ship: s, Report: &Report{}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if mining.fields[1].ActualAmount != 500 || s.Storage.Sum() != 0 {
		t.Fatalf("inactive collector harvested")
	}
}

func TestBussardCollector_FullStorageIsReported(t *testing.T) {
	mining := &memMining{fields: map[int64]*ship.LocationMining{
		1: {ID: 1, CommodityID: 1100, ActualAmount: 500},
	}}
	b := BussardCollector{Mining: mining, Ranges: catalog.Default().Bussard, Rand: rand.New(rand.NewPCG(1, 1)), Now: time.Now}
	s := bussardShip(&ship.Module{ID: 1})
	s.Storage = ship.Storage{5: 1000}

	tc := &TickContext{Ctx: context.Background(), Ship: s, Report: &Report{}}
	if _, err := b.Apply(tc); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if tc.Report.Empty() || mining.fields[1].ActualAmount != 500 {
		t.Fatalf("full storage: report %v amount %d", tc.Report.Lines(), mining.fields[1].ActualAmount)
	}
}
