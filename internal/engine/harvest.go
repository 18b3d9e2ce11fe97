package engine

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/talgya/starbase/internal/catalog"
	"github.com/talgya/starbase/internal/ship"
)

// BussardCollector harvests the location-mining field a ship is queued on.
type BussardCollector struct {
	Mining MiningStore
	Ranges catalog.BussardConfig
	Rand   *rand.Rand
	Now    func() time.Time
}

func (BussardCollector) Name() string { return "bussard" }

func (b BussardCollector) Apply(tc *TickContext) (Outcome, error) {
	s := tc.Ship
	q := s.MiningQueue
	if q == nil {
		return Continue, nil
	}
	sys, err := s.System(ship.SystemBussardCollector)
	if err != nil || !sys.Active() {
		return Continue, nil
	}

	free := s.FreeStorage()
	var gathered, commodity int
	err = b.Mining.UpdateLocationMining(tc.Ctx, q.LocationMiningID, func(lm *ship.LocationMining) error {
		gathered = Harvest(lm, b.draw(sys.Module), free, b.Now())
		commodity = lm.CommodityID
		return nil
	})
	if err != nil {
		return Continue, err
	}

	if gathered > 0 {
		s.Storage.Upper(commodity, gathered)
		id := q.LocationMiningID
		tc.OnFailure(func(ctx context.Context) error {
			return b.Mining.UpdateLocationMining(ctx, id, func(lm *ship.LocationMining) error {
				Restore(lm, gathered)
				return nil
			})
		})
	}
	if free == 0 {
		tc.Report.AddLine("The bussard collector stopped: storage is full")
	}
	return Continue, nil
}

func (b BussardCollector) draw(module *ship.Module) int {
	if module == nil {
		return 0
	}
	r := b.Ranges.Standard
	if module.FactionRestricted() {
		r = b.Ranges.Faction
	}
	return r.Min + b.Rand.IntN(r.Max-r.Min+1)
}

// Harvest takes up to draw units from lm, bounded by the field's remaining
// amount and free storage, and maintains the depletion timestamp. It
// returns the amount gathered.
func Harvest(lm *ship.LocationMining, draw, freeStorage int, now time.Time) int {
	actual := lm.ActualAmount
	gathered := max(0, min(draw, actual, freeStorage))

	if gathered > 0 && lm.DepletedAt != nil {
		lm.DepletedAt = nil
	}
	lm.ActualAmount = actual - gathered
	if lm.ActualAmount == 0 && actual > 0 {
		t := now
		lm.DepletedAt = &t
	}
	return gathered
}

// Restore puts n harvested units back into lm. A field holding anything is
// not depleted.
func Restore(lm *ship.LocationMining, n int) {
	lm.ActualAmount += n
	if lm.ActualAmount > 0 {
		lm.DepletedAt = nil
	}
}
