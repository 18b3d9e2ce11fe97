package universe

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/talgya/starbase/internal/catalog"
	"github.com/talgya/starbase/internal/engine"
	"github.com/talgya/starbase/internal/ship"
)

// Rump IDs of the default catalog used by the demo fleet.
const (
	rumpWorkbee      int64 = 1
	rumpFrigate      int64 = 10
	rumpCruiser      int64 = 11
	rumpGasCollector int64 = 12
	rumpOutpost      int64 = 100
)

// npcUserID owns the workbees docked at demo stations.
const npcUserID int64 = 2

// Store is what seeding needs from persistence.
type Store interface {
	EnsureUser(ctx context.Context, id int64, name string, factionID *int) error
	InsertDatabaseEntry(ctx context.Context, e engine.DatabaseEntry) error
	InsertStarSystem(ctx context.Context, sys ship.SystemLocation) error
	InsertMapRegion(ctx context.Context, r ship.MapRegion) error
	InsertLocationMining(ctx context.Context, lm *ship.LocationMining) error
	SaveShip(ctx context.Context, s *ship.Ship) error
}

// Seed writes the universe and a demo fleet of n player ships. Resource
// fields get their IDs on insert, so they are stored before the fleet.
func Seed(ctx context.Context, store Store, cat *catalog.Catalog, u *Universe, n int) error {
	for _, e := range u.Entries {
		if err := store.InsertDatabaseEntry(ctx, e); err != nil {
			return fmt.Errorf("database entry %d: %w", e.ID, err)
		}
	}
	for _, r := range u.Regions {
		if err := store.InsertMapRegion(ctx, r.MapRegion); err != nil {
			return fmt.Errorf("region %d: %w", r.ID, err)
		}
	}
	for _, s := range u.Systems {
		if err := store.InsertStarSystem(ctx, s.SystemLocation); err != nil {
			return fmt.Errorf("star system %d: %w", s.ID, err)
		}
	}
	for _, f := range u.Fields {
		if err := store.InsertLocationMining(ctx, f); err != nil {
			return fmt.Errorf("resource field at %d|%d: %w", f.CX, f.CY, err)
		}
	}

	fleet := BuildFleet(cat, u, n)
	if err := store.EnsureUser(ctx, npcUserID, "Shipyard", nil); err != nil {
		return err
	}
	for _, uid := range fleet.Users {
		faction := int(uid%5) + 1
		if err := store.EnsureUser(ctx, uid, fmt.Sprintf("Captain %d", uid), &faction); err != nil {
			return fmt.Errorf("user %d: %w", uid, err)
		}
	}
	for _, s := range fleet.Ships {
		if err := store.SaveShip(ctx, s); err != nil {
			return fmt.Errorf("ship %d: %w", s.ID, err)
		}
	}

	slog.Info("universe seeded",
		"regions", len(u.Regions),
		"systems", len(u.Systems),
		"fields", len(u.Fields),
		"ships", len(fleet.Ships),
		"players", len(fleet.Users),
	)
	return nil
}

// Fleet is a generated set of ships and their owners.
type Fleet struct {
	Users []int64
	Ships []*ship.Ship
}

// BuildFleet creates n player entities cycling through a frigate, a gas
// collector queued on a resource field, a cruiser finishing astrometric
// mapping and an outpost under construction with docked workbees.
func BuildFleet(cat *catalog.Catalog, u *Universe, n int) *Fleet {
	b := &fleetBuilder{
		cat:    cat,
		u:      u,
		rng:    rand.New(rand.NewPCG(uint64(u.Seed), 200)),
		nextID: 1,
		fleet:  &Fleet{},
	}

	players := max(1, n/4)
	for i := 0; i < players; i++ {
		b.fleet.Users = append(b.fleet.Users, ship.FirstPlayerUserID+int64(i))
	}

	for i := 0; i < n; i++ {
		owner := b.fleet.Users[i%players]
		switch i % 4 {
		case 0:
			b.frigate(owner)
		case 1:
			b.collector(owner)
		case 2:
			b.cruiser(owner)
		case 3:
			b.outpost(owner)
		}
	}
	return b.fleet
}

type fleetBuilder struct {
	cat    *catalog.Catalog
	u      *Universe
	rng    *rand.Rand
	nextID int64
	fleet  *Fleet
}

func (b *fleetBuilder) base(owner, rumpID int64, name string, cx, cy int) *ship.Ship {
	rump, ok := b.cat.Rump(rumpID)
	if !ok {
		rump = ship.Rump{ID: rumpID, Name: fmt.Sprintf("rump %d", rumpID)}
	}
	s := &ship.Ship{
		ID:         b.nextID,
		UserID:     owner,
		Name:       name,
		Rump:       rump,
		IsBase:     rump.IsStation,
		Hull:       100,
		MaxHull:    100,
		RepairRate: 10,
		Crew:       8,
		MinCrew:    4,
		AlertState: ship.AlertGreen,
		MaxStorage: 1000,
		Storage:    ship.Storage{},
		Location:   b.u.Location(cx, cy),
	}
	b.nextID++
	for _, t := range []ship.SystemType{
		ship.SystemHull, ship.SystemEps, ship.SystemComputer, ship.SystemLifeSupport,
		ship.SystemShortRangeSensors, ship.SystemDeflector,
	} {
		s.Systems = append(s.Systems, b.cat.NewSystem(t, nil))
	}
	s.Eps = &ship.EpsSystemData{Eps: 30, MaxEps: 60}
	b.fleet.Ships = append(b.fleet.Ships, s)
	return s
}

func (b *fleetBuilder) install(s *ship.Ship, types ...ship.SystemType) {
	for _, t := range types {
		s.Systems = append(s.Systems, b.cat.NewSystem(t, &ship.Module{ID: int64(t), Name: t.String()}))
	}
}

func (b *fleetBuilder) warp(s *ship.Ship, reactor ship.SystemType, output int) {
	b.install(s, reactor, ship.SystemWarpDrive, ship.SystemImpulseDrive)
	s.Reactor = &ship.ReactorSystemData{Type: reactor, Load: 1000, Capacity: 2000, Output: output}
	s.WarpDrive = &ship.WarpDriveSystemData{MaxWarpDrive: 40, Split: 25}
}

func (b *fleetBuilder) randomSector() (int, int) {
	return 1 + b.rng.IntN(b.u.Width), 1 + b.rng.IntN(b.u.Height)
}

func (b *fleetBuilder) frigate(owner int64) {
	cx, cy := b.randomSector()
	s := b.base(owner, rumpFrigate, fmt.Sprintf("Frigate %d", b.nextID), cx, cy)
	b.warp(s, ship.SystemWarpCore, 30)
	b.install(s, ship.SystemShields, ship.SystemPhaser, ship.SystemTorpedo)
	s.Storage[9] = 5
}

func (b *fleetBuilder) collector(owner int64) {
	cx, cy := b.randomSector()
	var field *ship.LocationMining
	if len(b.u.Fields) > 0 {
		field = b.u.Fields[b.rng.IntN(len(b.u.Fields))]
		cx, cy = field.CX, field.CY
	}
	s := b.base(owner, rumpGasCollector, fmt.Sprintf("Collector %d", b.nextID), cx, cy)
	b.warp(s, ship.SystemFusionReactor, 25)
	b.install(s, ship.SystemBussardCollector, ship.SystemAggregationSystem)
	if field != nil {
		if bussard, err := s.System(ship.SystemBussardCollector); err == nil {
			bussard.Mode = ship.ModeOn
		}
		s.MiningQueue = &ship.MiningQueue{ShipID: s.ID, LocationMiningID: field.ID}
		s.Aggregation = &ship.AggregationSystemData{CommodityID: field.CommodityID}
	}
}

func (b *fleetBuilder) cruiser(owner int64) {
	cx, cy := b.randomSector()
	if len(b.u.Systems) > 0 {
		sys := b.u.Systems[b.rng.IntN(len(b.u.Systems))]
		cx, cy = sys.CX, sys.CY
	}
	s := b.base(owner, rumpCruiser, fmt.Sprintf("Cruiser %d", b.nextID), cx, cy)
	s.MinCrew = 6
	s.Crew = 12
	b.warp(s, ship.SystemWarpCore, 40)
	b.install(s, ship.SystemAstroLaboratory, ship.SystemLongRangeSensors, ship.SystemShields)
	s.State = ship.StateAstroFinalizing
	s.AstroLab = &ship.AstroLabSystemData{StartTurn: 0}
}

func (b *fleetBuilder) outpost(owner int64) {
	cx, cy := b.randomSector()
	s := b.base(owner, rumpOutpost, fmt.Sprintf("Outpost %d", b.nextID), cx, cy)
	s.IsBase = true
	s.Hull = 0
	s.MaxHull = 400
	s.State = ship.StateUnderConstruction
	s.Progress = &ship.ConstructionProgress{ShipID: s.ID, RemainingTicks: max(1, s.Rump.BuildTime)}
	b.install(s, ship.SystemFusionReactor)
	s.Reactor = &ship.ReactorSystemData{Type: ship.SystemFusionReactor, Load: 500, Capacity: 1000, Output: 20}
	s.Eps.MaxBattery = 100
	s.Eps.ReloadBattery = true

	dock := s.ID
	for i := 0; i < s.Rump.NeededWorkbees; i++ {
		w := b.base(npcUserID, rumpWorkbee, fmt.Sprintf("Workbee %d", b.nextID), cx, cy)
		w.MinCrew = 1
		w.Crew = 1
		w.DockedTo = &dock
	}
}
