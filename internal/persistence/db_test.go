package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/talgya/starbase/internal/catalog"
	"github.com/talgya/starbase/internal/engine"
	"github.com/talgya/starbase/internal/ship"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), catalog.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testShip(t *testing.T, id, user int64, rumpID int64) *ship.Ship {
	t.Helper()
	rump, ok := catalog.Default().Rump(rumpID)
	if !ok {
		t.Fatalf("rump %d missing", rumpID)
	}
	return &ship.Ship{
		ID:         id,
		UserID:     user,
		Name:       "Ship",
		Rump:       rump,
		Hull:       80,
		MaxHull:    100,
		Crew:       10,
		MinCrew:    5,
		AlertState: ship.AlertGreen,
		MaxStorage: 500,
		Storage:    ship.Storage{},
		Location:   ship.Location{CX: 3, CY: 4},
	}
}

func TestMetaAndLastTick(t *testing.T) {
	db := openTest(t)

	if _, err := db.GetMeta("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetMeta missing: got %v, want ErrNotFound", err)
	}
	turn, err := db.LastTick()
	if err != nil || turn != 0 {
		t.Fatalf("LastTick fresh = %d, %v", turn, err)
	}
	if err := db.SaveLastTick(42); err != nil {
		t.Fatalf("SaveLastTick: %v", err)
	}
	if turn, _ := db.LastTick(); turn != 42 {
		t.Fatalf("LastTick = %d, want 42", turn)
	}
}

func TestSaveAndLoadShip(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	if err := db.InsertStarSystem(ctx, ship.SystemLocation{ID: 7, Name: "Vega", DatabaseEntryID: 70}); err != nil {
		t.Fatalf("InsertStarSystem: %v", err)
	}

	s := testShip(t, 1000, 200, 10)
	s.Location.System = &ship.SystemLocation{ID: 7}
	s.Systems = []*ship.System{
		{Type: ship.SystemEps, Mode: ship.ModeAlwaysOn, Status: 100, EnergyCost: 0},
		{Type: ship.SystemShields, Mode: ship.ModeOn, Status: 40, EnergyCost: 1, Module: &ship.Module{ID: 3, Name: "Shield"}},
	}
	s.Eps = &ship.EpsSystemData{Eps: 20, MaxEps: 50}
	s.Storage[9] = 12
	s.Tracker = &ship.TrackerSystemData{RemainingTicks: 3}
	s.MiningQueue = &ship.MiningQueue{ShipID: s.ID, LocationMiningID: 5}

	if err := db.SaveShip(ctx, s); err != nil {
		t.Fatalf("SaveShip: %v", err)
	}

	got, err := db.Ship(ctx, s.ID)
	if err != nil {
		t.Fatalf("Ship: %v", err)
	}
	if got.Rump.Name != "Frigate" {
		t.Fatalf("rump = %q, want Frigate", got.Rump.Name)
	}
	if len(got.Systems) != 2 || got.Systems[1].Module == nil || got.Systems[1].Module.Name != "Shield" {
		t.Fatalf("systems not restored: %+v", got.Systems)
	}
	if got.Eps == nil || got.Eps.Eps != 20 {
		t.Fatalf("eps not restored: %+v", got.Eps)
	}
	if got.WarpDrive != nil {
		t.Fatalf("warp drive = %+v, want nil", got.WarpDrive)
	}
	if got.Storage[9] != 12 {
		t.Fatalf("storage = %v", got.Storage)
	}
	if got.Tracker == nil || got.Tracker.TargetID != nil || got.Tracker.RemainingTicks != 3 {
		t.Fatalf("tracker = %+v", got.Tracker)
	}
	if got.MiningQueue == nil || got.MiningQueue.LocationMiningID != 5 {
		t.Fatalf("mining queue = %+v", got.MiningQueue)
	}
	if got.Location.System == nil || got.Location.System.Name != "Vega" || got.Location.System.DatabaseEntryID != 70 {
		t.Fatalf("location = %+v", got.Location)
	}

	// Clearing a record removes its row.
	got.Tracker = nil
	got.Storage = ship.Storage{}
	if err := db.SaveShip(ctx, got); err != nil {
		t.Fatalf("SaveShip again: %v", err)
	}
	again, _ := db.Ship(ctx, s.ID)
	if again.Tracker != nil || len(again.Storage) != 0 {
		t.Fatalf("records not cleared: tracker=%+v storage=%v", again.Tracker, again.Storage)
	}
}

func TestListDueShipsSkipsNPCsAndDestroyed(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	player := testShip(t, 1, ship.FirstPlayerUserID, 10)
	npc := testShip(t, 2, 5, 10)
	wreck := testShip(t, 3, ship.FirstPlayerUserID, 10)
	wreck.Destroyed = true
	for _, s := range []*ship.Ship{player, npc, wreck} {
		if err := db.SaveShip(ctx, s); err != nil {
			t.Fatalf("SaveShip %d: %v", s.ID, err)
		}
	}

	due, err := db.ListDueShips(ctx)
	if err != nil {
		t.Fatalf("ListDueShips: %v", err)
	}
	if len(due) != 1 || due[0].ID != 1 {
		t.Fatalf("due ships = %d, want only ship 1", len(due))
	}

	all, _ := db.ListShips(ctx)
	if len(all) != 3 {
		t.Fatalf("ListShips = %d, want 3", len(all))
	}
}

func TestDockedWorkbeesCounted(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	station := testShip(t, 10, 200, 100)
	station.IsBase = true
	station.Progress = &ship.ConstructionProgress{ShipID: 10, RemainingTicks: 4}
	if err := db.SaveShip(ctx, station); err != nil {
		t.Fatalf("SaveShip station: %v", err)
	}
	dock := int64(10)
	for i := int64(0); i < 3; i++ {
		bee := testShip(t, 20+i, 200, 1)
		bee.DockedTo = &dock
		if err := db.SaveShip(ctx, bee); err != nil {
			t.Fatalf("SaveShip workbee: %v", err)
		}
	}
	frigate := testShip(t, 30, 200, 10)
	frigate.DockedTo = &dock
	if err := db.SaveShip(ctx, frigate); err != nil {
		t.Fatalf("SaveShip frigate: %v", err)
	}

	got, err := db.Ship(ctx, 10)
	if err != nil {
		t.Fatalf("Ship: %v", err)
	}
	if got.DockedWorkbees != 3 {
		t.Fatalf("DockedWorkbees = %d, want 3", got.DockedWorkbees)
	}
	if got.Progress == nil || got.Progress.RemainingTicks != 4 {
		t.Fatalf("progress = %+v", got.Progress)
	}
}

func TestScrappedShipIsDeleted(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	s := testShip(t, 5, 200, 100)
	s.Systems = []*ship.System{{Type: ship.SystemHull, Mode: ship.ModeAlwaysOn, Status: 100}}
	if err := db.SaveShip(ctx, s); err != nil {
		t.Fatalf("SaveShip: %v", err)
	}
	s.Scrapped = true
	if err := db.SaveShip(ctx, s); err != nil {
		t.Fatalf("SaveShip scrapped: %v", err)
	}
	if _, err := db.Ship(ctx, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Ship after scrap: got %v, want ErrNotFound", err)
	}
}

func TestSaveShipKeepsOwner(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	taker := testShip(t, 1, 300, 10)
	taker.Takeover = &ship.Takeover{SourceShipID: 1, TargetShipID: 2, StartTurn: 1}
	target := testShip(t, 2, 400, 10)
	target.Name = "Prize"
	for _, s := range []*ship.Ship{taker, target} {
		if err := db.SaveShip(ctx, s); err != nil {
			t.Fatalf("SaveShip: %v", err)
		}
	}

	loaded, _ := db.Ship(ctx, 1)
	res, err := db.CompleteTakeover(ctx, loaded.Takeover, 300)
	if err != nil {
		t.Fatalf("CompleteTakeover: %v", err)
	}
	if res.PreviousOwner != 400 || res.TargetName != "Prize" {
		t.Fatalf("result = %+v", res)
	}

	// A stale copy of the target saved later must not revert ownership.
	if err := db.SaveShip(ctx, target); err != nil {
		t.Fatalf("SaveShip stale: %v", err)
	}
	got, _ := db.Ship(ctx, 2)
	if got.UserID != 300 {
		t.Fatalf("owner = %d, want 300", got.UserID)
	}
	taker2, _ := db.Ship(ctx, 1)
	if taker2.Takeover != nil {
		t.Fatalf("takeover record not removed")
	}
}

func TestUpdateLocationMining(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	lm := &ship.LocationMining{CX: 1, CY: 1, CommodityID: 4, MaxAmount: 100, ActualAmount: 30}
	if err := db.InsertLocationMining(ctx, lm); err != nil {
		t.Fatalf("InsertLocationMining: %v", err)
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := db.UpdateLocationMining(ctx, lm.ID, func(f *ship.LocationMining) error {
		engine.Harvest(f, 50, 100, now)
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateLocationMining: %v", err)
	}
	got, err := db.LocationMining(ctx, lm.ID)
	if err != nil {
		t.Fatalf("LocationMining: %v", err)
	}
	if got.ActualAmount != 0 || got.DepletedAt == nil || !got.DepletedAt.Equal(now) {
		t.Fatalf("field = %+v", got)
	}

	boom := errors.New("boom")
	err = db.UpdateLocationMining(ctx, lm.ID, func(f *ship.LocationMining) error {
		f.ActualAmount = 99
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("callback error = %v", err)
	}
	if got, _ := db.LocationMining(ctx, lm.ID); got.ActualAmount != 0 {
		t.Fatalf("failed update was written: %d", got.ActualAmount)
	}
}

func TestMessagesAndEntries(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m := engine.Message{Sender: ship.UserNoOne, Recipient: 200, Text: "hello", Category: engine.CategoryShip, Tick: uint64(i)}
		if err := db.SendMessage(ctx, m); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}
	msgs, err := db.MessagesFor(ctx, 200, 2)
	if err != nil {
		t.Fatalf("MessagesFor: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Tick != 2 {
		t.Fatalf("messages = %+v", msgs)
	}

	if err := db.InsertDatabaseEntry(ctx, engine.DatabaseEntry{ID: 70, Description: "Vega", Points: 5}); err != nil {
		t.Fatalf("InsertDatabaseEntry: %v", err)
	}
	e, err := db.DatabaseEntry(ctx, 70)
	if err != nil || e.Points != 5 {
		t.Fatalf("DatabaseEntry = %+v, %v", e, err)
	}
	if has, _ := db.HasDatabaseEntry(ctx, 200, 70); has {
		t.Fatalf("entry granted before AddDatabaseEntry")
	}
	if err := db.AddDatabaseEntry(ctx, 200, 70, 9); err != nil {
		t.Fatalf("AddDatabaseEntry: %v", err)
	}
	if err := db.AddDatabaseEntry(ctx, 200, 70, 10); err != nil {
		t.Fatalf("AddDatabaseEntry twice: %v", err)
	}
	if has, _ := db.HasDatabaseEntry(ctx, 200, 70); !has {
		t.Fatalf("entry not granted")
	}
	if _, err := db.DatabaseEntry(ctx, 71); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing entry: got %v", err)
	}
}
