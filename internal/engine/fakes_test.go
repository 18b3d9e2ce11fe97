package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/talgya/starbase/internal/ship"
)

type memSource struct {
	ships []*ship.Ship
}

func (m *memSource) ListDueShips(context.Context) ([]*ship.Ship, error) { return m.ships, nil }

type memStore struct {
	saved map[int64]int
	fail  map[int64]bool
}

func newMemStore() *memStore {
	return &memStore{saved: map[int64]int{}, fail: map[int64]bool{}}
}

func (m *memStore) SaveShip(_ context.Context, s *ship.Ship) error {
	if m.fail[s.ID] {
		return fmt.Errorf("disk full")
	}
	m.saved[s.ID]++
	return nil
}

type memSender struct {
	sent []Message
}

func (m *memSender) SendMessage(_ context.Context, msg Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func (m *memSender) to(recipient int64) []Message {
	var out []Message
	for _, msg := range m.sent {
		if msg.Recipient == recipient {
			out = append(out, msg)
		}
	}
	return out
}

type memMining struct {
	fields map[int64]*ship.LocationMining
}

func (m *memMining) UpdateLocationMining(_ context.Context, id int64, fn func(*ship.LocationMining) error) error {
	lm, ok := m.fields[id]
	if !ok {
		return fmt.Errorf("location mining %d not found", id)
	}
	cp := *lm
	if err := fn(&cp); err != nil {
		return err
	}
	*lm = cp
	return nil
}

type memLocator struct {
	locations map[int64]ship.Location
}

func (m *memLocator) ShipLocation(_ context.Context, id int64) (ship.Location, error) {
	loc, ok := m.locations[id]
	if !ok {
		return ship.Location{}, errors.New("ship not found")
	}
	return loc, nil
}

type memEntries struct {
	entries map[int64]DatabaseEntry
	granted map[[2]int64]uint64
}

func newMemEntries(entries ...DatabaseEntry) *memEntries {
	m := &memEntries{entries: map[int64]DatabaseEntry{}, granted: map[[2]int64]uint64{}}
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return m
}

func (m *memEntries) DatabaseEntry(_ context.Context, id int64) (DatabaseEntry, error) {
	e, ok := m.entries[id]
	if !ok {
		return DatabaseEntry{}, errors.New("no such entry")
	}
	return e, nil
}

func (m *memEntries) HasDatabaseEntry(_ context.Context, userID, entryID int64) (bool, error) {
	_, ok := m.granted[[2]int64{userID, entryID}]
	return ok, nil
}

func (m *memEntries) AddDatabaseEntry(_ context.Context, userID, entryID int64, turn uint64) error {
	m.granted[[2]int64{userID, entryID}] = turn
	return nil
}

type memTakeovers struct {
	owners map[int64]int64
	names  map[int64]string
}

func (m *memTakeovers) CompleteTakeover(_ context.Context, t *ship.Takeover, newOwner int64) (TakeoverResult, error) {
	prev := m.owners[t.TargetShipID]
	m.owners[t.TargetShipID] = newOwner
	return TakeoverResult{TargetID: t.TargetShipID, TargetName: m.names[t.TargetShipID], PreviousOwner: prev}, nil
}

type fakeEvacuator struct {
	calls int
}

func (f *fakeEvacuator) Evacuate(_ context.Context, s *ship.Ship) (string, error) {
	f.calls++
	s.Crew = 0
	return "The crew left the ship in escape pods", nil
}

// newSys builds an installed, healthy system.
func newSys(t ship.SystemType, mode ship.Mode, cost int) *ship.System {
	return &ship.System{Type: t, Mode: mode, Status: 100, EnergyCost: cost}
}
