package engine

import (
	"context"

	"github.com/talgya/starbase/internal/ship"
)

// ShipSource lists the entities due for a tick.
type ShipSource interface {
	ListDueShips(ctx context.Context) ([]*ship.Ship, error)
}

// ShipStore persists the final state of an entity. A scrapped entity is deleted.
type ShipStore interface {
	SaveShip(ctx context.Context, s *ship.Ship) error
}

// MessageSender delivers private messages.
type MessageSender interface {
	SendMessage(ctx context.Context, m Message) error
}

// MiningStore applies fn to a freshly read location-mining row and stores
// the result atomically with respect to other harvesters.
type MiningStore interface {
	UpdateLocationMining(ctx context.Context, id int64, fn func(lm *ship.LocationMining) error) error
}

// ShipLocator resolves another ship's position, used by the tracker device.
type ShipLocator interface {
	ShipLocation(ctx context.Context, shipID int64) (ship.Location, error)
}

// DatabaseEntry is a discoverable entry of the player database.
type DatabaseEntry struct {
	ID          int64  `json:"id" db:"id"`
	Description string `json:"description" db:"description"`
	Points      int    `json:"points" db:"points"`
}

// DatabaseEntries looks up and grants player database entries.
type DatabaseEntries interface {
	DatabaseEntry(ctx context.Context, id int64) (DatabaseEntry, error)
	HasDatabaseEntry(ctx context.Context, userID, entryID int64) (bool, error)
	AddDatabaseEntry(ctx context.Context, userID, entryID int64, turn uint64) error
}

// TakeoverResult describes a completed takeover.
type TakeoverResult struct {
	TargetID      int64
	TargetName    string
	PreviousOwner int64
}

// TakeoverStore completes a takeover: the target changes owner and the
// takeover record is removed.
type TakeoverStore interface {
	CompleteTakeover(ctx context.Context, t *ship.Takeover, newOwner int64) (TakeoverResult, error)
}
