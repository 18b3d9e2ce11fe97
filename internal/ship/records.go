package ship

import "time"

// ConstructionProgress tracks a station being built or dismantled.
type ConstructionProgress struct {
	ID             int64 `json:"id" db:"id"`
	ShipID         int64 `json:"ship_id" db:"ship_id"`
	RemainingTicks int   `json:"remaining_ticks" db:"remaining_ticks"`
}

// Takeover is a boarding takeover in progress, owned by the taking ship.
type Takeover struct {
	ID           int64  `json:"id" db:"id"`
	SourceShipID int64  `json:"source_ship_id" db:"source_ship_id"`
	TargetShipID int64  `json:"target_ship_id" db:"target_ship_id"`
	StartTurn    uint64 `json:"start_turn" db:"start_turn"`
}

// LocationMining is a harvestable resource field shared by every ship on it.
type LocationMining struct {
	ID           int64      `json:"id"`
	CX           int        `json:"cx"`
	CY           int        `json:"cy"`
	CommodityID  int        `json:"commodity_id"`
	MaxAmount    int        `json:"max_amount"`
	ActualAmount int        `json:"actual_amount"`
	DepletedAt   *time.Time `json:"depleted_at,omitempty"`
}

// MiningQueue binds a ship to the field it harvests.
type MiningQueue struct {
	ShipID           int64 `json:"ship_id" db:"ship_id"`
	LocationMiningID int64 `json:"location_mining_id" db:"location_mining_id"`
}
