package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/starbase/internal/ship"
)

// shipRow is one row of ships joined with its location names.
type shipRow struct {
	ID          int64         `db:"id"`
	UserID      int64         `db:"user_id"`
	Name        string        `db:"name"`
	RumpID      int64         `db:"rump_id"`
	IsBase      bool          `db:"is_base"`
	State       uint8         `db:"state"`
	Hull        int           `db:"hull"`
	MaxHull     int           `db:"max_hull"`
	RepairRate  int           `db:"repair_rate"`
	Crew        int           `db:"crew"`
	MinCrew     int           `db:"min_crew"`
	AlertState  uint8         `db:"alert_state"`
	CX          int           `db:"cx"`
	CY          int           `db:"cy"`
	SystemID    sql.NullInt64 `db:"system_id"`
	RegionID    sql.NullInt64 `db:"region_id"`
	MaxStorage  int           `db:"max_storage"`
	DockedTo    sql.NullInt64 `db:"docked_to"`
	TractoredBy sql.NullInt64 `db:"tractored_by"`
	Tractoring  sql.NullInt64 `db:"tractoring"`
	Destroyed   bool          `db:"destroyed"`

	EpsJSON         sql.NullString `db:"eps_json"`
	WarpDriveJSON   sql.NullString `db:"warp_drive_json"`
	ReactorJSON     sql.NullString `db:"reactor_json"`
	AstroJSON       sql.NullString `db:"astro_json"`
	AggregationJSON sql.NullString `db:"aggregation_json"`

	SystemName  sql.NullString `db:"system_name"`
	SystemEntry sql.NullInt64  `db:"system_entry"`
	RegionName  sql.NullString `db:"region_name"`
	RegionEntry sql.NullInt64  `db:"region_entry"`
}

const shipSelect = `
	SELECT s.*,
		ss.name AS system_name, ss.database_entry_id AS system_entry,
		mr.description AS region_name, mr.database_entry_id AS region_entry
	FROM ships s
	LEFT JOIN star_systems ss ON ss.id = s.system_id
	LEFT JOIN map_regions mr ON mr.id = s.region_id`

type systemRow struct {
	ShipID     int64          `db:"ship_id"`
	SystemType uint8          `db:"system_type"`
	Mode       uint8          `db:"mode"`
	Status     int            `db:"status"`
	EnergyCost int            `db:"energy_cost"`
	ModuleJSON sql.NullString `db:"module_json"`
}

type storageRow struct {
	ShipID      int64 `db:"ship_id"`
	CommodityID int   `db:"commodity_id"`
	Amount      int   `db:"amount"`
}

type trackerRow struct {
	ShipID         int64         `db:"ship_id"`
	TargetID       sql.NullInt64 `db:"target_id"`
	RemainingTicks int           `db:"remaining_ticks"`
}

// ListDueShips loads every player-owned entity that takes part in the tick.
func (db *DB) ListDueShips(ctx context.Context) ([]*ship.Ship, error) {
	return db.loadShips(ctx, shipSelect+" WHERE s.user_id >= ? AND s.destroyed = 0 ORDER BY s.id", ship.FirstPlayerUserID)
}

// ListShips loads every entity, NPCs included.
func (db *DB) ListShips(ctx context.Context) ([]*ship.Ship, error) {
	return db.loadShips(ctx, shipSelect+" ORDER BY s.id")
}

// Ship loads one entity.
func (db *DB) Ship(ctx context.Context, id int64) (*ship.Ship, error) {
	ships, err := db.loadShips(ctx, shipSelect+" WHERE s.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(ships) == 0 {
		return nil, fmt.Errorf("ship %d: %w", id, ErrNotFound)
	}
	return ships[0], nil
}

// ShipLocation returns the map position of a ship.
func (db *DB) ShipLocation(ctx context.Context, id int64) (ship.Location, error) {
	var row struct {
		CX int `db:"cx"`
		CY int `db:"cy"`
	}
	err := db.conn.GetContext(ctx, &row, "SELECT cx, cy FROM ships WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return ship.Location{}, fmt.Errorf("ship %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return ship.Location{}, err
	}
	return ship.Location{CX: row.CX, CY: row.CY}, nil
}

func (db *DB) loadShips(ctx context.Context, query string, args ...any) ([]*ship.Ship, error) {
	var rows []shipRow
	if err := db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select ships: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ships := make([]*ship.Ship, 0, len(rows))
	byID := make(map[int64]*ship.Ship, len(rows))
	ids := make([]int64, 0, len(rows))
	for i := range rows {
		s, err := db.fromRow(&rows[i])
		if err != nil {
			return nil, fmt.Errorf("ship %d: %w", rows[i].ID, err)
		}
		ships = append(ships, s)
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	if err := db.attachChildren(ctx, ids, byID); err != nil {
		return nil, err
	}
	return ships, nil
}

func (db *DB) fromRow(r *shipRow) (*ship.Ship, error) {
	rump, ok := db.catalog.Rump(r.RumpID)
	if !ok {
		return nil, fmt.Errorf("unknown rump %d", r.RumpID)
	}
	s := &ship.Ship{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		Rump:        rump,
		IsBase:      r.IsBase,
		State:       ship.State(r.State),
		Hull:        r.Hull,
		MaxHull:     r.MaxHull,
		RepairRate:  r.RepairRate,
		Crew:        r.Crew,
		MinCrew:     r.MinCrew,
		AlertState:  ship.AlertState(r.AlertState),
		MaxStorage:  r.MaxStorage,
		DockedTo:    int64Ptr(r.DockedTo),
		TractoredBy: int64Ptr(r.TractoredBy),
		Tractoring:  int64Ptr(r.Tractoring),
		Destroyed:   r.Destroyed,
		Storage:     ship.Storage{},
		Location:    ship.Location{CX: r.CX, CY: r.CY},
	}
	if r.SystemID.Valid {
		s.Location.System = &ship.SystemLocation{ID: r.SystemID.Int64, Name: r.SystemName.String, DatabaseEntryID: r.SystemEntry.Int64}
	}
	if r.RegionID.Valid {
		s.Location.Region = &ship.MapRegion{ID: r.RegionID.Int64, Description: r.RegionName.String, DatabaseEntryID: r.RegionEntry.Int64}
	}

	var err error
	if s.Eps, err = decodeJSON[ship.EpsSystemData](r.EpsJSON); err != nil {
		return nil, fmt.Errorf("eps: %w", err)
	}
	if s.WarpDrive, err = decodeJSON[ship.WarpDriveSystemData](r.WarpDriveJSON); err != nil {
		return nil, fmt.Errorf("warp drive: %w", err)
	}
	if s.Reactor, err = decodeJSON[ship.ReactorSystemData](r.ReactorJSON); err != nil {
		return nil, fmt.Errorf("reactor: %w", err)
	}
	if s.AstroLab, err = decodeJSON[ship.AstroLabSystemData](r.AstroJSON); err != nil {
		return nil, fmt.Errorf("astro lab: %w", err)
	}
	if s.Aggregation, err = decodeJSON[ship.AggregationSystemData](r.AggregationJSON); err != nil {
		return nil, fmt.Errorf("aggregation: %w", err)
	}
	return s, nil
}

// in expands an IN (?) clause over ids and rebinds it for the driver.
func (db *DB) in(query string, ids []int64) (string, []any, error) {
	q, args, err := sqlx.In(query, ids)
	if err != nil {
		return "", nil, err
	}
	return db.conn.Rebind(q), args, nil
}

func (db *DB) attachChildren(ctx context.Context, ids []int64, byID map[int64]*ship.Ship) error {
	q, args, err := db.in("SELECT * FROM ship_systems WHERE ship_id IN (?) ORDER BY ship_id, system_type", ids)
	if err != nil {
		return err
	}
	var systems []systemRow
	if err := db.conn.SelectContext(ctx, &systems, q, args...); err != nil {
		return fmt.Errorf("select systems: %w", err)
	}
	for _, r := range systems {
		module, err := decodeJSON[ship.Module](r.ModuleJSON)
		if err != nil {
			return fmt.Errorf("ship %d module: %w", r.ShipID, err)
		}
		s := byID[r.ShipID]
		s.Systems = append(s.Systems, &ship.System{
			Type:       ship.SystemType(r.SystemType),
			Mode:       ship.Mode(r.Mode),
			Status:     r.Status,
			EnergyCost: r.EnergyCost,
			Module:     module,
		})
	}

	q, args, err = db.in("SELECT * FROM ship_storage WHERE ship_id IN (?)", ids)
	if err != nil {
		return err
	}
	var storage []storageRow
	if err := db.conn.SelectContext(ctx, &storage, q, args...); err != nil {
		return fmt.Errorf("select storage: %w", err)
	}
	for _, r := range storage {
		byID[r.ShipID].Storage[r.CommodityID] = r.Amount
	}

	q, args, err = db.in("SELECT * FROM construction_progress WHERE ship_id IN (?)", ids)
	if err != nil {
		return err
	}
	var progress []ship.ConstructionProgress
	if err := db.conn.SelectContext(ctx, &progress, q, args...); err != nil {
		return fmt.Errorf("select progress: %w", err)
	}
	for i := range progress {
		byID[progress[i].ShipID].Progress = &progress[i]
	}

	q, args, err = db.in("SELECT * FROM mining_queue WHERE ship_id IN (?)", ids)
	if err != nil {
		return err
	}
	var queue []ship.MiningQueue
	if err := db.conn.SelectContext(ctx, &queue, q, args...); err != nil {
		return fmt.Errorf("select mining queue: %w", err)
	}
	for i := range queue {
		byID[queue[i].ShipID].MiningQueue = &queue[i]
	}

	q, args, err = db.in("SELECT * FROM trackers WHERE ship_id IN (?)", ids)
	if err != nil {
		return err
	}
	var trackers []trackerRow
	if err := db.conn.SelectContext(ctx, &trackers, q, args...); err != nil {
		return fmt.Errorf("select trackers: %w", err)
	}
	for _, r := range trackers {
		byID[r.ShipID].Tracker = &ship.TrackerSystemData{TargetID: int64Ptr(r.TargetID), RemainingTicks: r.RemainingTicks}
	}

	q, args, err = db.in("SELECT * FROM takeovers WHERE source_ship_id IN (?)", ids)
	if err != nil {
		return err
	}
	var takeovers []ship.Takeover
	if err := db.conn.SelectContext(ctx, &takeovers, q, args...); err != nil {
		return fmt.Errorf("select takeovers: %w", err)
	}
	for i := range takeovers {
		byID[takeovers[i].SourceShipID].Takeover = &takeovers[i]
	}

	return db.countDockedWorkbees(ctx, ids, byID)
}

func (db *DB) countDockedWorkbees(ctx context.Context, ids []int64, byID map[int64]*ship.Ship) error {
	workbees := db.catalog.WorkbeeRumpIDs()
	if len(workbees) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`SELECT docked_to, COUNT(*) AS n FROM ships
		WHERE docked_to IN (?) AND rump_id IN (?) AND destroyed = 0
		GROUP BY docked_to`, ids, workbees)
	if err != nil {
		return err
	}
	var counts []struct {
		DockedTo int64 `db:"docked_to"`
		N        int   `db:"n"`
	}
	if err := db.conn.SelectContext(ctx, &counts, db.conn.Rebind(q), args...); err != nil {
		return fmt.Errorf("count workbees: %w", err)
	}
	for _, c := range counts {
		byID[c.DockedTo].DockedWorkbees = c.N
	}
	return nil
}

// SaveShip writes the final state of an entity. Ownership is only changed
// by CompleteTakeover, so an existing row keeps its user. A scrapped entity
// is deleted together with everything it owns.
func (db *DB) SaveShip(ctx context.Context, s *ship.Ship) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if s.Scrapped {
		if err := deleteShip(ctx, tx, s.ID); err != nil {
			return fmt.Errorf("delete ship %d: %w", s.ID, err)
		}
		return tx.Commit()
	}

	row, err := toRow(s)
	if err != nil {
		return fmt.Errorf("encode ship %d: %w", s.ID, err)
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO ships
		(id, user_id, name, rump_id, is_base, state, hull, max_hull, repair_rate,
		 crew, min_crew, alert_state, cx, cy, system_id, region_id, max_storage,
		 docked_to, tractored_by, tractoring, destroyed,
		 eps_json, warp_drive_json, reactor_json, astro_json, aggregation_json)
		VALUES
		(:id, :user_id, :name, :rump_id, :is_base, :state, :hull, :max_hull, :repair_rate,
		 :crew, :min_crew, :alert_state, :cx, :cy, :system_id, :region_id, :max_storage,
		 :docked_to, :tractored_by, :tractoring, :destroyed,
		 :eps_json, :warp_drive_json, :reactor_json, :astro_json, :aggregation_json)
		ON CONFLICT(id) DO UPDATE SET
		 name = excluded.name, rump_id = excluded.rump_id, is_base = excluded.is_base,
		 state = excluded.state, hull = excluded.hull, max_hull = excluded.max_hull,
		 repair_rate = excluded.repair_rate, crew = excluded.crew, min_crew = excluded.min_crew,
		 alert_state = excluded.alert_state, cx = excluded.cx, cy = excluded.cy,
		 system_id = excluded.system_id, region_id = excluded.region_id,
		 max_storage = excluded.max_storage, docked_to = excluded.docked_to,
		 tractored_by = excluded.tractored_by, tractoring = excluded.tractoring,
		 destroyed = excluded.destroyed, eps_json = excluded.eps_json,
		 warp_drive_json = excluded.warp_drive_json, reactor_json = excluded.reactor_json,
		 astro_json = excluded.astro_json, aggregation_json = excluded.aggregation_json`, row)
	if err != nil {
		return fmt.Errorf("upsert ship %d: %w", s.ID, err)
	}

	if err := saveSystems(ctx, tx, s); err != nil {
		return fmt.Errorf("save systems of %d: %w", s.ID, err)
	}
	if err := saveStorage(ctx, tx, s); err != nil {
		return fmt.Errorf("save storage of %d: %w", s.ID, err)
	}
	if err := saveRecords(ctx, tx, s); err != nil {
		return fmt.Errorf("save records of %d: %w", s.ID, err)
	}

	return tx.Commit()
}

func toRow(s *ship.Ship) (*shipRow, error) {
	r := &shipRow{
		ID:          s.ID,
		UserID:      s.UserID,
		Name:        s.Name,
		RumpID:      s.Rump.ID,
		IsBase:      s.IsBase,
		State:       uint8(s.State),
		Hull:        s.Hull,
		MaxHull:     s.MaxHull,
		RepairRate:  s.RepairRate,
		Crew:        s.Crew,
		MinCrew:     s.MinCrew,
		AlertState:  uint8(s.AlertState),
		CX:          s.Location.CX,
		CY:          s.Location.CY,
		MaxStorage:  s.MaxStorage,
		DockedTo:    nullInt64(s.DockedTo),
		TractoredBy: nullInt64(s.TractoredBy),
		Tractoring:  nullInt64(s.Tractoring),
		Destroyed:   s.Destroyed,
	}
	if s.Location.System != nil {
		r.SystemID = sql.NullInt64{Int64: s.Location.System.ID, Valid: true}
	}
	if s.Location.Region != nil {
		r.RegionID = sql.NullInt64{Int64: s.Location.Region.ID, Valid: true}
	}

	var err error
	if r.EpsJSON, err = nullJSON(s.Eps); err != nil {
		return nil, err
	}
	if r.WarpDriveJSON, err = nullJSON(s.WarpDrive); err != nil {
		return nil, err
	}
	if r.ReactorJSON, err = nullJSON(s.Reactor); err != nil {
		return nil, err
	}
	if r.AstroJSON, err = nullJSON(s.AstroLab); err != nil {
		return nil, err
	}
	if r.AggregationJSON, err = nullJSON(s.Aggregation); err != nil {
		return nil, err
	}
	return r, nil
}

func saveSystems(ctx context.Context, tx *sqlx.Tx, s *ship.Ship) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM ship_systems WHERE ship_id = ?", s.ID); err != nil {
		return err
	}
	if len(s.Systems) == 0 {
		return nil
	}
	stmt, err := tx.PreparexContext(ctx, `INSERT INTO ship_systems
		(ship_id, system_type, mode, status, energy_cost, module_json)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sys := range s.Systems {
		module, err := nullJSON(sys.Module)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, s.ID, uint8(sys.Type), uint8(sys.Mode), sys.Status, sys.EnergyCost, module); err != nil {
			return fmt.Errorf("insert system %s: %w", sys.Type, err)
		}
	}
	return nil
}

func saveStorage(ctx context.Context, tx *sqlx.Tx, s *ship.Ship) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM ship_storage WHERE ship_id = ?", s.ID); err != nil {
		return err
	}
	for commodity, amount := range s.Storage {
		if amount <= 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO ship_storage (ship_id, commodity_id, amount) VALUES (?, ?, ?)",
			s.ID, commodity, amount,
		); err != nil {
			return err
		}
	}
	return nil
}

func saveRecords(ctx context.Context, tx *sqlx.Tx, s *ship.Ship) error {
	if s.Progress == nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM construction_progress WHERE ship_id = ?", s.ID); err != nil {
			return err
		}
	} else if _, err := tx.ExecContext(ctx, `INSERT INTO construction_progress (ship_id, remaining_ticks)
		VALUES (?, ?) ON CONFLICT(ship_id) DO UPDATE SET remaining_ticks = excluded.remaining_ticks`,
		s.ID, s.Progress.RemainingTicks); err != nil {
		return err
	}

	if s.MiningQueue == nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM mining_queue WHERE ship_id = ?", s.ID); err != nil {
			return err
		}
	} else if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO mining_queue (ship_id, location_mining_id) VALUES (?, ?)",
		s.ID, s.MiningQueue.LocationMiningID); err != nil {
		return err
	}

	if s.Tracker == nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM trackers WHERE ship_id = ?", s.ID); err != nil {
			return err
		}
	} else if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO trackers (ship_id, target_id, remaining_ticks) VALUES (?, ?, ?)",
		s.ID, nullInt64(s.Tracker.TargetID), s.Tracker.RemainingTicks); err != nil {
		return err
	}

	if s.Takeover == nil {
		_, err := tx.ExecContext(ctx, "DELETE FROM takeovers WHERE source_ship_id = ?", s.ID)
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO takeovers (source_ship_id, target_ship_id, start_turn)
		VALUES (?, ?, ?) ON CONFLICT(source_ship_id) DO UPDATE SET
		target_ship_id = excluded.target_ship_id, start_turn = excluded.start_turn`,
		s.ID, s.Takeover.TargetShipID, s.Takeover.StartTurn)
	return err
}

func deleteShip(ctx context.Context, tx *sqlx.Tx, id int64) error {
	for _, q := range []string{
		"DELETE FROM ship_systems WHERE ship_id = ?",
		"DELETE FROM ship_storage WHERE ship_id = ?",
		"DELETE FROM construction_progress WHERE ship_id = ?",
		"DELETE FROM mining_queue WHERE ship_id = ?",
		"DELETE FROM trackers WHERE ship_id = ?",
		"DELETE FROM takeovers WHERE source_ship_id = ?",
		"DELETE FROM takeovers WHERE target_ship_id = ?",
		"UPDATE ships SET docked_to = NULL WHERE docked_to = ?",
		"DELETE FROM ships WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return nil
}
