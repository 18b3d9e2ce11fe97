package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/talgya/starbase/internal/ship"
)

type miningRow struct {
	ID           int64         `db:"id"`
	CX           int           `db:"cx"`
	CY           int           `db:"cy"`
	CommodityID  int           `db:"commodity_id"`
	MaxAmount    int           `db:"max_amount"`
	ActualAmount int           `db:"actual_amount"`
	DepletedAt   sql.NullInt64 `db:"depleted_at"`
}

func (r miningRow) model() *ship.LocationMining {
	lm := &ship.LocationMining{
		ID:           r.ID,
		CX:           r.CX,
		CY:           r.CY,
		CommodityID:  r.CommodityID,
		MaxAmount:    r.MaxAmount,
		ActualAmount: r.ActualAmount,
	}
	if r.DepletedAt.Valid {
		t := time.Unix(r.DepletedAt.Int64, 0).UTC()
		lm.DepletedAt = &t
	}
	return lm
}

func depletedAt(lm *ship.LocationMining) sql.NullInt64 {
	if lm.DepletedAt == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: lm.DepletedAt.Unix(), Valid: true}
}

// LocationMining loads one resource field.
func (db *DB) LocationMining(ctx context.Context, id int64) (*ship.LocationMining, error) {
	var row miningRow
	err := db.conn.GetContext(ctx, &row, "SELECT * FROM location_mining WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("location mining %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return row.model(), nil
}

// InsertLocationMining stores a new resource field and sets its ID.
func (db *DB) InsertLocationMining(ctx context.Context, lm *ship.LocationMining) error {
	res, err := db.conn.ExecContext(ctx, `INSERT INTO location_mining
		(cx, cy, commodity_id, max_amount, actual_amount, depleted_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		lm.CX, lm.CY, lm.CommodityID, lm.MaxAmount, lm.ActualAmount, depletedAt(lm),
	)
	if err != nil {
		return err
	}
	lm.ID, err = res.LastInsertId()
	return err
}

// UpdateLocationMining reads the field, applies fn and writes it back in
// one transaction. With a single connection the read-modify-write cannot
// interleave with another harvester.
func (db *DB) UpdateLocationMining(ctx context.Context, id int64, fn func(lm *ship.LocationMining) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var row miningRow
	err = tx.GetContext(ctx, &row, "SELECT * FROM location_mining WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("location mining %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}

	lm := row.model()
	if err := fn(lm); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE location_mining SET actual_amount = ?, depleted_at = ? WHERE id = ?",
		lm.ActualAmount, depletedAt(lm), id,
	); err != nil {
		return err
	}
	return tx.Commit()
}
