package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/talgya/starbase/internal/engine"
	"github.com/talgya/starbase/internal/ship"
)

// CompleteTakeover hands the target to newOwner and removes the takeover
// record in one transaction.
func (db *DB) CompleteTakeover(ctx context.Context, t *ship.Takeover, newOwner int64) (engine.TakeoverResult, error) {
	res := engine.TakeoverResult{TargetID: t.TargetShipID}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	var target struct {
		Name   string `db:"name"`
		UserID int64  `db:"user_id"`
	}
	err = tx.GetContext(ctx, &target, "SELECT name, user_id FROM ships WHERE id = ?", t.TargetShipID)
	if errors.Is(err, sql.ErrNoRows) {
		return res, fmt.Errorf("takeover target %d: %w", t.TargetShipID, ErrNotFound)
	}
	if err != nil {
		return res, err
	}
	res.TargetName = target.Name
	res.PreviousOwner = target.UserID

	if _, err := tx.ExecContext(ctx, "UPDATE ships SET user_id = ? WHERE id = ?", newOwner, t.TargetShipID); err != nil {
		return res, fmt.Errorf("transfer ship %d: %w", t.TargetShipID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM takeovers WHERE source_ship_id = ?", t.SourceShipID); err != nil {
		return res, fmt.Errorf("remove takeover: %w", err)
	}
	return res, tx.Commit()
}
