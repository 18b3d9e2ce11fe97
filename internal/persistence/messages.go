package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/talgya/starbase/internal/engine"
)

type messageRow struct {
	ID        int64          `db:"id"`
	Sender    int64          `db:"sender"`
	Recipient int64          `db:"recipient"`
	Text      string         `db:"text"`
	Category  string         `db:"category"`
	Href      sql.NullString `db:"href"`
	Tick      uint64         `db:"tick"`
	RunID     sql.NullString `db:"run_id"`
	CreatedAt int64          `db:"created_at"`
}

// SendMessage stores a private message in the recipient's inbox.
func (db *DB) SendMessage(ctx context.Context, m engine.Message) error {
	_, err := db.conn.ExecContext(ctx, `INSERT INTO private_messages
		(sender, recipient, text, category, href, tick, run_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Sender, m.Recipient, m.Text, string(m.Category),
		sql.NullString{String: m.Href, Valid: m.Href != ""},
		m.Tick,
		sql.NullString{String: m.RunID, Valid: m.RunID != ""},
		time.Now().Unix(),
	)
	return err
}

// MessagesFor returns the newest messages of a recipient, newest first.
func (db *DB) MessagesFor(ctx context.Context, recipient int64, limit int) ([]engine.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []messageRow
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT * FROM private_messages WHERE recipient = ? ORDER BY id DESC LIMIT ?",
		recipient, limit,
	)
	if err != nil {
		return nil, err
	}
	out := make([]engine.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, engine.Message{
			Sender:    r.Sender,
			Recipient: r.Recipient,
			Text:      r.Text,
			Category:  engine.Category(r.Category),
			Href:      r.Href.String,
			Tick:      r.Tick,
			RunID:     r.RunID.String,
		})
	}
	return out, nil
}
