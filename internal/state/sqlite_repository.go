package state

import (
	"context"
	"database/sql"
	"fmt"
)

// messagesSchema creates the messages table. The rowid preserves append
// order across Save/Load cycles.
const messagesSchema = `
CREATE TABLE IF NOT EXISTS messages (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	text      TEXT NOT NULL,
	timestamp TEXT NOT NULL
)`

// SQLiteRepository persists messages in a sqlite table. Save replaces the
// whole table inside one transaction, matching the file backend's
// last-write-wins semantics while gaining crash safety from the WAL.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a sqlite-backed repository and ensures the
// schema exists. The db parameter should be an open sqlite connection.
func NewSQLiteRepository(ctx context.Context, db *sql.DB) (*SQLiteRepository, error) {
	if _, err := db.ExecContext(ctx, messagesSchema); err != nil {
		return nil, fmt.Errorf("creating messages table: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Load returns all persisted messages in append order.
func (r *SQLiteRepository) Load(ctx context.Context) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT text, timestamp FROM messages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return msgs, nil
}

// Save replaces the persisted sequence with msgs in a single transaction.
func (r *SQLiteRepository) Save(ctx context.Context, msgs []Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO messages (text, timestamp) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for _, m := range msgs {
		if _, err := stmt.ExecContext(ctx, m.Text, m.Timestamp); err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing messages: %w", err)
	}
	return nil
}

// Close implements Repository. The sql.DB is owned by the caller (it may
// be shared), so nothing is closed here.
func (r *SQLiteRepository) Close() error {
	return nil
}
