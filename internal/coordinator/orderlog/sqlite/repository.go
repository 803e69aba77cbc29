// Package sqlite provides a SQLite-backed orderlog.Repository.
//
// WAL mode is enabled on Open so the history endpoint can read while order
// placement is appending.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jcmexdev/orders-service/internal/coordinator/orderlog"

	// Pure-Go driver, no CGO.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS order_events (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id        TEXT        NOT NULL DEFAULT '',
    saga_id         TEXT        NOT NULL DEFAULT '',
    broker          TEXT        NOT NULL,
    user_id         TEXT        NOT NULL,
    status          TEXT        NOT NULL,
    step            TEXT        NOT NULL DEFAULT '',
    -- JSON order snapshot, NULL for rows that carry no order.
    payload         TEXT,
    error_messages  TEXT        NOT NULL DEFAULT '[]',
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',
    created_at      TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_events_order_id ON order_events(order_id, created_at);
CREATE INDEX IF NOT EXISTS idx_order_events_saga_id ON order_events(saga_id, created_at);
`

type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// The parent directory is created when missing.
//
//	repo, err := sqlite.Open("./data/orders.db")
func Open(path string) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// Single writer.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Save appends a journal entry. It is safe to call concurrently.
func (r *Repository) Save(ctx context.Context, entry *orderlog.Entry) error {
	const q = `
		INSERT INTO order_events
			(order_id, saga_id, broker, user_id, status, step, payload, error_messages, trace_id, span_id, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.OrderID,
		entry.SagaID,
		entry.Broker,
		entry.UserID,
		string(entry.Status),
		entry.Step,
		nullableString(entry.Payload),
		entry.ErrorMessages,
		entry.TraceID,
		entry.SpanID,
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save order event for %q: %w", entry.OrderID, err)
	}
	return nil
}

// History returns the rows of an order, including the rows of the saga that
// placed it, oldest first. An unknown id yields an empty slice.
func (r *Repository) History(ctx context.Context, id string) ([]*orderlog.Entry, error) {
	const q = `
		SELECT order_id, saga_id, broker, user_id, status, step, COALESCE(payload, ''),
		       error_messages, trace_id, span_id, created_at
		FROM   order_events
		WHERE  order_id = ?1
		   OR  saga_id = ?1
		   OR  saga_id IN (SELECT saga_id FROM order_events WHERE order_id = ?1 AND saga_id <> '')
		ORDER  BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history for %q: %w", id, err)
	}
	defer rows.Close()

	entries := make([]*orderlog.Entry, 0)
	for rows.Next() {
		var entry orderlog.Entry
		var createdAt string
		if err := rows.Scan(
			&entry.OrderID,
			&entry.SagaID,
			&entry.Broker,
			&entry.UserID,
			&entry.Status,
			&entry.Step,
			&entry.Payload,
			&entry.ErrorMessages,
			&entry.TraceID,
			&entry.SpanID,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan history for %q: %w", id, err)
		}
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: history for %q: %w", id, err)
	}
	return entries, nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

// nullableString stores NULL instead of an empty TEXT payload.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
