package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FranksOps/followtrack/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS follower_samples (
	id INTEGER PRIMARY KEY,
	handle TEXT NOT NULL,
	recorded_at DATETIME NOT NULL,
	followers_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS follower_samples_handle ON follower_samples (handle);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Load(ctx context.Context) (storage.Document, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT handle, recorded_at, followers_count FROM follower_samples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	doc := storage.Document{}
	for rows.Next() {
		var (
			handle string
			s      storage.Sample
		)
		if err := rows.Scan(&handle, &s.Timestamp, &s.FollowersCount); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		doc[handle] = append(doc[handle], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return doc, nil
}

// Save replaces the table contents with doc inside one transaction.
func (b *sqliteBackend) Save(ctx context.Context, doc storage.Document) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM follower_samples`); err != nil {
		return fmt.Errorf("clear samples: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO follower_samples (handle, recorded_at, followers_count) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, handle := range doc.Handles() {
		for _, s := range doc[handle] {
			if _, err := stmt.ExecContext(ctx, handle, s.Timestamp.UTC(), s.FollowersCount); err != nil {
				return fmt.Errorf("insert sample for %s: %w", handle, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
