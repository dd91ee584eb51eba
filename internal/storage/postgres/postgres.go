package postgres

import (
	"context"
	"fmt"

	"github.com/FranksOps/followtrack/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS follower_samples (
	id BIGSERIAL PRIMARY KEY,
	handle TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL,
	followers_count BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS follower_samples_handle ON follower_samples (handle);
`

var columns = []string{"handle", "recorded_at", "followers_count"}

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Load(ctx context.Context) (storage.Document, error) {
	rows, err := b.pool.Query(ctx, `SELECT handle, recorded_at, followers_count FROM follower_samples ORDER BY id`)
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

// Save replaces the table contents with doc inside one transaction, using COPY for the rows.
func (b *postgresBackend) Save(ctx context.Context, doc storage.Document) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM follower_samples`); err != nil {
		return fmt.Errorf("clear samples: %w", err)
	}

	var rows [][]any
	for _, handle := range doc.Handles() {
		for _, s := range doc[handle] {
			rows = append(rows, []any{handle, s.Timestamp, s.FollowersCount})
		}
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"follower_samples"}, columns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy samples: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
