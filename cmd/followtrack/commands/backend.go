package commands

import (
	"context"
	"fmt"

	"github.com/FranksOps/followtrack/internal/config"
	"github.com/FranksOps/followtrack/internal/storage"
	"github.com/FranksOps/followtrack/internal/storage/csvbackend"
	"github.com/FranksOps/followtrack/internal/storage/jsonbackend"
	"github.com/FranksOps/followtrack/internal/storage/postgres"
	"github.com/FranksOps/followtrack/internal/storage/sqlite"
)

// openBackend builds the history backend named by c.HistoryBackend.
func openBackend(ctx context.Context, c *config.Config) (storage.Backend, error) {
	var (
		b   storage.Backend
		err error
	)
	switch c.HistoryBackend {
	case config.BackendJSON:
		b, err = jsonbackend.New(c.HistoryPath)
	case config.BackendCSV:
		b, err = csvbackend.New(c.HistoryPath)
	case config.BackendSQLite:
		b, err = sqlite.New(c.HistoryPath)
	case config.BackendPostgres:
		b, err = postgres.New(ctx, c.HistoryDSN)
	default:
		return nil, fmt.Errorf("unknown history backend %q", c.HistoryBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s history: %w", c.HistoryBackend, err)
	}
	return b, nil
}
