// Package cmd provides common initialization for command-line entry points.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/buyflow/buyflow/pkg/persistence"
	"github.com/buyflow/buyflow/pkg/persistence/memory"
	"github.com/buyflow/buyflow/pkg/persistence/postgresql"
)

// NewPersistence creates a persistence backend from a database URL.
// postgres:// and postgresql:// select PostgreSQL; memory:// selects the
// in-process store for development and tests.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to initialize PostgreSQL persistence", "error", err)
			panic(err)
		}

		return store
	case strings.HasPrefix(databaseURL, "memory://"), databaseURL == "memory":
		return memory.NewPersistence()
	default:
		panic("Unsupported database URL: " + databaseURL)
	}
}
