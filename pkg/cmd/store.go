// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/convopilot/convopilot/pkg/store"
	"github.com/convopilot/convopilot/pkg/store/file"
	"github.com/convopilot/convopilot/pkg/store/postgresql"
)

// NewVersionStore creates a version store from the database URL scheme.
// Postgres URLs get the SQL store; anything else is treated as a file path.
func NewVersionStore(ctx context.Context, logger *slog.Logger, databaseURL string) store.VersionStore {
	switch parseStoreProvider(databaseURL) {
	case "postgres", "postgresql":
		pgStore, err := postgresql.NewStore(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create postgresql version store: %w", err))
		}

		return pgStore
	default:
		return file.NewStore(databaseURL)
	}
}

func parseStoreProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
