// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/persistence"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/persistence/file"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/persistence/postgresql"
)

// NewPersistence creates a persistence backend based on the database URL
// scheme. file:// paths (and bare paths) get the file backend, postgres://
// URLs get PostgreSQL.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case "file":
		return file.NewPersistence(databaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported persistence provider in %q", databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
