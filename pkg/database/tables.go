package database

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// TableExists reports whether a table is present in the database. Used for
// the legacy join tables, which only exist in environments that predate the
// unified association table.
func TableExists(ctx context.Context, db bun.IDB, name string) (bool, error) {
	var count int
	err := db.NewRaw(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(ctx, &count)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return count > 0, nil
}
