package db

import (
	"context"
	"database/sql"
	"embed"
	"sort"

	dErrors "novabook/pkg/domain-errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies the embedded schema migrations in filename order. Every
// statement is idempotent, so running it on an existing database is safe.
func Migrate(ctx context.Context, pool *sql.DB) error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDataAccess, "read migrations")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeDataAccess, "read migration "+name)
		}
		if _, err := pool.ExecContext(ctx, string(script)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeDataAccess, "apply migration "+name)
		}
	}
	return nil
}
