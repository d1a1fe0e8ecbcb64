// Package duck loads normalized records into a DuckDB database file. It is
// the destination half of the pipeline: it owns table creation and
// append/merge semantics, relying on trip id determinism for idempotent
// re-ingests.
package duck

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Open opens (creating if needed) the DuckDB database at path. Use ":memory:"
// for an in-memory database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening duckdb")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "pinging duckdb")
	}
	return db, nil
}
