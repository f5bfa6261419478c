package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RunInTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func RunInTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// forUpdate returns the row-locking suffix for drivers that support it.
// sqlite transactions already hold the write lock (see database.sqliteDSN).
func forUpdate(q sqlx.ExtContext) string {
	if q.DriverName() == "pgx" {
		return " FOR UPDATE"
	}
	return ""
}
