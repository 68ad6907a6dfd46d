package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/unmask/internal/pkg/dbutil"
	appErr "github.com/xxxsen/unmask/internal/pkg/errors"
)

// querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type querier interface {
	sqlx.ExtContext
}

func finalize(q querier, query string, args []interface{}) (string, []interface{}) {
	return dbutil.Finalize(q.DriverName(), query, args)
}

func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// mapErr turns driver level unique violations into ErrConflict.
func mapErr(err error) error {
	if err != nil && dbutil.IsConflict(err) {
		return fmt.Errorf("%w: %v", appErr.ErrConflict, err)
	}
	return err
}
