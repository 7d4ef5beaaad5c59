package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/user-ingest/internal/domain"
)

// BatchWriter executes a statement once per row inside a single transaction.
// Rows are applied in order, so a later row with the same key overwrites an
// earlier one.
type BatchWriter struct {
	pool *Pool
}

// NewBatchWriter creates a BatchWriter on pool.
func NewBatchWriter(pool *Pool) *BatchWriter {
	return &BatchWriter{pool: pool}
}

// ExecuteBatch runs statement for each row and commits once. The returned
// count is the sum of the driver's affected-row counts. Any failure rolls the
// whole batch back.
func (w *BatchWriter) ExecuteBatch(ctx context.Context, statement string, rows [][]any) (int64, error) {
	db, err := w.pool.DB(ctx)
	if err != nil {
		return 0, err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: acquire connection: %w", domain.ErrStore, err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %w", domain.ErrStore, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, statement)
	if err != nil {
		return 0, fmt.Errorf("%w: prepare: %w", domain.ErrStore, err)
	}
	defer stmt.Close()

	var affected int64
	for i, args := range rows {
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, fmt.Errorf("%w: row %d: %w", domain.ErrStore, i, err)
		}
		affected += rowsAffected(res)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %w", domain.ErrStore, err)
	}
	return affected, nil
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
