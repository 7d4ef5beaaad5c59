package distlock

import (
	"context"
	"database/sql"
	"fmt"
)

// DBSource hands out the database handle, possibly opening it lazily.
type DBSource interface {
	DB(ctx context.Context) (*sql.DB, error)
}

// PGLocker takes session-scoped Postgres advisory locks. Each lock pins one
// pooled connection until it is released; if the process dies the session
// ends and Postgres drops the lock.
type PGLocker struct {
	source DBSource
	opts   options
}

// NewPGLocker creates a PGLocker on source.
func NewPGLocker(source DBSource, opts ...Option) *PGLocker {
	return &PGLocker{source: source, opts: buildOptions(opts)}
}

// Lock blocks until name is free or ctx ends.
func (l *PGLocker) Lock(ctx context.Context, name string) (func(context.Context) error, error) {
	db, err := l.source.DB(ctx)
	if err != nil {
		return nil, err
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("advisory lock %s: acquire connection: %w", name, err)
	}

	id := advisoryKey(name)
	err = poll(ctx, name, l.opts.retry, func(ctx context.Context) (bool, error) {
		var acquired bool
		if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", id).Scan(&acquired); err != nil {
			return false, fmt.Errorf("advisory lock %s: %w", name, err)
		}
		return acquired, nil
	})
	if err != nil {
		conn.Close()
		return nil, err
	}

	release := func(ctx context.Context) error {
		defer conn.Close()
		if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", id); err != nil {
			return fmt.Errorf("advisory unlock %s: %w", name, err)
		}
		return nil
	}
	return release, nil
}
