package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ignite/user-ingest/internal/domain"
	_ "github.com/lib/pq"
)

// Pool opens the database handle on first use. Config problems therefore
// surface only when something is actually written, and a process that never
// touches the database never needs credentials.
type Pool struct {
	cfg Config

	mu sync.Mutex
	db *sql.DB
}

// NewPool creates a Pool that connects with cfg on first use.
func NewPool(cfg Config) *Pool {
	return &Pool{cfg: cfg}
}

// NewPoolFromDB wraps an already opened handle.
func NewPoolFromDB(db *sql.DB) *Pool {
	return &Pool{db: db}
}

// DB returns the shared handle, opening it if needed.
func (p *Pool) DB(ctx context.Context) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: open database: %w", domain.ErrStore, err)
	}
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	cfg := p.cfg.withDefaults()
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", domain.ErrConfiguration, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	p.db = db
	return db, nil
}

// Ping checks connectivity, opening the handle if needed.
func (p *Pool) Ping(ctx context.Context) error {
	db, err := p.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", domain.ErrStore, err)
	}
	return nil
}

// Close releases the handle if it was ever opened.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
