package ingest

import (
	"bytes"
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/ignite/user-ingest/internal/domain"
	"github.com/ignite/user-ingest/internal/pkg/logger"
)

// ObjectStore fetches the full contents of one stored object.
type ObjectStore interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// ObjectLocker serializes work on a named object across processes. The
// returned release func must be called once the work is done.
type ObjectLocker interface {
	Lock(ctx context.Context, name string) (release func(context.Context) error, err error)
}

// Ingestor loads one CSV object into the users table.
type Ingestor struct {
	store    ObjectStore
	upserter *Upserter
	locker   ObjectLocker
}

// IngestorOption configures optional Ingestor behavior.
type IngestorOption func(*Ingestor)

// WithObjectLock holds a lock named after the object for the duration of
// each ingestion.
func WithObjectLock(l ObjectLocker) IngestorOption {
	return func(in *Ingestor) { in.locker = l }
}

// NewIngestor creates an Ingestor that reads from store and writes through
// upserter.
func NewIngestor(store ObjectStore, upserter *Upserter, opts ...IngestorOption) *Ingestor {
	in := &Ingestor{store: store, upserter: upserter}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Ingest fetches bucket/key, validates every row, and upserts the valid rows
// in one batch. Rejected rows are only counted. Fetch, decode and write
// failures are returned as errors and nothing is reported for the object.
func (in *Ingestor) Ingest(ctx context.Context, bucket, key string) (domain.IngestOutcome, error) {
	start := time.Now()
	log := logger.With("bucket", bucket, "key", key)

	if in.locker != nil {
		release, err := in.locker.Lock(ctx, lockName(bucket, key))
		if err != nil {
			return domain.IngestOutcome{}, fmt.Errorf("%w: lock %s/%s: %w", domain.ErrStore, bucket, key, err)
		}
		defer func() {
			// Release on a fresh context so a cancelled ingest still unlocks.
			relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := release(relCtx); err != nil {
				log.Warn("object lock release failed", "error", err)
			}
		}()
	}

	body, err := in.store.Fetch(ctx, bucket, key)
	if err != nil {
		return domain.IngestOutcome{}, fmt.Errorf("fetch %s/%s: %w", bucket, key, err)
	}
	if !utf8.Valid(body) {
		return domain.IngestOutcome{}, fmt.Errorf("%w: %s/%s is not valid UTF-8 text", domain.ErrStore, bucket, key)
	}

	var (
		users         []domain.User
		parseFailures int
		rows          int
	)
	err = ReadRecords(bytes.NewReader(body), func(rec domain.RawRecord, readErr error) {
		rows++
		if readErr != nil {
			parseFailures++
			log.Debug("malformed csv line", "error", readErr)
			return
		}
		u, err := ValidateRecord(rec)
		if err != nil {
			parseFailures++
			log.Debug("row rejected", "row", rows, "error", err)
			return
		}
		users = append(users, u)
	})
	if err != nil {
		return domain.IngestOutcome{}, fmt.Errorf("%w: read csv %s/%s: %w", domain.ErrStore, bucket, key, err)
	}

	inserted, err := in.upserter.Upsert(ctx, users)
	if err != nil {
		return domain.IngestOutcome{}, err
	}

	log.Info("object ingested",
		"rows", rows,
		"valid", len(users),
		"inserted", inserted,
		"parse_failures", parseFailures,
		"duration", time.Since(start).String(),
	)
	return domain.IngestOutcome{Inserted: inserted, ParseFailures: parseFailures}, nil
}

func lockName(bucket, key string) string {
	return "ingest:" + bucket + "/" + key
}
