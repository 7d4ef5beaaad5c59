package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignite/user-ingest/internal/domain"
	"github.com/ignite/user-ingest/internal/pkg/logger"
)

// ObjectIngestor ingests a single object. *Ingestor satisfies it.
type ObjectIngestor interface {
	Ingest(ctx context.Context, bucket, key string) (domain.IngestOutcome, error)
}

// Notifier reports the number of rows written by one event.
type Notifier interface {
	Notify(ctx context.Context, inserted int64) error
}

// Dispatcher fans one trigger event out over its objects and merges the
// outcomes.
type Dispatcher struct {
	ingestor ObjectIngestor
	notifier Notifier
	isolate  bool
}

// DispatcherOption configures optional Dispatcher behavior.
type DispatcherOption func(*Dispatcher)

// WithObjectFailureIsolation makes a failed object contribute the
// object_failed tag instead of aborting the event. Configuration errors
// abort either way.
func WithObjectFailureIsolation(enabled bool) DispatcherOption {
	return func(d *Dispatcher) { d.isolate = enabled }
}

// NewDispatcher creates a Dispatcher. notifier may be nil.
func NewDispatcher(ingestor ObjectIngestor, notifier Notifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{ingestor: ingestor, notifier: notifier}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch ingests every object referenced by ev in order.
//
// A reference without bucket or key adds missing_bucket_or_key; an object
// with rejected rows adds parse_errors. By default the first object error
// aborts the whole event and no result is returned. When rows were written,
// the notifier is called and its outcome ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (domain.BatchResult, error) {
	result := domain.NewBatchResult()

	for i, ref := range ev.Objects {
		if ref.Bucket == "" || ref.Key == "" {
			logger.Warn("event record missing bucket or key", "index", i)
			result.Failures = append(result.Failures, domain.FailureMissingBucketOrKey)
			continue
		}
		key := decodeKey(ref.Key)

		outcome, err := d.ingestor.Ingest(ctx, ref.Bucket, key)
		if err != nil {
			if !d.isolate || errors.Is(err, domain.ErrConfiguration) {
				return domain.BatchResult{}, fmt.Errorf("ingest %s/%s: %w", ref.Bucket, key, err)
			}
			logger.Error("object ingestion failed", "bucket", ref.Bucket, "key", key, "error", err)
			result.Failures = append(result.Failures, domain.FailureObjectFailed)
			continue
		}

		result.Inserted += outcome.Inserted
		if outcome.ParseFailures > 0 {
			result.Failures = append(result.Failures, domain.FailureParseErrors)
		}
	}

	if result.Inserted > 0 && d.notifier != nil {
		_ = d.notifier.Notify(ctx, result.Inserted)
	}

	logger.Info("event processed",
		"objects", len(ev.Objects),
		"inserted", result.Inserted,
		"failures", len(result.Failures),
	)
	return result, nil
}
