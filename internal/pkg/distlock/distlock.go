// Package distlock serializes work on a named resource across processes.
package distlock

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"
)

// DefaultRetryInterval is how often a busy lock is retried.
const DefaultRetryInterval = 200 * time.Millisecond

// Option tunes a locker.
type Option func(*options)

type options struct {
	retry time.Duration
}

// WithRetryInterval sets how often a busy lock is retried.
func WithRetryInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retry = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{retry: DefaultRetryInterval}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// poll calls try until it reports success, fails, or ctx ends.
func poll(ctx context.Context, name string, interval time.Duration, try func(context.Context) (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := try(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for lock %s: %w", name, ctx.Err())
		case <-ticker.C:
		}
	}
}

// advisoryKey maps a lock name onto the bigint keyspace of Postgres advisory
// locks.
func advisoryKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}
