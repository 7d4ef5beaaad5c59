package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ignite/user-ingest/internal/domain"
)

// memStore is an ObjectStore backed by a map of "bucket/key" to contents.
type memStore struct {
	objects map[string]string
	errs    map[string]error
	fetched []string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]string{}, errs: map[string]error{}}
}

func (s *memStore) put(bucket, key, body string) { s.objects[bucket+"/"+key] = body }

func (s *memStore) Fetch(_ context.Context, bucket, key string) ([]byte, error) {
	name := bucket + "/" + key
	s.fetched = append(s.fetched, name)
	if err := s.errs[name]; err != nil {
		return nil, err
	}
	body, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: no such key %s", domain.ErrStore, name)
	}
	return []byte(body), nil
}

// memUsersTable applies UpsertUsersSQL semantics to an in-memory table so
// the overwrite and idempotence laws can be checked end to end.
type memUsersTable struct {
	mu    sync.Mutex
	rows  map[string][]any
	calls int
	err   error
}

func newMemUsersTable() *memUsersTable {
	return &memUsersTable{rows: map[string][]any{}}
}

func (t *memUsersTable) ExecuteBatch(_ context.Context, statement string, rows [][]any) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.err != nil {
		return 0, t.err
	}
	if statement != UpsertUsersSQL {
		return 0, errors.New("unexpected statement")
	}
	for _, r := range rows {
		t.rows[r[0].(string)] = append([]any(nil), r...)
	}
	return int64(len(rows)), nil
}

func (t *memUsersTable) get(id string) []any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rows[id]
}

// recordingNotifier remembers every Notify call.
type recordingNotifier struct {
	calls []int64
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, inserted int64) error {
	n.calls = append(n.calls, inserted)
	return n.err
}

// fakeLocker records lock and release calls.
type fakeLocker struct {
	locked   []string
	released int
	err      error
}

func (l *fakeLocker) Lock(_ context.Context, name string) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, name)
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}
