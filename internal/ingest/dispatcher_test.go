package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/ignite/user-ingest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedIngestor returns canned outcomes keyed by "bucket/key".
type scriptedIngestor struct {
	outcomes map[string]domain.IngestOutcome
	errs     map[string]error
	calls    []string
}

func (s *scriptedIngestor) Ingest(_ context.Context, bucket, key string) (domain.IngestOutcome, error) {
	name := bucket + "/" + key
	s.calls = append(s.calls, name)
	if err := s.errs[name]; err != nil {
		return domain.IngestOutcome{}, err
	}
	return s.outcomes[name], nil
}

func TestDispatchSingleObject(t *testing.T) {
	store := newMemStore()
	store.put("b", "users.csv", usersCSV)
	notifier := &recordingNotifier{}
	d := NewDispatcher(newTestIngestor(store, newMemUsersTable()), notifier)

	res, err := d.Dispatch(context.Background(), Event{Objects: []ObjectRef{{Bucket: "b", Key: "users.csv"}}})
	require.NoError(t, err)
	assert.Equal(t, domain.BatchResult{Inserted: 2, Failures: []string{}}, res)
	assert.Equal(t, []int64{2}, notifier.calls)
}

func TestDispatchMissingBucketOrKey(t *testing.T) {
	ing := &scriptedIngestor{}
	notifier := &recordingNotifier{}
	d := NewDispatcher(ing, notifier)

	res, err := d.Dispatch(context.Background(), Event{Objects: []ObjectRef{{Bucket: "b"}, {Key: "k.csv"}}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Inserted)
	assert.Equal(t, []string{domain.FailureMissingBucketOrKey, domain.FailureMissingBucketOrKey}, res.Failures)
	assert.Empty(t, ing.calls)
	assert.Empty(t, notifier.calls)
}

func TestDispatchMergesObjects(t *testing.T) {
	ing := &scriptedIngestor{outcomes: map[string]domain.IngestOutcome{
		"b/one.csv": {Inserted: 3},
		"b/two.csv": {Inserted: 1, ParseFailures: 2},
	}}
	notifier := &recordingNotifier{}
	d := NewDispatcher(ing, notifier)

	res, err := d.Dispatch(context.Background(), Event{Objects: []ObjectRef{
		{Bucket: "b", Key: "one.csv"},
		{Bucket: "", Key: "x.csv"},
		{Bucket: "b", Key: "two.csv"},
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Inserted)
	assert.Equal(t, []string{domain.FailureMissingBucketOrKey, domain.FailureParseErrors}, res.Failures)
	assert.Equal(t, []string{"b/one.csv", "b/two.csv"}, ing.calls)
	assert.Equal(t, []int64{4}, notifier.calls)
}

func TestDispatchParseErrorsOnly(t *testing.T) {
	ing := &scriptedIngestor{outcomes: map[string]domain.IngestOutcome{
		"b/bad.csv": {ParseFailures: 5},
	}}
	notifier := &recordingNotifier{}

	res, err := NewDispatcher(ing, notifier).Dispatch(context.Background(), Event{Objects: []ObjectRef{{Bucket: "b", Key: "bad.csv"}}})
	require.NoError(t, err)
	assert.Equal(t, domain.BatchResult{Inserted: 0, Failures: []string{domain.FailureParseErrors}}, res)
	assert.Empty(t, notifier.calls)
}

func TestDispatchEmptyEvent(t *testing.T) {
	notifier := &recordingNotifier{}
	res, err := NewDispatcher(&scriptedIngestor{}, notifier).Dispatch(context.Background(), Event{})
	require.NoError(t, err)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"inserted":0,"failures":[]}`, string(raw))
	assert.Empty(t, notifier.calls)
}

func TestDispatchNotifierErrorIgnored(t *testing.T) {
	ing := &scriptedIngestor{outcomes: map[string]domain.IngestOutcome{"b/k.csv": {Inserted: 1}}}
	notifier := &recordingNotifier{err: domain.ErrNotification}

	res, err := NewDispatcher(ing, notifier).Dispatch(context.Background(), Event{Objects: []ObjectRef{{Bucket: "b", Key: "k.csv"}}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Inserted)
	assert.Equal(t, []int64{1}, notifier.calls)
}

func TestDispatchNilNotifier(t *testing.T) {
	ing := &scriptedIngestor{outcomes: map[string]domain.IngestOutcome{"b/k.csv": {Inserted: 1}}}
	res, err := NewDispatcher(ing, nil).Dispatch(context.Background(), Event{Objects: []ObjectRef{{Bucket: "b", Key: "k.csv"}}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Inserted)
}

func TestDispatchFailFast(t *testing.T) {
	ing := &scriptedIngestor{
		outcomes: map[string]domain.IngestOutcome{"b/one.csv": {Inserted: 2}, "b/three.csv": {Inserted: 1}},
		errs:     map[string]error{"b/two.csv": fmt.Errorf("%w: timeout", domain.ErrStore)},
	}
	notifier := &recordingNotifier{}

	_, err := NewDispatcher(ing, notifier).Dispatch(context.Background(), Event{Objects: []ObjectRef{
		{Bucket: "b", Key: "one.csv"},
		{Bucket: "b", Key: "two.csv"},
		{Bucket: "b", Key: "three.csv"},
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStore))
	assert.Equal(t, []string{"b/one.csv", "b/two.csv"}, ing.calls)
	assert.Empty(t, notifier.calls)
}

func TestDispatchIsolatesObjectFailures(t *testing.T) {
	ing := &scriptedIngestor{
		outcomes: map[string]domain.IngestOutcome{"b/one.csv": {Inserted: 2}, "b/three.csv": {Inserted: 1}},
		errs:     map[string]error{"b/two.csv": fmt.Errorf("%w: timeout", domain.ErrStore)},
	}
	notifier := &recordingNotifier{}
	d := NewDispatcher(ing, notifier, WithObjectFailureIsolation(true))

	res, err := d.Dispatch(context.Background(), Event{Objects: []ObjectRef{
		{Bucket: "b", Key: "one.csv"},
		{Bucket: "b", Key: "two.csv"},
		{Bucket: "b", Key: "three.csv"},
	}})
	require.NoError(t, err)
	assert.Equal(t, domain.BatchResult{Inserted: 3, Failures: []string{domain.FailureObjectFailed}}, res)
	assert.Equal(t, []int64{3}, notifier.calls)
}

func TestDispatchConfigurationErrorAlwaysFatal(t *testing.T) {
	ing := &scriptedIngestor{
		errs: map[string]error{"b/one.csv": fmt.Errorf("%w: PG_HOST is not set", domain.ErrConfiguration)},
	}
	d := NewDispatcher(ing, &recordingNotifier{}, WithObjectFailureIsolation(true))

	_, err := d.Dispatch(context.Background(), Event{Objects: []ObjectRef{
		{Bucket: "b", Key: "one.csv"},
		{Bucket: "b", Key: "two.csv"},
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	assert.Equal(t, []string{"b/one.csv"}, ing.calls)
}

func TestDispatchDecodesKeys(t *testing.T) {
	ing := &scriptedIngestor{}
	_, err := NewDispatcher(ing, nil).Dispatch(context.Background(), Event{Objects: []ObjectRef{
		{Bucket: "b", Key: "uploads/my+file%281%29.csv"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b/uploads/my file(1).csv"}, ing.calls)
}
