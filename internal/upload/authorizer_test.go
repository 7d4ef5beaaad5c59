package upload

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/ignite/user-ingest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	bucket, key, contentType string
	expires                  time.Duration
	calls                    int
	err                      error
}

func (p *fakePresigner) PresignUpload(_ context.Context, bucket, key, contentType string, expires time.Duration) (domain.PresignedPost, error) {
	p.calls++
	p.bucket, p.key, p.contentType, p.expires = bucket, key, contentType, expires
	if p.err != nil {
		return domain.PresignedPost{}, p.err
	}
	return domain.PresignedPost{
		URL:    "https://" + bucket + ".s3.amazonaws.com/",
		Fields: map[string]string{"key": key, "Content-Type": contentType},
	}, nil
}

func TestAuthorize(t *testing.T) {
	p := &fakePresigner{}
	a := NewAuthorizer(Config{Bucket: "csv-uploads"}, p)
	// 23:30 in UTC-5 is already the next day in UTC.
	a.now = func() time.Time { return time.Date(2024, 5, 1, 23, 30, 0, 0, time.FixedZone("EST", -5*3600)) }
	a.newID = func() string { return "0b3c6f1e-2f4d-4b8a-9c1d-6e7f8a9b0c1d" }

	grant, err := a.Authorize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "uploads/2024-05-02/0b3c6f1e-2f4d-4b8a-9c1d-6e7f8a9b0c1d.csv", grant.Key)
	assert.Equal(t, "csv-uploads", p.bucket)
	assert.Equal(t, grant.Key, p.key)
	assert.Equal(t, "text/csv", p.contentType)
	assert.Equal(t, 10*time.Minute, p.expires)
	assert.Equal(t, "text/csv", grant.Upload.Fields["Content-Type"])
}

func TestAuthorizeKeysAreUnique(t *testing.T) {
	a := NewAuthorizer(Config{Bucket: "b"}, &fakePresigner{})
	keyPattern := regexp.MustCompile(`^uploads/\d{4}-\d{2}-\d{2}/[0-9a-f-]{36}\.csv$`)

	g1, err := a.Authorize(context.Background())
	require.NoError(t, err)
	g2, err := a.Authorize(context.Background())
	require.NoError(t, err)

	assert.Regexp(t, keyPattern, g1.Key)
	assert.Regexp(t, keyPattern, g2.Key)
	assert.NotEqual(t, g1.Key, g2.Key)
}

func TestAuthorizeCustomPrefixAndExpiry(t *testing.T) {
	p := &fakePresigner{}
	a := NewAuthorizer(Config{Bucket: "b", Prefix: "incoming/users", Expiry: 3 * time.Minute}, p)
	a.now = func() time.Time { return time.Date(2024, 1, 9, 8, 0, 0, 0, time.UTC) }
	a.newID = func() string { return "id" }

	grant, err := a.Authorize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "incoming/users/2024-01-09/id.csv", grant.Key)
	assert.Equal(t, 3*time.Minute, p.expires)
}

func TestAuthorizeMissingBucket(t *testing.T) {
	p := &fakePresigner{}
	_, err := NewAuthorizer(Config{}, p).Authorize(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	assert.Contains(t, err.Error(), "UPLOAD_BUCKET is not configured")
	assert.Zero(t, p.calls)
}

func TestAuthorizePresignError(t *testing.T) {
	p := &fakePresigner{err: domain.ErrStore}
	_, err := NewAuthorizer(Config{Bucket: "b"}, p).Authorize(context.Background())
	assert.ErrorIs(t, err, domain.ErrStore)
}
