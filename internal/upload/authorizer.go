// Package upload issues short-lived grants that let a browser put a CSV
// straight into the upload bucket.
package upload

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/user-ingest/internal/domain"
)

const (
	DefaultPrefix = "uploads"
	DefaultExpiry = 10 * time.Minute
	ContentType   = "text/csv"
)

// Presigner signs a browser POST for one object.
type Presigner interface {
	PresignUpload(ctx context.Context, bucket, key, contentType string, expires time.Duration) (domain.PresignedPost, error)
}

// Grant is what the client needs to upload one file.
type Grant struct {
	Upload domain.PresignedPost `json:"upload"`
	Key    string               `json:"key"`
}

// Config selects the bucket and key layout for uploads.
type Config struct {
	Bucket string
	Prefix string
	Expiry time.Duration
}

// Authorizer hands out upload grants under <prefix>/<UTC date>/<uuid>.csv.
type Authorizer struct {
	cfg       Config
	presigner Presigner
	now       func() time.Time
	newID     func() string
}

// NewAuthorizer creates an Authorizer. Empty Prefix and zero Expiry fall back
// to the defaults.
func NewAuthorizer(cfg Config, presigner Presigner) *Authorizer {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultExpiry
	}
	return &Authorizer{
		cfg:       cfg,
		presigner: presigner,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Authorize creates a fresh object key and signs an upload for it.
func (a *Authorizer) Authorize(ctx context.Context) (Grant, error) {
	if a.cfg.Bucket == "" {
		return Grant{}, fmt.Errorf("%w: UPLOAD_BUCKET is not configured", domain.ErrConfiguration)
	}

	key := a.objectKey()
	post, err := a.presigner.PresignUpload(ctx, a.cfg.Bucket, key, ContentType, a.cfg.Expiry)
	if err != nil {
		return Grant{}, err
	}
	return Grant{Upload: post, Key: key}, nil
}

func (a *Authorizer) objectKey() string {
	date := a.now().UTC().Format(time.DateOnly)
	return path.Join(a.cfg.Prefix, date, a.newID()+".csv")
}
