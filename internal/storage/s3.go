package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ignite/user-ingest/internal/domain"
)

const contentTypeField = "Content-Type"

// S3Store reads uploaded objects and signs upload grants.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
}

// NewS3Store wraps client.
func NewS3Store(client *s3.Client) *S3Store {
	return &S3Store{client: client, presign: s3.NewPresignClient(client)}
}

// Fetch returns the full body of bucket/key. Failures wrap domain.ErrStore.
func (s *S3Store) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get s3://%s/%s: %w", domain.ErrStore, bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read s3://%s/%s: %w", domain.ErrStore, bucket, key, err)
	}
	return body, nil
}

// PresignUpload signs a browser POST for bucket/key. The policy only accepts
// a Content-Type starting with contentType, and the form is pre-filled with
// it.
func (s *S3Store) PresignUpload(ctx context.Context, bucket, key, contentType string, expires time.Duration) (domain.PresignedPost, error) {
	req, err := s.presign.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = expires
		o.Conditions = []interface{}{
			[]interface{}{"starts-with", "$" + contentTypeField, contentType},
		}
	})
	if err != nil {
		return domain.PresignedPost{}, fmt.Errorf("%w: presign s3://%s/%s: %w", domain.ErrStore, bucket, key, err)
	}

	fields := make(map[string]string, len(req.Values)+1)
	for k, v := range req.Values {
		fields[k] = v
	}
	fields[contentTypeField] = contentType
	return domain.PresignedPost{URL: req.URL, Fields: fields}, nil
}

// CheckBucket verifies the bucket exists and is reachable with the current
// credentials.
func (s *S3Store) CheckBucket(ctx context.Context, bucket string) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("%w: head bucket %s: %w", domain.ErrStore, bucket, err)
	}
	return nil
}
