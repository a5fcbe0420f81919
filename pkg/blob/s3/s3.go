// Package s3 implements blob.Store using Amazon S3 or S3-compatible
// storage (MinIO, Localstack, etc. via a custom endpoint).
//
// Path-Based Key Design:
//   - The blob key is used directly as the S3 object key (with an
//     optional configured prefix)
//   - Keys are built from folder *name* segments, so the bucket mirrors
//     the logical tree and stays human-inspectable
//   - The flip side is that folder renames require migrating every
//     descendant object, which pkg/tree performs via Copy + Delete
//
// Thread Safety:
// Safe for concurrent use by multiple goroutines; the underlying SDK
// client is concurrency-safe.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/nexushq/drivefs/pkg/blob"
)

// S3Store implements blob.Store on an S3 bucket.
type S3Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// S3StoreConfig contains configuration for the S3 blob store.
type S3StoreConfig struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name. Must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "drivefs/" results in keys like "drivefs/reports/1700_a.pdf"
	KeyPrefix string
}

// NewS3Store creates an S3-backed blob store and verifies bucket
// access with a HeadBucket call.
//
// Context Cancellation:
// This operation checks the context before the bucket probe.
func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// objectKey returns the full S3 object key for a blob key.
func (s *S3Store) objectKey(key string) string {
	if s.keyPrefix != "" {
		return s.keyPrefix + key
	}
	return key
}

// isNoSuchKey reports whether err means the object does not exist.
// S3 returns NoSuchKey for GetObject and NotFound for HeadObject.
func isNoSuchKey(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}

// Put uploads data under key using PutObject.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// Get downloads the object and returns its body stream. The caller is
// responsible for closing the returned ReadCloser.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("object %s: %w", key, blob.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	return result.Body, nil
}

// Delete removes the object. Idempotent: S3 DeleteObject succeeds for
// absent keys.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// Copy duplicates the object at oldKey under newKey via server-side
// CopyObject. The CopySource must be URL-encoded since keys contain
// folder names with arbitrary characters.
func (s *S3Store) Copy(ctx context.Context, oldKey, newKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	source := url.PathEscape(s.bucket + "/" + s.objectKey(oldKey))

	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(source),
		Key:        aws.String(s.objectKey(newKey)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return fmt.Errorf("object %s: %w", oldKey, blob.ErrNotFound)
		}
		return fmt.Errorf("failed to copy object %s to %s: %w", oldKey, newKey, err)
	}
	return nil
}

// Exists probes the object with a HEAD request.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object %s: %w", key, err)
	}
	return true, nil
}
