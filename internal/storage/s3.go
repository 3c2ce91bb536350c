package storage

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"ats-workers/internal/common/logger"
)

// ObjectClient is the subset of the S3 client the store needs.
type ObjectClient interface {
	PutObject(ctx context.Context, bucket, key, contentType string, body []byte) error
	DeleteObject(ctx context.Context, bucket, key string) error
}

// S3Store stores documents in a single bucket, keyed by category prefix and
// a sanitized name derived from the upload hint.
type S3Store struct {
	client ObjectClient
	bucket string
	region string
	prefix string
	logger logger.Logger

	now func() time.Time
}

func NewS3Store(client ObjectClient, bucket, region, prefix string, log logger.Logger) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		region: region,
		prefix: strings.Trim(prefix, "/"),
		logger: log.WithFields(map[string]interface{}{"component": "s3-store"}),
		now:    time.Now,
	}
}

// Store uploads the content and returns the object's public URL.
func (s *S3Store) Store(ctx context.Context, content []byte, filenameHint, category string) (string, error) {
	key := s.objectKey(filenameHint, category)

	contentType := mime.TypeByExtension(path.Ext(filenameHint))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.client.PutObject(ctx, s.bucket, key, contentType, content); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	s.logger.Info("document stored", map[string]interface{}{
		"key":   key,
		"bytes": len(content),
	})

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// Delete removes the object behind a previously returned URL. Failures are
// logged and reported as false, never raised.
func (s *S3Store) Delete(ctx context.Context, url string) bool {
	key, ok := s.keyFromURL(url)
	if !ok {
		s.logger.Warn("delete skipped, unrecognized document URL", map[string]interface{}{
			"url": url,
		})
		return false
	}

	if err := s.client.DeleteObject(ctx, s.bucket, key); err != nil {
		s.logger.Warn("document delete failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
		return false
	}
	return true
}

func (s *S3Store) objectKey(filenameHint, category string) string {
	ext := strings.ToLower(path.Ext(filenameHint))
	base := strings.TrimSuffix(path.Base(filenameHint), path.Ext(filenameHint))
	name := fmt.Sprintf("%s_%d%s", sanitizeName(base), s.now().UnixMilli(), ext)
	if s.prefix == "" {
		return path.Join(category, name)
	}
	return path.Join(s.prefix, category, name)
}

func (s *S3Store) keyFromURL(url string) (string, bool) {
	host := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.bucket, s.region)
	if !strings.HasPrefix(url, host) {
		return "", false
	}
	key := strings.TrimPrefix(url, host)
	if key == "" {
		return "", false
	}
	return key, true
}

// sanitizeName keeps object keys portable, mirroring the safe-filename rule
// applied to applicant names.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "document"
	}
	return b.String()
}
