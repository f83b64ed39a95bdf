package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSSink writes artifacts to a Cloud Storage bucket, replacing any previous object of the same name.
type GCSSink struct {
	client *storage.Client
	bucket *storage.BucketHandle
	logger *slog.Logger
}

// NewGCSSink uses application default credentials.
func NewGCSSink(ctx context.Context, bucket string, logger *slog.Logger) (*GCSSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if bucket == "" {
		return nil, fmt.Errorf("gcs sink: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSSink{client: client, bucket: client.Bucket(bucket), logger: logger}, nil
}

func (s *GCSSink) Put(ctx context.Context, name, contentType string, data []byte) error {
	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gcs object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return fmt.Errorf("gcs bucket %s not found: %w", s.bucket.BucketName(), err)
		}
		s.logger.Warn("export.sink.gcs.failed", "object", name, "error", err)
		return fmt.Errorf("finalize gcs object %s: %w", name, err)
	}
	s.logger.Info("export.sink.gcs.ok", "bucket", s.bucket.BucketName(), "object", name, "bytes", len(data))
	return nil
}

func (s *GCSSink) Close() error { return s.client.Close() }
