package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig addresses an S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioSink uploads artifacts to an S3-compatible object store.
type MinioSink struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// InitMinIOClient initializes and returns a MinIO client
func InitMinIOClient(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client init: %w", err)
	}
	return client, nil
}

// EnsureBucketExists creates the bucket if it is missing.
func EnsureBucketExists(ctx context.Context, client *minio.Client, bucket string, logger *slog.Logger) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		logger.Debug("export.sink.minio.bucket_exists", "bucket", bucket)
		return nil
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	logger.Info("export.sink.minio.bucket_created", "bucket", bucket)
	return nil
}

// NewMinioSink connects to the endpoint and makes sure the bucket exists.
func NewMinioSink(ctx context.Context, cfg MinioConfig, logger *slog.Logger) (*MinioSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio sink: endpoint and bucket are required")
	}
	client, err := InitMinIOClient(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	if err := EnsureBucketExists(ctx, client, cfg.Bucket, logger); err != nil {
		return nil, err
	}
	return &MinioSink{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

func (s *MinioSink) Put(ctx context.Context, name, contentType string, data []byte) error {
	info, err := s.client.PutObject(
		ctx,
		s.bucket,
		name,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", s.bucket, name, err)
	}
	s.logger.Info("export.sink.minio.ok", "bucket", s.bucket, "object", name, "size", info.Size)
	return nil
}
