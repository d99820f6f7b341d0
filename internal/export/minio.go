package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore receives exported files
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error
}

// MinIOStore uploads exports to a MinIO or S3 compatible bucket
type MinIOStore struct {
	mc     *minio.Client
	bucket string
}

// NewMinIOStore creates a client for the configured endpoint
func NewMinIOStore(cfg *config.ExportConfig) (*MinIOStore, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinIOStore{mc: mc, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket if it does not exist
func (s *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Upload puts one object
func (s *MinIOStore) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error {
	_, err := s.mc.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	return nil
}

// BuildObjectPath partitions objects by UTC day
func BuildObjectPath(basePath string, t time.Time, file string) string {
	t = t.UTC()
	return fmt.Sprintf("%s/year=%04d/month=%02d/day=%02d/%s",
		basePath, t.Year(), t.Month(), t.Day(), file)
}
