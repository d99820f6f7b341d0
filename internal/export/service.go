// Package export writes stored telemetry to Parquet files in object storage.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/db/repository"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"go.uber.org/zap"
)

// ErrNoData is returned when there is nothing to export
var ErrNoData = errors.New("no samples to export")

// ExportResult describes an uploaded export
type ExportResult struct {
	Object string `json:"object"`
	Rows   int    `json:"rows"`
	Bytes  int64  `json:"bytes"`
}

// Service exports time-series samples
type Service struct {
	repo   repository.TimeseriesRepository
	store  ObjectStore
	config *config.ExportConfig
	logger *utils.Logger
	now    func() time.Time
}

// NewService creates an export service
func NewService(repo repository.TimeseriesRepository, store ObjectStore, cfg *config.ExportConfig, logger *utils.Logger) *Service {
	return &Service{
		repo:   repo,
		store:  store,
		config: cfg,
		logger: logger.Named("export"),
		now:    time.Now,
	}
}

// Export uploads every sample of deviceID stored since the given time.
// An empty deviceID exports every device.
func (s *Service) Export(ctx context.Context, deviceID string, since time.Time) (*ExportResult, error) {
	samples, err := s.repo.GetSince(deviceID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}
	if len(samples) == 0 {
		return nil, ErrNoData
	}

	now := s.now().UTC()
	name := deviceID
	if name == "" {
		name = "all"
	}
	file := fmt.Sprintf("%s-%s.parquet", name, now.Format("20060102T150405Z"))

	tmpDir := s.config.TempDir
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	path := filepath.Join(tmpDir, file)
	defer os.Remove(path)

	if err := writeParquet(path, samples, s.config.Compression); err != nil {
		return nil, fmt.Errorf("failed to write parquet: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat export: %w", err)
	}

	if err := s.store.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	object := BuildObjectPath(s.config.BasePath, now, file)
	if err := s.store.Upload(ctx, object, f, info.Size(), "application/octet-stream"); err != nil {
		return nil, err
	}

	s.logger.Info("Exported samples",
		zap.String("object", object),
		zap.Int("rows", len(samples)),
		zap.Int64("bytes", info.Size()),
	)

	return &ExportResult{Object: object, Rows: len(samples), Bytes: info.Size()}, nil
}
