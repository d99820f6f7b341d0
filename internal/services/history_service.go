package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/digital-egiz/sensorhub/internal/db/models"
	"github.com/digital-egiz/sensorhub/internal/db/repository"
	"github.com/digital-egiz/sensorhub/internal/telemetry"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"go.uber.org/zap"
)

// validSeverities holds the severities of both alert vocabularies
var validSeverities = map[string]bool{
	telemetry.SeverityInfo:     true,
	telemetry.SeverityWarn:     true,
	telemetry.SeverityCrit:     true,
	telemetry.SeverityLow:      true,
	telemetry.SeverityMedium:   true,
	telemetry.SeverityHigh:     true,
	telemetry.SeverityCritical: true,
}

// HistoryService answers queries over persisted frames
type HistoryService struct {
	logger         *utils.Logger
	snapshotRepo   repository.SnapshotRepository
	timeseriesRepo repository.TimeseriesRepository
	alertRepo      repository.AlertRepository
}

// NewHistoryService creates a new history service
func NewHistoryService(logger *utils.Logger, repoFactory *repository.RepositoryFactory) *HistoryService {
	return &HistoryService{
		logger:         logger.Named("history_service"),
		snapshotRepo:   repoFactory.Snapshot(),
		timeseriesRepo: repoFactory.Timeseries(),
		alertRepo:      repoFactory.Alert(),
	}
}

// ListSnapshots pages stored snapshot records, newest first. An empty kind
// lists both variants.
func (s *HistoryService) ListSnapshots(kind string, pagination utils.PaginationRequest) ([]models.SnapshotRecord, int64, error) {
	k := models.SnapshotKind(kind)
	if kind != "" && k != models.KindDevice && k != models.KindHub {
		return nil, 0, fmt.Errorf("%w: unknown snapshot kind %q", utils.ErrBadRequest, kind)
	}

	records, total, err := s.snapshotRepo.List(k, pagination.Offset(), pagination.Limit)
	if err != nil {
		s.logger.Error("Failed to list snapshots", zap.String("kind", kind), zap.Error(err))
		return nil, 0, mapRepositoryError(err)
	}
	return records, total, nil
}

// GetSnapshot returns one stored snapshot record
func (s *HistoryService) GetSnapshot(id string) (*models.SnapshotRecord, error) {
	record, err := s.snapshotRepo.GetByID(id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return record, nil
}

// GetSeries returns stored samples of one metric, newest first
func (s *HistoryService) GetSeries(deviceID, metric string, start, end time.Time, limit int) ([]models.TimeseriesData, error) {
	if err := checkRange(metric, start, end); err != nil {
		return nil, err
	}

	data, err := s.timeseriesRepo.GetTimeseriesData(deviceID, metric, start, end, limit)
	if err != nil {
		s.logger.Error("Failed to get time-series data",
			zap.String("device_id", deviceID),
			zap.String("metric", metric),
			zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return data, nil
}

// GetAggregated returns stored samples of one metric folded into buckets
func (s *HistoryService) GetAggregated(deviceID, metric string, start, end time.Time, interval string) ([]models.AggregatedData, error) {
	if err := checkRange(metric, start, end); err != nil {
		return nil, err
	}

	data, err := s.timeseriesRepo.GetAggregated(deviceID, metric, start, end, interval)
	if err != nil {
		if !errors.Is(err, repository.ErrInvalidInput) {
			s.logger.Error("Failed to get aggregated data",
				zap.String("metric", metric),
				zap.String("interval", interval),
				zap.Error(err))
		}
		return nil, mapRepositoryError(err)
	}
	return data, nil
}

// ListMetrics returns the metric names stored for a device
func (s *HistoryService) ListMetrics(deviceID string) ([]string, error) {
	metrics, err := s.timeseriesRepo.ListMetrics(deviceID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return metrics, nil
}

// GetAlerts returns stored alerts matching filter, newest first
func (s *HistoryService) GetAlerts(filter repository.AlertFilter) ([]models.AlertData, error) {
	if filter.Severity != "" && !validSeverities[filter.Severity] {
		return nil, fmt.Errorf("%w: invalid severity %q", utils.ErrBadRequest, filter.Severity)
	}

	alerts, err := s.alertRepo.Query(filter)
	if err != nil {
		s.logger.Error("Failed to get alert data", zap.String("severity", filter.Severity), zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return alerts, nil
}

// AcknowledgeAlert marks a stored alert as acknowledged by operator
func (s *HistoryService) AcknowledgeAlert(alertID, operator string) (*models.AlertData, error) {
	alert, err := s.alertRepo.Acknowledge(alertID, operator)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrConflict) {
			s.logger.Error("Failed to acknowledge alert",
				zap.String("alert_id", alertID),
				zap.String("ack_by", operator),
				zap.Error(err))
		}
		return nil, mapRepositoryError(err)
	}

	s.logger.Info("Alert acknowledged", zap.String("alert_id", alertID), zap.String("ack_by", operator))
	return alert, nil
}

func checkRange(metric string, start, end time.Time) error {
	if metric == "" {
		return fmt.Errorf("%w: metric is required", utils.ErrBadRequest)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end is before start", utils.ErrBadRequest)
	}
	return nil
}

// mapRepositoryError translates repository errors to the API taxonomy
func mapRepositoryError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %v", utils.ErrNotFound, err)
	case errors.Is(err, repository.ErrInvalidInput):
		return fmt.Errorf("%w: %v", utils.ErrBadRequest, err)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %v", utils.ErrConflict, err)
	default:
		return fmt.Errorf("%w: %v", utils.ErrInternalServer, err)
	}
}
