package repository

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/digital-egiz/sensorhub/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// intervals maps the accepted aggregation intervals to bucket widths
var intervals = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
}

// ParseInterval returns the bucket width of an aggregation interval
func ParseInterval(interval string) (time.Duration, error) {
	d, ok := intervals[interval]
	if !ok {
		return 0, fmt.Errorf("%w: unknown interval %q", ErrInvalidInput, interval)
	}
	return d, nil
}

// TimeseriesRepository defines operations for managing time-series data
type TimeseriesRepository interface {
	Repository
	InsertBatch(data []models.TimeseriesData) error
	GetTimeseriesData(deviceID, metric string, start, end time.Time, limit int) ([]models.TimeseriesData, error)
	GetLatest(deviceID, metric string) (*models.TimeseriesData, error)
	GetSince(deviceID string, since time.Time) ([]models.TimeseriesData, error)
	GetAggregated(deviceID, metric string, start, end time.Time, interval string) ([]models.AggregatedData, error)
	ListMetrics(deviceID string) ([]string, error)
	DeleteRange(deviceID, metric string, start, end time.Time) (int64, error)
	PruneBefore(cutoff time.Time) (int64, error)
}

// timeseriesRepository implements TimeseriesRepository
type timeseriesRepository struct {
	BaseRepository
}

// NewTimeseriesRepository creates a new time-series repository
func NewTimeseriesRepository(db *gorm.DB) TimeseriesRepository {
	return &timeseriesRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// InsertBatch inserts samples in one transaction. A sample already stored
// for the same instant, device and metric is overwritten.
func (r *timeseriesRepository) InsertBatch(data []models.TimeseriesData) error {
	if len(data) == 0 {
		return nil
	}

	tx := r.GetDB().Begin()
	if tx.Error != nil {
		return r.handleError(tx.Error)
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "time"}, {Name: "device_id"}, {Name: "metric"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "source"}),
	}).CreateInBatches(data, 100).Error
	if err != nil {
		tx.Rollback()
		return r.handleError(err)
	}

	return r.handleError(tx.Commit().Error)
}

// GetTimeseriesData retrieves samples of one metric within [start, end], newest first
func (r *timeseriesRepository) GetTimeseriesData(deviceID, metric string, start, end time.Time, limit int) ([]models.TimeseriesData, error) {
	var data []models.TimeseriesData

	query := r.GetDB().Where("metric = ? AND time >= ? AND time <= ?", metric, start, end)
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Order("time desc").Find(&data).Error; err != nil {
		return nil, r.handleError(err)
	}

	return data, nil
}

// GetLatest retrieves the newest sample of a metric
func (r *timeseriesRepository) GetLatest(deviceID, metric string) (*models.TimeseriesData, error) {
	var data models.TimeseriesData

	query := r.GetDB().Where("metric = ?", metric)
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}

	if err := query.Order("time desc").First(&data).Error; err != nil {
		return nil, r.handleError(err)
	}

	return &data, nil
}

// GetSince returns every sample of a device since the given time, oldest first
func (r *timeseriesRepository) GetSince(deviceID string, since time.Time) ([]models.TimeseriesData, error) {
	var data []models.TimeseriesData

	query := r.GetDB().Where("time >= ?", since)
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}

	if err := query.Order("time asc").Order("metric asc").Find(&data).Error; err != nil {
		return nil, r.handleError(err)
	}

	return data, nil
}

// GetAggregated buckets samples of one metric into fixed intervals, newest
// bucket first. Aggregation runs in Go so it behaves the same on every driver.
func (r *timeseriesRepository) GetAggregated(deviceID, metric string, start, end time.Time, interval string) ([]models.AggregatedData, error) {
	width, err := ParseInterval(interval)
	if err != nil {
		return nil, err
	}

	samples, err := r.GetTimeseriesData(deviceID, metric, start, end, 0)
	if err != nil {
		return nil, err
	}

	return Aggregate(samples, width, interval), nil
}

type bucketKey struct {
	deviceID string
	start    int64
}

// Aggregate folds samples into per-device buckets of the given width, newest
// bucket first and ordered by device within the same interval
func Aggregate(samples []models.TimeseriesData, width time.Duration, interval string) []models.AggregatedData {
	buckets := make(map[bucketKey]*models.AggregatedData)

	for _, s := range samples {
		start := s.Time.UTC().Truncate(width)
		key := bucketKey{deviceID: s.DeviceID, start: start.UnixNano()}

		b, ok := buckets[key]
		if !ok {
			b = &models.AggregatedData{
				TimeInterval: start,
				DeviceID:     s.DeviceID,
				Metric:       s.Metric,
				IntervalType: interval,
				Min:          math.Inf(1),
				Max:          math.Inf(-1),
				FirstTime:    s.Time,
				LastTime:     s.Time,
			}
			buckets[key] = b
		}

		b.Min = math.Min(b.Min, s.Value)
		b.Max = math.Max(b.Max, s.Value)
		b.Sum += s.Value
		b.Count++
		if s.Time.Before(b.FirstTime) {
			b.FirstTime = s.Time
		}
		if s.Time.After(b.LastTime) {
			b.LastTime = s.Time
		}
	}

	out := make([]models.AggregatedData, 0, len(buckets))
	for _, b := range buckets {
		b.Avg = b.Sum / float64(b.Count)
		out = append(out, *b)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].TimeInterval.Equal(out[j].TimeInterval) {
			return out[i].TimeInterval.After(out[j].TimeInterval)
		}
		return out[i].DeviceID < out[j].DeviceID
	})

	return out
}

// ListMetrics returns the distinct metric names stored for a device
func (r *timeseriesRepository) ListMetrics(deviceID string) ([]string, error) {
	var metrics []string

	query := r.GetDB().Model(&models.TimeseriesData{})
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}

	if err := query.Distinct("metric").Order("metric").Pluck("metric", &metrics).Error; err != nil {
		return nil, r.handleError(err)
	}

	return metrics, nil
}

// DeleteRange deletes samples of a metric within [start, end]
func (r *timeseriesRepository) DeleteRange(deviceID, metric string, start, end time.Time) (int64, error) {
	result := r.GetDB().Where("device_id = ? AND metric = ? AND time >= ? AND time <= ?",
		deviceID, metric, start, end).
		Delete(&models.TimeseriesData{})

	if result.Error != nil {
		return 0, r.handleError(result.Error)
	}
	return result.RowsAffected, nil
}

// PruneBefore deletes samples older than cutoff
func (r *timeseriesRepository) PruneBefore(cutoff time.Time) (int64, error) {
	result := r.GetDB().Where("time < ?", cutoff).Delete(&models.TimeseriesData{})
	if result.Error != nil {
		return 0, r.handleError(result.Error)
	}
	return result.RowsAffected, nil
}
