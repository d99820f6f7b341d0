package repository

import (
	"time"

	"github.com/digital-egiz/sensorhub/internal/db/models"
	"gorm.io/gorm"
)

// AlertFilter narrows an alert query. Zero values do not filter.
type AlertFilter struct {
	DeviceID     string
	Source       string
	Severity     string
	Kind         string
	Start        time.Time
	End          time.Time
	Acknowledged *bool
	Limit        int
}

// AlertRepository stores alerts raised by snapshots
type AlertRepository interface {
	Repository
	InsertBatch(alerts []models.AlertData) error
	Query(filter AlertFilter) ([]models.AlertData, error)
	Acknowledge(alertID, ackBy string) (*models.AlertData, error)
	PruneBefore(cutoff time.Time) (int64, error)
}

// alertRepository implements AlertRepository
type alertRepository struct {
	BaseRepository
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// InsertBatch stores alerts in one transaction
func (r *alertRepository) InsertBatch(alerts []models.AlertData) error {
	return createBatch(&r.BaseRepository, alerts)
}

// Query returns alerts matching filter, newest first
func (r *alertRepository) Query(filter AlertFilter) ([]models.AlertData, error) {
	var alerts []models.AlertData

	query := r.GetDB().Model(&models.AlertData{})
	if filter.DeviceID != "" {
		query = query.Where("device_id = ?", filter.DeviceID)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if !filter.Start.IsZero() {
		query = query.Where("time >= ?", filter.Start)
	}
	if !filter.End.IsZero() {
		query = query.Where("time <= ?", filter.End)
	}
	if filter.Acknowledged != nil {
		query = query.Where("acknowledged = ?", *filter.Acknowledged)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	if err := query.Order("time desc").Find(&alerts).Error; err != nil {
		return nil, r.handleError(err)
	}

	return alerts, nil
}

// Acknowledge marks an unacknowledged alert as seen by ackBy
func (r *alertRepository) Acknowledge(alertID, ackBy string) (*models.AlertData, error) {
	now := time.Now().UTC()
	result := r.GetDB().Model(&models.AlertData{}).
		Where("alert_id = ? AND acknowledged = ?", alertID, false).
		Updates(map[string]interface{}{
			"acknowledged": true,
			"ack_by":       ackBy,
			"ack_time":     now,
		})

	if result.Error != nil {
		return nil, r.handleError(result.Error)
	}

	if result.RowsAffected == 0 {
		// Either unknown or already acknowledged
		var existing models.AlertData
		if err := r.GetDB().Where("alert_id = ?", alertID).First(&existing).Error; err != nil {
			return nil, r.handleError(err)
		}
		return nil, ErrConflict
	}

	var alert models.AlertData
	if err := r.GetDB().Where("alert_id = ?", alertID).First(&alert).Error; err != nil {
		return nil, r.handleError(err)
	}
	return &alert, nil
}

// PruneBefore deletes alerts raised before cutoff
func (r *alertRepository) PruneBefore(cutoff time.Time) (int64, error) {
	result := r.GetDB().Where("time < ?", cutoff).Delete(&models.AlertData{})
	if result.Error != nil {
		return 0, r.handleError(result.Error)
	}
	return result.RowsAffected, nil
}
