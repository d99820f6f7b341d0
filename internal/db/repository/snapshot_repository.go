package repository

import (
	"time"

	"github.com/digital-egiz/sensorhub/internal/db/models"
	"gorm.io/gorm"
)

// SnapshotRepository stores simulator frames
type SnapshotRepository interface {
	Repository
	Create(record *models.SnapshotRecord) error
	GetByID(id string) (*models.SnapshotRecord, error)
	Latest(kind models.SnapshotKind) (*models.SnapshotRecord, error)
	List(kind models.SnapshotKind, offset, limit int) ([]models.SnapshotRecord, int64, error)
	PruneBefore(cutoff time.Time) (int64, error)
}

// snapshotRepository implements SnapshotRepository
type snapshotRepository struct {
	BaseRepository
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create stores a frame record
func (r *snapshotRepository) Create(record *models.SnapshotRecord) error {
	if record.Kind != models.KindDevice && record.Kind != models.KindHub {
		return ErrInvalidInput
	}
	return r.handleError(r.GetDB().Create(record).Error)
}

// GetByID retrieves a record by ID
func (r *snapshotRepository) GetByID(id string) (*models.SnapshotRecord, error) {
	var record models.SnapshotRecord
	if err := r.GetDB().Where("id = ?", id).First(&record).Error; err != nil {
		return nil, r.handleError(err)
	}
	return &record, nil
}

// Latest returns the newest record of a kind
func (r *snapshotRepository) Latest(kind models.SnapshotKind) (*models.SnapshotRecord, error) {
	var record models.SnapshotRecord
	err := r.GetDB().Where("kind = ?", kind).
		Order("generated_at desc").
		Order("sequence desc").
		First(&record).Error
	if err != nil {
		return nil, r.handleError(err)
	}
	return &record, nil
}

// List returns a page of records, newest first. An empty kind lists both.
func (r *snapshotRepository) List(kind models.SnapshotKind, offset, limit int) ([]models.SnapshotRecord, int64, error) {
	var records []models.SnapshotRecord
	var total int64

	query := r.GetDB().Model(&models.SnapshotRecord{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.handleError(err)
	}

	err := query.Order("generated_at desc").
		Order("sequence desc").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, r.handleError(err)
	}

	return records, total, nil
}

// PruneBefore deletes records generated before cutoff
func (r *snapshotRepository) PruneBefore(cutoff time.Time) (int64, error) {
	result := r.GetDB().Where("generated_at < ?", cutoff).Delete(&models.SnapshotRecord{})
	if result.Error != nil {
		return 0, r.handleError(result.Error)
	}
	return result.RowsAffected, nil
}
