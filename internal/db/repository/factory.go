package repository

import "gorm.io/gorm"

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db             *gorm.DB
	snapshotRepo   SnapshotRepository
	timeseriesRepo TimeseriesRepository
	alertRepo      AlertRepository
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(db *gorm.DB) *RepositoryFactory {
	return &RepositoryFactory{
		db: db,
	}
}

// Snapshot returns the snapshot record repository
func (f *RepositoryFactory) Snapshot() SnapshotRepository {
	if f.snapshotRepo == nil {
		f.snapshotRepo = NewSnapshotRepository(f.db)
	}
	return f.snapshotRepo
}

// Timeseries returns the time-series repository
func (f *RepositoryFactory) Timeseries() TimeseriesRepository {
	if f.timeseriesRepo == nil {
		f.timeseriesRepo = NewTimeseriesRepository(f.db)
	}
	return f.timeseriesRepo
}

// Alert returns the alert repository
func (f *RepositoryFactory) Alert() AlertRepository {
	if f.alertRepo == nil {
		f.alertRepo = NewAlertRepository(f.db)
	}
	return f.alertRepo
}
