package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SnapshotKind tells the two snapshot shapes apart
type SnapshotKind string

const (
	// KindDevice is a single-device snapshot
	KindDevice SnapshotKind = "device"
	// KindHub is a hub dashboard snapshot
	KindHub SnapshotKind = "hub"
)

// SnapshotRecord is one stored simulator frame of a given kind
type SnapshotRecord struct {
	ID          string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	Kind        SnapshotKind `gorm:"type:varchar(16);index:idx_snapshot_kind_time;not null" json:"kind"`
	DeviceID    string       `gorm:"type:varchar(64);index" json:"device_id"`
	Reason      string       `gorm:"type:varchar(16)" json:"reason"`
	Sequence    uint64       `json:"sequence"`
	GeneratedAt time.Time    `gorm:"index:idx_snapshot_kind_time;not null" json:"generated_at"`
	AlertCount  int          `json:"alert_count"`
	Payload     JSON         `gorm:"type:jsonb" json:"payload"`
	CreatedAt   time.Time    `json:"created_at"`
}

// TableName overrides the table name for SnapshotRecord
func (SnapshotRecord) TableName() string {
	return "snapshot_records"
}

// BeforeCreate assigns a random ID when none is set
func (r *SnapshotRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
