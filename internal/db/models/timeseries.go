package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimeseriesData is one stored sample of a device metric
type TimeseriesData struct {
	Time     time.Time `gorm:"primaryKey;not null" json:"time"`
	DeviceID string    `gorm:"type:varchar(64);primaryKey;not null" json:"device_id"`
	Metric   string    `gorm:"type:varchar(64);primaryKey;not null" json:"metric"`
	Value    float64   `json:"value"`
	Source   string    `gorm:"type:varchar(32)" json:"source"` // "device" or "hub"
}

// TableName overrides the table name for TimeseriesData
func (TimeseriesData) TableName() string {
	return "timeseries_data"
}

// AggregatedData is one aggregation bucket of a metric. It is computed on
// read and never stored.
type AggregatedData struct {
	TimeInterval time.Time `json:"time_interval"`
	DeviceID     string    `json:"device_id"`
	Metric       string    `json:"metric"`
	IntervalType string    `json:"interval_type"`
	Min          float64   `json:"min"`
	Max          float64   `json:"max"`
	Avg          float64   `json:"avg"`
	Sum          float64   `json:"sum"`
	Count        int       `json:"count"`
	FirstTime    time.Time `json:"first_time"`
	LastTime     time.Time `json:"last_time"`
}

// AlertData is one stored alert raised by a snapshot
type AlertData struct {
	AlertID      string     `gorm:"type:varchar(36);primaryKey" json:"alert_id"`
	Time         time.Time  `gorm:"index;not null" json:"time"`
	DeviceID     string     `gorm:"type:varchar(64);index;not null" json:"device_id"`
	Kind         string     `gorm:"type:varchar(64);not null" json:"kind"`
	Severity     string     `gorm:"type:varchar(20);not null" json:"severity"`
	Title        string     `json:"title,omitempty"`
	Message      string     `json:"message"`
	Channel      string     `gorm:"type:varchar(32)" json:"channel,omitempty"`
	Source       string     `gorm:"type:varchar(32)" json:"source"` // "device" or "hub"
	Acknowledged bool       `gorm:"default:false" json:"acknowledged"`
	AckBy        string     `json:"ack_by,omitempty"`
	AckTime      *time.Time `json:"ack_time,omitempty"`
}

// TableName overrides the table name for AlertData
func (AlertData) TableName() string {
	return "alert_data"
}

// BeforeCreate assigns a random ID when none is set
func (a *AlertData) BeforeCreate(tx *gorm.DB) error {
	if a.AlertID == "" {
		a.AlertID = uuid.NewString()
	}
	return nil
}
