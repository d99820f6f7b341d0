package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/digital-egiz/sensorhub/internal/db/models"
	"github.com/digital-egiz/sensorhub/internal/db/repository"
	"github.com/digital-egiz/sensorhub/internal/simulator"
	"github.com/digital-egiz/sensorhub/internal/telemetry"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"go.uber.org/zap"
)

const (
	sourceDevice  = "device"
	sourceHub     = "hub"
	pruneInterval = time.Hour
)

// SnapshotService persists every frame it receives: one snapshot record per
// variant, the current readings as samples and every newly raised alert.
type SnapshotService struct {
	logger         *utils.Logger
	snapshotRepo   repository.SnapshotRepository
	timeseriesRepo repository.TimeseriesRepository
	alertRepo      repository.AlertRepository
	retention      time.Duration

	mu        sync.Mutex
	active    map[string]bool
	lastPrune time.Time
}

var _ simulator.Sink = (*SnapshotService)(nil)

// NewSnapshotService creates the store sink. A zero retention keeps rows forever.
func NewSnapshotService(logger *utils.Logger, repoFactory *repository.RepositoryFactory, retention time.Duration) *SnapshotService {
	return &SnapshotService{
		logger:         logger.Named("snapshot_service"),
		snapshotRepo:   repoFactory.Snapshot(),
		timeseriesRepo: repoFactory.Timeseries(),
		alertRepo:      repoFactory.Alert(),
		retention:      retention,
		active:         make(map[string]bool),
	}
}

// Name implements simulator.Sink
func (s *SnapshotService) Name() string {
	return "store"
}

// Publish implements simulator.Sink
func (s *SnapshotService) Publish(_ context.Context, frame *simulator.Frame) error {
	if frame.Device != nil {
		if err := s.storeRecord(frame, models.KindDevice, frame.Device.DeviceID, len(frame.Device.Alerts), frame.Device); err != nil {
			return err
		}
	}
	if frame.Hub != nil {
		if err := s.storeRecord(frame, models.KindHub, deviceIDOf(frame), len(frame.Hub.Alerts.Active), frame.Hub); err != nil {
			return err
		}
	}

	if err := s.timeseriesRepo.InsertBatch(samplesOf(frame)); err != nil {
		return fmt.Errorf("failed to store samples: %w", err)
	}

	if alerts := s.newAlerts(frame); len(alerts) > 0 {
		if err := s.alertRepo.InsertBatch(alerts); err != nil {
			return fmt.Errorf("failed to store alerts: %w", err)
		}
		s.logger.Debug("Stored alerts", zap.Int("count", len(alerts)), zap.Uint64("sequence", frame.Sequence))
	}

	s.maybePrune(frame.At)
	return nil
}

func (s *SnapshotService) storeRecord(frame *simulator.Frame, kind models.SnapshotKind, deviceID string, alertCount int, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", kind, err)
	}

	record := &models.SnapshotRecord{
		Kind:        kind,
		DeviceID:    deviceID,
		Reason:      frame.Reason,
		Sequence:    frame.Sequence,
		GeneratedAt: frame.At,
		AlertCount:  alertCount,
		Payload:     models.JSON(data),
	}
	if err := s.snapshotRepo.Create(record); err != nil {
		return fmt.Errorf("failed to store %s snapshot: %w", kind, err)
	}
	return nil
}

// newAlerts returns the alerts the frame raises. An alert condition is
// identified by source, device, kind and its position among alerts of that
// kind; it is stored when it first appears and again only after a frame
// without it. Raise times move with every tick, so they are not part of the
// identity.
func (s *SnapshotService) newAlerts(frame *simulator.Frame) []models.AlertData {
	s.mu.Lock()
	defer s.mu.Unlock()

	deviceID := deviceIDOf(frame)
	active := make(map[string]bool, len(s.active))
	occurrences := make(map[string]int)
	var out []models.AlertData

	add := func(row models.AlertData) {
		base := row.Source + "|" + row.DeviceID + "|" + row.Kind
		key := fmt.Sprintf("%s|%d", base, occurrences[base])
		occurrences[base]++

		active[key] = true
		if !s.active[key] {
			out = append(out, row)
		}
	}

	if frame.Device != nil {
		for _, a := range frame.Device.Alerts {
			if a.Kind == telemetry.KindAllClear {
				continue
			}
			add(models.AlertData{
				Time:     a.At,
				DeviceID: deviceID,
				Kind:     a.Kind,
				Severity: a.Severity,
				Title:    a.Title,
				Message:  a.Message,
				Source:   sourceDevice,
			})
		}
	}

	if frame.Hub != nil {
		for _, a := range frame.Hub.Alerts.Active {
			if a.Kind == telemetry.KindHubAllClear {
				continue
			}
			add(models.AlertData{
				Time:     a.Timestamp,
				DeviceID: deviceID,
				Kind:     a.Kind,
				Severity: a.Severity,
				Message:  a.Message,
				Channel:  a.Channel,
				Source:   sourceHub,
			})
		}
	}

	s.active = active
	return out
}

func (s *SnapshotService) maybePrune(now time.Time) {
	if s.retention <= 0 {
		return
	}

	s.mu.Lock()
	due := now.Sub(s.lastPrune) >= pruneInterval
	if due {
		s.lastPrune = now
	}
	s.mu.Unlock()
	if !due {
		return
	}

	cutoff := now.Add(-s.retention)
	snapshots, err := s.snapshotRepo.PruneBefore(cutoff)
	if err != nil {
		s.logger.Error("Failed to prune snapshots", zap.Error(err))
		return
	}
	samples, err := s.timeseriesRepo.PruneBefore(cutoff)
	if err != nil {
		s.logger.Error("Failed to prune samples", zap.Error(err))
		return
	}
	alerts, err := s.alertRepo.PruneBefore(cutoff)
	if err != nil {
		s.logger.Error("Failed to prune alerts", zap.Error(err))
		return
	}

	s.logger.Info("Pruned history",
		zap.Time("cutoff", cutoff),
		zap.Int64("snapshots", snapshots),
		zap.Int64("samples", samples),
		zap.Int64("alerts", alerts),
	)
}

func deviceIDOf(frame *simulator.Frame) string {
	if frame.Device != nil {
		return frame.Device.DeviceID
	}
	return ""
}

// samplesOf flattens both variants of a frame into samples stamped with the
// frame time
func samplesOf(frame *simulator.Frame) []models.TimeseriesData {
	deviceID := deviceIDOf(frame)
	var out []models.TimeseriesData

	if frame.Device != nil {
		for _, r := range frame.Device.Readings() {
			out = append(out, models.TimeseriesData{Time: frame.At, DeviceID: deviceID, Metric: r.Metric, Value: r.Value, Source: sourceDevice})
		}
	}
	if frame.Hub != nil {
		for _, r := range frame.Hub.Readings() {
			out = append(out, models.TimeseriesData{Time: frame.At, DeviceID: deviceID, Metric: r.Metric, Value: r.Value, Source: sourceHub})
		}
	}
	return out
}
