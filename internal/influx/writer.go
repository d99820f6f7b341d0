// Package influx writes simulator frames to InfluxDB v2.
package influx

import (
	"context"
	"fmt"

	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/simulator"
	"github.com/digital-egiz/sensorhub/internal/utils"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"
)

// Writer stores one point per frame and snapshot variant
type Writer struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	config   *config.InfluxConfig
	logger   *utils.Logger
}

var _ simulator.Sink = (*Writer)(nil)

// NewWriter creates a writer using the blocking write API
func NewWriter(cfg *config.InfluxConfig, logger *utils.Logger) *Writer {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Writer{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		config:   cfg,
		logger:   logger.Named("influx").With(zap.String("bucket", cfg.Bucket)),
	}
}

// Ping checks the server is reachable
func (w *Writer) Ping(ctx context.Context) error {
	ok, err := w.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("influx ping: %w", err)
	}
	if !ok {
		return fmt.Errorf("influx ping: server not ready")
	}
	return nil
}

// Name implements simulator.Sink
func (w *Writer) Name() string {
	return "influx"
}

// Publish implements simulator.Sink
func (w *Writer) Publish(ctx context.Context, frame *simulator.Frame) error {
	points := Points(w.config.Measurement, frame)
	if len(points) == 0 {
		return nil
	}

	if err := w.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}

	w.logger.Debug("Wrote frame", zap.Uint64("sequence", frame.Sequence), zap.Int("points", len(points)))
	return nil
}

// Close closes the client
func (w *Writer) Close() {
	w.client.Close()
}

// Points builds the device and hub points of a frame. Tags carry the device
// id, the snapshot source and the frame reason.
func Points(measurement string, frame *simulator.Frame) []*write.Point {
	var points []*write.Point

	if s := frame.Device; s != nil {
		fields := make(map[string]interface{})
		for _, r := range s.Readings() {
			fields[r.Metric] = r.Value
		}
		fields["alerts"] = len(s.Alerts)
		fields["sequence"] = int64(frame.Sequence)

		tags := map[string]string{
			"deviceId": s.DeviceID,
			"source":   "device",
			"reason":   frame.Reason,
			"fw":       s.Firmware,
			"connMode": s.ConnMode,
		}
		points = append(points, write.NewPoint(measurement, tags, fields, s.GeneratedAt))
	}

	if h := frame.Hub; h != nil {
		fields := make(map[string]interface{})
		for _, r := range h.Readings() {
			fields[r.Metric] = r.Value
		}
		fields["sequence"] = int64(frame.Sequence)

		tags := map[string]string{
			"source": "hub",
			"reason": frame.Reason,
			"status": h.Executive.DeviceStatus,
		}
		if frame.Device != nil {
			tags["deviceId"] = frame.Device.DeviceID
		}
		points = append(points, write.NewPoint(measurement, tags, fields, h.GeneratedAt))
	}

	return points
}
