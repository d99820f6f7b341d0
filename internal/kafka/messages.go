package kafka

import (
	"time"

	"github.com/digital-egiz/sensorhub/internal/simulator"
	"github.com/digital-egiz/sensorhub/internal/telemetry"
)

// Topic constants for the application
const (
	TopicTelemetry = "sensorhub-telemetry"
	TopicAlerts    = "sensorhub-alerts"
	TopicCommands  = "sensorhub-commands"
)

// AlertsEvent carries the alerts of one frame
type AlertsEvent struct {
	Sequence uint64               `json:"sequence"`
	At       time.Time            `json:"at"`
	DeviceID string               `json:"deviceId"`
	Device   []telemetry.Alert    `json:"device"`
	Hub      []telemetry.HubAlert `json:"hub"`
}

type topicMessage struct {
	topic   string
	message *Message
}

// frameMessages returns the messages a frame is published as: the full frame
// on the telemetry topic and its alerts on the alerts topic, both keyed by
// device so one device stays on one partition.
func frameMessages(frame *simulator.Frame) []topicMessage {
	key := ""
	if frame.Device != nil {
		key = frame.Device.DeviceID
	}

	headers := map[string]string{
		"reason":   frame.Reason,
		"producer": "sensorhub",
	}

	event := AlertsEvent{
		Sequence: frame.Sequence,
		At:       frame.At,
		DeviceID: key,
	}
	if frame.Device != nil {
		event.Device = frame.Device.Alerts
	}
	if frame.Hub != nil {
		event.Hub = frame.Hub.Alerts.Active
	}

	return []topicMessage{
		{TopicTelemetry, &Message{Key: key, Value: frame, Timestamp: frame.At, Headers: headers}},
		{TopicAlerts, &Message{Key: key, Value: event, Timestamp: frame.At, Headers: headers}},
	}
}
