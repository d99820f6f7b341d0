// Package mqtt publishes simulator frames to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/simulator"
	"github.com/digital-egiz/sensorhub/internal/utils"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Publisher sends every frame as three retained documents per device:
// <prefix>/<deviceId>/telemetry, <prefix>/<deviceId>/hub and
// <prefix>/<deviceId>/alerts.
type Publisher struct {
	client pahomqtt.Client
	config *config.MQTTConfig
	logger *utils.Logger
}

var _ simulator.Sink = (*Publisher)(nil)

// NewPublisher builds the client. Call Connect before publishing.
func NewPublisher(cfg *config.MQTTConfig, logger *utils.Logger) *Publisher {
	p := &Publisher{
		config: cfg,
		logger: logger.Named("mqtt").With(zap.String("broker", cfg.BrokerURL)),
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.OnConnect = func(pahomqtt.Client) {
		p.logger.Info("Connected to MQTT broker", zap.String("broker", cfg.BrokerURL))
	}
	opts.OnConnectionLost = func(_ pahomqtt.Client, err error) {
		p.logger.Warn("MQTT connection lost", zap.Error(err))
	}

	p.client = pahomqtt.NewClient(opts)
	return p
}

// Connect connects with exponential backoff until it succeeds or ctx ends
func (p *Publisher) Connect(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		token := p.client.Connect()
		if token.Wait() && token.Error() == nil {
			return nil
		}

		p.logger.Warn("MQTT connect failed",
			zap.Error(token.Error()),
			zap.Duration("retry_in", backoff),
		)

		select {
		case <-time.After(backoff):
			if backoff < maxBackoff {
				backoff *= 2
			}
		case <-ctx.Done():
			return fmt.Errorf("mqtt connect: %w", ctx.Err())
		}
	}
}

// Name implements simulator.Sink
func (p *Publisher) Name() string {
	return "mqtt"
}

// Publish implements simulator.Sink
func (p *Publisher) Publish(ctx context.Context, frame *simulator.Frame) error {
	docs, err := Documents(p.config.TopicPrefix, frame)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		token := p.client.Publish(doc.Topic, p.config.QoS, p.config.Retained, doc.Payload)
		select {
		case <-token.Done():
			if err := token.Error(); err != nil {
				return fmt.Errorf("failed to publish %s: %w", doc.Topic, err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// Close disconnects, allowing in-flight messages 250ms to complete
func (p *Publisher) Close() {
	p.client.Disconnect(250)
	p.logger.Info("MQTT publisher closed")
}

// Document is one MQTT message
type Document struct {
	Topic   string
	Payload []byte
}

// Documents encodes a frame into its per-section MQTT messages
func Documents(prefix string, frame *simulator.Frame) ([]Document, error) {
	if frame.Device == nil {
		return nil, fmt.Errorf("frame %d has no device snapshot", frame.Sequence)
	}

	base := fmt.Sprintf("%s/%s", prefix, frame.Device.DeviceID)

	sections := []struct {
		suffix string
		value  interface{}
	}{
		{"telemetry", frame.Device},
		{"hub", frame.Hub},
		{"alerts", frame.Device.Alerts},
	}

	docs := make([]Document, 0, len(sections))
	for _, s := range sections {
		payload, err := json.Marshal(s.value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", s.suffix, err)
		}
		docs = append(docs, Document{Topic: base + "/" + s.suffix, Payload: payload})
	}

	return docs, nil
}
