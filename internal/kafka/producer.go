package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"go.uber.org/zap"
)

// Producer provides functionality to produce messages to Kafka topics
type Producer struct {
	producer *kafka.Producer
	logger   *utils.Logger
	config   *config.KafkaConfig
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg *config.KafkaConfig, logger *utils.Logger) (*Producer, error) {
	kafkaLogger := logger.Named("kafka_producer")

	kafkaConfig := &kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"client.id":         "sensorhub-producer",
		"acks":              "all",
		"linger.ms":         20,
	}

	if err := applySecurity(kafkaConfig, cfg); err != nil {
		return nil, err
	}

	producer, err := kafka.NewProducer(kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	// Delivery reports
	go func() {
		for e := range producer.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					kafkaLogger.Error("Failed to deliver message",
						zap.String("topic", *ev.TopicPartition.Topic),
						zap.Error(ev.TopicPartition.Error),
					)
				} else {
					kafkaLogger.Debug("Message delivered",
						zap.String("topic", *ev.TopicPartition.Topic),
						zap.Int32("partition", ev.TopicPartition.Partition),
						zap.Int64("offset", int64(ev.TopicPartition.Offset)),
					)
				}
			case kafka.Error:
				kafkaLogger.Warn("Producer error", zap.Error(ev))
			}
		}
	}()

	return &Producer{
		producer: producer,
		logger:   kafkaLogger,
		config:   cfg,
	}, nil
}

// applySecurity adds SASL settings when enabled
func applySecurity(kafkaConfig *kafka.ConfigMap, cfg *config.KafkaConfig) error {
	if !cfg.SecurityEnable {
		return nil
	}

	settings := []struct{ key, value string }{
		{"security.protocol", "SASL_SSL"},
		{"sasl.mechanisms", "PLAIN"},
		{"sasl.username", cfg.SecurityUser},
		{"sasl.password", cfg.SecurityPass},
	}
	for _, s := range settings {
		if err := kafkaConfig.SetKey(s.key, s.value); err != nil {
			return fmt.Errorf("failed to set %s: %w", s.key, err)
		}
	}
	return nil
}

// Message represents a message to be sent to Kafka. Value is JSON encoded
// unless it already is raw bytes.
type Message struct {
	Key       string
	Value     interface{}
	Timestamp time.Time
	Headers   map[string]string
}

// encode builds the wire message for topic
func (m *Message) encode(topic string) (*kafka.Message, error) {
	var value []byte
	switch v := m.Value.(type) {
	case []byte:
		value = v
	case json.RawMessage:
		value = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message value: %w", err)
		}
		value = encoded
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          value,
		Timestamp:      m.Timestamp,
	}

	if m.Key != "" {
		msg.Key = []byte(m.Key)
	}

	if len(m.Headers) > 0 {
		msg.Headers = make([]kafka.Header, 0, len(m.Headers))
		for k, v := range m.Headers {
			msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
		}
	}

	return msg, nil
}

// Produce sends a message to a Kafka topic without waiting for delivery
func (p *Producer) Produce(topic string, message *Message) error {
	kafkaMessage, err := message.encode(topic)
	if err != nil {
		return err
	}

	p.logger.Debug("Producing message",
		zap.String("topic", topic),
		zap.String("key", message.Key),
		zap.Int("bytes", len(kafkaMessage.Value)),
	)

	if err := p.producer.Produce(kafkaMessage, nil); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	return nil
}

// ProduceSync sends a message and waits for its delivery report
func (p *Producer) ProduceSync(topic string, message *Message) error {
	kafkaMessage, err := message.encode(topic)
	if err != nil {
		return err
	}

	deliveryChan := make(chan kafka.Event, 1)
	if err := p.producer.Produce(kafkaMessage, deliveryChan); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	e := <-deliveryChan
	m, ok := e.(*kafka.Message)
	if !ok {
		return fmt.Errorf("unexpected delivery event: %v", e)
	}

	if m.TopicPartition.Error != nil {
		return fmt.Errorf("failed to deliver message: %w", m.TopicPartition.Error)
	}

	return nil
}

// Flush flushes the producer's message queue
func (p *Producer) Flush(timeoutMs int) int {
	return p.producer.Flush(timeoutMs)
}

// Close flushes outstanding messages and closes the producer
func (p *Producer) Close() {
	p.logger.Info("Flushing producer before closing")
	remaining := p.producer.Flush(5000)
	if remaining > 0 {
		p.logger.Warn("Failed to deliver all messages during flush", zap.Int("remaining", remaining))
	}

	p.producer.Close()
	p.logger.Info("Kafka producer closed")
}
