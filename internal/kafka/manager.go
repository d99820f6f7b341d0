package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/simulator"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"go.uber.org/zap"
)

// Manager publishes simulator frames to Kafka and consumes simulator
// commands. It implements simulator.Sink.
type Manager struct {
	config       *config.KafkaConfig
	logger       *utils.Logger
	mainProducer *Producer
	dlqProducer  *Producer
	consumer     *Consumer
	parser       *CommandParser
	mu           sync.Mutex
	isRunning    bool
}

var _ simulator.Sink = (*Manager)(nil)

// NewManager creates a new Kafka manager
func NewManager(cfg *config.KafkaConfig, logger *utils.Logger) (*Manager, error) {
	kafkaLogger := logger.Named("kafka_manager")

	parser, err := NewCommandParser()
	if err != nil {
		return nil, fmt.Errorf("failed to build command schema: %w", err)
	}

	mainProducer, err := NewProducer(cfg, kafkaLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create main producer: %w", err)
	}

	dlqProducer, err := NewProducer(cfg, kafkaLogger)
	if err != nil {
		mainProducer.Close()
		return nil, fmt.Errorf("failed to create DLQ producer: %w", err)
	}

	return &Manager{
		config:       cfg,
		logger:       kafkaLogger,
		mainProducer: mainProducer,
		dlqProducer:  dlqProducer,
		parser:       parser,
	}, nil
}

// Name implements simulator.Sink
func (m *Manager) Name() string {
	return "kafka"
}

// Publish implements simulator.Sink
func (m *Manager) Publish(ctx context.Context, frame *simulator.Frame) error {
	for _, tm := range frameMessages(frame) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.mainProducer.Produce(tm.topic, tm.message); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", tm.topic, err)
		}
	}
	return nil
}

// RegisterCommandHandler consumes the commands topic and passes every valid
// command to handler. Invalid commands go to the dead-letter topic.
func (m *Manager) RegisterCommandHandler(handler CommandHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.consumer == nil {
		consumer, err := NewConsumer(m.config, m.logger, m.dlqProducer)
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
		m.consumer = consumer
	}

	m.consumer.RegisterHandler(TopicCommands, func(msg *kafka.Message) error {
		cmd, err := m.parser.Parse(msg.Value)
		if err != nil {
			return err
		}

		m.logger.Info("Received command",
			zap.String("action", cmd.Action),
			zap.String("requested_by", cmd.RequestedBy),
		)
		return handler(cmd)
	})

	return nil
}

// Start starts the command consumer, if any handler is registered
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("kafka manager is already running")
	}

	if m.consumer != nil {
		if err := m.consumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start command consumer: %w", err)
		}
	}

	m.isRunning = true
	m.logger.Info("Kafka manager started")
	return nil
}

// Close stops the consumer and flushes both producers
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.consumer != nil {
		if err := m.consumer.Close(); err != nil {
			m.logger.Error("Failed to close consumer", zap.Error(err))
		}
		m.consumer = nil
	}

	m.mainProducer.Close()
	m.dlqProducer.Close()
	m.isRunning = false

	m.logger.Info("Kafka manager closed")
}
