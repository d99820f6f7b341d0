package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/digital-egiz/sensorhub/internal/config"
	hubkafka "github.com/digital-egiz/sensorhub/internal/kafka"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config", "Path to the configuration directory")
	mode := flag.String("mode", "command", "Mode to run: command or tail")
	action := flag.String("action", hubkafka.ActionRefresh, "Command to send: refresh, start or stop")
	operator := flag.String("as", "hubctl", "Name recorded as the requester of a command")
	topic := flag.String("topic", hubkafka.TopicAlerts, "Topic to follow in tail mode")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set up logging
	logger, err := utils.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-signals:
			logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	switch *mode {
	case "command":
		if err := sendCommand(&cfg.Kafka, logger, *action, *operator); err != nil {
			logger.Fatal("Failed to send command", zap.Error(err))
		}
	case "tail":
		if err := tail(ctx, &cfg.Kafka, logger, *topic); err != nil {
			logger.Fatal("Failed to follow topic", zap.Error(err))
		}
	default:
		fmt.Printf("Unknown mode %q\n", *mode)
		os.Exit(2)
	}
}

// sendCommand produces one command on the commands topic and waits for delivery
func sendCommand(cfg *config.KafkaConfig, logger *utils.Logger, action, operator string) error {
	parser, err := hubkafka.NewCommandParser()
	if err != nil {
		return err
	}

	cmd := &hubkafka.Command{Action: action, RequestedBy: operator}
	if err := parser.Validate(cmd); err != nil {
		return err
	}

	producer, err := hubkafka.NewProducer(cfg, logger)
	if err != nil {
		return err
	}
	defer producer.Close()

	err = producer.ProduceSync(hubkafka.TopicCommands, &hubkafka.Message{
		Key:       operator,
		Value:     cmd,
		Timestamp: time.Now(),
		Headers:   map[string]string{"producer": "hubctl"},
	})
	if err != nil {
		return err
	}

	logger.Info("Command delivered", zap.String("action", action), zap.String("requested_by", operator))
	return nil
}

// tail logs every message of topic until ctx ends
func tail(ctx context.Context, cfg *config.KafkaConfig, logger *utils.Logger, topic string) error {
	consumer, err := hubkafka.NewConsumer(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer consumer.Close()

	consumer.RegisterHandler(topic, func(msg *kafka.Message) error {
		logger.Info("Received message",
			zap.String("topic", topic),
			zap.ByteString("key", msg.Key),
			zap.ByteString("value", msg.Value),
			zap.Time("timestamp", msg.Timestamp))
		return nil
	})

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	logger.Info("Following topic", zap.String("topic", topic))

	<-ctx.Done()
	return nil
}
