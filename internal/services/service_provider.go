package services

import (
	"context"
	"fmt"
	"time"

	"github.com/digital-egiz/sensorhub/internal/cache"
	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/db"
	"github.com/digital-egiz/sensorhub/internal/db/repository"
	"github.com/digital-egiz/sensorhub/internal/export"
	"github.com/digital-egiz/sensorhub/internal/influx"
	"github.com/digital-egiz/sensorhub/internal/kafka"
	"github.com/digital-egiz/sensorhub/internal/mqtt"
	"github.com/digital-egiz/sensorhub/internal/simulator"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"go.uber.org/zap"
)

// ServiceProvider manages all services for the application
type ServiceProvider struct {
	logger              *utils.Logger
	config              *config.Config
	database            *db.Database
	simulator           *simulator.Simulator
	frameCache          cache.FrameCache
	redisCache          *cache.RedisCache
	kafkaManager        *kafka.Manager
	mqttPublisher       *mqtt.Publisher
	influxWriter        *influx.Writer
	snapshotService     *SnapshotService
	historyService      *HistoryService
	liveService         *LiveService
	notificationService *NotificationService
	exportService       *export.Service
}

// NewServiceProvider creates a new service provider
func NewServiceProvider(
	logger *utils.Logger,
	config *config.Config,
	database *db.Database,
) *ServiceProvider {
	return &ServiceProvider{
		logger:   logger.Named("services"),
		config:   config,
		database: database,
	}
}

// Initialize builds the simulator and every enabled sink. ctx bounds the
// lifetime of background work.
func (sp *ServiceProvider) Initialize(ctx context.Context) error {
	cfg := sp.config
	repoFactory := repository.NewRepositoryFactory(sp.database.DB)

	sp.simulator = simulator.New(NewGenerator(cfg), &cfg.Simulator, sp.logger)

	// Frame cache first so readers see a frame as soon as sinks do
	if cfg.Redis.Enabled {
		sp.redisCache = cache.NewRedisCache(&cfg.Redis, cfg.Simulator.FrameBuffer)
		if err := sp.redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		sp.frameCache = sp.redisCache
		sp.logger.Info("Redis frame cache enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		sp.frameCache = cache.NewMemoryCache(cfg.Simulator.FrameBuffer)
	}
	sp.simulator.AddSink(sp.frameCache)

	if cfg.Simulator.Persist {
		retention := time.Duration(cfg.Simulator.RetentionHours) * time.Hour
		sp.snapshotService = NewSnapshotService(sp.logger, repoFactory, retention)
		sp.simulator.AddSink(sp.snapshotService)
	}

	sp.historyService = NewHistoryService(sp.logger, repoFactory)
	sp.logger.Info("History service initialized")

	sp.notificationService = NewNotificationService(sp.logger)
	sp.simulator.AddSink(sp.notificationService)
	sp.logger.Info("Notification service initialized")

	sp.liveService = NewLiveService(ctx, sp.logger, sp.simulator, sp.frameCache)

	if err := sp.initTransports(ctx); err != nil {
		return err
	}

	if cfg.Export.Enabled {
		store, err := export.NewMinIOStore(&cfg.Export)
		if err != nil {
			return fmt.Errorf("failed to create export store: %w", err)
		}
		sp.exportService = export.NewService(repoFactory.Timeseries(), store, &cfg.Export, sp.logger)
		sp.logger.Info("Export service initialized", zap.String("bucket", cfg.Export.Bucket))
	}

	sp.simulator.Announce(ctx)

	if cfg.Simulator.AutoStart {
		if err := sp.simulator.Start(ctx); err != nil {
			return fmt.Errorf("failed to start simulator: %w", err)
		}
	}

	sp.logger.Info("All services initialized successfully")
	return nil
}

// initTransports connects the optional outbound sinks
func (sp *ServiceProvider) initTransports(ctx context.Context) error {
	cfg := sp.config

	if cfg.Kafka.Enabled {
		manager, err := kafka.NewManager(&cfg.Kafka, sp.logger)
		if err != nil {
			return fmt.Errorf("failed to create Kafka manager: %w", err)
		}
		sp.kafkaManager = manager

		if err := manager.RegisterCommandHandler(sp.liveService.HandleCommand); err != nil {
			return fmt.Errorf("failed to register command handler: %w", err)
		}
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start Kafka manager: %w", err)
		}
		sp.simulator.AddSink(manager)
		sp.logger.Info("Kafka manager started")
	}

	if cfg.MQTT.Enabled {
		sp.mqttPublisher = mqtt.NewPublisher(&cfg.MQTT, sp.logger)
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := sp.mqttPublisher.Connect(connectCtx); err != nil {
			return fmt.Errorf("failed to connect to MQTT broker: %w", err)
		}
		sp.simulator.AddSink(sp.mqttPublisher)
	}

	if cfg.Influx.Enabled {
		sp.influxWriter = influx.NewWriter(&cfg.Influx, sp.logger)
		if err := sp.influxWriter.Ping(ctx); err != nil {
			sp.logger.Warn("InfluxDB not reachable yet, writes will be retried per frame", zap.Error(err))
		}
		sp.simulator.AddSink(sp.influxWriter)
	}

	return nil
}

// Shutdown performs a graceful shutdown of all services
func (sp *ServiceProvider) Shutdown() error {
	sp.logger.Info("Shutting down services")

	if sp.simulator != nil && sp.simulator.IsRunning() {
		sp.logger.Info("Stopping simulator")
		if err := sp.simulator.Stop(); err != nil {
			sp.logger.Error("Failed to stop simulator", zap.Error(err))
		}
	}

	if sp.kafkaManager != nil {
		sp.kafkaManager.Close()
	}
	if sp.mqttPublisher != nil {
		sp.mqttPublisher.Close()
	}
	if sp.influxWriter != nil {
		sp.influxWriter.Close()
	}
	if sp.redisCache != nil {
		if err := sp.redisCache.Close(); err != nil {
			sp.logger.Error("Failed to close Redis client", zap.Error(err))
		}
	}
	if sp.notificationService != nil {
		sp.notificationService.Close()
	}

	sp.logger.Info("Services shut down successfully")
	return nil
}

// GetSimulator returns the simulator
func (sp *ServiceProvider) GetSimulator() *simulator.Simulator {
	return sp.simulator
}

// GetKafkaManager returns the Kafka manager, nil when Kafka is disabled
func (sp *ServiceProvider) GetKafkaManager() *kafka.Manager {
	return sp.kafkaManager
}

// GetHistoryService returns the history service
func (sp *ServiceProvider) GetHistoryService() *HistoryService {
	return sp.historyService
}

// GetLiveService returns the live service
func (sp *ServiceProvider) GetLiveService() *LiveService {
	return sp.liveService
}

// GetNotificationService returns the notification service
func (sp *ServiceProvider) GetNotificationService() *NotificationService {
	return sp.notificationService
}

// GetExportService returns the export service, nil when export is disabled
func (sp *ServiceProvider) GetExportService() *export.Service {
	return sp.exportService
}
