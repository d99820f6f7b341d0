package db

import (
	"context"
	"fmt"
	"time"

	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/db/models"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps a GORM DB connection with additional functionality
type Database struct {
	*gorm.DB
	logger *utils.Logger
	config *config.DatabaseConfig
}

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.DatabaseConfig, log *utils.Logger) (*Database, error) {
	dbLogger := log.Named("database")

	// Configure GORM logger
	gormLogger := logger.New(
		&logAdapter{logger: dbLogger},
		logger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gormConfig := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dbLogger.Info("Connecting to database",
			zap.String("driver", cfg.Driver),
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.String("dbname", cfg.DBName),
			zap.String("user", cfg.User),
		)
		dialector = postgres.Open(cfg.GetDSN())
		gormConfig.PrepareStmt = true
	case "sqlite", "":
		dbLogger.Info("Opening database", zap.String("driver", "sqlite"), zap.String("path", cfg.Path))
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB instance: %w", err)
	}

	if cfg.Driver == "postgres" {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	database := &Database{
		DB:     db,
		logger: dbLogger,
		config: cfg,
	}

	if err := database.VerifyConnection(); err != nil {
		return nil, err
	}

	return database, nil
}

// Wrap adapts an already open GORM connection, mainly for tests
func Wrap(gdb *gorm.DB, cfg *config.DatabaseConfig, log *utils.Logger) *Database {
	return &Database{DB: gdb, logger: log.Named("database"), config: cfg}
}

// VerifyConnection checks if the database connection is working
func (db *Database) VerifyConnection() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB instance: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	db.logger.Info("Successfully connected to database")
	return nil
}

// Ping checks the connection without logging, for health checks
func (db *Database) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// AutoMigrate creates or updates the telemetry tables
func (db *Database) AutoMigrate() error {
	db.logger.Info("Running auto migrations")

	if db.isPostgres() {
		// Register TimescaleDB extension if not already enabled
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE;").Error; err != nil {
			db.logger.Warn("Failed to create TimescaleDB extension, time-series optimization disabled", zap.Error(err))
		}
	}

	if err := db.DB.AutoMigrate(
		&models.SnapshotRecord{},
		&models.TimeseriesData{},
		&models.AlertData{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}

	if db.isPostgres() {
		if err := db.CreateHypertables(); err != nil {
			db.logger.Warn("Failed to create hypertables", zap.Error(err))
		}
	}

	return nil
}

// CreateHypertables turns the sample table into a TimescaleDB hypertable
func (db *Database) CreateHypertables() error {
	var extensionExists bool
	if err := db.DB.Raw("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'timescaledb');").Scan(&extensionExists).Error; err != nil {
		return fmt.Errorf("failed to check TimescaleDB extension: %w", err)
	}

	if !extensionExists {
		return fmt.Errorf("TimescaleDB extension not installed")
	}

	table := models.TimeseriesData{}.TableName()

	var hypertableExists bool
	if err := db.DB.Raw("SELECT EXISTS(SELECT 1 FROM timescaledb_information.hypertables WHERE hypertable_name = ?);", table).Scan(&hypertableExists).Error; err != nil {
		return fmt.Errorf("failed to check if hypertable exists for %s: %w", table, err)
	}

	if !hypertableExists {
		if err := db.DB.Exec(fmt.Sprintf("SELECT create_hypertable('%s', 'time', migrate_data => true);", table)).Error; err != nil {
			return fmt.Errorf("failed to create hypertable for %s: %w", table, err)
		}
		db.logger.Info("Created hypertable", zap.String("table", table))
	}

	return nil
}

// Close closes the database connection
func (db *Database) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	db.logger.Info("Database connection closed")
	return nil
}

func (db *Database) isPostgres() bool {
	return db.config != nil && db.config.Driver == "postgres"
}

// logAdapter adapts our logger to GORM's logger interface
type logAdapter struct {
	logger *utils.Logger
}

// Printf implements GORM's logger interface
func (l *logAdapter) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}
