package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Influx     InfluxConfig     `mapstructure:"influx"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Export     ExportConfig     `mapstructure:"export"`
	Simulator  SimulatorConfig  `mapstructure:"simulator"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
	Environment  string `mapstructure:"environment"`
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // "sqlite" or "postgres"
	Path     string `mapstructure:"path"`   // sqlite only
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Brokers        string `mapstructure:"brokers"`
	ConsumerGroup  string `mapstructure:"consumer_group"`
	SecurityEnable bool   `mapstructure:"security_enable"`
	SecurityUser   string `mapstructure:"security_user"`
	SecurityPass   string `mapstructure:"security_pass"`
}

// MQTTConfig holds the MQTT publisher configuration
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BrokerURL   string `mapstructure:"broker_url"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         byte   `mapstructure:"qos"`
	Retained    bool   `mapstructure:"retained"`
}

// InfluxConfig holds InfluxDB v2 configuration
type InfluxConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	URL         string `mapstructure:"url"`
	Token       string `mapstructure:"token"`
	Org         string `mapstructure:"org"`
	Bucket      string `mapstructure:"bucket"`
	Measurement string `mapstructure:"measurement"`
}

// RedisConfig holds the latest-frame cache configuration
type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	Namespace string `mapstructure:"namespace"`
	TTL       int    `mapstructure:"ttl"` // seconds
	Timeout   int    `mapstructure:"timeout"`
}

// ExportConfig holds the Parquet/MinIO export configuration
type ExportConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	UseTLS      bool   `mapstructure:"use_tls"`
	Bucket      string `mapstructure:"bucket"`
	BasePath    string `mapstructure:"base_path"`
	Compression string `mapstructure:"compression"`
	TempDir     string `mapstructure:"temp_dir"`
}

// SimulatorConfig holds the live-update scheduler configuration
type SimulatorConfig struct {
	Interval       int   `mapstructure:"interval"` // milliseconds
	Seed           int64 `mapstructure:"seed"`     // 0 means time-seeded
	AutoStart      bool  `mapstructure:"auto_start"`
	FrameBuffer    int   `mapstructure:"frame_buffer"`
	RetentionHours int   `mapstructure:"retention_hours"`
	Persist        bool  `mapstructure:"persist"`
}

// ThresholdsConfig overrides the alert thresholds of the generator
type ThresholdsConfig struct {
	HighTempC       float64 `mapstructure:"high_temp_c"`
	LowHumidity     float64 `mapstructure:"low_humidity"`
	SoilDry         float64 `mapstructure:"soil_dry"`
	HighWaterM      float64 `mapstructure:"high_water_m"`
	BatteryLowPct   float64 `mapstructure:"battery_low_pct"`
	HubAmbientMaxC  float64 `mapstructure:"hub_ambient_max_c"`
	HubAmbientMinC  float64 `mapstructure:"hub_ambient_min_c"`
	HubBatteryLowV  float64 `mapstructure:"hub_battery_low_v"`
	HubTurbidityNTU float64 `mapstructure:"hub_turbidity_ntu"`
}

// JWTConfig holds JWT authentication configuration
type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
	Issuer          string `mapstructure:"issuer"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// LoadConfig loads the application configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	if configPath == "" {
		configPath = "./config"
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	// Environment overrides, e.g. SENSORHUB_SIMULATOR_INTERVAL
	v.SetEnvPrefix("SENSORHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults and env vars apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	v.AutomaticEnv()

	setDefaults(v)

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 15)  // seconds
	v.SetDefault("server.write_timeout", 15) // seconds
	v.SetDefault("server.idle_timeout", 60)  // seconds
	v.SetDefault("server.environment", "development")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "file::memory:?cache=shared")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "sensorhub")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "kafka:9092")
	v.SetDefault("kafka.consumer_group", "sensorhub")
	v.SetDefault("kafka.security_enable", false)

	// MQTT defaults
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker_url", "tcp://mqtt:1883")
	v.SetDefault("mqtt.client_id", "sensorhub-simulator")
	v.SetDefault("mqtt.topic_prefix", "sensorhub")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.retained", true)

	// Influx defaults
	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.url", "http://influxdb:8086")
	v.SetDefault("influx.org", "sensorhub")
	v.SetDefault("influx.bucket", "telemetry")
	v.SetDefault("influx.measurement", "sensor_hub")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "redis:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.namespace", "sensorhub")
	v.SetDefault("redis.ttl", 300)
	v.SetDefault("redis.timeout", 5)

	// Export defaults
	v.SetDefault("export.enabled", false)
	v.SetDefault("export.endpoint", "minio:9000")
	v.SetDefault("export.bucket", "sensorhub-exports")
	v.SetDefault("export.base_path", "telemetry")
	v.SetDefault("export.compression", "SNAPPY")
	v.SetDefault("export.temp_dir", os.TempDir())

	// Simulator defaults
	v.SetDefault("simulator.interval", 3000)
	v.SetDefault("simulator.seed", 0)
	v.SetDefault("simulator.auto_start", true)
	v.SetDefault("simulator.frame_buffer", 100)
	v.SetDefault("simulator.retention_hours", 72)
	v.SetDefault("simulator.persist", true)

	// Threshold defaults
	v.SetDefault("thresholds.high_temp_c", 38)
	v.SetDefault("thresholds.low_humidity", 20)
	v.SetDefault("thresholds.soil_dry", 15)
	v.SetDefault("thresholds.high_water_m", 2.2)
	v.SetDefault("thresholds.battery_low_pct", 25)
	v.SetDefault("thresholds.hub_ambient_max_c", 38)
	v.SetDefault("thresholds.hub_ambient_min_c", 18)
	v.SetDefault("thresholds.hub_battery_low_v", 3.5)
	v.SetDefault("thresholds.hub_turbidity_ntu", 12)

	// Secrets default to empty so environment variables can supply them
	for _, key := range []string{
		"jwt.secret", "database.password", "kafka.security_user", "kafka.security_pass",
		"mqtt.username", "mqtt.password", "influx.token", "redis.password",
		"export.access_key", "export.secret_key",
	} {
		v.SetDefault(key, "")
	}

	// JWT defaults
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("jwt.issuer", "sensorhub")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "stdout")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.JWT.Secret == "" {
		if config.Server.IsDevelopment() || config.Server.IsTest() {
			config.JWT.Secret = "development-jwt-secret-key-change-in-production"
		} else {
			return fmt.Errorf("JWT secret is required in non-development environments")
		}
	}

	switch config.Database.Driver {
	case "sqlite":
	case "postgres":
		if config.Database.Password == "" {
			dbPassword := os.Getenv("SENSORHUB_DATABASE_PASSWORD")
			if dbPassword == "" {
				if config.Server.IsProduction() {
					return fmt.Errorf("database password is required in production")
				}
			} else {
				config.Database.Password = dbPassword
			}
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	if config.Simulator.Interval < 100 {
		return fmt.Errorf("simulator interval must be at least 100ms, got %d", config.Simulator.Interval)
	}

	if config.Simulator.FrameBuffer <= 0 {
		config.Simulator.FrameBuffer = 100
	}

	if config.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", config.MQTT.QoS)
	}

	if config.Export.Enabled && (config.Export.AccessKey == "" || config.Export.SecretKey == "") {
		return fmt.Errorf("export access and secret keys are required when export is enabled")
	}

	return nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode, c.TimeZone)
}

// TickInterval returns the simulator tick as a duration
func (c *SimulatorConfig) TickInterval() time.Duration {
	return time.Duration(c.Interval) * time.Millisecond
}

// IsProduction returns true if the environment is production
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if the environment is development
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsTest returns true if the environment is test
func (c *ServerConfig) IsTest() bool {
	return c.Environment == "test"
}
