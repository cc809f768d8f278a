package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "ringside-dev-secret-change-me"

// Config holds all application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	OTel        OTelConfig        `mapstructure:"otel"`
	Reservation ReservationConfig `mapstructure:"reservation"`
	Draft       DraftConfig       `mapstructure:"draft"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	Version     string `mapstructure:"version"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// Addr returns the listen address
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection settings.
// When disabled the in-memory stores are used instead.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	PoolSize      int           `mapstructure:"pool_size"`
	MinIdleConns  int           `mapstructure:"min_idle_conns"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EventCacheTTL time.Duration `mapstructure:"event_cache_ttl"`
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// KafkaConfig holds Kafka/Redpanda connection settings
type KafkaConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Brokers    []string `mapstructure:"brokers"`
	ClientID   string   `mapstructure:"client_id"`
	OrderTopic string   `mapstructure:"order_topic"`
}

// JWTConfig holds JWT verification settings
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	ServiceName   string  `mapstructure:"service_name"`
	CollectorAddr string  `mapstructure:"collector_addr"`
	SampleRatio   float64 `mapstructure:"sample_ratio"`
}

// ReservationConfig holds seat hold settings
type ReservationConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	HoldTTL         time.Duration `mapstructure:"hold_ttl"`
	ReleaseInterval time.Duration `mapstructure:"release_interval"`
	ReleaseBatch    int           `mapstructure:"release_batch"`
}

// DraftConfig holds organizer draft storage settings
type DraftConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// .env is optional, environment variables still apply
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !strings.Contains(err.Error(), "no such file") {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
	}

	return load(v)
}

// LoadWithPath loads configuration from a specific path
func LoadWithPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	if err := bindConfig(v, cfg); err != nil {
		return nil, fmt.Errorf("failed to bind config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_NAME", "ringside")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_VERSION", "1.0.0")

	// Server defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "30s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	// Database defaults
	v.SetDefault("DATABASE_ENABLED", true)
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_DBNAME", "ringside")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 50)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DATABASE_CONN_MAX_IDLE_TIME", "30m")

	// Redis defaults
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 50)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 5)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")
	v.SetDefault("REDIS_EVENT_CACHE_TTL", "5m")

	// Kafka defaults
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_CLIENT_ID", "ringside")
	v.SetDefault("KAFKA_ORDER_TOPIC", "order.created")

	// JWT defaults
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "ringside")

	// OTel defaults
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "ringside")
	v.SetDefault("OTEL_COLLECTOR_ADDR", "localhost:4317")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)

	// Reservation defaults
	v.SetDefault("RESERVATION_ENABLED", true)
	v.SetDefault("RESERVATION_HOLD_TTL", "10m")
	v.SetDefault("RESERVATION_RELEASE_INTERVAL", "30s")
	v.SetDefault("RESERVATION_RELEASE_BATCH", 100)

	// Draft defaults
	v.SetDefault("DRAFT_TTL", "168h") // 7 days
}

func bindConfig(v *viper.Viper, cfg *Config) error {
	// App
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENVIRONMENT")
	cfg.App.Debug = v.GetBool("APP_DEBUG")
	cfg.App.Version = v.GetString("APP_VERSION")

	// Server
	cfg.Server.Host = v.GetString("SERVER_HOST")
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.IdleTimeout = v.GetDuration("SERVER_IDLE_TIMEOUT")

	// Database
	cfg.Database.Enabled = v.GetBool("DATABASE_ENABLED")
	cfg.Database.Host = v.GetString("DATABASE_HOST")
	cfg.Database.Port = v.GetInt("DATABASE_PORT")
	cfg.Database.User = v.GetString("DATABASE_USER")
	cfg.Database.Password = v.GetString("DATABASE_PASSWORD")
	cfg.Database.DBName = v.GetString("DATABASE_DBNAME")
	cfg.Database.SSLMode = v.GetString("DATABASE_SSLMODE")
	cfg.Database.MaxOpenConns = v.GetInt("DATABASE_MAX_OPEN_CONNS")
	cfg.Database.MaxIdleConns = v.GetInt("DATABASE_MAX_IDLE_CONNS")
	cfg.Database.ConnMaxLifetime = v.GetDuration("DATABASE_CONN_MAX_LIFETIME")
	cfg.Database.ConnMaxIdleTime = v.GetDuration("DATABASE_CONN_MAX_IDLE_TIME")

	// Redis
	cfg.Redis.Enabled = v.GetBool("REDIS_ENABLED")
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetInt("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	cfg.Redis.MinIdleConns = v.GetInt("REDIS_MIN_IDLE_CONNS")
	cfg.Redis.DialTimeout = v.GetDuration("REDIS_DIAL_TIMEOUT")
	cfg.Redis.ReadTimeout = v.GetDuration("REDIS_READ_TIMEOUT")
	cfg.Redis.WriteTimeout = v.GetDuration("REDIS_WRITE_TIMEOUT")
	cfg.Redis.EventCacheTTL = v.GetDuration("REDIS_EVENT_CACHE_TTL")

	// Kafka
	cfg.Kafka.Enabled = v.GetBool("KAFKA_ENABLED")
	cfg.Kafka.Brokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.Kafka.ClientID = v.GetString("KAFKA_CLIENT_ID")
	cfg.Kafka.OrderTopic = v.GetString("KAFKA_ORDER_TOPIC")

	// JWT
	cfg.JWT.Secret = v.GetString("JWT_SECRET")
	cfg.JWT.Issuer = v.GetString("JWT_ISSUER")

	// OTel
	cfg.OTel.Enabled = v.GetBool("OTEL_ENABLED")
	cfg.OTel.ServiceName = v.GetString("OTEL_SERVICE_NAME")
	cfg.OTel.CollectorAddr = v.GetString("OTEL_COLLECTOR_ADDR")
	cfg.OTel.SampleRatio = v.GetFloat64("OTEL_SAMPLE_RATIO")

	// Reservation
	cfg.Reservation.Enabled = v.GetBool("RESERVATION_ENABLED")
	cfg.Reservation.HoldTTL = v.GetDuration("RESERVATION_HOLD_TTL")
	cfg.Reservation.ReleaseInterval = v.GetDuration("RESERVATION_RELEASE_INTERVAL")
	cfg.Reservation.ReleaseBatch = v.GetInt("RESERVATION_RELEASE_BATCH")

	// Draft
	cfg.Draft.TTL = v.GetDuration("DRAFT_TTL")

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.IsProduction() && c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("JWT secret must be changed in production")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when Kafka is enabled")
	}

	if c.Reservation.Enabled {
		if c.Reservation.HoldTTL <= 0 {
			return fmt.Errorf("invalid reservation hold TTL: %s", c.Reservation.HoldTTL)
		}
		if c.Reservation.ReleaseInterval <= 0 {
			return fmt.Errorf("invalid reservation release interval: %s", c.Reservation.ReleaseInterval)
		}
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
