package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/corray333/backend-labs/canteen/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CANTEEN"

type Config struct {
	Service  string         `mapstructure:"service"`
	Server   ServerConfig   `mapstructure:"server"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
}

type HTTPConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type GRPCConfig struct {
	Enabled        bool            `mapstructure:"enabled"`
	Port           string          `mapstructure:"port"`
	HealthInterval time.Duration   `mapstructure:"health_interval"`
	Keepalive      KeepaliveConfig `mapstructure:"keepalive"`
}

type KeepaliveConfig struct {
	MaxConnectionIdle     time.Duration `mapstructure:"max_connection_idle"`
	MaxConnectionAge      time.Duration `mapstructure:"max_connection_age"`
	MaxConnectionAgeGrace time.Duration `mapstructure:"max_connection_age_grace"`
	Time                  time.Duration `mapstructure:"time"`
	Timeout               time.Duration `mapstructure:"timeout"`
	MinTime               time.Duration `mapstructure:"min_time"`
	PermitWithoutStream   bool          `mapstructure:"permit_without_stream"`
}

type PostgresConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	DB               string        `mapstructure:"db"`
	SSLMode          string        `mapstructure:"sslmode"`
	DSN              string        `mapstructure:"dsn"`
	MaxConns         int32         `mapstructure:"max_conns"`
	MinConns         int32         `mapstructure:"min_conns"`
	MaxConnLifetime  time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `mapstructure:"max_conn_idle_time"`
	ConnectRetries   int           `mapstructure:"connect_retries"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
	MigrationsPath   string        `mapstructure:"migrations_path"`
}

// ConnString returns DSN when set, otherwise builds one from the parts.
func (c PostgresConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode,
	)
}

type RabbitMQConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Queue    string `mapstructure:"queue"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	ReportTTL time.Duration `mapstructure:"report_ttl"`
}

type OutboxConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBase    time.Duration `mapstructure:"retry_base"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type StorageConfig struct {
	Driver string              `mapstructure:"driver"`
	Memory MemoryStorageConfig `mapstructure:"memory"`
}

// MemoryStorageConfig seeds the in-memory store.
type MemoryStorageConfig struct {
	Menu []MenuSeed `mapstructure:"menu"`
}

type MenuSeed struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Category    string `mapstructure:"category"`
	PriceCents  int64  `mapstructure:"price_cents"`
	Available   bool   `mapstructure:"available"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service", "canteen")

	v.SetDefault("server.http.port", "8080")
	v.SetDefault("server.http.read_timeout", 10*time.Second)
	v.SetDefault("server.http.write_timeout", 15*time.Second)
	v.SetDefault("server.http.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.http.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.http.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("server.http.cors.allowed_headers", []string{"Accept", "Content-Type", "X-Request-Id"})
	v.SetDefault("server.http.cors.exposed_headers", []string{"X-Request-Id"})
	v.SetDefault("server.http.cors.allow_credentials", false)
	v.SetDefault("server.http.cors.max_age", 300)

	v.SetDefault("server.grpc.enabled", true)
	v.SetDefault("server.grpc.port", "9090")
	v.SetDefault("server.grpc.health_interval", 5*time.Second)
	v.SetDefault("server.grpc.keepalive.max_connection_idle", 15*time.Minute)
	v.SetDefault("server.grpc.keepalive.max_connection_age", 30*time.Minute)
	v.SetDefault("server.grpc.keepalive.max_connection_age_grace", 5*time.Second)
	v.SetDefault("server.grpc.keepalive.time", 5*time.Minute)
	v.SetDefault("server.grpc.keepalive.timeout", 20*time.Second)
	v.SetDefault("server.grpc.keepalive.min_time", 5*time.Second)
	v.SetDefault("server.grpc.keepalive.permit_without_stream", true)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "canteen")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db", "canteen")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 25)
	v.SetDefault("postgres.min_conns", 5)
	v.SetDefault("postgres.max_conn_lifetime", time.Hour)
	v.SetDefault("postgres.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("postgres.connect_retries", 5)
	v.SetDefault("postgres.operation_timeout", 5*time.Second)
	v.SetDefault("postgres.migrations_path", "./migrations")

	v.SetDefault("rabbitmq.enabled", false)
	v.SetDefault("rabbitmq.host", "rabbitmq")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.queue", "canteen.order.events")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "redis:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.report_ttl", 10*time.Minute)

	v.SetDefault("outbox.poll_interval", 10*time.Second)
	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.max_retries", 5)
	v.SetDefault("outbox.retry_base", 30*time.Second)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "http://jaeger:14268/api/traces")
	v.SetDefault("tracing.service_name", "canteen")

	v.SetDefault("storage.driver", DriverPostgres)

	v.SetDefault("logging.level", "info")
}

// Load reads .env, config.yaml from the given directories (or /etc/canteen
// and the working directory) and CANTEEN_* environment variables.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error while loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"/etc/canteen", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error while reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error while decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Postgres.OperationTimeout <= 0 {
		return errors.New("postgres.operation_timeout must be positive")
	}
	if c.Outbox.BatchSize <= 0 {
		return errors.New("outbox.batch_size must be positive")
	}

	return nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err.Error())
	}
	SetupLogger(cfg)

	return cfg
}

func SetupLogger(cfg *Config) {
	handler := logger.NewHandler(&logger.Options{
		Level:   logger.ParseLevel(cfg.Logging.Level),
		Service: cfg.Service,
		Writer:  os.Stdout,
	})
	slog.SetDefault(slog.New(handler))
}
