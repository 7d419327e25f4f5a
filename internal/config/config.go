// Package config loads the wallet ledger settings for both binaries from env files
// and environment variables, and rejects incomplete configurations at startup.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds the complete application configuration.
// Each field is one subsystem and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Ledger      LedgerConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
}

type ApplicationConfig struct {
	Env  string
	Name string
}

type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// KafkaConfig contains ledger event stream settings
type KafkaConfig struct {
	Brokers           string
	LedgerEventsTopic string
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
	HandlerMaxRetries int
	HandlerRetryDelay time.Duration
}

type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig backs the HTTP idempotency response cache
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	IdempotencyTTL time.Duration
}

// AuthConfig holds the bearer token verification settings
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

// LedgerConfig bounds every atomic ledger unit
type LedgerConfig struct {
	UnitTimeout      time.Duration // request-scoped deadline for one unit
	MaxTxRetries     int           // retries on serialization failure or deadlock
	RetryBaseDelay   time.Duration
	RevenueAccountID uuid.UUID // credited with every fee
}

type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

type WorkerPoolConfig struct {
	Size int
}

// validate collects every violation instead of stopping at the first one
func (c *Config) validate() error {
	var validationErrors []string
	require := func(ok bool, msg string) {
		if !ok {
			validationErrors = append(validationErrors, msg)
		}
	}

	require(c.Server.Port > 0, "SERVER_PORT must be greater than 0")
	require(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	require(c.Server.ReadTimeout > 0, "SERVER_READ_TIMEOUT must be greater than 0")
	require(c.Server.WriteTimeout > 0, "SERVER_WRITE_TIMEOUT must be greater than 0")
	require(c.Server.IdleTimeout > 0, "SERVER_IDLE_TIMEOUT must be greater than 0")

	require(c.Kafka.Brokers != "", "KAFKA_BROKERS is required")
	require(c.Kafka.LedgerEventsTopic != "", "KAFKA_LEDGER_EVENTS_TOPIC is required")
	require(c.Kafka.ConsumerGroup != "", "KAFKA_CONSUMER_GROUP is required")
	require(c.Kafka.MinBytes > 0, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	require(c.Kafka.MaxBytes > 0, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	require(c.Kafka.MaxWait > 0, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	require(c.Kafka.DLQTopic != "", "KAFKA_DLQ_TOPIC is required")
	require(c.Kafka.HandlerMaxRetries >= 0, "KAFKA_HANDLER_MAX_RETRIES must not be negative")
	require(c.Kafka.HandlerRetryDelay > 0, "KAFKA_HANDLER_RETRY_DELAY must be greater than 0")

	require(c.Postgres.URL != "", "POSTGRES_URL is required")
	require(c.Postgres.MaxConns > 0, "POSTGRES_MAX_CONNS must be greater than 0")
	require(c.Postgres.MinConns > 0, "POSTGRES_MIN_CONNS must be greater than 0")
	require(c.Postgres.ConnMaxLifetime > 0, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	require(c.Postgres.ConnMaxIdleTime > 0, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")

	require(c.MongoDB.URI != "", "MONGO_URI is required")
	require(c.MongoDB.Database != "", "MONGO_DATABASE is required")
	require(c.MongoDB.Timeout > 0, "MONGO_TIMEOUT must be greater than 0")
	require(c.MongoDB.MaxPoolSize > 0, "MONGO_MAX_POOL_SIZE must be greater than 0")
	require(c.MongoDB.MinPoolSize > 0, "MONGO_MIN_POOL_SIZE must be greater than 0")
	require(c.MongoDB.MaxConnIdleTime > 0, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")

	require(c.Redis.Addr != "", "REDIS_ADDR is required")
	require(c.Redis.DB >= 0, "REDIS_DB must not be negative")
	require(c.Redis.IdempotencyTTL > 0, "REDIS_IDEMPOTENCY_TTL must be greater than 0")

	require(len(c.Auth.JWTSecret) >= 16, "AUTH_JWT_SECRET must be at least 16 characters")

	require(c.Ledger.UnitTimeout > 0, "LEDGER_UNIT_TIMEOUT must be greater than 0")
	require(c.Ledger.MaxTxRetries >= 0, "LEDGER_MAX_TX_RETRIES must not be negative")
	require(c.Ledger.RetryBaseDelay > 0, "LEDGER_RETRY_BASE_DELAY must be greater than 0")
	require(c.Ledger.RevenueAccountID != uuid.Nil, "WALLET_REVENUE_ACCOUNT_ID must be a non-nil UUID")

	require(c.Outbox.PollingInterval > 0, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	require(c.Outbox.BatchSize > 0, "OUTBOX_BATCH_SIZE must be greater than 0")
	require(c.Outbox.MaxRetryAttempts > 0, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")

	require(c.WorkerPool.Size > 0, "WORKER_POOL_SIZE must be greater than 0")

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}
	return nil
}
