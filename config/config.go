package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Database  DatabaseConfig  `envPrefix:"DATABASE_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
	Scheduler SchedulerConfig `envPrefix:"SCHEDULER_"`
	Client    ClientConfig    `envPrefix:"POS_"`
}

type ServerConfig struct {
	AppEnv   string `env:"APP_ENV" envDefault:"dev"`
	HTTPHost string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`
	GRPCPort string `env:"GRPC_PORT" envDefault:":8082"`
	SeedDemo bool   `env:"SEED_DEMO" envDefault:"false"`
}

type LoggerConfig struct {
	Level             string `env:"LOGGER_LEVEL" envDefault:"debug"`
	Encoding          string `env:"LOGGER_ENCODING" envDefault:"console"`
	DisableCaller     bool   `env:"LOGGER_DISABLE_CALLER" envDefault:"false"`
	DisableStacktrace bool   `env:"LOGGER_DISABLE_STACKTRACE" envDefault:"true"`
}

// DatabaseConfig selects the ledger backend. Driver "pgx" uses the Postgres
// fields, driver "sqlite3" uses SQLitePath.
type DatabaseConfig struct {
	Driver          string        `env:"DRIVER" envDefault:"pgx"`
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            string        `env:"PORT" envDefault:"5433"`
	User            string        `env:"USER" envDefault:"omnipos"`
	Password        string        `env:"PASSWORD" envDefault:"omnipos"`
	DBName          string        `env:"NAME" envDefault:"omnipos_checkout"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	SQLitePath      string        `env:"SQLITE_PATH" envDefault:"omnipos.db"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"1m"`
}

// RedisConfig is optional. An empty Addr disables the scheduler lease.
type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// KafkaConfig is optional. No brokers disables transaction events.
type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC_TRANSACTIONS" envDefault:"transactions.events"`
}

type SchedulerConfig struct {
	Enabled  bool          `env:"ENABLED" envDefault:"true"`
	Spec     string        `env:"SPEC" envDefault:"@every 1h"`
	LeaseKey string        `env:"LEASE_KEY" envDefault:"lock:scheduler:notifications"`
	LeaseTTL time.Duration `env:"LEASE_TTL" envDefault:"5m"`
	Timezone string        `env:"TIMEZONE" envDefault:"Local"`
}

// ClientConfig configures the posclient terminal.
type ClientConfig struct {
	ServerURL   string        `env:"SERVER_URL" envDefault:"http://localhost:8080"`
	QueuePath   string        `env:"QUEUE_PATH" envDefault:"posclient-queue.db"`
	TenantID    string        `env:"TENANT_ID"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
}

func LoadEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Location resolves the scheduler timezone used for calendar-day boundaries.
func (c SchedulerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// DSN builds the connection string for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "sqlite3" {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
