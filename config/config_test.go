package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	cfg, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.HTTPPort)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "@every 1h", cfg.Scheduler.Spec)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.LeaseTTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_SQLITE_PATH", "/tmp/ledger.db")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SCHEDULER_SPEC", "@every 10m")

	cfg, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/ledger.db", cfg.Database.DSN())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "@every 10m", cfg.Scheduler.Spec)
}

func TestDatabaseConfig_PostgresDSN(t *testing.T) {
	c := DatabaseConfig{Driver: "pgx", Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.DSN())
}

func TestSchedulerConfig_Location(t *testing.T) {
	loc, err := SchedulerConfig{Timezone: "Local"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = SchedulerConfig{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}
