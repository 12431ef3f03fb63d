package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 5, cfg.Ledger.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.Ledger.InitialInterval)
	assert.Equal(t, 200*time.Millisecond, cfg.Ledger.MaxInterval)
	assert.InDelta(t, 0.5, cfg.Ledger.Jitter, 1e-9)
	assert.Equal(t, 100, cfg.Audit.PageSize)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("LEDGER_MAX_ATTEMPTS", "3")
	t.Setenv("LEDGER_INITIAL_BACKOFF", "5ms")
	t.Setenv("LEDGER_MAX_BACKOFF", "50")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TAX_BRANCH_RATES", "b1=0.05")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Ledger.MaxAttempts)
	assert.Equal(t, 5*time.Millisecond, cfg.Ledger.InitialInterval)
	assert.Equal(t, 50*time.Millisecond, cfg.Ledger.MaxInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "b1=0.05", cfg.Tax.BranchRates)
	assert.False(t, cfg.DB.AutoMigrate)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongo")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "inv", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/inv?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
