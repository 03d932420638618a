package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoad(t *testing.T, files ...string) (*Config, error) {
	t.Helper()
	if files == nil {
		files = []string{}
	}
	return loadConfig(aconfig.Config{SkipFlags: true, Files: files})
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SHOP_JWT_SECRET", "s3cret")
	t.Setenv("SHOP_DATABASE_URL", "postgres://localhost/shop")

	cfg, err := testLoad(t)
	require.NoError(t, err)
	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, 10*time.Second, cfg.Order.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Order.RollbackTimeout)
	assert.Equal(t, "order_events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("SHOP_JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://platform/shop")
	t.Setenv("PORT", "9999")

	cfg, err := testLoad(t)
	require.NoError(t, err)
	assert.Equal(t, "postgres://platform/shop", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9999", cfg.Addr)
}

func TestLoadConfig_YAML(t *testing.T) {
	t.Setenv("SHOP_JWT_SECRET", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage: memory
order:
  timeout: 3s
kafka:
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  topic: orders
`), 0o600))

	cfg, err := testLoad(t, path)
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 3*time.Second, cfg.Order.Timeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "orders", cfg.Kafka.Topic)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "no database url", env: map[string]string{"SHOP_JWT_SECRET": "s"}},
		{name: "no jwt secret", env: map[string]string{"SHOP_STORAGE": "memory"}},
		{name: "unknown storage", env: map[string]string{"SHOP_JWT_SECRET": "s", "SHOP_STORAGE": "redis"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := testLoad(t)
			require.Error(t, err)
		})
	}
}
