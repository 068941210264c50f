package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, b := range envBindings {
		t.Setenv(b.name, "")
	}
	t.Setenv("LEDGER_CONFIG_FILE", "")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DYNAMODB_TABLE_NAME", "ledger")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, BackendDynamoDB, cfg.StoreBackend)
		assert.Equal(t, "CNY", cfg.DefaultCurrency)
		assert.Equal(t, "dev", cfg.Environment)
		assert.Equal(t, "ap-northeast-1", cfg.AWSRegion)
		assert.False(t, cfg.IsLambda())
		assert.False(t, cfg.IsProd())
	})

	t.Run("dynamodb needs a table", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadFromEnv()
		assert.ErrorContains(t, err, "DYNAMODB_TABLE_NAME")
	})

	t.Run("mysql needs a DSN or secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORE_BACKEND", "MySQL")
		_, err := LoadFromEnv()
		assert.ErrorContains(t, err, "MYSQL_DSN")

		t.Setenv("MYSQL_DSN_SECRET_ID", "ledger/db")
		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, BackendMySQL, cfg.StoreBackend)
	})

	t.Run("unknown backend", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORE_BACKEND", "postgres")
		_, err := LoadFromEnv()
		assert.ErrorContains(t, err, "postgres")
	})

	t.Run("memory backend is local only", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORE_BACKEND", "memory")
		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, BackendMemory, cfg.StoreBackend)

		t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "bill-ledger-mcp")
		_, err = LoadFromEnv()
		assert.ErrorContains(t, err, "memory backend")
	})

	t.Run("file values are overridden by env", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "ledger.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
store_backend = "mysql"
mysql_dsn = "ledger:pw@tcp(db:3306)/ledger"
default_currency = "usd"
environment = "staging"
`), 0o600))
		t.Setenv("LEDGER_CONFIG_FILE", path)
		t.Setenv("ENVIRONMENT", "prod")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, BackendMySQL, cfg.StoreBackend)
		assert.Equal(t, "ledger:pw@tcp(db:3306)/ledger", cfg.MySQLDSN)
		assert.Equal(t, "USD", cfg.DefaultCurrency)
		assert.True(t, cfg.IsProd())
	})

	t.Run("broken file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "ledger.toml")
		require.NoError(t, os.WriteFile(path, []byte(`store_backend = `), 0o600))
		t.Setenv("LEDGER_CONFIG_FILE", path)

		_, err := LoadFromEnv()
		assert.ErrorContains(t, err, "parse config file")
	})
}

func TestConfig_SlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{LogLevel: "DEBUG"}).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "warning"}).SlogLevel())
	assert.Equal(t, slog.LevelError, (&Config{LogLevel: "error"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "verbose"}).SlogLevel())
}
