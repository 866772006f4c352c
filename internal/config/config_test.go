package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "books.db", cfg.DB.Path)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10, cfg.DB.ConnectAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("BOOKS_APP__ENV", "production")
	t.Setenv("BOOKS_APP__GIN_MODE", "release")
	t.Setenv("BOOKS_DB__DRIVER", "Postgres")
	t.Setenv("BOOKS_DB__HOST", "db.internal")
	t.Setenv("BOOKS_DB__PORT", "6543")
	t.Setenv("BOOKS_DB__NAME", "library")
	t.Setenv("BOOKS_DB__USER", "reader")
	t.Setenv("BOOKS_DB__CONNECT_DELAY", "250ms")
	t.Setenv("BOOKS_LOG__FORMAT", "json")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "release", cfg.App.GinMode)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.DB.ConnectDelay)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.DB.MaxOpenConns, "unset keys keep their defaults")
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("BOOKS_DB__DRIVER", "oracle")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("mysql without host", func(t *testing.T) {
		t.Setenv("BOOKS_DB__DRIVER", "mysql")
		t.Setenv("BOOKS_DB__NAME", "library")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("bad log level", func(t *testing.T) {
		t.Setenv("BOOKS_LOG__LEVEL", "verbose")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.env")
	require.NoError(t, os.WriteFile(path, []byte("BOOKS_DB__PATH=from-dotenv.db\n"), 0o600))

	t.Setenv("BOOKS_ENV_FILE", path)
	t.Cleanup(func() { _ = os.Unsetenv("BOOKS_DB__PATH") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.DB.Path)
}

func TestLoad_MissingEnvFileIsFine(t *testing.T) {
	t.Setenv("BOOKS_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	_, err := Load()
	assert.NoError(t, err)
}

func TestConfig_DSN(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "file:books.db?_busy_timeout=5000&_foreign_keys=on", cfg.DSN())

	cfg.DB.Path = "file:memdb?mode=memory&cache=shared"
	assert.Equal(t, "file:memdb?mode=memory&cache=shared", cfg.DSN())

	cfg.DB.Driver = "mysql"
	cfg.DB.Host = "localhost"
	cfg.DB.User = "root"
	cfg.DB.Password = "secret"
	cfg.DB.Name = "library"
	dsn := cfg.DSN()
	assert.Contains(t, dsn, "root:secret@tcp(localhost:3306)/library")
	assert.Contains(t, dsn, "clientFoundRows=true")
	assert.Contains(t, dsn, "parseTime=true")

	cfg.DB.Driver = "postgres"
	cfg.DB.Port = 5433
	assert.Equal(t,
		"host=localhost user=root password=secret dbname=library port=5433 sslmode=disable TimeZone=UTC",
		cfg.DSN(),
	)
}
