package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practiz/internal/store"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PRACTIZ_DB_DRIVER", "PRACTIZ_DB", "PRACTIZ_PG_DSN",
		"PRACTIZ_CONTENT", "PRACTIZ_USER", "PRACTIZ_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, store.Options{Driver: store.DriverSQLite}, cfg.StoreOptions())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRACTIZ_DB_DRIVER", "POSTGRES")
	t.Setenv("PRACTIZ_PG_DSN", "postgres://localhost/practiz")
	t.Setenv("PRACTIZ_CONTENT", "/packs")
	t.Setenv("PRACTIZ_USER", "ana")
	t.Setenv("PRACTIZ_LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, store.DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "/packs", cfg.ContentPath)
	assert.Equal(t, "ana", cfg.UserID)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestFromEnv_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRACTIZ_DB_DRIVER", "postgres")
	_, err := FromEnv()
	assert.Error(t, err, "postgres without a DSN")

	clearEnv(t)
	t.Setenv("PRACTIZ_DB_DRIVER", "mysql")
	_, err = FromEnv()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("PRACTIZ_LOG_LEVEL", "loud")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even to
	// the empty string, so unset them for this test.
	os.Unsetenv("PRACTIZ_USER")
	os.Unsetenv("PRACTIZ_CONTENT")
	t.Cleanup(func() {
		os.Unsetenv("PRACTIZ_USER")
		os.Unsetenv("PRACTIZ_CONTENT")
	})

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PRACTIZ_USER=from-file\nPRACTIZ_CONTENT=./packs\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.UserID)
	assert.Equal(t, "./packs", cfg.ContentPath)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	log := cfg.NewLogger(&buf)

	log.Info("hidden")
	log.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "k=v")
}
