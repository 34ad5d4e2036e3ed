package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/abhisek/practiz/internal/store"
)

// Config is the runtime configuration shared by all commands.
type Config struct {
	DBDriver    string // sqlite or postgres
	DBPath      string // SQLite file; empty means the default XDG path
	PGDSN       string
	ContentPath string // content pack file or directory
	UserID      string
	LogLevel    slog.Level
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DBDriver:    store.DriverSQLite,
		ContentPath: "content",
		UserID:      "local",
		LogLevel:    slog.LevelWarn,
	}
}

// Load reads the given .env files (or ./.env when none are named) into the
// process environment without overriding variables already set, then
// builds a Config from the environment. Missing .env files are not an error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for unset values.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if d := os.Getenv("PRACTIZ_DB_DRIVER"); d != "" {
		cfg.DBDriver = strings.ToLower(d)
	}
	if p := os.Getenv("PRACTIZ_DB"); p != "" {
		cfg.DBPath = p
	}
	if dsn := os.Getenv("PRACTIZ_PG_DSN"); dsn != "" {
		cfg.PGDSN = dsn
	}
	if c := os.Getenv("PRACTIZ_CONTENT"); c != "" {
		cfg.ContentPath = c
	}
	if u := os.Getenv("PRACTIZ_USER"); u != "" {
		cfg.UserID = u
	}
	if l := os.Getenv("PRACTIZ_LOG_LEVEL"); l != "" {
		lvl, err := ParseLogLevel(l)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = lvl
	}
	return cfg, cfg.Validate()
}

// Validate checks field combinations.
func (c Config) Validate() error {
	switch c.DBDriver {
	case store.DriverSQLite:
	case store.DriverPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("PRACTIZ_PG_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.DBDriver)
	}
	if c.UserID == "" {
		return errors.New("user id must not be empty")
	}
	return nil
}

// StoreOptions maps the config onto store.Open options.
func (c Config) StoreOptions() store.Options {
	return store.Options{Driver: c.DBDriver, Path: c.DBPath, DSN: c.PGDSN}
}

// ParseLogLevel accepts debug, info, warn or error.
func ParseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}

// NewLogger returns a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
