package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrUnknownDriver = errors.New("store: unknown driver")
	ErrMissingDSN    = errors.New("store: postgres driver requires a DSN")
)

// Options selects and configures a storage realization.
type Options struct {
	Driver string // sqlite (default) or postgres
	Path   string // SQLite file path or DSN
	DSN    string // Postgres connection string
}

// Open returns the backend selected by opts.Driver.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		path := opts.Path
		if path == "" {
			p, err := DefaultDBPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return OpenSQLite(ctx, path)
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, ErrMissingDSN
		}
		return OpenPostgres(ctx, opts.DSN)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
}

// DefaultDBPath resolves the database file path in priority order:
// 1. PRACTIZ_DB environment variable
// 2. $XDG_DATA_HOME/practiz/practiz.db
// 3. ~/.local/share/practiz/practiz.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("PRACTIZ_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "practiz", "practiz.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
