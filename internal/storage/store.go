package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	pragmaJournalModeWAL = `PRAGMA journal_mode=WAL`
	pragmaBusyTimeout    = `PRAGMA busy_timeout=5000`
)

// Options control how the store is opened. The zero value is usable.
type Options struct {
	// AllowRebuild opts in to the lossy schema-rebuild recovery path.
	AllowRebuild bool
	Logger       *slog.Logger
}

// Store owns the sqlite handle and exposes the repositories. It is
// the single composed persistence object callers pass around; there
// is no package-level singleton.
type Store struct {
	db   *sql.DB
	path string

	Accounts AccountRepository
	Places   PlaceRepository
	Sessions SessionRepository
	Activity ActivityRepository
}

// Open opens (or creates) the database at path and runs schema
// evolution before handing out repositories.
func Open(path string, opts Options) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("open storage: empty path")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("open storage: create parent dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)

	if err := configureSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := EnsureSchema(db, SchemaOptions{AllowRebuild: opts.AllowRebuild, Logger: logger}); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{
		db:   db,
		path: path,
	}
	store.Accounts = &accountRepository{db: db}
	store.Places = &placeRepository{db: db}
	store.Sessions = &sessionRepository{db: db}
	store.Activity = &activityRepository{db: db}

	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// ClearAll unconditionally empties every table. Debug tooling only;
// the CLI gates it behind an explicit confirmation flag.
func (s *Store) ClearAll(ctx context.Context) error {
	for _, table := range []string{"places", "sessions", "activity", "accounts"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func configureSQLite(db *sql.DB) error {
	// foreign_keys stays off: the schema declares owner references for
	// documentation, the app never relied on enforcement and legacy
	// databases may contain orphaned rows.
	pragmas := []string{pragmaJournalModeWAL, pragmaBusyTimeout}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("configure sqlite %q: %w", stmt, err)
		}
	}
	return nil
}
