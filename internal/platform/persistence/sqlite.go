package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/fahrtenbuch-logbook/internal/config"
)

// SQLQuerier supports database/sql operations for both the handle and transactions
type SQLQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Ensure interfaces are satisfied (compile-time check)
var _ SQLQuerier = (*sql.DB)(nil)
var _ SQLQuerier = (*sql.Tx)(nil)

// SQLiteDB is the device-local store backing the entry queue and the asset cache
type SQLiteDB struct {
	db     *sql.DB
	logger *slog.Logger
	path   string
}

// NewSQLiteDB opens (creating if needed) the database file and migrates it to the latest schema
func NewSQLiteDB(ctx context.Context, logger *slog.Logger, cfg *config.SQLiteConfig) (*SQLiteDB, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", sqliteDSN(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// A single connection serializes every statement, which is what the queue relies on
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := RunSQLiteMigrations(db, 0); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Opened SQLite store", "path", cfg.Path)

	return &SQLiteDB{
		db:     db,
		logger: logger,
		path:   cfg.Path,
	}, nil
}

// sqliteDSN applies the pragmas to every connection the pool opens
func sqliteDSN(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "on")
	return fmt.Sprintf("file:%s?%s", path, params.Encode())
}

func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

func (s *SQLiteDB) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close sqlite database: %w", err)
	}
	s.logger.Info("Closed SQLite store", "path", s.path)
	return nil
}
