package persistence

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // PostgreSQL driver
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file" // File source driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// The local schema ships inside the binary; upgrades must stay additive so existing
// entries survive every version bump.
//
//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

// RunMigrations executes database migrations using DSN and migrations path (file://./migrations/postgres)
func RunMigrations(databaseURL string, migrationsPath string) error {
	if migrationsPath == "" {
		return errors.New("migrations path cannot be empty")
	}
	if databaseURL == "" {
		return errors.New("database URL cannot be empty")
	}

	// Prepend file:// to migrations path for correct format
	sourceURL := fmt.Sprintf("file://%s", migrationsPath)

	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migration database error: %w", dbErr)
	}

	return nil
}

// RunSQLiteMigrations brings the local store to targetVersion, or to the latest schema
// when targetVersion is 0.
func RunSQLiteMigrations(db *sql.DB, targetVersion uint) error {
	if db == nil {
		return errors.New("database handle cannot be nil")
	}

	source, err := iofs.New(sqliteMigrations, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if targetVersion == 0 {
		err = m.Up()
	} else {
		err = m.Migrate(targetVersion)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// m.Close would also close db, which the caller still owns
	if err := source.Close(); err != nil {
		return fmt.Errorf("migration source error: %w", err)
	}

	return nil
}

// SQLiteSchemaVersion reports the applied migration version of db
func SQLiteSchemaVersion(db *sql.DB) (uint, bool, error) {
	var version uint
	var dirty bool
	err := db.QueryRow(`SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}
