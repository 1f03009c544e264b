package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/platform/persistence"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestDB(t *testing.T) *persistence.SQLiteDB {
	t.Helper()
	db, err := persistence.NewSQLiteDB(context.Background(), newTestLogger(), &config.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
