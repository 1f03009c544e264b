package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/fahrtenbuch-logbook/internal/domain/sheet"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestSheetRepository_LockSheet(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &SheetRepository{querier: mock, logger: newTestLogger()}
	query := `SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs("Fahrtenbuch").WillReturnResult(pgxmock.NewResult("SELECT", 1))

		assert.NoError(t, repo.LockSheet(ctx, "Fahrtenbuch"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("lock timeout")
		mock.ExpectExec(query).WithArgs("Fahrtenbuch").WillReturnError(dbErr)

		err := repo.LockSheet(ctx, "Fahrtenbuch")
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to lock sheet")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSheetRepository_CountRows(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &SheetRepository{querier: mock, logger: newTestLogger()}
	query := `
		SELECT COUNT\(\*\)
		FROM sheet_rows
		WHERE sheet_name = \$1
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("Fahrtenbuch").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

		count, err := repo.CountRows(ctx, "Fahrtenbuch")
		assert.NoError(t, err)
		assert.Equal(t, 3, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		mock.ExpectQuery(query).WithArgs("Fahrtenbuch").WillReturnError(dbErr)

		_, err := repo.CountRows(ctx, "Fahrtenbuch")
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to count sheet rows")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSheetRepository_Append(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &SheetRepository{querier: mock, logger: newTestLogger()}
	receivedAt := time.Date(2025, 2, 4, 9, 30, 0, 0, time.UTC)
	row := sheet.NewDataRow("Fahrtenbuch", sheet.Payload{Datum: "2025-02-04", KmStand: "233300"}, receivedAt)

	query := `
		INSERT INTO sheet_rows \(sheet_name, row_number, is_header, cells, received_at\)
		VALUES \(\$1, \(SELECT COALESCE\(MAX\(row_number\), 0\) \+ 1 FROM sheet_rows WHERE sheet_name = \$1\), \$2, \$3, \$4\)
		RETURNING id, row_number
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(row.SheetName, false, row.Cells, receivedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id", "row_number"}).AddRow(int64(11), 2))

		err := repo.Append(ctx, row)
		assert.NoError(t, err)
		assert.Equal(t, int64(11), row.ID)
		assert.Equal(t, 2, row.RowNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("unique violation")
		mock.ExpectQuery(query).
			WithArgs(row.SheetName, false, row.Cells, receivedAt).
			WillReturnError(dbErr)

		err := repo.Append(ctx, row)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to append sheet row")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSheetRepository_List(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &SheetRepository{querier: mock, logger: newTestLogger()}
	now := time.Now()

	query := `
		SELECT id, sheet_name, row_number, is_header, cells, received_at
		FROM sheet_rows
		WHERE sheet_name = \$1
		ORDER BY row_number ASC
		LIMIT \$2 OFFSET \$3
	`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "sheet_name", "row_number", "is_header", "cells", "received_at"}).
			AddRow(int64(1), "Fahrtenbuch", 1, true, sheet.Header, now).
			AddRow(int64(2), "Fahrtenbuch", 2, false, []string{"2025-02-04"}, now)
		mock.ExpectQuery(query).WithArgs("Fahrtenbuch", 10, 0).WillReturnRows(rows)

		result, err := repo.List(ctx, "Fahrtenbuch", 10, 0)
		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.True(t, result[0].IsHeader)
		assert.Equal(t, sheet.Header, result[0].Cells)
		assert.Equal(t, 2, result[1].RowNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("Fahrtenbuch", 10, 20).
			WillReturnRows(pgxmock.NewRows([]string{"id", "sheet_name", "row_number", "is_header", "cells", "received_at"}))

		result, err := repo.List(ctx, "Fahrtenbuch", 10, 20)
		require.NoError(t, err)
		assert.Empty(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		dbErr := errors.New("db down")
		mock.ExpectQuery(query).WithArgs("Fahrtenbuch", 10, 0).WillReturnError(dbErr)

		result, err := repo.List(ctx, "Fahrtenbuch", 10, 0)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
