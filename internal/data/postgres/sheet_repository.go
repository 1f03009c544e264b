package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/fahrtenbuch-logbook/internal/domain/sheet"
	"github.com/fahrtenbuch-logbook/internal/platform/persistence"
)

// SheetRepository implements the sheet.Repository interface for PostgreSQL
type SheetRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewSheetRepository creates a new PostgreSQL sheet repository
func NewSheetRepository(logger *slog.Logger, db *persistence.PostgresDB) sheet.Repository {
	return &SheetRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so the header check and the append
// happen atomically.
func (r *SheetRepository) WithTx(tx pgx.Tx) sheet.Repository {
	return &SheetRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// LockSheet serializes appends to one sheet until the surrounding transaction ends
func (r *SheetRepository) LockSheet(ctx context.Context, sheetName string) error {
	query := `SELECT pg_advisory_xact_lock(hashtext($1))`

	if _, err := r.querier.Exec(ctx, query, sheetName); err != nil {
		r.logger.Error("Failed to lock sheet", "sheet", sheetName, "error", err)
		return fmt.Errorf("failed to lock sheet: %w", err)
	}
	return nil
}

// CountRows returns the number of rows in the sheet, header included
func (r *SheetRepository) CountRows(ctx context.Context, sheetName string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM sheet_rows
		WHERE sheet_name = $1
	`

	var count int
	if err := r.querier.QueryRow(ctx, query, sheetName).Scan(&count); err != nil {
		r.logger.Error("Failed to count sheet rows", "sheet", sheetName, "error", err)
		return 0, fmt.Errorf("failed to count sheet rows: %w", err)
	}
	return count, nil
}

// Append writes the row after the current last row, filling in ID and RowNumber
func (r *SheetRepository) Append(ctx context.Context, row *sheet.Row) error {
	query := `
		INSERT INTO sheet_rows (sheet_name, row_number, is_header, cells, received_at)
		VALUES ($1, (SELECT COALESCE(MAX(row_number), 0) + 1 FROM sheet_rows WHERE sheet_name = $1), $2, $3, $4)
		RETURNING id, row_number
	`

	err := r.querier.QueryRow(ctx, query,
		row.SheetName,
		row.IsHeader,
		row.Cells,
		row.ReceivedAt,
	).Scan(&row.ID, &row.RowNumber)
	if err != nil {
		r.logger.Error("Failed to append sheet row",
			"sheet", row.SheetName,
			"is_header", row.IsHeader,
			"error", err,
		)
		return fmt.Errorf("failed to append sheet row: %w", err)
	}

	return nil
}

// List returns a page of rows in sheet order
func (r *SheetRepository) List(ctx context.Context, sheetName string, limit, offset int) ([]*sheet.Row, error) {
	query := `
		SELECT id, sheet_name, row_number, is_header, cells, received_at
		FROM sheet_rows
		WHERE sheet_name = $1
		ORDER BY row_number ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, sheetName, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list sheet rows", "sheet", sheetName, "error", err)
		return nil, fmt.Errorf("failed to list sheet rows: %w", err)
	}
	defer rows.Close()

	result := []*sheet.Row{}
	for rows.Next() {
		var row sheet.Row
		if err := rows.Scan(&row.ID, &row.SheetName, &row.RowNumber, &row.IsHeader, &row.Cells, &row.ReceivedAt); err != nil {
			r.logger.Error("Failed to scan sheet row", "error", err)
			return nil, fmt.Errorf("failed to scan sheet row: %w", err)
		}
		result = append(result, &row)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over sheet rows", "error", err)
		return nil, fmt.Errorf("error iterating over sheet rows: %w", err)
	}

	return result, nil
}
