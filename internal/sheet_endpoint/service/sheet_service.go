package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fahrtenbuch-logbook/internal/domain/sheet"
)

type SheetServiceImpl struct {
	db        TxRunner
	rows      sheet.Repository
	sheetName string
	logger    *slog.Logger
	now       func() time.Time
}

func NewSheetService(db TxRunner, rows sheet.Repository, sheetName string, logger *slog.Logger) SheetService {
	return &SheetServiceImpl{
		db:        db,
		rows:      rows,
		sheetName: sheetName,
		logger:    logger,
		now:       time.Now,
	}
}

// Append serializes writers per sheet with an advisory lock so the header is written exactly
// once and row numbers stay gapless.
func (s *SheetServiceImpl) Append(ctx context.Context, payload sheet.Payload) (*sheet.Row, error) {
	receivedAt := s.now()
	row := sheet.NewDataRow(s.sheetName, payload, receivedAt)

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.rows.WithTx(tx)

		if err := repo.LockSheet(ctx, s.sheetName); err != nil {
			return err
		}

		count, err := repo.CountRows(ctx, s.sheetName)
		if err != nil {
			return err
		}
		if count == 0 {
			header := sheet.NewHeaderRow(s.sheetName, receivedAt)
			if err := repo.Append(ctx, header); err != nil {
				return fmt.Errorf("failed to write header row: %w", err)
			}
			s.logger.Info("Sheet was empty, header row written", "sheet", s.sheetName)
		}

		return repo.Append(ctx, row)
	})
	if err != nil {
		s.logger.Error("Failed to append entry to sheet", "sheet", s.sheetName, "datum", payload.Datum, "error", err)
		return nil, err
	}

	s.logger.Info("Entry appended to sheet", "sheet", s.sheetName, "row_number", row.RowNumber, "datum", payload.Datum)
	return row, nil
}

func (s *SheetServiceImpl) Rows(ctx context.Context, limit, offset int) ([]*sheet.Row, error) {
	return s.rows.List(ctx, s.sheetName, limit, offset)
}
