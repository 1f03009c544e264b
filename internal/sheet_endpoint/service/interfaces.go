package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fahrtenbuch-logbook/internal/domain/sheet"
)

// SheetService appends logbook payloads to the sheet
type SheetService interface {
	// Append writes the payload as a new data row, preceded by the header row when the
	// sheet is still empty
	Append(ctx context.Context, payload sheet.Payload) (*sheet.Row, error)
	Rows(ctx context.Context, limit, offset int) ([]*sheet.Row, error)
}

// TxRunner runs fn inside a database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}
