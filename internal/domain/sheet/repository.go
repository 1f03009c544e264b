package sheet

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository persists sheet rows
type Repository interface {
	LockSheet(ctx context.Context, sheetName string) error
	CountRows(ctx context.Context, sheetName string) (int, error)
	Append(ctx context.Context, row *Row) error
	List(ctx context.Context, sheetName string, limit, offset int) ([]*Row, error)
	WithTx(tx pgx.Tx) Repository
}
