package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fahrtenbuch-logbook/internal/domain/sheet"
)

type MockSheetRepository struct {
	mock.Mock
}

func (m *MockSheetRepository) LockSheet(ctx context.Context, sheetName string) error {
	args := m.Called(ctx, sheetName)
	return args.Error(0)
}

func (m *MockSheetRepository) CountRows(ctx context.Context, sheetName string) (int, error) {
	args := m.Called(ctx, sheetName)
	return args.Int(0), args.Error(1)
}

func (m *MockSheetRepository) Append(ctx context.Context, row *sheet.Row) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockSheetRepository) List(ctx context.Context, sheetName string, limit, offset int) ([]*sheet.Row, error) {
	args := m.Called(ctx, sheetName, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sheet.Row), args.Error(1)
}

func (m *MockSheetRepository) WithTx(tx pgx.Tx) sheet.Repository {
	m.Called(tx)
	return m
}

// fakeTxRunner runs fn without a database and reports whether it committed
type fakeTxRunner struct {
	beginErr  error
	committed bool
}

func (r *fakeTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if r.beginErr != nil {
		return r.beginErr
	}
	if err := fn(nil); err != nil {
		return err
	}
	r.committed = true
	return nil
}

func TestSheetService_Append(t *testing.T) {
	receivedAt := time.Date(2025, 1, 3, 9, 30, 0, 0, time.UTC)
	payload := sheet.Payload{Datum: "2025-01-03", Kategorie: "Tanken", KmStand: "233300", SpritLiter: "40.5", Kosten: "70.12"}
	lockErr := errors.New("deadlock detected")

	isHeader := mock.MatchedBy(func(r *sheet.Row) bool { return r.IsHeader })
	isData := mock.MatchedBy(func(r *sheet.Row) bool { return !r.IsHeader })

	tests := []struct {
		name            string
		beginErr        error
		setupMocks      func(repo *MockSheetRepository)
		expectError     bool
		expectCommitted bool
	}{
		{
			name: "empty sheet gets header first",
			setupMocks: func(repo *MockSheetRepository) {
				repo.On("WithTx", mock.Anything).Once()
				repo.On("LockSheet", mock.Anything, "Fahrtenbuch").Return(nil).Once()
				repo.On("CountRows", mock.Anything, "Fahrtenbuch").Return(0, nil).Once()
				repo.On("Append", mock.Anything, isHeader).Return(nil).Once()
				repo.On("Append", mock.Anything, isData).Run(func(args mock.Arguments) {
					args.Get(1).(*sheet.Row).RowNumber = 2
				}).Return(nil).Once()
			},
			expectCommitted: true,
		},
		{
			name: "existing sheet appends data only",
			setupMocks: func(repo *MockSheetRepository) {
				repo.On("WithTx", mock.Anything).Once()
				repo.On("LockSheet", mock.Anything, "Fahrtenbuch").Return(nil).Once()
				repo.On("CountRows", mock.Anything, "Fahrtenbuch").Return(5, nil).Once()
				repo.On("Append", mock.Anything, isData).Run(func(args mock.Arguments) {
					args.Get(1).(*sheet.Row).RowNumber = 6
				}).Return(nil).Once()
			},
			expectCommitted: true,
		},
		{
			name: "lock failure",
			setupMocks: func(repo *MockSheetRepository) {
				repo.On("WithTx", mock.Anything).Once()
				repo.On("LockSheet", mock.Anything, "Fahrtenbuch").Return(lockErr).Once()
			},
			expectError: true,
		},
		{
			name: "header failure aborts the data row",
			setupMocks: func(repo *MockSheetRepository) {
				repo.On("WithTx", mock.Anything).Once()
				repo.On("LockSheet", mock.Anything, "Fahrtenbuch").Return(nil).Once()
				repo.On("CountRows", mock.Anything, "Fahrtenbuch").Return(0, nil).Once()
				repo.On("Append", mock.Anything, isHeader).Return(errors.New("unique violation")).Once()
			},
			expectError: true,
		},
		{
			name:        "begin failure",
			beginErr:    errors.New("connection refused"),
			setupMocks:  func(repo *MockSheetRepository) {},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockSheetRepository)
			tt.setupMocks(repo)
			tx := &fakeTxRunner{beginErr: tt.beginErr}

			svc := NewSheetService(tx, repo, "Fahrtenbuch", slog.New(slog.NewTextHandler(io.Discard, nil))).(*SheetServiceImpl)
			svc.now = func() time.Time { return receivedAt }

			row, err := svc.Append(context.Background(), payload)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, row)
			} else {
				require.NoError(t, err)
				require.NotNil(t, row)
				assert.False(t, row.IsHeader)
				assert.Equal(t, "233.300", row.Cells[2])
				assert.Equal(t, "40,50", row.Cells[4])
				assert.Equal(t, "70,12", row.Cells[5])
				assert.Equal(t, "03.01.2025 09:30:00", row.Cells[9])
			}
			assert.Equal(t, tt.expectCommitted, tx.committed)
			repo.AssertExpectations(t)
		})
	}
}

func TestSheetService_Rows(t *testing.T) {
	repo := new(MockSheetRepository)
	rows := []*sheet.Row{{RowNumber: 1, IsHeader: true}, {RowNumber: 2}}
	repo.On("List", mock.Anything, "Fahrtenbuch", 10, 0).Return(rows, nil).Once()

	svc := NewSheetService(&fakeTxRunner{}, repo, "Fahrtenbuch", slog.New(slog.NewTextHandler(io.Discard, nil)))
	got, err := svc.Rows(context.Background(), 10, 0)

	require.NoError(t, err)
	assert.Equal(t, rows, got)
	repo.AssertExpectations(t)
}
