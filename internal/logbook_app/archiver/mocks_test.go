package archiver

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fahrtenbuch-logbook/internal/domain/entry"
)

type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) Append(ctx context.Context, fields entry.Fields) (*entry.Entry, error) {
	args := m.Called(ctx, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entry.Entry), args.Error(1)
}

func (m *MockEntryRepository) Get(ctx context.Context, id int64) (*entry.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entry.Entry), args.Error(1)
}

func (m *MockEntryRepository) SetSynced(ctx context.Context, id int64, synced bool) error {
	args := m.Called(ctx, id, synced)
	return args.Error(0)
}

func (m *MockEntryRepository) ListUnsynced(ctx context.Context) ([]*entry.Entry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entry.Entry), args.Error(1)
}

func (m *MockEntryRepository) ClaimUnsynced(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockEntryRepository) RecordSyncAttempt(ctx context.Context, id int64, errMsg string) (int, error) {
	args := m.Called(ctx, id, errMsg)
	return args.Int(0), args.Error(1)
}

func (m *MockEntryRepository) CountUnsynced(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockEntryRepository) List(ctx context.Context, limit, offset int) ([]*entry.Entry, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entry.Entry), args.Error(1)
}

func (m *MockEntryRepository) ListSyncedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entry.Entry, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entry.Entry), args.Error(1)
}

func (m *MockEntryRepository) DeleteSynced(ctx context.Context, ids []int64) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

type MockArchiveRepository struct {
	mock.Mock
}

func (m *MockArchiveRepository) Store(ctx context.Context, entries []*entry.Entry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockArchiveRepository) GetByID(ctx context.Context, id int64) (*entry.ArchivedEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entry.ArchivedEntry), args.Error(1)
}

func (m *MockArchiveRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
