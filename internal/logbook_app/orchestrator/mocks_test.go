package orchestrator

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fahrtenbuch-logbook/internal/domain/entry"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/syncclient"
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

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, e *entry.Entry) syncclient.Result {
	args := m.Called(ctx, e)
	return args.Get(0).(syncclient.Result)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishSyncEvent(ctx context.Context, event *entry.SyncEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockStuckEntryReporter struct {
	mock.Mock
}

func (m *MockStuckEntryReporter) PublishStuckEntry(ctx context.Context, e *entry.Entry, reason string) error {
	args := m.Called(ctx, e, reason)
	return args.Error(0)
}

// fakeConnectivity is a switchable ConnectivityChecker
type fakeConnectivity struct {
	online atomic.Bool
}

func newFakeConnectivity(online bool) *fakeConnectivity {
	c := &fakeConnectivity{}
	c.online.Store(online)
	return c
}

func (c *fakeConnectivity) IsOnline() bool { return c.online.Load() }
