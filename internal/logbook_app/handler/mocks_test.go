package handler

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"

	"github.com/fahrtenbuch-logbook/internal/domain/entry"
	"github.com/fahrtenbuch-logbook/internal/domain/shared"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/cache"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/orchestrator"
)

type MockEntryService struct {
	mock.Mock
}

func (m *MockEntryService) Save(ctx context.Context, fields entry.Fields) (*entry.Entry, error) {
	args := m.Called(ctx, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entry.Entry), args.Error(1)
}

func (m *MockEntryService) Get(ctx context.Context, id int64) (*entry.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entry.Entry), args.Error(1)
}

func (m *MockEntryService) List(ctx context.Context, limit, offset int) ([]*entry.Entry, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entry.Entry), args.Error(1)
}

func (m *MockEntryService) PendingCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockSyncController struct {
	mock.Mock
}

func (m *MockSyncController) SyncAll(ctx context.Context) (orchestrator.Report, error) {
	args := m.Called(ctx)
	return args.Get(0).(orchestrator.Report), args.Error(1)
}

func (m *MockSyncController) SyncOne(ctx context.Context, id int64) (shared.SyncOutcome, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(shared.SyncOutcome), args.Error(1)
}

func (m *MockSyncController) Status(ctx context.Context) (orchestrator.Status, error) {
	args := m.Called(ctx)
	return args.Get(0).(orchestrator.Status), args.Error(1)
}

type MockConnectivityController struct {
	mock.Mock
}

func (m *MockConnectivityController) IsOnline() bool {
	return m.Called().Bool(0)
}

func (m *MockConnectivityController) SetOnline(ctx context.Context, online bool) {
	m.Called(ctx, online)
}

type MockCacheManager struct {
	mock.Mock
}

func (m *MockCacheManager) Current() string {
	return m.Called().String(0)
}

func (m *MockCacheManager) Install(ctx context.Context) (*cache.InstallReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cache.InstallReport), args.Error(1)
}

func (m *MockCacheManager) Activate(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockAssetFetcher struct {
	mock.Mock
}

func (m *MockAssetFetcher) Fetch(ctx context.Context, path, accept string) (*http.Response, error) {
	args := m.Called(ctx, path, accept)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}
