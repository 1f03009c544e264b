package archiver

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/data/sqlite"
	"github.com/fahrtenbuch-logbook/internal/domain/entry"
	"github.com/fahrtenbuch-logbook/internal/domain/shared"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/orchestrator"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/syncclient"
	"github.com/fahrtenbuch-logbook/internal/platform/persistence"
)

type alwaysOnline struct{}

func (alwaysOnline) IsOnline() bool { return true }

// gatedSender blocks every send until release delivers its result
type gatedSender struct {
	entered chan struct{}
	release chan syncclient.Result
}

func (s *gatedSender) Send(ctx context.Context, e *entry.Entry) syncclient.Result {
	s.entered <- struct{}{}
	return <-s.release
}

func newSQLiteStore(t *testing.T, logger *slog.Logger) entry.Repository {
	t.Helper()
	db, err := persistence.NewSQLiteDB(context.Background(), logger, &config.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "archiver.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewEntryRepository(logger, db)
}

func TestArchiver_Run_SkipsEntryWhileSendInProgress(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newSQLiteStore(t, logger)

	pool, err := orchestrator.NewWorkerPool(1, logger)
	require.NoError(t, err)
	defer pool.Shutdown(time.Second)

	sender := &gatedSender{entered: make(chan struct{}), release: make(chan syncclient.Result)}
	orch := orchestrator.New(&config.SyncConfig{Interval: time.Hour, AlertAfterAttempts: 10},
		store, sender, alwaysOnline{}, nil, nil, pool, logger)

	e, err := store.Append(ctx, entry.Fields{Datum: "2025-01-03", KmStand: "233.300"})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		outcome shared.SyncOutcome
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		outcome, _ = orch.SyncOne(ctx, e.ID)
	}()

	select {
	case <-sender.entered:
	case <-time.After(time.Second):
		t.Fatal("send never started")
	}

	archive := new(MockArchiveRepository)
	a := NewArchiver(&config.ArchiveConfig{Interval: time.Hour, Retention: time.Millisecond, BatchSize: 10},
		store, archive, logger)
	a.now = func() time.Time { return time.Now().Add(time.Hour) }

	result, err := a.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Archived, "an entry being sent is not delivered yet")
	archive.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)

	sender.release <- syncclient.Result{Outcome: shared.SyncOutcomeTimeout}
	wg.Wait()
	assert.Equal(t, shared.SyncOutcomeTimeout, outcome)

	got, err := store.Get(ctx, e.ID)
	require.NoError(t, err, "the failed entry must still be queued locally")
	assert.False(t, got.Synced)

	pending, err := store.ListUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, e.ID, pending[0].ID)
}

func TestArchiver_Run_ArchivesEntryOnceDelivered(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newSQLiteStore(t, logger)

	pool, err := orchestrator.NewWorkerPool(1, logger)
	require.NoError(t, err)
	defer pool.Shutdown(time.Second)

	sender := &gatedSender{entered: make(chan struct{}, 1), release: make(chan syncclient.Result, 1)}
	sender.release <- syncclient.Result{Outcome: shared.SyncOutcomeSuccess, StatusCode: 200}
	orch := orchestrator.New(&config.SyncConfig{Interval: time.Hour, AlertAfterAttempts: 10},
		store, sender, alwaysOnline{}, nil, nil, pool, logger)

	e, err := store.Append(ctx, entry.Fields{Datum: "2025-01-04"})
	require.NoError(t, err)
	outcome, err := orch.SyncOne(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, shared.SyncOutcomeSuccess, outcome)

	archive := new(MockArchiveRepository)
	archive.On("Store", mock.Anything, mock.MatchedBy(func(entries []*entry.Entry) bool {
		return len(entries) == 1 && entries[0].ID == e.ID && entries[0].DeliveredAt != nil
	})).Return(nil).Once()

	a := NewArchiver(&config.ArchiveConfig{Interval: time.Hour, Retention: time.Millisecond, BatchSize: 10},
		store, archive, logger)
	a.now = func() time.Time { return time.Now().Add(time.Hour) }

	result, err := a.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Archived)
	assert.Equal(t, int64(1), result.Deleted)
	archive.AssertExpectations(t)
}
