package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fahrtenbuch-logbook/internal/domain/entry"
)

// EntryServiceImpl implements the EntryService interface
type EntryServiceImpl struct {
	store        entry.Repository
	archive      entry.ArchiveRepository
	syncer       Syncer
	connectivity ConnectivityChecker
	logger       *slog.Logger
}

// NewEntryService creates a new entry service. archive may be nil when archiving is disabled.
func NewEntryService(
	store entry.Repository,
	archive entry.ArchiveRepository,
	syncer Syncer,
	connectivity ConnectivityChecker,
	logger *slog.Logger,
) EntryService {
	return &EntryServiceImpl{
		store:        store,
		archive:      archive,
		syncer:       syncer,
		connectivity: connectivity,
		logger:       logger,
	}
}

func (s *EntryServiceImpl) Save(ctx context.Context, fields entry.Fields) (*entry.Entry, error) {
	e, err := s.store.Append(ctx, fields)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Entry saved locally", "entry_id", e.ID, "datum", e.Fields.Datum)

	if s.connectivity.IsOnline() {
		s.syncer.SyncOneAsync(ctx, e.ID)
	}

	return e, nil
}

func (s *EntryServiceImpl) Get(ctx context.Context, id int64) (*entry.Entry, error) {
	e, err := s.store.Get(ctx, id)
	if err == nil || !errors.Is(err, entry.ErrEntryNotFound{}) || s.archive == nil {
		return e, err
	}

	archived, err := s.archive.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, entry.ErrEntryNotFound{}) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up archived entry: %w", err)
	}
	return &archived.Entry, nil
}

func (s *EntryServiceImpl) List(ctx context.Context, limit, offset int) ([]*entry.Entry, error) {
	return s.store.List(ctx, limit, offset)
}

func (s *EntryServiceImpl) PendingCount(ctx context.Context) (int, error) {
	return s.store.CountUnsynced(ctx)
}
