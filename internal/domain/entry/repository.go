package entry

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// Repository is the local durable queue of entries
type Repository interface {
	Append(ctx context.Context, fields Fields) (*Entry, error)
	Get(ctx context.Context, id int64) (*Entry, error)
	SetSynced(ctx context.Context, id int64, synced bool) error
	ListUnsynced(ctx context.Context) ([]*Entry, error)

	// ClaimUnsynced flips synced from false to true and reports whether this call did it
	ClaimUnsynced(ctx context.Context, id int64) (bool, error)
	RecordSyncAttempt(ctx context.Context, id int64, errMsg string) (int, error)
	CountUnsynced(ctx context.Context) (int, error)
	List(ctx context.Context, limit, offset int) ([]*Entry, error)

	// ListSyncedBefore and DeleteSynced only see delivered entries, never one whose send
	// is still in progress
	ListSyncedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Entry, error)
	DeleteSynced(ctx context.Context, ids []int64) (int64, error)
}

// ArchiveRepository stores entries removed from the local queue
type ArchiveRepository interface {
	Store(ctx context.Context, entries []*Entry) error
	GetByID(ctx context.Context, id int64) (*ArchivedEntry, error)
	Count(ctx context.Context) (int64, error)
}

// ErrStorageUnavailable marks failures of the local store itself. Saving an entry is the
// only path where it reaches the user.
var ErrStorageUnavailable = errors.New("local storage unavailable")

// ErrEntryNotFound indicates a missing entry
type ErrEntryNotFound struct {
	ID int64
}

func (e ErrEntryNotFound) Error() string {
	return "entry not found: " + strconv.FormatInt(e.ID, 10)
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// A zero ID matches any missing entry
	return t.ID == 0 || t.ID == e.ID
}
