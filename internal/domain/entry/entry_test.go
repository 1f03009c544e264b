package entry

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fahrtenbuch-logbook/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	fields := Fields{Datum: "2024-05-01", Kategorie: "Tanken", KmStand: "233.300", Kosten: "40,50"}

	before := time.Now().UTC()
	e := New(fields)
	after := time.Now().UTC()

	require.NotNil(t, e)
	assert.Equal(t, int64(0), e.ID)
	assert.Equal(t, fields, e.Fields)
	assert.False(t, e.Synced)
	assert.Equal(t, time.UTC, e.Timestamp.Location())
	assert.False(t, e.Timestamp.Before(before))
	assert.False(t, e.Timestamp.After(after))
}

func TestNewArchivedEntry(t *testing.T) {
	e := &Entry{ID: 12, Synced: true, Fields: Fields{Tankstelle: "Aral"}}

	archived := NewArchivedEntry(e)

	assert.Equal(t, int64(12), archived.ID)
	assert.Equal(t, "Aral", archived.Fields.Tankstelle)
	assert.False(t, archived.ArchivedAt.IsZero())

	e.Fields.Tankstelle = "Shell"
	assert.Equal(t, "Aral", archived.Fields.Tankstelle, "archive holds a copy")
}

func TestNewSyncEvent(t *testing.T) {
	testCases := []struct {
		name         string
		outcome      shared.SyncOutcome
		expectedType shared.SyncEventType
	}{
		{"success", shared.SyncOutcomeSuccess, shared.SyncEventEntrySynced},
		{"timeout", shared.SyncOutcomeTimeout, shared.SyncEventEntrySyncFailed},
		{"network error", shared.SyncOutcomeNetworkError, shared.SyncEventEntrySyncFailed},
		{"rejected", shared.SyncOutcomeRejected, shared.SyncEventEntrySyncFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			evt := NewSyncEvent(3, tc.outcome, 2, "boom")
			assert.Equal(t, tc.expectedType, evt.Type)
			assert.Equal(t, int64(3), evt.EntryID)
			assert.Equal(t, 2, evt.Attempts)
			assert.NotEmpty(t, evt.EventID.String())
		})
	}
}

func TestErrEntryNotFound_Is(t *testing.T) {
	err := fmt.Errorf("lookup: %w", ErrEntryNotFound{ID: 5})

	assert.True(t, errors.Is(err, ErrEntryNotFound{}))
	assert.True(t, errors.Is(err, ErrEntryNotFound{ID: 5}))
	assert.False(t, errors.Is(err, ErrEntryNotFound{ID: 6}))
	assert.Equal(t, "entry not found: 5", ErrEntryNotFound{ID: 5}.Error())
}
