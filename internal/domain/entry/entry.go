// Package entry defines the logbook entry, the unit of work queued locally and forwarded to
// the remote sheet.
package entry

import (
	"time"

	"github.com/google/uuid"

	"github.com/fahrtenbuch-logbook/internal/domain/shared"
)

// Fields holds the user-facing values exactly as entered. Numeric values keep their locale
// formatting here and are only normalized on the way out.
type Fields struct {
	Datum        string `json:"datum"`
	Kategorie    string `json:"kategorie"`
	KmStand      string `json:"kmStand"`
	KmTrip       string `json:"kmTrip"`
	SpritLiter   string `json:"spritLiter"`
	Kosten       string `json:"kosten"`
	PreisJeLiter string `json:"preisJeLiter"`
	Tankstelle   string `json:"tankstelle"`
	Bemerkung    string `json:"bemerkung"`
}

// Entry is one logbook record awaiting or having completed remote synchronisation
type Entry struct {
	ID           int64      `json:"id" bson:"_id"`
	Fields       Fields     `json:"fields" bson:"fields"`
	Synced       bool       `json:"synced" bson:"synced"`
	Timestamp    time.Time  `json:"timestamp" bson:"timestamp"`
	SyncAttempts int        `json:"sync_attempts" bson:"sync_attempts"`
	LastSyncErr  string     `json:"last_sync_error,omitempty" bson:"last_sync_error,omitempty"`
	LastSyncAt   *time.Time `json:"last_sync_at,omitempty" bson:"last_sync_at,omitempty"`
	// DeliveredAt is set once the sheet confirmed the entry. A claimed entry that is still
	// being sent is synced but not delivered.
	DeliveredAt *time.Time `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
}

// New creates an unsynced entry stamped with the current time. The ID is assigned by the store.
func New(fields Fields) *Entry {
	return &Entry{
		Fields:    fields,
		Synced:    false,
		Timestamp: time.Now().UTC(),
	}
}

// ArchivedEntry is a synced entry moved out of the local store by the retention job
type ArchivedEntry struct {
	Entry      `bson:",inline"`
	ArchivedAt time.Time `json:"archived_at" bson:"archived_at"`
}

// NewArchivedEntry wraps e for the archive, stamping the archive time
func NewArchivedEntry(e *Entry) *ArchivedEntry {
	return &ArchivedEntry{
		Entry:      *e,
		ArchivedAt: time.Now().UTC(),
	}
}

// SyncEvent is published after every send attempt
type SyncEvent struct {
	EventID    uuid.UUID            `json:"event_id"`
	Type       shared.SyncEventType `json:"type"`
	EntryID    int64                `json:"entry_id"`
	Outcome    shared.SyncOutcome   `json:"outcome"`
	Error      string               `json:"error,omitempty"`
	Attempts   int                  `json:"attempts"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// NewSyncEvent builds the event describing one attempt for entryID
func NewSyncEvent(entryID int64, outcome shared.SyncOutcome, attempts int, errMsg string) *SyncEvent {
	eventType := shared.SyncEventEntrySyncFailed
	if outcome.IsSuccess() {
		eventType = shared.SyncEventEntrySynced
	}
	return &SyncEvent{
		EventID:    uuid.New(),
		Type:       eventType,
		EntryID:    entryID,
		Outcome:    outcome,
		Error:      errMsg,
		Attempts:   attempts,
		OccurredAt: time.Now().UTC(),
	}
}
