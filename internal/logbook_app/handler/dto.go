package handler

import (
	"time"

	"github.com/fahrtenbuch-logbook/internal/domain/entry"
)

// CreateEntryRequest carries the form values as entered. Numbers stay strings in their
// local formatting; they are normalized when the entry is sent.
type CreateEntryRequest struct {
	Datum        string `json:"datum" binding:"required"`
	Kategorie    string `json:"kategorie" binding:"max=64"`
	KmStand      string `json:"kmStand" binding:"max=32"`
	KmTrip       string `json:"kmTrip" binding:"max=32"`
	SpritLiter   string `json:"spritLiter" binding:"max=32"`
	Kosten       string `json:"kosten" binding:"max=32"`
	PreisJeLiter string `json:"preisJeLiter" binding:"max=32"`
	Tankstelle   string `json:"tankstelle" binding:"max=128"`
	Bemerkung    string `json:"bemerkung" binding:"max=1024"`
}

func (r CreateEntryRequest) fields() entry.Fields {
	return entry.Fields{
		Datum:        r.Datum,
		Kategorie:    r.Kategorie,
		KmStand:      r.KmStand,
		KmTrip:       r.KmTrip,
		SpritLiter:   r.SpritLiter,
		Kosten:       r.Kosten,
		PreisJeLiter: r.PreisJeLiter,
		Tankstelle:   r.Tankstelle,
		Bemerkung:    r.Bemerkung,
	}
}

// EntryResponse represents an entry in API responses
type EntryResponse struct {
	ID            int64        `json:"id"`
	Fields        entry.Fields `json:"fields"`
	Synced        bool         `json:"synced"`
	Timestamp     string       `json:"timestamp"`
	SyncAttempts  int          `json:"sync_attempts"`
	LastSyncError string       `json:"last_sync_error,omitempty"`
	LastSyncAt    string       `json:"last_sync_at,omitempty"`
}

// ListParams represents the window of a list request
type ListParams struct {
	Limit  int `form:"limit,default=50" binding:"min=1,max=500"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

// SetConnectivityRequest overrides the detected connectivity state
type SetConnectivityRequest struct {
	Online *bool `json:"online" binding:"required"`
}

// ConnectivityResponse reports the connectivity state
type ConnectivityResponse struct {
	Online bool `json:"online"`
}

// SyncOneResponse reports the outcome of a single entry sync
type SyncOneResponse struct {
	EntryID int64  `json:"entry_id"`
	Outcome string `json:"outcome"`
}

// ActivateCacheResponse lists the generations removed by an activation
type ActivateCacheResponse struct {
	Generation string   `json:"generation"`
	Deleted    []string `json:"deleted"`
}

func mapEntryToResponse(e *entry.Entry) EntryResponse {
	resp := EntryResponse{
		ID:            e.ID,
		Fields:        e.Fields,
		Synced:        e.Synced,
		Timestamp:     e.Timestamp.Format(time.RFC3339),
		SyncAttempts:  e.SyncAttempts,
		LastSyncError: e.LastSyncErr,
	}
	if e.LastSyncAt != nil {
		resp.LastSyncAt = e.LastSyncAt.Format(time.RFC3339)
	}
	return resp
}
