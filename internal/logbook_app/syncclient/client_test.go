package syncclient

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/domain/entry"
	"github.com/fahrtenbuch-logbook/internal/domain/shared"
	"github.com/fahrtenbuch-logbook/internal/domain/sheet"
)

func newTestClient(endpoint string, timeout time.Duration) *Client {
	return NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), &config.SyncConfig{
		EndpointURL:    endpoint,
		RequestTimeout: timeout,
	}, nil)
}

func testEntry() *entry.Entry {
	return &entry.Entry{
		ID: 5,
		Fields: entry.Fields{
			Datum:        "2025-01-03",
			Kategorie:    "Tanken",
			KmStand:      "233.300",
			KmTrip:       "512,5",
			SpritLiter:   "40,50",
			Kosten:       "1.234,56",
			PreisJeLiter: "1,499",
			Tankstelle:   "Aral",
			Bemerkung:    "A7, Stau",
		},
	}
}

func TestBuildPayload(t *testing.T) {
	payload := BuildPayload(testEntry().Fields)

	assert.Equal(t, sheet.Payload{
		Datum:        "2025-01-03",
		Kategorie:    "Tanken",
		KmStand:      "233300",
		KmTrip:       "512.5",
		SpritLiter:   "40.50",
		Kosten:       "1234.56",
		PreisJeLiter: "1.499",
		Tankstelle:   "Aral",
		Bemerkung:    "A7, Stau",
	}, payload)
}

func TestClient_Send(t *testing.T) {
	testCases := []struct {
		name           string
		handler        http.HandlerFunc
		expectedResult shared.SyncOutcome
		expectedStatus int
	}{
		{
			name: "success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"success":true,"message":"Eintrag gespeichert"}`))
			},
			expectedResult: shared.SyncOutcomeSuccess,
			expectedStatus: http.StatusOK,
		},
		{
			name: "legacy success shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"success","message":"Daten gespeichert"}`))
			},
			expectedResult: shared.SyncOutcomeSuccess,
			expectedStatus: http.StatusOK,
		},
		{
			name: "endpoint reports failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"success":false,"error":"Sheet nicht gefunden"}`))
			},
			expectedResult: shared.SyncOutcomeRejected,
			expectedStatus: http.StatusOK,
		},
		{
			name: "non 2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expectedResult: shared.SyncOutcomeRejected,
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name: "unparseable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>login required</html>`))
			},
			expectedResult: shared.SyncOutcomeRejected,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			result := newTestClient(server.URL, time.Second).Send(context.Background(), testEntry())

			assert.Equal(t, tc.expectedResult, result.Outcome)
			assert.Equal(t, tc.expectedStatus, result.StatusCode)
			if tc.expectedResult.IsSuccess() {
				assert.NoError(t, result.Err)
			} else {
				assert.Error(t, result.Err)
			}
		})
	}
}

func TestClient_Send_PostsNormalizedJSON(t *testing.T) {
	var (
		received    sheet.Payload
		contentType string
		method      string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&received)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	result := newTestClient(server.URL, time.Second).Send(context.Background(), testEntry())
	require.Equal(t, shared.SyncOutcomeSuccess, result.Outcome)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "233300", received.KmStand)
	assert.Equal(t, "1.499", received.PreisJeLiter)
	assert.Equal(t, "A7, Stau", received.Bemerkung)
}

func TestClient_Send_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	result := newTestClient(server.URL, 50*time.Millisecond).Send(context.Background(), testEntry())

	assert.Equal(t, shared.SyncOutcomeTimeout, result.Outcome)
	assert.Error(t, result.Err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_Send_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	result := newTestClient(endpoint, time.Second).Send(context.Background(), testEntry())

	assert.Equal(t, shared.SyncOutcomeNetworkError, result.Outcome)
	assert.Error(t, result.Err)
}
