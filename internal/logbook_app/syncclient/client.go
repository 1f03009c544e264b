// Package syncclient forwards a single entry to the remote sheet endpoint and classifies
// the result.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/domain/entry"
	"github.com/fahrtenbuch-logbook/internal/domain/shared"
	"github.com/fahrtenbuch-logbook/internal/domain/sheet"
	"github.com/fahrtenbuch-logbook/internal/normalizer"
)

const maxResponseBytes = 1 << 20

// Result describes one send. Err is set for every outcome except success.
type Result struct {
	Outcome    shared.SyncOutcome
	StatusCode int
	Err        error
}

// endpointResponse covers both the current {success, message|error} shape and the legacy
// {status: "success"|"error", message} shape.
type endpointResponse struct {
	Success *bool  `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (r endpointResponse) confirmed() bool {
	if r.Success != nil {
		return *r.Success
	}
	return r.Status == "success"
}

func (r endpointResponse) reason() string {
	switch {
	case r.Error != "":
		return r.Error
	case r.Message != "":
		return r.Message
	default:
		return "endpoint did not confirm the append"
	}
}

// Client posts entries to the sync endpoint
type Client struct {
	httpClient *http.Client
	endpoint   string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates a sync client. A nil httpClient uses a plain client; the timeout is
// applied per request through the context.
func NewClient(logger *slog.Logger, cfg *config.SyncConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   cfg.EndpointURL,
		timeout:    cfg.RequestTimeout,
		logger:     logger,
	}
}

// BuildPayload maps entry fields to the wire payload, normalizing the numeric ones
func BuildPayload(f entry.Fields) sheet.Payload {
	return sheet.Payload{
		Datum:        f.Datum,
		Kategorie:    f.Kategorie,
		KmStand:      normalizer.Normalize(f.KmStand),
		KmTrip:       normalizer.Normalize(f.KmTrip),
		SpritLiter:   normalizer.Normalize(f.SpritLiter),
		Kosten:       normalizer.Normalize(f.Kosten),
		PreisJeLiter: normalizer.Normalize(f.PreisJeLiter),
		Tankstelle:   f.Tankstelle,
		Bemerkung:    f.Bemerkung,
	}
}

// Send posts e to the endpoint and waits at most the configured timeout
func (c *Client) Send(ctx context.Context, e *entry.Entry) Result {
	logger := c.logger.With("entry_id", e.ID)

	body, err := json.Marshal(BuildPayload(e.Fields))
	if err != nil {
		return Result{Outcome: shared.SyncOutcomeRejected, Err: fmt.Errorf("failed to encode payload: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Outcome: shared.SyncOutcomeNetworkError, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result := Result{Outcome: classifyTransportError(err), Err: err}
		logger.Debug("Sync request failed", "outcome", result.Outcome, "error", err)
		return result
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{Outcome: classifyTransportError(err), StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{
			Outcome:    shared.SyncOutcomeRejected,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("endpoint responded with status %d", resp.StatusCode),
		}
	}

	var parsed endpointResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{
			Outcome:    shared.SyncOutcomeRejected,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unreadable endpoint response: %w", err),
		}
	}
	if !parsed.confirmed() {
		return Result{
			Outcome:    shared.SyncOutcomeRejected,
			StatusCode: resp.StatusCode,
			Err:        errors.New(parsed.reason()),
		}
	}

	logger.Debug("Entry accepted by endpoint", "status_code", resp.StatusCode)
	return Result{Outcome: shared.SyncOutcomeSuccess, StatusCode: resp.StatusCode}
}

func classifyTransportError(err error) shared.SyncOutcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return shared.SyncOutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return shared.SyncOutcomeTimeout
	}
	return shared.SyncOutcomeNetworkError
}
