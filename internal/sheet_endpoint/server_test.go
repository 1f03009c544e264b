package sheet_endpoint

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/domain/sheet"
)

type panickingSheetService struct{}

func (panickingSheetService) Append(ctx context.Context, payload sheet.Payload) (*sheet.Row, error) {
	panic("sheet storage corrupted")
}

func (panickingSheetService) Rows(ctx context.Context, limit, offset int) ([]*sheet.Row, error) {
	return []*sheet.Row{}, nil
}

func newTestServer() *Server {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Server: config.ServerConfig{Port: 8081}}
	return NewServer(slog.New(slog.NewJSONHandler(io.Discard, nil)), cfg, panickingSheetService{})
}

func TestServer_PanicKeepsResponseContract(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/exec", strings.NewReader(`{"datum":"2025-01-03"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "internal error", body["error"])
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))
}

func TestServer_Health(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
