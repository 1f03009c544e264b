package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fahrtenbuch-logbook/internal/domain/sheet"
	"github.com/fahrtenbuch-logbook/internal/sheet_endpoint/service"
)

// SavedMessage confirms an appended entry
const SavedMessage = "Eintrag gespeichert"

const (
	defaultRowsLimit = 50
	maxRowsLimit     = 500
)

// AppendResponse is the body the logbook's sync client understands
type AppendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RowsResponse lists stored rows
type RowsResponse struct {
	Success bool         `json:"success"`
	Rows    []*sheet.Row `json:"rows"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

// SheetHandler handles HTTP requests for the sheet
type SheetHandler struct {
	sheetService service.SheetService
	logger       *slog.Logger
}

// NewSheetHandler creates a new sheet handler
func NewSheetHandler(logger *slog.Logger, sheetService service.SheetService) *SheetHandler {
	return &SheetHandler{
		sheetService: sheetService,
		logger:       logger,
	}
}

// Append stores one posted entry
func (h *SheetHandler) Append(c *gin.Context) {
	var payload sheet.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("Invalid payload", "error", err)
		RespondFailure(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	if _, err := h.sheetService.Append(c.Request.Context(), payload); err != nil {
		RespondFailure(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, AppendResponse{Success: true, Message: SavedMessage})
}

// Rows returns a page of stored rows, header first
func (h *SheetHandler) Rows(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultRowsLimit)
	if err != nil || limit < 1 || limit > maxRowsLimit {
		RespondFailure(c, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxRowsLimit))
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		RespondFailure(c, http.StatusBadRequest, "offset must not be negative")
		return
	}

	rows, err := h.sheetService.Rows(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list sheet rows", "error", err)
		RespondFailure(c, http.StatusInternalServerError, "failed to list rows")
		return
	}

	c.JSON(http.StatusOK, RowsResponse{Success: true, Rows: rows, Limit: limit, Offset: offset})
}

// RespondFailure writes {success:false, error} and aborts the chain
func RespondFailure(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, AppendResponse{Success: false, Error: message})
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
