package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fahrtenbuch-logbook/internal/domain/entry"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/service"
)

// SaveFailedMessage is the only failure a user ever sees when submitting an entry
const SaveFailedMessage = "save failed, please retry"

// EntryHandler handles HTTP requests for logbook entries
type EntryHandler struct {
	entryService service.EntryService
	logger       *slog.Logger
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(logger *slog.Logger, entryService service.EntryService) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		logger:       logger,
	}
}

// Create stores a new entry. The response never waits for the remote sheet.
func (h *EntryHandler) Create(c *gin.Context) {
	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	e, err := h.entryService.Save(c.Request.Context(), req.fields())
	if err != nil {
		h.logger.Error("Failed to save entry", "error", err)
		RespondWithError(c, http.StatusInternalServerError, "SAVE_FAILED", SaveFailedMessage)
		return
	}

	RespondCreated(c, mapEntryToResponse(e))
}

// GetByID returns one entry, looking into the archive when it left the local store
func (h *EntryHandler) GetByID(c *gin.Context) {
	id, ok := parseEntryID(c, h.logger)
	if !ok {
		return
	}

	e, err := h.entryService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, entry.ErrEntryNotFound{}) {
			RespondNotFound(c, "Entry not found")
			return
		}
		h.logger.Error("Failed to get entry", "entry_id", id, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapEntryToResponse(e))
}

// List returns the newest entries first
func (h *EntryHandler) List(c *gin.Context) {
	var params ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	entries, err := h.entryService.List(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		h.logger.Error("Failed to list entries", "error", err)
		RespondInternalError(c)
		return
	}

	response := make([]EntryResponse, len(entries))
	for i, e := range entries {
		response[i] = mapEntryToResponse(e)
	}
	RespondWithList(c, response, params.Limit, params.Offset, len(response))
}

func parseEntryID(c *gin.Context, logger *slog.Logger) (int64, bool) {
	idParam := c.Param("id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("Invalid entry ID", "id", idParam)
		RespondBadRequest(c, "Invalid entry ID")
		return 0, false
	}
	return id, true
}
