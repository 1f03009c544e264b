package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/fahrtenbuch-logbook/internal/domain/shared"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/service"
)

// SyncHandler exposes the sync pipeline and the connectivity override
type SyncHandler struct {
	syncer       service.SyncController
	connectivity service.ConnectivityController
	logger       *slog.Logger
}

func NewSyncHandler(logger *slog.Logger, syncer service.SyncController, connectivity service.ConnectivityController) *SyncHandler {
	return &SyncHandler{
		syncer:       syncer,
		connectivity: connectivity,
		logger:       logger,
	}
}

// Status reports queue length, connectivity and the last pass
func (h *SyncHandler) Status(c *gin.Context) {
	status, err := h.syncer.Status(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read sync status", "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, status)
}

// SyncAll runs a full pass and returns its report. An offline no-op answers 202.
func (h *SyncHandler) SyncAll(c *gin.Context) {
	report, err := h.syncer.SyncAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Sync pass failed", "error", err)
		RespondInternalError(c)
		return
	}

	if report.Offline {
		RespondAccepted(c, report)
		return
	}
	RespondOK(c, report)
}

// SyncOne syncs a single entry
func (h *SyncHandler) SyncOne(c *gin.Context) {
	id, ok := parseEntryID(c, h.logger)
	if !ok {
		return
	}

	outcome, err := h.syncer.SyncOne(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Entry sync failed", "entry_id", id, "error", err)
		RespondInternalError(c)
		return
	}

	response := SyncOneResponse{EntryID: id, Outcome: string(outcome)}
	if outcome == shared.SyncOutcomeOffline {
		RespondAccepted(c, response)
		return
	}
	RespondOK(c, response)
}

// GetConnectivity reports the current connectivity state
func (h *SyncHandler) GetConnectivity(c *gin.Context) {
	RespondOK(c, ConnectivityResponse{Online: h.connectivity.IsOnline()})
}

// SetConnectivity overrides the detected state until the next probe
func (h *SyncHandler) SetConnectivity(c *gin.Context) {
	var req SetConnectivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	h.logger.Info("Connectivity overridden", "online", *req.Online)
	h.connectivity.SetOnline(c.Request.Context(), *req.Online)
	RespondOK(c, ConnectivityResponse{Online: h.connectivity.IsOnline()})
}
