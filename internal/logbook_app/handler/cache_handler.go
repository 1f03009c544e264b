package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fahrtenbuch-logbook/internal/domain/asset"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/service"
)

// hop-by-hop and length headers are recomputed by gin
var skippedAssetHeaders = map[string]struct{}{
	"Content-Length":    {},
	"Content-Type":      {},
	"Connection":        {},
	"Transfer-Encoding": {},
}

// CacheHandler serves application assets through the cache and manages cache generations
type CacheHandler struct {
	cache  service.CacheManager
	assets service.AssetFetcher
	logger *slog.Logger
}

func NewCacheHandler(logger *slog.Logger, cache service.CacheManager, assets service.AssetFetcher) *CacheHandler {
	return &CacheHandler{
		cache:  cache,
		assets: assets,
		logger: logger,
	}
}

// Install pre-populates the current generation with the core assets
func (h *CacheHandler) Install(c *gin.Context) {
	report, err := h.cache.Install(c.Request.Context())
	if err != nil {
		h.logger.Error("Cache install failed", "generation", h.cache.Current(), "error", err)
		RespondWithError(c, http.StatusBadGateway, "CACHE_INSTALL_FAILED", err.Error())
		return
	}
	RespondOK(c, report)
}

// Activate removes every generation except the current one
func (h *CacheHandler) Activate(c *gin.Context) {
	deleted, err := h.cache.Activate(c.Request.Context())
	if err != nil {
		h.logger.Error("Cache activation failed", "generation", h.cache.Current(), "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, ActivateCacheResponse{Generation: h.cache.Current(), Deleted: deleted})
}

// Asset proxies GET /app/*path to the asset origin through the caching transport
func (h *CacheHandler) Asset(c *gin.Context) {
	resp, err := h.assets.Fetch(c.Request.Context(), c.Param("path"), c.GetHeader("Accept"))
	if errors.Is(err, asset.ErrOutsideOrigin) {
		RespondNotFound(c, "asset not found")
		return
	}
	if err != nil {
		h.logger.Warn("Asset request failed", "path", c.Param("path"), "error", err)
		RespondWithError(c, http.StatusBadGateway, "ASSET_UNAVAILABLE", "asset could not be loaded")
		return
	}
	defer resp.Body.Close()

	extra := make(map[string]string, len(resp.Header))
	for name := range resp.Header {
		if _, skip := skippedAssetHeaders[http.CanonicalHeaderKey(name)]; skip {
			continue
		}
		extra[name] = resp.Header.Get(name)
	}

	c.DataFromReader(resp.StatusCode, resp.ContentLength, resp.Header.Get("Content-Type"), resp.Body, extra)
}
