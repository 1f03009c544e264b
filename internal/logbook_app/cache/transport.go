// Package cache keeps application assets available offline. It sits in front of the asset
// origin as an http.RoundTripper and stores successful GET responses per cache generation.
package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/domain/asset"
)

// OfflineMessage is the placeholder body returned when neither network nor cache can answer
const OfflineMessage = "Offline - Ressource nicht verfügbar"

// CacheStatusHeader marks responses served from the cache
const CacheStatusHeader = "X-Cache"

// Transport serves GET requests according to the configured strategy. Requests to bypass
// hosts and non-GET requests go straight to the base transport and never touch the cache.
type Transport struct {
	base           http.RoundTripper
	store          asset.Repository
	generation     string
	strategy       string
	bypassHosts    []string
	endpointHost   string // host:port of the sync endpoint
	entryPage      string
	refreshTimeout time.Duration
	logger         *slog.Logger

	group     singleflight.Group
	refreshes sync.WaitGroup
}

// NewTransport creates the caching transport. Requests to the host and port of syncEndpoint
// are bypassed so that sync traffic can never be answered from the cache; other services on
// the same host stay cacheable.
func NewTransport(logger *slog.Logger, cfg *config.CacheConfig, store asset.Repository, base http.RoundTripper, syncEndpoint string) (*Transport, error) {
	if base == nil {
		base = http.DefaultTransport
	}

	origin, err := url.Parse(cfg.AssetOrigin)
	if err != nil {
		return nil, fmt.Errorf("invalid asset origin %q: %w", cfg.AssetOrigin, err)
	}

	bypass := make([]string, 0, len(cfg.BypassHosts)+1)
	for _, h := range cfg.BypassHosts {
		bypass = append(bypass, strings.ToLower(h))
	}
	var endpointHost string
	if syncEndpoint != "" {
		u, err := url.Parse(syncEndpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid sync endpoint %q: %w", syncEndpoint, err)
		}
		endpointHost = hostPort(u)
	}

	return &Transport{
		base:           base,
		store:          store,
		generation:     cfg.Generation,
		strategy:       cfg.Strategy,
		bypassHosts:    bypass,
		endpointHost:   endpointHost,
		entryPage:      origin.ResolveReference(&url.URL{Path: "index.html"}).String(),
		refreshTimeout: cfg.RefreshTimeout,
		logger:         logger,
	}, nil
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || t.bypassed(req.URL) {
		return t.base.RoundTrip(req)
	}

	key := req.URL.String()
	if t.strategy == config.CacheStrategyCacheFirst {
		return t.cacheFirst(req, key)
	}
	return t.networkFirst(req, key)
}

// Wait blocks until background refreshes have finished
func (t *Transport) Wait() {
	t.refreshes.Wait()
}

func (t *Transport) cacheFirst(req *http.Request, key string) (*http.Response, error) {
	if cached, ok := t.match(req.Context(), key); ok {
		t.refreshInBackground(req, key)
		return cached.toResponse(req), nil
	}

	resp, err := t.fetchAndStore(req, key)
	if err != nil {
		t.logger.Debug("Asset unavailable from network", "url", key, "error", err)
		return t.fallback(req), nil
	}
	return resp, nil
}

func (t *Transport) networkFirst(req *http.Request, key string) (*http.Response, error) {
	resp, err := t.fetchAndStore(req, key)
	if err == nil {
		return resp, nil
	}

	t.logger.Debug("Asset unavailable from network, trying cache", "url", key, "error", err)
	if cached, ok := t.match(req.Context(), key); ok {
		return cached.toResponse(req), nil
	}
	return t.fallback(req), nil
}

// fetchAndStore goes to the network and caches 200 responses. Other statuses are passed
// through uncached.
func (t *Transport) fetchAndStore(req *http.Request, key string) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read asset body: %w", err)
	}

	if err := t.store.Put(req.Context(), &asset.CachedResponse{
		Generation: t.generation,
		URL:        key,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		StoredAt:   time.Now().UTC(),
	}); err != nil {
		t.logger.Warn("Failed to cache asset", "url", key, "error", err)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

func (t *Transport) refreshInBackground(req *http.Request, key string) {
	t.refreshes.Add(1)
	go func() {
		defer t.refreshes.Done()
		_, _, _ = t.group.Do(key, func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), t.refreshTimeout)
			defer cancel()

			resp, err := t.fetchAndStore(req.Clone(ctx), key)
			if err != nil {
				t.logger.Debug("Background asset refresh failed", "url", key, "error", err)
				return nil, err
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, nil
		})
	}()
}

func (t *Transport) match(ctx context.Context, key string) (*cachedResponse, bool) {
	cached, err := t.store.Match(ctx, t.generation, key)
	if err != nil {
		if !errors.Is(err, asset.ErrCacheMiss) {
			t.logger.Warn("Failed to read asset cache", "url", key, "error", err)
		}
		return nil, false
	}
	return &cachedResponse{cached}, true
}

// fallback answers navigations with the cached entry page and everything else with the
// offline placeholder
func (t *Transport) fallback(req *http.Request) *http.Response {
	if isNavigation(req) {
		if page, ok := t.match(req.Context(), t.entryPage); ok {
			return page.toResponse(req)
		}
	}
	return offlineResponse(req)
}

func (t *Transport) bypassed(u *url.URL) bool {
	if t.endpointHost != "" && hostPort(u) == t.endpointHost {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range t.bypassHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// hostPort returns the lower-cased host with an explicit port, defaulted from the scheme
func hostPort(u *url.URL) string {
	port := u.Port()
	if port == "" {
		switch strings.ToLower(u.Scheme) {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}
	return net.JoinHostPort(strings.ToLower(u.Hostname()), port)
}

func isNavigation(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}

type cachedResponse struct {
	*asset.CachedResponse
}

func (c *cachedResponse) toResponse(req *http.Request) *http.Response {
	header := c.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(CacheStatusHeader, "HIT")
	header.Set("Content-Length", strconv.Itoa(len(c.Body)))
	return newResponse(req, c.StatusCode, header, c.Body)
}

func offlineResponse(req *http.Request) *http.Response {
	header := http.Header{}
	header.Set("Content-Type", "text/plain; charset=utf-8")
	return newResponse(req, http.StatusServiceUnavailable, header, []byte(OfflineMessage))
}

func newResponse(req *http.Request, status int, header http.Header, body []byte) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
