package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/domain/asset"
)

const testOrigin = "http://assets.local/fahrtenbuch/"

var errOffline = errors.New("dial tcp: network is unreachable")

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCacheConfig(strategy string) *config.CacheConfig {
	return &config.CacheConfig{
		Strategy:       strategy,
		Generation:     "fahrtenbuch-v8",
		AssetOrigin:    testOrigin,
		CoreAssets:     []string{"./", "index.html", "app.js"},
		BypassHosts:    []string{"googleapis.com"},
		RefreshTimeout: time.Second,
	}
}

// fakeOrigin answers requests from a path -> body map and can be switched offline
type fakeOrigin struct {
	mu      sync.Mutex
	offline bool
	assets  map[string]string
	status  map[string]int
	calls   int
}

func newFakeOrigin(assets map[string]string) *fakeOrigin {
	return &fakeOrigin{assets: assets, status: map[string]int{}}
}

func (o *fakeOrigin) setOffline(offline bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.offline = offline
}

func (o *fakeOrigin) setAsset(url, body string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.assets[url] = body
}

func (o *fakeOrigin) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

func (o *fakeOrigin) RoundTrip(req *http.Request) (*http.Response, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++

	if o.offline {
		return nil, errOffline
	}

	url := req.URL.String()
	if status, ok := o.status[url]; ok {
		return newResponse(req, status, http.Header{}, []byte(http.StatusText(status))), nil
	}
	body, ok := o.assets[url]
	if !ok {
		return newResponse(req, http.StatusNotFound, http.Header{}, []byte("not found")), nil
	}
	header := http.Header{}
	header.Set("Content-Type", contentType(url))
	return newResponse(req, http.StatusOK, header, []byte(body)), nil
}

func contentType(url string) string {
	switch {
	case strings.HasSuffix(url, ".js"):
		return "application/javascript"
	case strings.HasSuffix(url, ".json"):
		return "application/json"
	default:
		return "text/html; charset=utf-8"
	}
}

// memStore is an in-memory asset.Repository
type memStore struct {
	mu    sync.Mutex
	items map[string]map[string]*asset.CachedResponse
	ops   int
}

func newMemStore() *memStore {
	return &memStore{items: map[string]map[string]*asset.CachedResponse{}}
}

func (s *memStore) Match(_ context.Context, generation, url string) (*asset.CachedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops++
	resp, ok := s.items[generation][url]
	if !ok {
		return nil, asset.ErrCacheMiss
	}
	cp := *resp
	return &cp, nil
}

func (s *memStore) Put(_ context.Context, resp *asset.CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops++
	if s.items[resp.Generation] == nil {
		s.items[resp.Generation] = map[string]*asset.CachedResponse{}
	}
	cp := *resp
	s.items[resp.Generation][resp.URL] = &cp
	return nil
}

func (s *memStore) Generations(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for g := range s.items {
		out = append(out, g)
	}
	sort.Strings(out)
	return out, nil
}

func (s *memStore) DeleteGeneration(_ context.Context, generation string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.items[generation]))
	delete(s.items, generation)
	return n, nil
}

func (s *memStore) body(generation, url string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.items[generation][url]
	if !ok {
		return "", false
	}
	return string(resp.Body), true
}

func (s *memStore) opCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ops
}
