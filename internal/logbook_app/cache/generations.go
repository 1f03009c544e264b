package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/domain/asset"
)

// InstallReport lists which core assets made it into the generation
type InstallReport struct {
	Generation string            `json:"generation"`
	Cached     []string          `json:"cached"`
	Failed     map[string]string `json:"failed,omitempty"`
}

// Generations manages the lifecycle of cache generations: install fills the configured
// generation, activate removes all others.
type Generations struct {
	store      asset.Repository
	client     *http.Client
	generation string
	origin     *url.URL
	coreAssets []string
	logger     *slog.Logger
}

// NewGenerations creates the lifecycle manager. client must reach the origin directly,
// not through the caching transport.
func NewGenerations(logger *slog.Logger, cfg *config.CacheConfig, store asset.Repository, client *http.Client) (*Generations, error) {
	origin, err := url.Parse(cfg.AssetOrigin)
	if err != nil {
		return nil, fmt.Errorf("invalid asset origin %q: %w", cfg.AssetOrigin, err)
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.RefreshTimeout}
	}

	return &Generations{
		store:      store,
		client:     client,
		generation: cfg.Generation,
		origin:     origin,
		coreAssets: cfg.CoreAssets,
		logger:     logger,
	}, nil
}

// Current returns the configured generation name
func (g *Generations) Current() string {
	return g.generation
}

// AssetURL resolves p relative to the asset origin. Results on another scheme or host, or
// outside the origin path, fail with asset.ErrOutsideOrigin.
func (g *Generations) AssetURL(p string) (string, error) {
	ref, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", asset.ErrOutsideOrigin, p, err)
	}
	resolved := g.origin.ResolveReference(ref)
	if !withinOrigin(g.origin, resolved) {
		return "", fmt.Errorf("%w: %q", asset.ErrOutsideOrigin, p)
	}
	return resolved.String(), nil
}

func withinOrigin(origin, u *url.URL) bool {
	if !strings.EqualFold(u.Scheme, origin.Scheme) || hostPort(u) != hostPort(origin) {
		return false
	}

	base := origin.Path
	if !strings.HasSuffix(base, "/") {
		base = path.Dir(base) + "/"
	}
	// Clean also resolves dot segments that were percent-encoded in the request
	cleaned := path.Clean("/" + u.Path)
	return cleaned+"/" == base || strings.HasPrefix(cleaned, base)
}

// Install caches every core asset. A failing asset is logged and skipped; install only
// fails when nothing could be cached.
func (g *Generations) Install(ctx context.Context) (*InstallReport, error) {
	report := &InstallReport{Generation: g.generation, Cached: []string{}, Failed: map[string]string{}}

	for _, corePath := range g.coreAssets {
		assetURL, err := g.AssetURL(corePath)
		if err != nil {
			g.logger.Warn("Skipping core asset outside the origin", "generation", g.generation, "path", corePath)
			report.Failed[corePath] = err.Error()
			continue
		}
		if err := g.cacheAsset(ctx, assetURL); err != nil {
			g.logger.Warn("Failed to cache core asset", "generation", g.generation, "url", assetURL, "error", err)
			report.Failed[assetURL] = err.Error()
			continue
		}
		report.Cached = append(report.Cached, assetURL)
	}

	g.logger.Info("Cache generation installed",
		"generation", g.generation,
		"cached", len(report.Cached),
		"failed", len(report.Failed),
	)

	if len(report.Cached) == 0 && len(g.coreAssets) > 0 {
		return report, errors.New("no core asset could be cached")
	}
	return report, nil
}

// Activate deletes every generation except the current one and returns the deleted names
func (g *Generations) Activate(ctx context.Context) ([]string, error) {
	generations, err := g.store.Generations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache generations: %w", err)
	}

	deleted := []string{}
	for _, name := range generations {
		if name == g.generation {
			continue
		}
		n, err := g.store.DeleteGeneration(ctx, name)
		if err != nil {
			return deleted, fmt.Errorf("failed to delete cache generation %s: %w", name, err)
		}
		g.logger.Info("Deleted old cache generation", "generation", name, "assets", n)
		deleted = append(deleted, name)
	}

	return deleted, nil
}

func (g *Generations) cacheAsset(ctx context.Context, assetURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read asset body: %w", err)
	}

	return g.store.Put(ctx, &asset.CachedResponse{
		Generation: g.generation,
		URL:        assetURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		StoredAt:   time.Now().UTC(),
	})
}
