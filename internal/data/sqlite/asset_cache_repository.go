package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fahrtenbuch-logbook/internal/domain/asset"
	"github.com/fahrtenbuch-logbook/internal/platform/persistence"
)

// AssetCacheRepository implements the asset.Repository interface for SQLite
type AssetCacheRepository struct {
	querier persistence.SQLQuerier
	logger  *slog.Logger
}

// NewAssetCacheRepository creates a new SQLite asset cache repository
func NewAssetCacheRepository(logger *slog.Logger, db *persistence.SQLiteDB) asset.Repository {
	return &AssetCacheRepository{
		querier: db.DB(),
		logger:  logger,
	}
}

// Match returns the cached copy of url in generation, or asset.ErrCacheMiss
func (r *AssetCacheRepository) Match(ctx context.Context, generation, url string) (*asset.CachedResponse, error) {
	query := `
		SELECT status_code, header, body, stored_at
		FROM asset_cache
		WHERE generation = ? AND url = ?
	`

	resp := &asset.CachedResponse{Generation: generation, URL: url}
	var header, storedAt string
	err := r.querier.QueryRowContext(ctx, query, generation, url).Scan(&resp.StatusCode, &header, &resp.Body, &storedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, asset.ErrCacheMiss
		}
		r.logger.Error("Failed to read cached asset", "generation", generation, "url", url, "error", err)
		return nil, fmt.Errorf("failed to read cached asset: %w", err)
	}

	if err := json.Unmarshal([]byte(header), &resp.Header); err != nil {
		return nil, fmt.Errorf("failed to decode cached header: %w", err)
	}
	if resp.StoredAt, err = time.Parse(time.RFC3339Nano, storedAt); err != nil {
		return nil, fmt.Errorf("invalid stored_at %q: %w", storedAt, err)
	}

	return resp, nil
}

// Put stores or replaces the cached copy for (generation, url)
func (r *AssetCacheRepository) Put(ctx context.Context, resp *asset.CachedResponse) error {
	query := `
		INSERT INTO asset_cache (generation, url, status_code, header, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (generation, url) DO UPDATE SET
			status_code = excluded.status_code,
			header = excluded.header,
			body = excluded.body,
			stored_at = excluded.stored_at
	`

	header := resp.Header
	if header == nil {
		header = http.Header{}
	}
	encodedHeader, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to encode cached header: %w", err)
	}

	storedAt := resp.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}

	_, err = r.querier.ExecContext(ctx, query,
		resp.Generation,
		resp.URL,
		resp.StatusCode,
		string(encodedHeader),
		resp.Body,
		storedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		r.logger.Error("Failed to cache asset", "generation", resp.Generation, "url", resp.URL, "error", err)
		return fmt.Errorf("failed to cache asset: %w", err)
	}

	return nil
}

// Generations lists every generation that holds at least one asset
func (r *AssetCacheRepository) Generations(ctx context.Context) ([]string, error) {
	rows, err := r.querier.QueryContext(ctx, `SELECT DISTINCT generation FROM asset_cache ORDER BY generation`)
	if err != nil {
		r.logger.Error("Failed to list cache generations", "error", err)
		return nil, fmt.Errorf("failed to list cache generations: %w", err)
	}
	defer rows.Close()

	var generations []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("failed to scan cache generation: %w", err)
		}
		generations = append(generations, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over cache generations: %w", err)
	}

	return generations, nil
}

// DeleteGeneration drops every asset stored under generation
func (r *AssetCacheRepository) DeleteGeneration(ctx context.Context, generation string) (int64, error) {
	result, err := r.querier.ExecContext(ctx, `DELETE FROM asset_cache WHERE generation = ?`, generation)
	if err != nil {
		r.logger.Error("Failed to delete cache generation", "generation", generation, "error", err)
		return 0, fmt.Errorf("failed to delete cache generation: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
