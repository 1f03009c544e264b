// Package asset describes cached application resources, grouped into named generations
package asset

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrCacheMiss is returned when a generation holds no copy of the requested URL
var ErrCacheMiss = errors.New("asset not cached")

// ErrOutsideOrigin rejects asset paths that resolve to another host or outside the origin path
var ErrOutsideOrigin = errors.New("asset path outside asset origin")

// CachedResponse is a stored copy of a successful GET
type CachedResponse struct {
	Generation string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	StoredAt   time.Time
}

// Repository keeps cached responses per generation
type Repository interface {
	Match(ctx context.Context, generation, url string) (*CachedResponse, error)
	Put(ctx context.Context, resp *CachedResponse) error
	Generations(ctx context.Context) ([]string, error)
	DeleteGeneration(ctx context.Context, generation string) (int64, error)
}
