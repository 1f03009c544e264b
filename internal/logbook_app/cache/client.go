package cache

import (
	"context"
	"net/http"
	"strings"
)

// AssetClient fetches application assets relative to the asset origin through the caching
// transport
type AssetClient struct {
	client *http.Client
	gens   *Generations
}

// NewAssetClient sends asset requests through transport, normally the caching Transport
func NewAssetClient(transport http.RoundTripper, gens *Generations) *AssetClient {
	return &AssetClient{
		client: &http.Client{Transport: transport},
		gens:   gens,
	}
}

// Fetch loads path, an origin-relative asset path. An empty path is the entry page. Paths
// leaving the origin fail with asset.ErrOutsideOrigin without any request being made.
func (c *AssetClient) Fetch(ctx context.Context, path, accept string) (*http.Response, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		path = "./"
	}

	assetURL, err := c.gens.AssetURL(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return c.client.Do(req)
}
