package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/JoseCortezz25/fact-checking-app/internal/cache"
)

// CachingProvider memoizes GenerateObject per exact input.
// Tool sessions have side effects and always pass through.
type CachingProvider struct {
	Provider
	cache cache.Cache
	ttl   time.Duration
	model string
}

// NewCachingProvider wraps p; a nil cache returns p unchanged
func NewCachingProvider(p Provider, c cache.Cache, model string, ttl time.Duration) Provider {
	if c == nil {
		return p
	}
	return &CachingProvider{Provider: p, cache: c, ttl: ttl, model: model}
}

// GenerateObject returns a cached object when the same request and schema were seen before
func (c *CachingProvider) GenerateObject(ctx context.Context, req ObjectRequest) (*ObjectResponse, error) {
	schema, err := json.Marshal(&req.Schema)
	if err != nil {
		return c.Provider.GenerateObject(ctx, req)
	}
	key := cache.Key("llm-object", c.Name(), c.model, req.System, req.Prompt, req.SchemaName, string(schema))
	if raw, ok := c.cache.Get(key); ok {
		var resp ObjectResponse
		if err := json.Unmarshal(raw, &resp); err == nil && len(resp.Raw) > 0 {
			return &resp, nil
		}
	}

	resp, err := c.Provider.GenerateObject(ctx, req)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(resp); err == nil {
		_ = c.cache.Set(key, raw, c.ttl)
	}
	return resp, nil
}
