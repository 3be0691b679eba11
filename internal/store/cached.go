package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/sajulotto/service/internal/cache"
	"github.com/sajulotto/service/internal/model"
)

// Cached wraps a Store with a read-through TTL cache over Search, Recent
// and Summary. Writes pass through uncached, so readers can see results
// up to one TTL old.
type Cached struct {
	Store
	cache cache.Cache
	ttl   time.Duration
}

// NewCached decorates inner with a read cache.
func NewCached(inner Store, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{Store: inner, cache: c, ttl: ttl}
}

// InvalidateReads drops every cached read result. Batch writers call it
// once at the end of a run so the next search sees what they changed.
func (c *Cached) InvalidateReads() error {
	return c.cache.Clear()
}

// Search serves from cache when a fresh entry exists.
func (c *Cached) Search(ctx context.Context, query string, limit int) ([]model.KnowledgeRecord, error) {
	key := cache.Key("search", query, strconv.Itoa(limit))
	if data, ok := c.cache.Get(key); ok {
		var records []model.KnowledgeRecord
		if err := json.Unmarshal(data, &records); err == nil {
			return records, nil
		}
	}
	records, err := c.Store.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	c.put(key, records)
	return records, nil
}

// Recent serves from cache when a fresh entry exists.
func (c *Cached) Recent(ctx context.Context, limit int) ([]model.KnowledgeRecord, error) {
	key := cache.Key("recent", strconv.Itoa(limit))
	if data, ok := c.cache.Get(key); ok {
		var records []model.KnowledgeRecord
		if err := json.Unmarshal(data, &records); err == nil {
			return records, nil
		}
	}
	records, err := c.Store.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.put(key, records)
	return records, nil
}

// Summary serves from cache when a fresh entry exists.
func (c *Cached) Summary(ctx context.Context) (*model.KnowledgeSummary, error) {
	key := cache.Key("summary")
	if data, ok := c.cache.Get(key); ok {
		var summary model.KnowledgeSummary
		if err := json.Unmarshal(data, &summary); err == nil {
			return &summary, nil
		}
	}
	summary, err := c.Store.Summary(ctx)
	if err != nil {
		return nil, err
	}
	c.put(key, summary)
	return summary, nil
}

// put caches best-effort. A marshal or set failure just skips the cache.
func (c *Cached) put(key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.Set(key, data, c.ttl)
	}
}
