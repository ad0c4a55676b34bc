package application

import (
	"context"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/crypto/blake2b"

	"github.com/example/conference-agenda/internal/metrics"
)

const (
	defaultCacheTTL     = 5 * time.Minute
	defaultCacheEntries = 1024

	agendaNamespace  = "agenda"
	catalogNamespace = "catalog"
)

// ResultCache stores encoded service results. Implementations must be safe
// for concurrent use. A miss is reported as ok == false with a nil error.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Invalidate drops every key starting with prefix.
	Invalidate(ctx context.Context, prefix string) error
}

// LRUCache is an in-process ResultCache bounded by entry count. Entries expire
// after the TTL given to NewLRUCache; the per-call TTL is ignored.
type LRUCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewLRUCache returns an LRUCache holding at most size entries for ttl.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = defaultCacheEntries
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &LRUCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get implements ResultCache.
func (c *LRUCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set implements ResultCache.
func (c *LRUCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.lru.Add(key, append([]byte(nil), value...))
	return nil
}

// Invalidate implements ResultCache.
func (c *LRUCache) Invalidate(_ context.Context, prefix string) error {
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
	return nil
}

// Len reports the number of live entries.
func (c *LRUCache) Len() int {
	return c.lru.Len()
}

// cacheKey joins the namespace and scope with a digest of the typed request.
func cacheKey(namespace, scope string, request any) string {
	encoded, err := json.Marshal(request)
	if err != nil {
		encoded = []byte(err.Error())
	}
	sum := blake2b.Sum256(encoded)
	return namespace + ":" + scope + ":" + hex.EncodeToString(sum[:16])
}

func scopePrefix(namespace, scope string) string {
	return namespace + ":" + scope + ":"
}

// loadCached serves value from cache when present and fills it otherwise.
// Cache failures are logged and never fail the request.
func loadCached[T any](ctx context.Context, cache ResultCache, logger *slog.Logger, namespace, key string, ttl time.Duration, load func() (T, error)) (T, bool, error) {
	if cache == nil {
		value, err := load()
		return value, false, err
	}

	if raw, ok, err := cache.Get(ctx, key); err != nil {
		logger.WarnContext(ctx, "result cache read failed", "cache_key", key, "error", err)
	} else if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			metrics.ObserveCache(namespace, true)
			return cached, true, nil
		}
		logger.WarnContext(ctx, "discarding undecodable cache entry", "cache_key", key)
	}
	metrics.ObserveCache(namespace, false)

	value, err := load()
	if err != nil {
		return value, false, err
	}
	storeCached(ctx, cache, logger, key, ttl, value)
	return value, false, nil
}

func storeCached(ctx context.Context, cache ResultCache, logger *slog.Logger, key string, ttl time.Duration, value any) {
	if cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		logger.WarnContext(ctx, "result cache encode failed", "cache_key", key, "error", err)
		return
	}
	if err := cache.Set(ctx, key, raw, ttl); err != nil {
		logger.WarnContext(ctx, "result cache write failed", "cache_key", key, "error", err)
	}
}

func invalidateCached(ctx context.Context, cache ResultCache, logger *slog.Logger, prefix string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, prefix); err != nil {
		logger.WarnContext(ctx, "result cache invalidation failed", "cache_prefix", prefix, "error", err)
	}
}
