package lookup

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nao1215/phishscan/internal/feature"
)

// cacheEntry stores either a value or an authoritative negative answer.
type cacheEntry[T any] struct {
	value T
	err   error
}

// cache memoizes lookups keyed by lowercased name.
//
// Design decision: Only successes and feature.ErrNotFound are stored. A
// timeout or connection error says nothing about the domain, and caching it
// would pin the indicator to Neutral for the whole TTL.
type cache[T any] struct {
	lru *expirable.LRU[string, cacheEntry[T]]
}

func newCache[T any](size int, ttl time.Duration) *cache[T] {
	if size <= 0 {
		size = 1024
	}
	return &cache[T]{lru: expirable.NewLRU[string, cacheEntry[T]](size, nil, ttl)}
}

func (c *cache[T]) get(ctx context.Context, key string, fn func(context.Context, string) (T, error)) (T, error) {
	key = strings.ToLower(key)
	if entry, ok := c.lru.Get(key); ok {
		return entry.value, entry.err
	}
	value, err := fn(ctx, key)
	if err == nil || errors.Is(err, feature.ErrNotFound) {
		c.lru.Add(key, cacheEntry[T]{value: value, err: err})
	}
	return value, err
}

// CachedRegistration caches a feature.RegistrationLookup.
type CachedRegistration struct {
	next  feature.RegistrationLookup
	cache *cache[*feature.Registration]
}

// NewCachedRegistration wraps next with an LRU cache of size entries that
// expire after ttl.
func NewCachedRegistration(next feature.RegistrationLookup, size int, ttl time.Duration) *CachedRegistration {
	return &CachedRegistration{next: next, cache: newCache[*feature.Registration](size, ttl)}
}

// LookupRegistration implements feature.RegistrationLookup.
func (c *CachedRegistration) LookupRegistration(ctx context.Context, domain string) (*feature.Registration, error) {
	return c.cache.get(ctx, domain, c.next.LookupRegistration)
}

// CachedDNS caches a feature.DNSLookup.
type CachedDNS struct {
	next  feature.DNSLookup
	cache *cache[[]string]
}

// NewCachedDNS wraps next with an LRU cache.
func NewCachedDNS(next feature.DNSLookup, size int, ttl time.Duration) *CachedDNS {
	return &CachedDNS{next: next, cache: newCache[[]string](size, ttl)}
}

// LookupHost implements feature.DNSLookup.
func (c *CachedDNS) LookupHost(ctx context.Context, host string) ([]string, error) {
	return c.cache.get(ctx, host, c.next.LookupHost)
}

// CachedPageRank caches a feature.PageRanker.
type CachedPageRank struct {
	next  feature.PageRanker
	cache *cache[float64]
}

// NewCachedPageRank wraps next with an LRU cache.
func NewCachedPageRank(next feature.PageRanker, size int, ttl time.Duration) *CachedPageRank {
	return &CachedPageRank{next: next, cache: newCache[float64](size, ttl)}
}

// PageRank implements feature.PageRanker.
func (c *CachedPageRank) PageRank(ctx context.Context, domain string) (float64, error) {
	return c.cache.get(ctx, domain, c.next.PageRank)
}
