package routing

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/geo"
	"github.com/ubi-africa/ridewalk/internal/route"
)

const (
	// DefaultFullCacheSize bounds the number of cached full-geometry
	// routes, matching the reference's route_cached maxsize.
	DefaultFullCacheSize = 50_000

	// DefaultSummaryCacheSize bounds the cheap-summary cache, matching
	// the reference's route_fast_cached maxsize.
	DefaultSummaryCacheSize = 200_000

	// quantizePrecision rounds coordinates to ~1m before building a cache
	// key, matching the reference's q(x, p=5).
	quantizePrecision = 5
)

type cacheKey struct {
	startLat, startLon float64
	destLat, destLon   float64
	profile            domain.Profile
}

func quantizedKey(start, dest domain.Coordinate, profile domain.Profile) cacheKey {
	return cacheKey{
		startLat: geo.Round(start.Lat, quantizePrecision),
		startLon: geo.Round(start.Lon, quantizePrecision),
		destLat:  geo.Round(dest.Lat, quantizePrecision),
		destLon:  geo.Round(dest.Lon, quantizePrecision),
		profile:  profile,
	}
}

// CachedClient wraps a Client with two bounded LRU caches, one for full
// route fetches and one for summary-only fetches, both keyed on quantized
// coordinates so nearby requests within ~1m collapse to the same entry.
type CachedClient struct {
	inner    Client
	fullLRU  *lru.Cache[cacheKey, *route.Data]
	summLRU  *lru.Cache[cacheKey, Summary]
}

// NewCachedClient wraps inner with bounded LRU caches of the given sizes.
// A size of 0 falls back to the reference implementation's defaults.
func NewCachedClient(inner Client, fullSize, summarySize int) *CachedClient {
	if fullSize <= 0 {
		fullSize = DefaultFullCacheSize
	}
	if summarySize <= 0 {
		summarySize = DefaultSummaryCacheSize
	}

	fullLRU, err := lru.New[cacheKey, *route.Data](fullSize)
	if err != nil {
		panic(fmt.Sprintf("routing: invalid full cache size %d: %v", fullSize, err))
	}
	summLRU, err := lru.New[cacheKey, Summary](summarySize)
	if err != nil {
		panic(fmt.Sprintf("routing: invalid summary cache size %d: %v", summarySize, err))
	}

	return &CachedClient{inner: inner, fullLRU: fullLRU, summLRU: summLRU}
}

// Fetch returns a cached Data if present, else delegates to inner and
// caches the result.
func (c *CachedClient) Fetch(ctx context.Context, start, dest domain.Coordinate, profile domain.Profile) (*route.Data, error) {
	key := quantizedKey(start, dest, profile)
	if cached, ok := c.fullLRU.Get(key); ok {
		return cached, nil
	}

	data, err := c.inner.Fetch(ctx, start, dest, profile)
	if err != nil {
		return nil, err
	}

	c.fullLRU.Add(key, data)
	return data, nil
}

// FetchSummary returns a cached Summary if present, else delegates to
// inner and caches the result.
func (c *CachedClient) FetchSummary(ctx context.Context, start, dest domain.Coordinate, profile domain.Profile) (Summary, error) {
	key := quantizedKey(start, dest, profile)
	if cached, ok := c.summLRU.Get(key); ok {
		return cached, nil
	}

	summary, err := c.inner.FetchSummary(ctx, start, dest, profile)
	if err != nil {
		return Summary{}, err
	}

	c.summLRU.Add(key, summary)
	return summary, nil
}

var _ Client = (*CachedClient)(nil)
