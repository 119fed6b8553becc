package geoip

import (
	"context"
	"time"

	"socialguard/pkg/cache"
)

// CachedResolver memoises another resolver. Unknown answers are kept for
// a shorter time than real ones.
type CachedResolver struct {
	next  Resolver
	cache *cache.Cache[Location]
}

func NewCachedResolver(next Resolver, ttl time.Duration, hooks cache.Hooks) *CachedResolver {
	negative := ttl / 10
	if negative < time.Second {
		negative = time.Second
	}
	return &CachedResolver{
		next: next,
		cache: cache.New[Location](cache.Options{
			TTL:         ttl,
			NegativeTTL: negative,
			MaxEntries:  10000,
		}, hooks),
	}
}

func (r *CachedResolver) Resolve(ctx context.Context, ip string) Location {
	if r == nil || r.next == nil {
		return Unknown
	}
	key := canonicalIP(ip)
	loc, ok, _ := r.cache.Get(ctx, key, func(ctx context.Context, key string) (Location, bool, error) {
		loc := r.next.Resolve(ctx, key)
		return loc, !loc.IsUnknown(), nil
	})
	if !ok {
		return Unknown
	}
	return loc
}

// Len is the number of cached addresses, negative entries included.
func (r *CachedResolver) Len() int {
	if r == nil {
		return 0
	}
	return r.cache.Len()
}
