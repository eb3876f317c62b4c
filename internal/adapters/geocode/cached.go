package geocode

import (
	"context"
	"errors"
	"fmt"
	"school-route-service/internal/domain"
	"school-route-service/internal/ports"
	"strings"

	"go.uber.org/zap"
)

// CachedGeocoder consults a GeocodeCache before delegating to the wrapped
// geocoder and stores successful lookups. Cache failures are logged and
// never fail the lookup itself.
type CachedGeocoder struct {
	next   ports.Geocoder
	cache  ports.GeocodeCache
	logger *zap.Logger
}

func NewCachedGeocoder(next ports.Geocoder, cache ports.GeocodeCache, logger *zap.Logger) *CachedGeocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedGeocoder{next: next, cache: cache, logger: logger}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, addr domain.Address) (domain.Coordinates, error) {
	if c.next == nil {
		return domain.Coordinates{}, errors.New("cached geocode: no upstream geocoder")
	}

	key := CacheKey(addr)
	if key == "" || c.cache == nil {
		return c.next.Geocode(ctx, addr)
	}

	hits, err := c.cache.GetMany(ctx, []string{key})
	if err != nil {
		c.logger.Warn("geocode cache read failed", zap.String("address", key), zap.Error(err))
	} else if hit, ok := hits[key]; ok {
		return hit, nil
	}

	coords, err := c.next.Geocode(ctx, addr)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("cached geocode: %w", err)
	}

	if err := c.cache.PutMany(ctx, map[string]domain.Coordinates{key: coords}); err != nil {
		c.logger.Warn("geocode cache write failed", zap.String("address", key), zap.Error(err))
	}

	return coords, nil
}

// CacheKey is the normalized single-line address used as cache key.
func CacheKey(addr domain.Address) string {
	return strings.ToLower(normalize(addr.String()))
}
