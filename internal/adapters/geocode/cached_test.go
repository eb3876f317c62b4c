package geocode

import (
	"context"
	"errors"
	"school-route-service/internal/domain"
	"school-route-service/internal/ports"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	entries map[string]domain.Coordinates
	getErr  error
	putErr  error
}

func (m *mapCache) GetMany(_ context.Context, keys []string) (map[string]domain.Coordinates, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := map[string]domain.Coordinates{}
	for _, k := range keys {
		if c, ok := m.entries[k]; ok {
			out[k] = c
		}
	}
	return out, nil
}

func (m *mapCache) PutMany(_ context.Context, results map[string]domain.Coordinates) error {
	if m.putErr != nil {
		return m.putErr
	}
	if m.entries == nil {
		m.entries = map[string]domain.Coordinates{}
	}
	for k, v := range results {
		m.entries[k] = v
	}
	return nil
}

type countingGeocoder struct {
	calls int
	next  ports.Geocoder
}

func (c *countingGeocoder) Geocode(ctx context.Context, addr domain.Address) (domain.Coordinates, error) {
	c.calls++
	return c.next.Geocode(ctx, addr)
}

func TestCachedGeocoderStoresAndReuses(t *testing.T) {
	upstream := &countingGeocoder{next: NewOfflineGeocoder(DefaultOfflineCenter)}
	cache := &mapCache{}
	g := NewCachedGeocoder(upstream, cache, nil)

	first, err := g.Geocode(context.Background(), wardSt)
	require.NoError(t, err)
	second, err := g.Geocode(context.Background(), domain.Address{Street: "510 ward st", City: "WILEY", State: "co", PostalCode: "81092"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, upstream.calls)
	assert.Contains(t, cache.entries, "510 ward st, wiley, co 81092")
}

func TestCachedGeocoderSurvivesCacheFailures(t *testing.T) {
	upstream := &countingGeocoder{next: NewOfflineGeocoder(DefaultOfflineCenter)}
	cache := &mapCache{getErr: errors.New("redis down"), putErr: errors.New("redis down")}
	g := NewCachedGeocoder(upstream, cache, nil)

	_, err := g.Geocode(context.Background(), wardSt)
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.calls)
}

func TestCachedGeocoderDoesNotCacheMisses(t *testing.T) {
	upstream := &countingGeocoder{next: NewOfflineGeocoder(DefaultOfflineCenter)}
	cache := &mapCache{}
	g := NewCachedGeocoder(upstream, cache, nil)

	_, err := g.Geocode(context.Background(), domain.Address{City: "Wiley", PostalCode: "81092"})
	assert.ErrorIs(t, err, ports.ErrAddressNotFound)
	assert.Empty(t, cache.entries)
}
