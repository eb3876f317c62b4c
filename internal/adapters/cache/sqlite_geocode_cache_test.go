package cache

import (
	"context"
	"database/sql"
	"school-route-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestSqliteCache(t *testing.T) *SqliteGeocodeCache {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
	CREATE TABLE geocode_cache (
		address TEXT PRIMARY KEY,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`)
	require.NoError(t, err)

	return NewSqliteGeocodeCache(db)
}

func TestSqliteGeocodeCacheRoundTrip(t *testing.T) {
	c := newTestSqliteCache(t)
	ctx := context.Background()

	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{
		"a": {Lat: 1.5, Lon: -2.25},
		"b": {Lat: 3, Lon: 4},
	}))
	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{
		"b": {Lat: 5, Lon: 6},
	}))

	got, err := c.GetMany(ctx, []string{"a", "b", "c", "a", ""})
	require.NoError(t, err)

	assert.Equal(t, map[string]domain.Coordinates{
		"a": {Lat: 1.5, Lon: -2.25},
		"b": {Lat: 5, Lon: 6},
	}, got)
}

func TestSqliteGeocodeCacheEmptyInputs(t *testing.T) {
	c := newTestSqliteCache(t)

	got, err := c.GetMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.NoError(t, c.PutMany(context.Background(), nil))
	assert.Error(t, c.PutMany(context.Background(), map[string]domain.Coordinates{"": {}}))
}

func TestSqliteGeocodeCacheNilDB(t *testing.T) {
	c := NewSqliteGeocodeCache(nil)

	_, err := c.GetMany(context.Background(), []string{"a"})
	assert.Error(t, err)
}
