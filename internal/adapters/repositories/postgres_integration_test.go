//go:build integration

package repositories

import (
	"context"
	"fmt"
	"school-route-service/internal/adapters/cache"
	"school-route-service/internal/domain"
	"school-route-service/internal/platform/db"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "routes",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:test@%s:%s/routes?sslmode=disable", host, port.Port())
}

func TestPostgresAdapters(t *testing.T) {
	ctx := context.Background()
	url := startPostgres(t)

	require.NoError(t, Migrate(url))
	require.NoError(t, Migrate(url), "second run is a no-op")

	conn, err := db.OpenPostgres(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	repo := NewSQLRiderRepository(conn, Postgres)
	require.NoError(t, repo.UpsertRiders(ctx, []*domain.Rider{
		{RiderID: 2, Name: "Ben", Home: &domain.Coordinates{Lat: 38.2, Lon: -102.7}},
		{RiderID: 1, Name: "Ann", Address: domain.Address{Street: "510 Ward St"}, Excluded: true},
	}))

	riders, err := repo.ListRiders(ctx)
	require.NoError(t, err)
	require.Len(t, riders, 2)
	assert.Equal(t, "Ann", riders[0].Name)
	assert.True(t, riders[0].Excluded)
	assert.NotNil(t, riders[1].Home)

	store := NewSQLWaypointStore(conn, Postgres)
	require.NoError(t, store.SaveWaypoints(ctx, "Route 1", "[[38.2,-102.7]]"))
	got, err := store.LoadWaypoints(ctx, "Route 1")
	require.NoError(t, err)
	assert.Equal(t, "[[38.2,-102.7]]", got)

	gc := cache.NewPostgresGeocodeCache(conn)
	require.NoError(t, gc.PutMany(ctx, map[string]domain.Coordinates{"510 ward st": {Lat: 38.15, Lon: -102.72}}))
	hits, err := gc.GetMany(ctx, []string{"510 ward st", "nowhere"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Coordinates{"510 ward st": {Lat: 38.15, Lon: -102.72}}, hits)
}
