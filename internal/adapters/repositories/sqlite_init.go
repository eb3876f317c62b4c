package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"school-route-service/internal/domain"
	"strings"
)

// Initialize the SQLite database schema. Postgres uses Migrate instead.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRidersQuery := `
	CREATE TABLE IF NOT EXISTS riders (
		rider_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		street TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		home_lat REAL,
		home_lon REAL,
		is_excluded INTEGER NOT NULL DEFAULT 0
	);
	`

	createWaypointsQuery := `
	CREATE TABLE IF NOT EXISTS route_waypoints (
		route_name TEXT PRIMARY KEY,
		waypoints TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	statements := []string{
		createRidersQuery,
		createWaypointsQuery,
		createGeocodeCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type RiderSeed struct {
	RiderID    int64    `json:"rider_id"`
	Name       string   `json:"name"`
	Street     string   `json:"street"`
	City       string   `json:"city"`
	State      string   `json:"state"`
	PostalCode string   `json:"postal_code"`
	Lat        *float64 `json:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty"`
	Excluded   bool     `json:"excluded"`
}

// Populate the roster from a JSON file of RiderSeed records.
func SeedFromJSON(ctx context.Context, repo *SQLRiderRepository, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed riders: read %q: %w", jsonPath, err)
	}

	var data []RiderSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed riders: parse json: %w", err)
	}

	riders := make([]*domain.Rider, 0, len(data))
	for i, item := range data {
		if item.RiderID <= 0 {
			return 0, fmt.Errorf("seed riders: invalid rider_id at index %d: %d", i+1, item.RiderID)
		}

		name := strings.TrimSpace(item.Name)
		if name == "" {
			return 0, fmt.Errorf("seed riders: item at index %d: name cannot be empty", i+1)
		}

		if (item.Lat == nil) != (item.Lon == nil) {
			return 0, fmt.Errorf("seed riders: rider_id=%d: lat and lon must be set together", item.RiderID)
		}

		r := &domain.Rider{
			RiderID: item.RiderID,
			Name:    name,
			Address: domain.Address{
				Street:     strings.TrimSpace(item.Street),
				City:       strings.TrimSpace(item.City),
				State:      strings.TrimSpace(item.State),
				PostalCode: strings.TrimSpace(item.PostalCode),
			},
			Excluded: item.Excluded,
		}
		if item.Lat != nil {
			r.Home = &domain.Coordinates{Lat: *item.Lat, Lon: *item.Lon}
		}
		riders = append(riders, r)
	}

	if err := repo.UpsertRiders(ctx, riders); err != nil {
		return 0, fmt.Errorf("seed riders: %w", err)
	}

	return len(riders), nil
}
