package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"school-route-service/internal/platform/obs"
	"school-route-service/internal/ports"
	"strings"
)

// SQL-backed implementation of the WaypointStore port. The waypoint text is
// stored as produced by the serializer and never interpreted here.
type SQLWaypointStore struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLWaypointStore(db *sql.DB, dialect Dialect) *SQLWaypointStore {
	return &SQLWaypointStore{DB: db, Dialect: dialect}
}

func (s *SQLWaypointStore) SaveWaypoints(ctx context.Context, routeName, waypoints string) (err error) {
	defer obs.Time(ctx, "waypoints.Save")(&err)

	if s.DB == nil {
		return errors.New("waypoint store: DB is nil")
	}
	if strings.TrimSpace(routeName) == "" {
		return errors.New("save waypoints: route name cannot be empty")
	}

	query := s.Dialect.rebind(`
	INSERT INTO route_waypoints (route_name, waypoints, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (route_name) DO UPDATE
	SET waypoints = excluded.waypoints,
		updated_at = excluded.updated_at;
	`)
	if _, err := s.DB.ExecContext(ctx, query, routeName, waypoints); err != nil {
		return fmt.Errorf("save waypoints route=%q: %w", routeName, err)
	}

	return nil
}

func (s *SQLWaypointStore) LoadWaypoints(ctx context.Context, routeName string) (_ string, err error) {
	defer obs.Time(ctx, "waypoints.Load")(&err)

	if s.DB == nil {
		return "", errors.New("waypoint store: DB is nil")
	}

	var text string
	query := s.Dialect.rebind(`SELECT waypoints FROM route_waypoints WHERE route_name = ?;`)
	err = s.DB.QueryRowContext(ctx, query, routeName).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("load waypoints route=%q: %w", routeName, ports.ErrRouteNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("load waypoints route=%q: %w", routeName, err)
	}

	return text, nil
}
