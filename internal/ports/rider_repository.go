package ports

import (
	"context"
	"errors"
	"school-route-service/internal/domain"
)

// ErrRouteNotFound is returned by a WaypointStore when no route has the requested name.
var ErrRouteNotFound = errors.New("route not found")

// Port: a boundary for retrieving the rider roster from a data source.
type RiderRepository interface {
	// Retrieve all riders, ordered by rider ID.
	ListRiders(ctx context.Context) ([]*domain.Rider, error)
}

// Port: persistence for the serialized waypoint text of a named route.
type WaypointStore interface {
	SaveWaypoints(ctx context.Context, routeName string, waypoints string) error
	// Return the stored waypoint text; ErrRouteNotFound when absent.
	LoadWaypoints(ctx context.Context, routeName string) (string, error)
}
