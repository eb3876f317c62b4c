package ports

import (
	"context"
	"errors"
	"school-route-service/internal/domain"
)

// ErrAddressNotFound is returned by a Geocoder that resolved the request but found no match.
var ErrAddressNotFound = errors.New("address not found")

// Contract for turning a postal address into coordinates.
// Implementations own their timeout policy and must return in bounded time.
type Geocoder interface {
	Geocode(ctx context.Context, addr domain.Address) (domain.Coordinates, error)
}

// Persistent address -> coordinate cache keyed by normalized address text.
type GeocodeCache interface {
	// Return cached coordinates for the addresses that have an entry.
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	// Store address -> coordinate mappings.
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
