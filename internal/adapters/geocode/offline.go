package geocode

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"school-route-service/internal/domain"
	"school-route-service/internal/ports"
	"strings"
)

// Wiley School, 510 Ward St, Wiley, CO.
var DefaultOfflineCenter = domain.Coordinates{Lat: 38.1527, Lon: -102.7204}

const defaultOfflineSpread = 0.25

// OfflineGeocoder maps addresses to stable pseudo-random points around a
// centre. It makes no network calls and is meant for demos and tests.
type OfflineGeocoder struct {
	Center domain.Coordinates
	// Maximum offset from Center on each axis, in degrees.
	Spread float64
}

func NewOfflineGeocoder(center domain.Coordinates) *OfflineGeocoder {
	return &OfflineGeocoder{Center: center, Spread: defaultOfflineSpread}
}

// Geocode hashes "street|city|state|zip" (FNV-1a, 64 bit) into two offsets
// in [-1, 1]. Known town names bias the direction so demo maps look sane.
func (g *OfflineGeocoder) Geocode(ctx context.Context, addr domain.Address) (domain.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinates{}, err
	}

	street := strings.TrimSpace(addr.Street)
	if street == "" {
		return domain.Coordinates{}, fmt.Errorf("offline geocode: blank street: %w", ports.ErrAddressNotFound)
	}

	key := street + "|" + strings.TrimSpace(addr.City) + "|" + strings.TrimSpace(addr.State) + "|" + strings.TrimSpace(addr.PostalCode)

	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	sum := h.Sum64()

	r1 := float64(sum&0xFFFFFFFF)/math.MaxUint32*2 - 1
	r2 := float64(sum>>32)/math.MaxUint32*2 - 1

	city := strings.ToLower(strings.TrimSpace(addr.City))
	switch {
	case city == "":
	case strings.Contains(city, "lajunta"), strings.Contains(city, "la junta"):
		r1 = math.Abs(r1)*0.9 + 0.1
		r2 *= 0.5
	case strings.Contains(city, "lamar"):
		r1 = -math.Abs(r1)*0.9 - 0.1
		r2 *= 0.5
	case strings.Contains(city, "prowers"), strings.Contains(city, "bent"):
		r1 *= 0.5
		r2 *= 0.5
	}

	spread := g.Spread
	if spread <= 0 {
		spread = defaultOfflineSpread
	}

	return domain.Coordinates{
		Lat: g.Center.Lat + r2*spread,
		Lon: g.Center.Lon + r1*spread,
	}, nil
}
