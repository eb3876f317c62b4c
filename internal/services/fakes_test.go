package services

import (
	"context"
	"errors"
	"school-route-service/internal/domain"
	"school-route-service/internal/ports"
	"sync"
	"time"
)

// Anchor used across tests (Wiley School).
var testAnchor = domain.Coordinates{Lat: 38.1527, Lon: -102.7204}

type stubGeocoder struct {
	results map[string]domain.Coordinates
	calls   int
	onCall  func()
}

func (g *stubGeocoder) Geocode(ctx context.Context, addr domain.Address) (domain.Coordinates, error) {
	g.calls++
	if g.onCall != nil {
		g.onCall()
	}
	c, ok := g.results[addr.Street]
	if !ok {
		return domain.Coordinates{}, ports.ErrAddressNotFound
	}
	return c, nil
}

type panickyGeocoder struct{}

func (panickyGeocoder) Geocode(context.Context, domain.Address) (domain.Coordinates, error) {
	panic("provider exploded")
}

// boxEvaluator treats points inside [minLat,maxLat]x[minLon,maxLon] as eligible.
// Points listed in failAt return an error.
type boxEvaluator struct {
	minLat, maxLat, minLon, maxLon float64
	failAt                         map[domain.Coordinates]bool
}

func (e *boxEvaluator) IsEligible(ctx context.Context, c domain.Coordinates) (bool, error) {
	if e.failAt[c] {
		return false, errors.New("boundary service unavailable")
	}
	return c.Lat >= e.minLat && c.Lat <= e.maxLat && c.Lon >= e.minLon && c.Lon <= e.maxLon, nil
}

type countingRecorder struct {
	mu          sync.Mutex
	geocoded    int
	geoFailed   int
	eligFailed  int
	outcomes    []string
	stopsByPlan []int
}

func (r *countingRecorder) RiderGeocoded()     { r.mu.Lock(); r.geocoded++; r.mu.Unlock() }
func (r *countingRecorder) GeocodeFailed()     { r.mu.Lock(); r.geoFailed++; r.mu.Unlock() }
func (r *countingRecorder) EligibilityFailed() { r.mu.Lock(); r.eligFailed++; r.mu.Unlock() }
func (r *countingRecorder) PlanFinished(outcome string, stops int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
	r.stopsByPlan = append(r.stopsByPlan, stops)
}

func coords(lat, lon float64) *domain.Coordinates {
	return &domain.Coordinates{Lat: lat, Lon: lon}
}

func stopAt(lat, lon float64, names ...string) *domain.Stop {
	return &domain.Stop{Location: domain.Coordinates{Lat: lat, Lon: lon}, Occupants: names, Label: OccupantLabel(names)}
}
