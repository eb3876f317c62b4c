package services

import (
	"math"
	"school-route-service/internal/domain"
	"school-route-service/internal/geo"
)

// Order stops into a single run using a greedy nearest-neighbor heuristic.
//
// Starting at the anchor, the closest unvisited stop (great-circle miles) is
// taken next until none remain. It does not attempt global optimization.
// Ties go to the first minimal candidate in input order, so a fixed input
// order always yields the same route. Sequence numbers are assigned 1-based;
// the input slice itself is left untouched.
func NearestNeighborRoute(anchor domain.Coordinates, stops []*domain.Stop) []*domain.Stop {
	if len(stops) == 0 {
		return []*domain.Stop{}
	}

	remaining := make([]*domain.Stop, len(stops))
	copy(remaining, stops)

	route := make([]*domain.Stop, 0, len(stops))
	current := anchor

	for len(remaining) > 0 {
		bestIdx := 0
		if len(remaining) > 1 {
			minDistance := math.Inf(1)
			// Select next stop by minimum distance (greedy step).
			for i, s := range remaining {
				d := geo.DistanceMiles(current, s.Location)
				if d < minDistance {
					minDistance = d
					bestIdx = i
				}
			}
		}

		next := remaining[bestIdx]
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)

		next.Sequence = len(route) + 1
		route = append(route, next)
		current = next.Location
	}

	return route
}
