package ports

import (
	"context"
	"school-route-service/internal/domain"
)

// Contract for deciding whether a home location qualifies for transport:
// inside the service area and outside any exempt zone.
type EligibilityEvaluator interface {
	IsEligible(ctx context.Context, c domain.Coordinates) (bool, error)
}
