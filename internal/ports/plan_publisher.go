package ports

import (
	"context"
	"school-route-service/internal/domain"
)

// Hands a finished plan to the reporting collaborator.
type PlanPublisher interface {
	PublishPlan(ctx context.Context, plan *domain.RoutePlan) error
	Close() error
}
