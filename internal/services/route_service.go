package services

import (
	"context"
	"errors"
	"fmt"
	"school-route-service/internal/domain"
	"school-route-service/internal/ports"
	"school-route-service/internal/waypoints"
	"strings"

	"go.uber.org/zap"
)

// RouteService connects the planner to the host: it loads the roster,
// persists the waypoint text and hands the plan to reporting.
type RouteService struct {
	Repo      ports.RiderRepository
	Planner   *RoutePlanner
	Store     ports.WaypointStore
	Publisher ports.PlanPublisher
	Logger    *zap.Logger
}

// PlanRoute plans a run over a fresh roster snapshot.
// Storage failures are returned; publishing is best effort and only logged.
func (s *RouteService) PlanRoute(ctx context.Context, req PlanRequest) (*domain.RoutePlan, error) {
	if s.Repo == nil || s.Planner == nil {
		return nil, errors.New("plan route: service is not configured")
	}

	req.RouteName = strings.TrimSpace(req.RouteName)
	if req.RouteName == "" {
		return nil, errors.New("plan route: route name must be non-empty")
	}

	riders, err := s.Repo.ListRiders(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan route: list riders: %w", err)
	}

	plan, err := s.Planner.Plan(ctx, req, riders)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	if s.Store != nil {
		if err := s.Store.SaveWaypoints(ctx, plan.RouteName, plan.Waypoints); err != nil {
			return nil, fmt.Errorf("plan route: save waypoints for %q: %w", plan.RouteName, err)
		}
	}

	if s.Publisher != nil {
		if err := s.Publisher.PublishPlan(ctx, plan); err != nil {
			s.logger().Warn("publish plan failed",
				zap.String("plan_id", plan.PlanID),
				zap.String("route", plan.RouteName),
				zap.Error(err),
			)
		}
	}

	return plan, nil
}

// RouteWaypoints returns the stored coordinate sequence of a route.
func (s *RouteService) RouteWaypoints(ctx context.Context, routeName string) ([]domain.Coordinates, error) {
	if s.Store == nil {
		return nil, errors.New("route waypoints: no waypoint store configured")
	}

	raw, err := s.Store.LoadWaypoints(ctx, strings.TrimSpace(routeName))
	if err != nil {
		return nil, fmt.Errorf("route waypoints %q: %w", routeName, err)
	}

	return waypoints.Decode(raw), nil
}

func (s *RouteService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
