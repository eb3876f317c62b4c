package services

import (
	"context"
	"errors"
	"school-route-service/internal/domain"
	"school-route-service/internal/ports"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	riders []*domain.Rider
	err    error
}

func (r *stubRepo) ListRiders(context.Context) ([]*domain.Rider, error) { return r.riders, r.err }

type memStore struct {
	routes  map[string]string
	saveErr error
}

func (s *memStore) SaveWaypoints(_ context.Context, name, text string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	if s.routes == nil {
		s.routes = map[string]string{}
	}
	s.routes[name] = text
	return nil
}

func (s *memStore) LoadWaypoints(_ context.Context, name string) (string, error) {
	text, ok := s.routes[name]
	if !ok {
		return "", ports.ErrRouteNotFound
	}
	return text, nil
}

type stubPublisher struct {
	published []*domain.RoutePlan
	err       error
}

func (p *stubPublisher) PublishPlan(_ context.Context, plan *domain.RoutePlan) error {
	p.published = append(p.published, plan)
	return p.err
}

func (p *stubPublisher) Close() error { return nil }

func newTestService(store *memStore, pub *stubPublisher) *RouteService {
	return &RouteService{
		Repo:      &stubRepo{riders: scenarioRiders()},
		Planner:   NewRoutePlanner(&stubGeocoder{}, serviceBox, nil, nil),
		Store:     store,
		Publisher: pub,
	}
}

func TestPlanRoutePersistsAndPublishes(t *testing.T) {
	store := &memStore{}
	pub := &stubPublisher{}
	svc := newTestService(store, pub)

	req := planRequest()
	req.RouteName = "  Route 7 "
	plan, err := svc.PlanRoute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Route 7", plan.RouteName)
	assert.Equal(t, plan.Waypoints, store.routes["Route 7"])
	require.Len(t, pub.published, 1)
	assert.Same(t, plan, pub.published[0])

	got, err := svc.RouteWaypoints(context.Background(), "Route 7")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPlanRouteIgnoresPublishFailure(t *testing.T) {
	svc := newTestService(&memStore{}, &stubPublisher{err: errors.New("broker down")})

	plan, err := svc.PlanRoute(context.Background(), planRequest())
	require.NoError(t, err)
	assert.Len(t, plan.Stops, 2)
}

func TestPlanRouteReturnsStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	svc := newTestService(&memStore{saveErr: boom}, nil)

	_, err := svc.PlanRoute(context.Background(), planRequest())
	assert.ErrorIs(t, err, boom)
}

func TestPlanRouteValidation(t *testing.T) {
	svc := newTestService(&memStore{}, nil)
	req := planRequest()
	req.RouteName = " "

	_, err := svc.PlanRoute(context.Background(), req)
	assert.Error(t, err)

	_, err = (&RouteService{}).PlanRoute(context.Background(), planRequest())
	assert.Error(t, err)
}

func TestPlanRouteRepositoryFailure(t *testing.T) {
	boom := errors.New("db offline")
	svc := newTestService(&memStore{}, nil)
	svc.Repo = &stubRepo{err: boom}

	_, err := svc.PlanRoute(context.Background(), planRequest())
	assert.ErrorIs(t, err, boom)
}

func TestRouteWaypointsUnknownRoute(t *testing.T) {
	svc := newTestService(&memStore{}, nil)

	_, err := svc.RouteWaypoints(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrRouteNotFound)
}
