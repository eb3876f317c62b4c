package services

import (
	"context"
	"errors"
	"school-route-service/internal/domain"
	"school-route-service/internal/waypoints"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	// Eligible area around the anchor used by the scenario tests.
	serviceBox = &boxEvaluator{minLat: 38.0, maxLat: 38.4, minLon: -103.0, maxLon: -102.4}
	departAt   = time.Date(2026, 9, 1, 6, 50, 0, 0, time.UTC)
)

func planRequest() PlanRequest {
	return PlanRequest{
		RouteName:      "Route 1",
		Anchor:         testAnchor,
		DepartAt:       departAt,
		MergeTolerance: DefaultMergeTolerance,
		Schedule:       DefaultScheduleOptions(),
	}
}

// Five riders: two siblings at one home, one outside the area, one whose
// address cannot be geocoded and one on their own.
func scenarioRiders() []*domain.Rider {
	return []*domain.Rider{
		{RiderID: 5, Name: "Eve Single", Home: coords(38.25, -102.60)},
		{RiderID: 1, Name: "Ann Sibling", Home: coords(38.20, -102.70)},
		{RiderID: 2, Name: "Ben Sibling", Home: coords(38.20001, -102.70001)},
		{RiderID: 3, Name: "Cal Outside", Home: coords(39.50, -104.90)},
		{RiderID: 4, Name: "Dee Unknown", Address: domain.Address{Street: "1 Nowhere Rd", City: "Wiley", State: "CO", PostalCode: "81092"}},
	}
}

func TestPlanEndToEndScenario(t *testing.T) {
	geocoder := &stubGeocoder{}
	rec := &countingRecorder{}
	planner := NewRoutePlanner(geocoder, serviceBox, rec, nil)

	plan, err := planner.Plan(context.Background(), planRequest(), scenarioRiders())
	require.NoError(t, err)

	require.Len(t, plan.Stops, 2)
	assert.Equal(t, "2 students: Ann Sibling, Ben Sibling", plan.Stops[0].Label)
	assert.Equal(t, "Eve Single", plan.Stops[1].Label)
	assert.Equal(t, 1, plan.Stops[0].Sequence)
	assert.Equal(t, 2, plan.Stops[1].Sequence)

	assert.Equal(t, 4, plan.Summary.ConsideredCount)
	assert.Equal(t, 2, plan.Summary.EligibleCount)
	assert.Equal(t, 3, plan.Summary.EligibleRiders)
	assert.Equal(t, 0, plan.Summary.GeocodedCount)
	assert.Equal(t, 1, plan.Summary.GeocodeFailures)
	assert.Equal(t, 0, plan.Summary.SkippedCount)
	assert.Equal(t, 1, geocoder.calls)

	assert.Equal(t, plan.Schedule.TotalMiles, plan.Summary.TotalMiles)
	assert.Equal(t, plan.Schedule.ReturnAt, plan.Summary.ReturnAt)
	assert.True(t, plan.Schedule.ReturnAt.After(plan.Stops[1].DepartAt))

	assert.Equal(t, []domain.Coordinates{{Lat: 38.20, Lon: -102.70}, {Lat: 38.25, Lon: -102.60}}, waypoints.Decode(plan.Waypoints))
	assert.Equal(t, "Route 1", plan.RouteName)
	assert.NotEmpty(t, plan.PlanID)

	assert.Equal(t, 1, rec.geoFailed)
	assert.Equal(t, []string{OutcomeOK}, rec.outcomes)
	assert.Equal(t, []int{2}, rec.stopsByPlan)
}

func TestPlanIsIndependentOfRosterOrder(t *testing.T) {
	planner := NewRoutePlanner(&stubGeocoder{}, serviceBox, nil, nil)

	riders := []*domain.Rider{
		{RiderID: 1, Name: "East", Home: coords(38.1527, -102.62)},
		{RiderID: 2, Name: "West", Home: coords(38.1527, -102.8208)},
		{RiderID: 3, Name: "North", Home: coords(38.30, -102.7204)},
	}
	reversed := []*domain.Rider{riders[2], riders[1], riders[0]}

	a, err := planner.Plan(context.Background(), planRequest(), riders)
	require.NoError(t, err)
	b, err := planner.Plan(context.Background(), planRequest(), reversed)
	require.NoError(t, err)

	assert.Equal(t, a.Waypoints, b.Waypoints)
	assert.NotEqual(t, a.PlanID, b.PlanID)
}

func TestPlanGeocodesRidersWithoutCoordinates(t *testing.T) {
	geocoder := &stubGeocoder{results: map[string]domain.Coordinates{
		"510 Ward St": {Lat: 38.155, Lon: -102.72},
	}}
	rec := &countingRecorder{}
	planner := NewRoutePlanner(geocoder, serviceBox, rec, nil)

	riders := []*domain.Rider{
		{RiderID: 1, Name: "Jane", Address: domain.Address{Street: "510 Ward St", City: "Wiley", State: "CO"}},
	}

	plan, err := planner.Plan(context.Background(), planRequest(), riders)
	require.NoError(t, err)

	require.Len(t, plan.Stops, 1)
	assert.Equal(t, domain.Coordinates{Lat: 38.155, Lon: -102.72}, plan.Stops[0].Location)
	assert.Equal(t, 1, plan.Summary.GeocodedCount)
	assert.Equal(t, 1, rec.geocoded)
}

func TestPlanSkipsExcludedAndUnlocatableRiders(t *testing.T) {
	geocoder := &stubGeocoder{}
	planner := NewRoutePlanner(geocoder, serviceBox, nil, nil)

	riders := []*domain.Rider{
		{RiderID: 1, Name: "Opted Out", Home: coords(38.2, -102.7), Excluded: true},
		{RiderID: 2, Name: "No Address"},
		nil,
	}

	plan, err := planner.Plan(context.Background(), planRequest(), riders)
	require.NoError(t, err)

	assert.Empty(t, plan.Stops)
	assert.Equal(t, 3, plan.Summary.SkippedCount)
	assert.Zero(t, plan.Summary.ConsideredCount)
	assert.Zero(t, geocoder.calls)
}

func TestPlanEmptyRosterIsValidEmptyPlan(t *testing.T) {
	rec := &countingRecorder{}
	planner := NewRoutePlanner(nil, serviceBox, rec, nil)

	plan, err := planner.Plan(context.Background(), planRequest(), nil)
	require.NoError(t, err)

	assert.NotNil(t, plan.Stops)
	assert.Empty(t, plan.Stops)
	assert.Equal(t, "", plan.Waypoints)
	assert.Equal(t, departAt, plan.Schedule.ReturnAt)
	assert.Equal(t, []string{OutcomeEmpty}, rec.outcomes)
}

func TestPlanEligibilityFailureFailsClosed(t *testing.T) {
	broken := domain.Coordinates{Lat: 38.2, Lon: -102.7}
	evaluator := &boxEvaluator{
		minLat: 38.0, maxLat: 38.4, minLon: -103.0, maxLon: -102.4,
		failAt: map[domain.Coordinates]bool{broken: true},
	}
	rec := &countingRecorder{}
	planner := NewRoutePlanner(nil, evaluator, rec, nil)

	riders := []*domain.Rider{
		{RiderID: 1, Name: "Broken", Home: &broken},
		{RiderID: 2, Name: "Fine", Home: coords(38.3, -102.6)},
	}

	plan, err := planner.Plan(context.Background(), planRequest(), riders)
	require.NoError(t, err)

	require.Len(t, plan.Stops, 1)
	assert.Equal(t, "Fine", plan.Stops[0].Label)
	assert.Equal(t, 2, plan.Summary.ConsideredCount)
	assert.Equal(t, 1, plan.Summary.EligibleCount)
	assert.Equal(t, 1, plan.Summary.EligibilityFailures)
	assert.Equal(t, 1, rec.eligFailed)
}

func TestPlanWithoutEvaluatorTreatsAllAsEligible(t *testing.T) {
	planner := NewRoutePlanner(nil, nil, nil, nil)

	riders := []*domain.Rider{
		{RiderID: 1, Name: "Far Away", Home: coords(10, 10)},
	}

	plan, err := planner.Plan(context.Background(), planRequest(), riders)
	require.NoError(t, err)
	assert.Len(t, plan.Stops, 1)
	assert.Equal(t, 1, plan.Summary.EligibleCount)
}

func TestPlanRecoversFromGeocoderPanic(t *testing.T) {
	planner := NewRoutePlanner(panickyGeocoder{}, serviceBox, nil, nil)

	riders := []*domain.Rider{
		{RiderID: 1, Name: "Jane", Address: domain.Address{Street: "510 Ward St"}},
		{RiderID: 2, Name: "John", Home: coords(38.2, -102.7)},
	}

	plan, err := planner.Plan(context.Background(), planRequest(), riders)
	require.NoError(t, err)

	assert.Equal(t, 1, plan.Summary.GeocodeFailures)
	assert.Len(t, plan.Stops, 1)
}

func TestPlanWithoutGeocoderCountsFailure(t *testing.T) {
	planner := NewRoutePlanner(nil, serviceBox, nil, nil)

	riders := []*domain.Rider{
		{RiderID: 1, Name: "Jane", Address: domain.Address{Street: "510 Ward St"}},
	}

	plan, err := planner.Plan(context.Background(), planRequest(), riders)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Summary.GeocodeFailures)
	assert.Empty(t, plan.Stops)
}

func TestPlanCancelledBeforeStart(t *testing.T) {
	rec := &countingRecorder{}
	planner := NewRoutePlanner(nil, serviceBox, rec, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan, err := planner.Plan(ctx, planRequest(), scenarioRiders())

	assert.Nil(t, plan)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{OutcomeCancelled}, rec.outcomes)
}

func TestPlanCancelledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	geocoder := &stubGeocoder{onCall: cancel}
	planner := NewRoutePlanner(geocoder, serviceBox, nil, nil)

	riders := []*domain.Rider{
		{RiderID: 1, Name: "Jane", Address: domain.Address{Street: "510 Ward St"}},
		{RiderID: 2, Name: "John", Address: domain.Address{Street: "12 Main St"}},
	}

	_, err := planner.Plan(ctx, planRequest(), riders)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, geocoder.calls)
}

func TestPlanLabelsArrivalsAndNamesUnnamedRiders(t *testing.T) {
	planner := NewRoutePlanner(nil, nil, nil, nil)
	req := planRequest()
	req.LabelArrivals = true

	riders := []*domain.Rider{
		{RiderID: 42, Name: "  ", Home: &testAnchor},
	}

	plan, err := planner.Plan(context.Background(), req, riders)
	require.NoError(t, err)

	require.Len(t, plan.Stops, 1)
	assert.Equal(t, "06:50 Rider 42", plan.Stops[0].Label)
}
