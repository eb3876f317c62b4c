package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"school-route-service/internal/domain"
	"school-route-service/internal/platform/obs"
	"school-route-service/internal/ports"
	"school-route-service/internal/waypoints"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcomes reported to PlanRecorder.
const (
	OutcomeOK        = "ok"
	OutcomeEmpty     = "empty"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// Inputs for one planning run.
type PlanRequest struct {
	RouteName      string
	Anchor         domain.Coordinates
	DepartAt       time.Time
	MergeTolerance float64
	Schedule       ScheduleOptions
	// Prefix stop labels with their arrival time ("07:04 Jane Doe").
	LabelArrivals bool
}

// Observer for planning counters; the Prometheus collector implements it.
type PlanRecorder interface {
	RiderGeocoded()
	GeocodeFailed()
	EligibilityFailed()
	PlanFinished(outcome string, stops int, dur time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RiderGeocoded()                          {}
func (nopRecorder) GeocodeFailed()                          {}
func (nopRecorder) EligibilityFailed()                      {}
func (nopRecorder) PlanFinished(string, int, time.Duration) {}

// RoutePlanner turns a rider roster into a sequenced, timed pickup run.
//
// Geocoder and eligibility evaluator are injected capabilities. A nil
// evaluator treats every located rider as eligible; a nil geocoder leaves
// riders without coordinates unresolved. Plan keeps all working state local,
// so one planner may serve concurrent runs.
type RoutePlanner struct {
	geocoder    ports.Geocoder
	eligibility ports.EligibilityEvaluator
	recorder    PlanRecorder
	logger      *zap.Logger
}

func NewRoutePlanner(
	geocoder ports.Geocoder,
	eligibility ports.EligibilityEvaluator,
	recorder PlanRecorder,
	logger *zap.Logger,
) *RoutePlanner {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RoutePlanner{
		geocoder:    geocoder,
		eligibility: eligibility,
		recorder:    recorder,
		logger:      logger,
	}
}

// Plan runs the pipeline: filter -> geocode -> eligibility -> aggregate ->
// sequence -> schedule -> serialize.
//
// Per-rider geocode and eligibility failures are counted and logged, never
// returned. The context is checked between riders; cancellation aborts the
// run with the context error. An empty eligible set is a valid, empty plan.
func (p *RoutePlanner) Plan(
	ctx context.Context,
	req PlanRequest,
	riders []*domain.Rider,
) (_ *domain.RoutePlan, err error) {
	defer obs.Time(ctx, "planner.Plan")(&err)

	start := time.Now()
	planID := uuid.NewString()
	log := p.logger.With(
		zap.String("plan_id", planID),
		zap.String("route", req.RouteName),
		zap.String("req_id", obs.RequestID(ctx)),
	)

	// Sort a private snapshot so tie-breaks do not depend on fetch order.
	snapshot := make([]*domain.Rider, 0, len(riders))
	for _, r := range riders {
		if r != nil {
			snapshot = append(snapshot, r)
		}
	}
	slices.SortStableFunc(snapshot, func(a, b *domain.Rider) int {
		return cmp.Compare(a.RiderID, b.RiderID)
	})

	summary := domain.PlanSummary{SkippedCount: len(riders) - len(snapshot)}
	stopSet := NewStopSet(req.MergeTolerance)

	for _, r := range snapshot {
		if err := ctx.Err(); err != nil {
			p.recorder.PlanFinished(OutcomeCancelled, 0, time.Since(start))
			return nil, fmt.Errorf("plan route: %w", err)
		}

		if r.Excluded {
			summary.SkippedCount++
			continue
		}

		home, ok := p.locate(ctx, log, r, &summary)
		if !ok {
			continue
		}

		summary.ConsideredCount++
		if !p.isEligible(ctx, log, r, home, &summary) {
			continue
		}
		summary.EligibleRiders++

		if _, err := stopSet.Plot(home, []string{occupantName(r)}, ""); err != nil {
			p.recorder.PlanFinished(OutcomeError, 0, time.Since(start))
			return nil, fmt.Errorf("plan route: rider_id=%d: %w", r.RiderID, err)
		}
	}

	ordered := NearestNeighborRoute(req.Anchor, stopSet.Stops())
	schedule := EstimateSchedule(req.Anchor, req.DepartAt, ordered, req.Schedule)
	if req.LabelArrivals {
		AnnotateArrivalLabels(ordered)
	}

	summary.EligibleCount = len(ordered)
	summary.TotalMiles = schedule.TotalMiles
	summary.ReturnAt = schedule.ReturnAt

	plan := &domain.RoutePlan{
		PlanID:    planID,
		RouteName: req.RouteName,
		Anchor:    req.Anchor,
		Stops:     ordered,
		Schedule:  schedule,
		Waypoints: waypoints.Encode(waypoints.FromStops(ordered)),
		Summary:   summary,
	}

	outcome := OutcomeOK
	if len(ordered) == 0 {
		outcome = OutcomeEmpty
	}
	p.recorder.PlanFinished(outcome, len(ordered), time.Since(start))

	log.Info("route planned",
		zap.Int("stops", len(ordered)),
		zap.Int("considered", summary.ConsideredCount),
		zap.Int("eligible", summary.EligibleCount),
		zap.Int("eligible_riders", summary.EligibleRiders),
		zap.Int("geocoded", summary.GeocodedCount),
		zap.Int("geocode_failures", summary.GeocodeFailures),
		zap.Int("eligibility_failures", summary.EligibilityFailures),
		zap.Int("skipped", summary.SkippedCount),
		zap.Float64("total_miles", summary.TotalMiles),
	)

	return plan, nil
}

// locate returns the rider's home, geocoding the address when needed.
// Riders with neither coordinates nor an address are skipped upstream of
// eligibility and are not counted as considered.
func (p *RoutePlanner) locate(
	ctx context.Context,
	log *zap.Logger,
	r *domain.Rider,
	summary *domain.PlanSummary,
) (domain.Coordinates, bool) {
	if r.HasHome() {
		return *r.Home, true
	}

	if r.Address.IsBlank() {
		summary.SkippedCount++
		return domain.Coordinates{}, false
	}

	if p.geocoder == nil {
		summary.GeocodeFailures++
		p.recorder.GeocodeFailed()
		log.Warn("no geocoder configured; rider not plotted", zap.Int64("rider_id", r.RiderID))
		return domain.Coordinates{}, false
	}

	var c domain.Coordinates
	err := guard(func() error {
		var e error
		c, e = p.geocoder.Geocode(ctx, r.Address)
		return e
	})
	if err != nil {
		summary.GeocodeFailures++
		p.recorder.GeocodeFailed()
		level := zap.WarnLevel
		if errors.Is(err, ports.ErrAddressNotFound) {
			level = zap.InfoLevel
		}
		log.Log(level, "geocode failed; rider not plotted",
			zap.Int64("rider_id", r.RiderID),
			zap.String("address", r.Address.String()),
			zap.Error(err),
		)
		return domain.Coordinates{}, false
	}

	summary.GeocodedCount++
	p.recorder.RiderGeocoded()
	return c, true
}

// isEligible consults the evaluator; any failure counts as ineligible.
func (p *RoutePlanner) isEligible(
	ctx context.Context,
	log *zap.Logger,
	r *domain.Rider,
	home domain.Coordinates,
	summary *domain.PlanSummary,
) bool {
	if p.eligibility == nil {
		return true
	}

	var eligible bool
	err := guard(func() error {
		var e error
		eligible, e = p.eligibility.IsEligible(ctx, home)
		return e
	})
	if err != nil {
		summary.EligibilityFailures++
		p.recorder.EligibilityFailed()
		log.Warn("eligibility check failed; rider treated as ineligible",
			zap.Int64("rider_id", r.RiderID),
			zap.Stringer("home", home),
			zap.Error(err),
		)
		return false
	}

	return eligible
}

// guard converts a panic inside an injected adapter into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("adapter panic: %v", rec)
		}
	}()
	return fn()
}

func occupantName(r *domain.Rider) string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return "Rider " + strconv.FormatInt(r.RiderID, 10)
}
