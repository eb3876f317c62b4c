package publisher

import (
	"fmt"
	"school-route-service/internal/domain"
	"strings"
	"time"
)

// PublishMetrics is implemented by metrics.Collector.
type PublishMetrics interface {
	PublishObserve(transport string, d time.Duration, err error)
}

// PlanEvent is the wire form of a finished plan handed to reporting.
type PlanEvent struct {
	PlanID     string       `json:"planId"`
	RouteName  string       `json:"routeName"`
	PlannedAt  time.Time    `json:"plannedAt"`
	DepartAt   time.Time    `json:"departAt"`
	ReturnAt   time.Time    `json:"returnAt"`
	TotalMiles float64      `json:"totalMiles"`
	Waypoints  string       `json:"waypoints"`
	Stops      []StopEvent  `json:"stops"`
	Summary    SummaryEvent `json:"summary"`
}

type StopEvent struct {
	Sequence int       `json:"sequence"`
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	Label    string    `json:"label"`
	Riders   int       `json:"riders"`
	ArriveAt time.Time `json:"arriveAt"`
	DepartAt time.Time `json:"departAt"`
	LegMiles float64   `json:"legMiles"`
}

type SummaryEvent struct {
	Considered          int `json:"considered"`
	Eligible            int `json:"eligible"`
	EligibleRiders      int `json:"eligibleRiders"`
	Geocoded            int `json:"geocoded"`
	GeocodeFailures     int `json:"geocodeFailures"`
	EligibilityFailures int `json:"eligibilityFailures"`
	Skipped             int `json:"skipped"`
}

// NewPlanEvent flattens a plan. Occupant names are not published: stop
// labels are rebuilt from the sequence and rider count.
func NewPlanEvent(plan *domain.RoutePlan, now time.Time) PlanEvent {
	stops := make([]StopEvent, 0, len(plan.Stops))
	for _, s := range plan.Stops {
		stops = append(stops, StopEvent{
			Sequence: s.Sequence,
			Lat:      s.Location.Lat,
			Lon:      s.Location.Lon,
			Label:    stopLabel(s.Sequence, len(s.Occupants)),
			Riders:   len(s.Occupants),
			ArriveAt: s.ArriveAt,
			DepartAt: s.DepartAt,
			LegMiles: s.LegMiles,
		})
	}

	return PlanEvent{
		PlanID:     plan.PlanID,
		RouteName:  plan.RouteName,
		PlannedAt:  now.UTC(),
		DepartAt:   plan.Schedule.DepartAt,
		ReturnAt:   plan.Schedule.ReturnAt,
		TotalMiles: plan.Schedule.TotalMiles,
		Waypoints:  plan.Waypoints,
		Stops:      stops,
		Summary: SummaryEvent{
			Considered:          plan.Summary.ConsideredCount,
			Eligible:            plan.Summary.EligibleCount,
			EligibleRiders:      plan.Summary.EligibleRiders,
			Geocoded:            plan.Summary.GeocodedCount,
			GeocodeFailures:     plan.Summary.GeocodeFailures,
			EligibilityFailures: plan.Summary.EligibilityFailures,
			Skipped:             plan.Summary.SkippedCount,
		},
	}
}

// stopLabel renders "Stop 3 (2 riders)".
func stopLabel(seq, riders int) string {
	noun := "riders"
	if riders == 1 {
		noun = "rider"
	}
	return fmt.Sprintf("Stop %d (%d %s)", seq, riders, noun)
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
