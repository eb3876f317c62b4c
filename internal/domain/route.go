package domain

import "time"

// Represents a single pickup point in a route.
// A Stop aggregates one or more riders living within the merge tolerance
// of each other. Coordinates are fixed at creation; Sequence, ArriveAt and
// DepartAt are filled in by the sequencer and the schedule estimator.
type Stop struct {
	Sequence  int
	Location  Coordinates
	Label     string
	Occupants []string
	LegMiles  float64
	ArriveAt  time.Time
	DepartAt  time.Time
}

// Timed estimate for a sequenced run from the anchor and back.
type Schedule struct {
	DepartAt       time.Time
	ReturnAt       time.Time
	TotalMiles     float64
	ReturnLegMiles float64
}

// Counters describing how the roster was processed during a planning run.
// EligibleCount is the number of distinct eligible pickup locations (stops
// after merging); EligibleRiders counts the riders that passed eligibility.
type PlanSummary struct {
	TotalMiles          float64
	ReturnAt            time.Time
	EligibleCount       int
	EligibleRiders      int
	ConsideredCount     int
	GeocodedCount       int
	GeocodeFailures     int
	EligibilityFailures int
	SkippedCount        int
}

// Represents the planned pickup run for a single vehicle.
// A RoutePlan is transient planning data: only Waypoints is persisted.
type RoutePlan struct {
	PlanID    string
	RouteName string
	Anchor    Coordinates
	Stops     []*Stop
	Schedule  Schedule
	Waypoints string
	Summary   PlanSummary
}
