package dto

import "time"

type PlanRequest struct {
	RouteName string `json:"route_name"`
	// "HH:MM", defaults to the configured departure time.
	DepartureTime *string `json:"departure_time"`
	// "YYYY-MM-DD", defaults to today.
	ServiceDate     *string  `json:"service_date"`
	AverageSpeedMPH *float64 `json:"average_speed_mph"`
	DwellMinutes    *float64 `json:"dwell_minutes"`
	LabelArrivals   bool     `json:"label_arrivals"`
}

type PlanStopResponse struct {
	Sequence  int       `json:"sequence"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Label     string    `json:"label"`
	Occupants []string  `json:"occupants"`
	LegMiles  float64   `json:"leg_miles"`
	ArriveAt  time.Time `json:"arrive_at"`
	DepartAt  time.Time `json:"depart_at"`
}

type PlanSummaryResponse struct {
	ConsideredCount     int `json:"considered_count"`
	EligibleCount       int `json:"eligible_count"`
	EligibleRiders      int `json:"eligible_riders"`
	GeocodedCount       int `json:"geocoded_count"`
	GeocodeFailures     int `json:"geocode_failures"`
	EligibilityFailures int `json:"eligibility_failures"`
	SkippedCount        int `json:"skipped_count"`
}

type PlanResponse struct {
	PlanID         string              `json:"plan_id"`
	RouteName      string              `json:"route_name"`
	DepartAt       time.Time           `json:"depart_at"`
	ReturnAt       time.Time           `json:"return_at"`
	TotalMiles     float64             `json:"total_miles"`
	ReturnLegMiles float64             `json:"return_leg_miles"`
	Stops          []PlanStopResponse  `json:"stops"`
	Waypoints      string              `json:"waypoints"`
	Summary        PlanSummaryResponse `json:"summary"`
}
