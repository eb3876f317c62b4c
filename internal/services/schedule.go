package services

import (
	"fmt"
	"math"
	"school-route-service/internal/domain"
	"school-route-service/internal/geo"
	"time"
)

const (
	DefaultAverageSpeedMPH = 35.0
	MinAverageSpeedMPH     = 5.0
	DefaultDwellMinutes    = 1.0
)

// Tuning for the schedule estimator. A zero AverageSpeedMPH means unset and
// takes the 35 mph default; zero DwellMinutes is a valid setting (no dwell).
// Use DefaultScheduleOptions for the documented defaults of both.
type ScheduleOptions struct {
	AverageSpeedMPH float64
	DwellMinutes    float64
}

func DefaultScheduleOptions() ScheduleOptions {
	return ScheduleOptions{
		AverageSpeedMPH: DefaultAverageSpeedMPH,
		DwellMinutes:    DefaultDwellMinutes,
	}
}

// normalized applies the defaults and floors: an unset (zero or NaN) speed
// becomes 35 mph, any other speed below 5 mph is raised to 5, and negative
// dwell becomes zero.
func (o ScheduleOptions) normalized() ScheduleOptions {
	if o.AverageSpeedMPH == 0 || math.IsNaN(o.AverageSpeedMPH) {
		o.AverageSpeedMPH = DefaultAverageSpeedMPH
	}
	if o.AverageSpeedMPH < MinAverageSpeedMPH {
		o.AverageSpeedMPH = MinAverageSpeedMPH
	}
	if o.DwellMinutes < 0 || math.IsNaN(o.DwellMinutes) {
		o.DwellMinutes = 0
	}
	return o
}

// EstimateSchedule walks the sequenced stops from the anchor, filling in each
// stop's LegMiles, ArriveAt and DepartAt, then adds the return leg.
//
// Travel time is distance / speed; each stop adds a fixed dwell before the
// bus departs. No dwell is applied at the anchor on return. Times are plain
// time.Time arithmetic: a run that crosses midnight continues on the next
// calendar day and its clock reading wraps.
func EstimateSchedule(
	anchor domain.Coordinates,
	departAt time.Time,
	stops []*domain.Stop,
	opts ScheduleOptions,
) domain.Schedule {
	opts = opts.normalized()
	dwell := minutes(opts.DwellMinutes)

	currentTime := departAt
	currentLocation := anchor
	totalMiles := 0.0

	for _, s := range stops {
		if len(s.Occupants) == 0 {
			panic(fmt.Sprintf("estimate schedule: stop %d at %v has no occupants", s.Sequence, s.Location))
		}

		legMiles := geo.DistanceMiles(currentLocation, s.Location)
		travel := minutes(geo.TravelMinutes(legMiles, opts.AverageSpeedMPH))

		s.LegMiles = legMiles
		s.ArriveAt = currentTime.Add(travel)
		s.DepartAt = s.ArriveAt.Add(dwell)

		totalMiles += legMiles
		currentTime = s.DepartAt
		currentLocation = s.Location
	}

	// Return leg to the anchor closes the run.
	backMiles := geo.DistanceMiles(currentLocation, anchor)
	returnAt := currentTime.Add(minutes(geo.TravelMinutes(backMiles, opts.AverageSpeedMPH)))
	totalMiles += backMiles

	return domain.Schedule{
		DepartAt:       departAt,
		ReturnAt:       returnAt,
		TotalMiles:     totalMiles,
		ReturnLegMiles: backMiles,
	}
}

// AnnotateArrivalLabels prefixes each label with its arrival clock time,
// e.g. "07:04 Jane Doe". Call after EstimateSchedule.
func AnnotateArrivalLabels(stops []*domain.Stop) {
	for _, s := range stops {
		s.Label = s.ArriveAt.Format("15:04") + " " + s.Label
	}
}

func minutes(m float64) time.Duration {
	return time.Duration(math.Round(m * float64(time.Minute)))
}
