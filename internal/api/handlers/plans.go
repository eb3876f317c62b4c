package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"school-route-service/internal/api/dto"
	"school-route-service/internal/config"
	"school-route-service/internal/domain"
	"school-route-service/internal/services"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxRouteNameLen = 100

// PlanDefaults fills in whatever a request leaves out.
type PlanDefaults struct {
	Anchor          domain.Coordinates
	AverageSpeedMPH float64
	DwellMinutes    float64
	MergeTolerance  float64
	DepartureMinute int
	Location        *time.Location
	Now             func() time.Time
}

type PlanHandler struct {
	Service  *services.RouteService
	Defaults PlanDefaults
}

// Plan runs the planning pipeline over the current roster, stores the
// waypoints under route_name and returns the timed stops.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	routeName := strings.TrimSpace(req.RouteName)
	if routeName == "" {
		writeError(w, r, http.StatusBadRequest, "route_name is required")
		return
	}
	if len(routeName) > maxRouteNameLen {
		writeError(w, r, http.StatusBadRequest, "route_name must be at most 100 characters")
		return
	}

	departAt, msg := h.departure(req)
	if msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	opts := services.ScheduleOptions{
		AverageSpeedMPH: h.Defaults.AverageSpeedMPH,
		DwellMinutes:    h.Defaults.DwellMinutes,
	}
	if req.AverageSpeedMPH != nil {
		if *req.AverageSpeedMPH <= 0 {
			writeError(w, r, http.StatusBadRequest, "average_speed_mph must be positive")
			return
		}
		opts.AverageSpeedMPH = *req.AverageSpeedMPH
	}
	if req.DwellMinutes != nil {
		if *req.DwellMinutes < 0 {
			writeError(w, r, http.StatusBadRequest, "dwell_minutes must not be negative")
			return
		}
		opts.DwellMinutes = *req.DwellMinutes
	}

	plan, err := h.Service.PlanRoute(r.Context(), services.PlanRequest{
		RouteName:      routeName,
		Anchor:         h.Defaults.Anchor,
		DepartAt:       departAt,
		MergeTolerance: h.Defaults.MergeTolerance,
		Schedule:       opts,
		LabelArrivals:  req.LabelArrivals,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(w, r, http.StatusServiceUnavailable, "planning cancelled")
			return
		}
		zap.L().Error("plan route failed", zap.String("route", routeName), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, toPlanResponse(plan))
}

func (h *PlanHandler) departure(req dto.PlanRequest) (time.Time, string) {
	loc := h.Defaults.Location
	if loc == nil {
		loc = time.Local
	}
	now := time.Now
	if h.Defaults.Now != nil {
		now = h.Defaults.Now
	}

	day := now().In(loc)
	if req.ServiceDate != nil {
		d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(*req.ServiceDate), loc)
		if err != nil {
			return time.Time{}, "service_date must be YYYY-MM-DD"
		}
		day = d
	}

	minute := h.Defaults.DepartureMinute
	if req.DepartureTime != nil {
		m, err := config.ParseClock(*req.DepartureTime)
		if err != nil {
			return time.Time{}, "departure_time must be HH:MM"
		}
		minute = m
	}

	return config.DepartureOn(day, minute), ""
}

func toPlanResponse(p *domain.RoutePlan) dto.PlanResponse {
	stops := make([]dto.PlanStopResponse, 0, len(p.Stops))
	for _, s := range p.Stops {
		stops = append(stops, dto.PlanStopResponse{
			Sequence:  s.Sequence,
			Lat:       s.Location.Lat,
			Lon:       s.Location.Lon,
			Label:     s.Label,
			Occupants: s.Occupants,
			LegMiles:  s.LegMiles,
			ArriveAt:  s.ArriveAt,
			DepartAt:  s.DepartAt,
		})
	}

	return dto.PlanResponse{
		PlanID:         p.PlanID,
		RouteName:      p.RouteName,
		DepartAt:       p.Schedule.DepartAt,
		ReturnAt:       p.Schedule.ReturnAt,
		TotalMiles:     p.Schedule.TotalMiles,
		ReturnLegMiles: p.Schedule.ReturnLegMiles,
		Stops:          stops,
		Waypoints:      p.Waypoints,
		Summary: dto.PlanSummaryResponse{
			ConsideredCount:     p.Summary.ConsideredCount,
			EligibleCount:       p.Summary.EligibleCount,
			EligibleRiders:      p.Summary.EligibleRiders,
			GeocodedCount:       p.Summary.GeocodedCount,
			GeocodeFailures:     p.Summary.GeocodeFailures,
			EligibilityFailures: p.Summary.EligibilityFailures,
			SkippedCount:        p.Summary.SkippedCount,
		},
	}
}
