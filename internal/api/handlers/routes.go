package handlers

import (
	"errors"
	"net/http"
	"school-route-service/internal/api/dto"
	"school-route-service/internal/ports"
	"school-route-service/internal/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type RouteHandler struct {
	Service *services.RouteService
}

// Waypoints returns the stored coordinate sequence of a planned route.
func (h *RouteHandler) Waypoints(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	coords, err := h.Service.RouteWaypoints(r.Context(), name)
	if errors.Is(err, ports.ErrRouteNotFound) {
		writeError(w, r, http.StatusNotFound, "route not found")
		return
	}
	if err != nil {
		zap.L().Error("load waypoints failed", zap.String("route", name), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.WaypointsResponse{
		RouteName: name,
		Waypoints: make([]dto.CoordinateResponse, 0, len(coords)),
	}
	for _, c := range coords {
		res.Waypoints = append(res.Waypoints, dto.CoordinateResponse{Lat: c.Lat, Lon: c.Lon})
	}

	writeJSON(w, r, http.StatusOK, res)
}
