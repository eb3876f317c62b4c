package api

import (
	"net/http"
	"school-route-service/internal/api/handlers"
	"school-route-service/internal/ports"
	"school-route-service/internal/services"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Dependencies of the HTTP surface.
type Deps struct {
	Riders      ports.RiderRepository
	Routes      *services.RouteService
	Defaults    handlers.PlanDefaults
	Metrics     http.Handler // optional, mounted at /metrics
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()

	riderHandler := &handlers.RiderHandler{Repo: d.Riders}
	planHandler := &handlers.PlanHandler{Service: d.Routes, Defaults: d.Defaults}
	routeHandler := &handlers.RouteHandler{Service: d.Routes}

	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	r.HandleFunc("/riders", riderHandler.List).Methods(http.MethodGet)
	r.HandleFunc("/plans", planHandler.Plan).Methods(http.MethodPost)
	r.HandleFunc("/routes/{name}/waypoints", routeHandler.Waypoints).Methods(http.MethodGet)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics).Methods(http.MethodGet)
	}

	r.Use(requestIDMiddleware, loggingMiddleware(logger), recoveryMiddleware(logger))

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(origins),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
	)

	return cors(r)
}
