package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector records planning runs. It satisfies services.PlanRecorder and
// the publishers' PublishMetrics.
type Collector struct {
	reg *prometheus.Registry

	Plans               *prometheus.CounterVec // outcome label: ok|empty|cancelled|error
	RidersGeocoded      prometheus.Counter
	GeocodeFailures     prometheus.Counter
	EligibilityFailures prometheus.Counter
	PlanStops           prometheus.Gauge
	PlanDuration        prometheus.Histogram

	Published       *prometheus.CounterVec // transport label: nats|kafka
	PublishErrs     *prometheus.CounterVec
	PublishDuration prometheus.Histogram
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "route_plans_total",
			Help: "Planning runs by outcome.",
		}, []string{"outcome"}),
		RidersGeocoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "route_riders_geocoded_total",
			Help: "Riders whose home was resolved by the geocoder.",
		}),
		GeocodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "route_geocode_failures_total",
			Help: "Riders left off a route because geocoding failed.",
		}),
		EligibilityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "route_eligibility_failures_total",
			Help: "Eligibility checks that errored and were treated as ineligible.",
		}),
		PlanStops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "route_plan_stops",
			Help: "Stops in the most recent successful plan.",
		}),
		PlanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "route_plan_duration_seconds",
			Help:    "Wall time of planning runs.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "route_plans_published_total",
			Help: "Plans handed to reporting.",
		}, []string{"transport"}),
		PublishErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "route_plan_publish_errors_total",
			Help: "Failed plan hand-offs.",
		}, []string{"transport"}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "route_plan_publish_duration_seconds",
			Help:    "Duration to marshal and publish a plan.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
	}

	reg.MustRegister(
		c.Plans, c.RidersGeocoded, c.GeocodeFailures, c.EligibilityFailures,
		c.PlanStops, c.PlanDuration,
		c.Published, c.PublishErrs, c.PublishDuration,
	)

	return c
}

func (c *Collector) RiderGeocoded()     { c.RidersGeocoded.Inc() }
func (c *Collector) GeocodeFailed()     { c.GeocodeFailures.Inc() }
func (c *Collector) EligibilityFailed() { c.EligibilityFailures.Inc() }

func (c *Collector) PlanFinished(outcome string, stops int, dur time.Duration) {
	c.Plans.WithLabelValues(outcome).Inc()
	c.PlanDuration.Observe(dur.Seconds())
	if outcome == "ok" || outcome == "empty" {
		c.PlanStops.Set(float64(stops))
	}
}

func (c *Collector) PublishObserve(transport string, d time.Duration, err error) {
	c.PublishDuration.Observe(d.Seconds())
	if err != nil {
		c.PublishErrs.WithLabelValues(transport).Inc()
		return
	}
	c.Published.WithLabelValues(transport).Inc()
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))
	return srv
}
