package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"school-route-service/internal/adapters/cache"
	"school-route-service/internal/adapters/eligibility"
	"school-route-service/internal/adapters/geocode"
	"school-route-service/internal/adapters/publisher"
	"school-route-service/internal/adapters/repositories"
	"school-route-service/internal/api"
	"school-route-service/internal/api/handlers"
	"school-route-service/internal/config"
	"school-route-service/internal/metrics"
	"school-route-service/internal/platform/db"
	"school-route-service/internal/platform/logger"
	"school-route-service/internal/ports"
	"school-route-service/internal/services"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.AppEnv, "school-route-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialect, _ := repositories.ParseDialect(cfg.DBDriver)
	sqlDB, err := openStore(ctx, cfg, dialect, log)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer sqlDB.Close()

	collector := metrics.NewCollector()

	geocoder, closeGeocoder, err := buildGeocoder(cfg, sqlDB, dialect, log)
	if err != nil {
		log.Fatal("failed to build geocoder", zap.Error(err))
	}
	defer closeGeocoder()

	var evaluator ports.EligibilityEvaluator
	if cfg.DistrictGeoJSON != "" {
		be, err := eligibility.LoadBoundaryEvaluator(cfg.DistrictGeoJSON, cfg.ExemptGeoJSON)
		if err != nil {
			log.Fatal("failed to load district boundary", zap.Error(err))
		}
		evaluator = be
		log.Info("district boundary loaded", zap.String("path", cfg.DistrictGeoJSON))
	} else {
		log.Warn("DISTRICT_GEOJSON not set; every located rider is eligible")
	}

	pub, err := buildPublisher(cfg, collector, log)
	if err != nil {
		log.Fatal("failed to build publisher", zap.Error(err))
	}
	if pub != nil {
		defer func() { _ = pub.Close() }()
	}

	repo := repositories.NewSQLRiderRepository(sqlDB, dialect)
	routeService := &services.RouteService{
		Repo:      repo,
		Planner:   services.NewRoutePlanner(geocoder, evaluator, collector, log),
		Store:     repositories.NewSQLWaypointStore(sqlDB, dialect),
		Publisher: pub,
		Logger:    log,
	}

	deps := api.Deps{
		Riders: repo,
		Routes: routeService,
		Defaults: handlers.PlanDefaults{
			Anchor:          cfg.Anchor,
			AverageSpeedMPH: cfg.AverageSpeedMPH,
			DwellMinutes:    cfg.DwellMinutes,
			MergeTolerance:  cfg.MergeTolerance,
			DepartureMinute: cfg.DepartureMinute,
			Location:        time.Local,
		},
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log,
	}

	// A dedicated metrics listener keeps /metrics off the public port.
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = collector.Serve(cfg.MetricsAddr, log)
	} else {
		deps.Metrics = collector.Handler()
	}

	// Timeouts are tuned for cold-cache planning (external geocoder latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down school-route-service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	log.Info("school-route-service stopped")
}

// openStore opens the configured database and brings its schema up to date.
// SQLite is also seeded for local runs.
func openStore(ctx context.Context, cfg *config.Config, dialect repositories.Dialect, log *zap.Logger) (*sql.DB, error) {
	if dialect == repositories.Postgres {
		if err := repositories.Migrate(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return db.OpenPostgres(ctx, cfg.DatabaseURL)
	}

	sqlDB, err := db.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if err := repositories.InitSchema(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	if cfg.SeedPath != "" {
		n, err := repositories.SeedFromJSON(ctx, repositories.NewSQLRiderRepository(sqlDB, dialect), cfg.SeedPath)
		if err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("open store: %w", err)
		}
		log.Info("roster seeded", zap.Int("riders", n), zap.String("path", cfg.SeedPath))
	}

	return sqlDB, nil
}

func buildGeocoder(
	cfg *config.Config,
	sqlDB *sql.DB,
	dialect repositories.Dialect,
	log *zap.Logger,
) (ports.Geocoder, func(), error) {
	var next ports.Geocoder
	switch cfg.Geocoder {
	case "ors":
		g, err := geocode.NewORSGeocoder(cfg.ORSAPIKey)
		if err != nil {
			return nil, nil, err
		}
		next = g
	default:
		next = geocode.NewOfflineGeocoder(cfg.Anchor)
	}

	noop := func() {}
	switch cfg.GeocodeCache {
	case "sql":
		var store ports.GeocodeCache = cache.NewSqliteGeocodeCache(sqlDB)
		if dialect == repositories.Postgres {
			store = cache.NewPostgresGeocodeCache(sqlDB)
		}
		return geocode.NewCachedGeocoder(next, store, log), noop, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store := cache.NewRedisGeocodeCache(client, cfg.RedisGeocodeTTL)
		return geocode.NewCachedGeocoder(next, store, log), func() { _ = client.Close() }, nil
	default:
		return next, noop, nil
	}
}

func buildPublisher(cfg *config.Config, m *metrics.Collector, log *zap.Logger) (ports.PlanPublisher, error) {
	switch cfg.Publisher {
	case "nats":
		return publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, m, log)
	case "kafka":
		return publisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, m, log)
	default:
		return nil, nil
	}
}
