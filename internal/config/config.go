package config

import (
	"errors"
	"fmt"
	"math"
	"school-route-service/internal/domain"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config holds everything the server and dbtool need.
type Config struct {
	Port   string
	AppEnv string

	DBDriver    string
	DBPath      string
	DatabaseURL string
	SeedPath    string

	Anchor          domain.Coordinates
	AverageSpeedMPH float64
	DwellMinutes    float64
	MergeTolerance  float64
	// Minutes after midnight, local time.
	DepartureMinute int

	Geocoder        string
	ORSAPIKey       string
	GeocodeCache    string
	RedisAddr       string
	RedisGeocodeTTL time.Duration

	DistrictGeoJSON string
	ExemptGeoJSON   string

	Publisher    string
	NATSURL      string
	NATSSubject  string
	KafkaBrokers []string
	KafkaTopic   string

	MetricsAddr string
	CORSOrigins []string
}

var defaults = map[string]any{
	"PORT":                    "8080",
	"APP_ENV":                 "development",
	"DB_DRIVER":               "sqlite",
	"DB_PATH":                 "data/app.db",
	"DATABASE_URL":            "",
	"SEED_PATH":               "data/seeds/riders.json",
	"ANCHOR_LAT":              38.1527,
	"ANCHOR_LON":              -102.7204,
	"AVERAGE_SPEED_MPH":       35.0,
	"DWELL_MINUTES":           1.0,
	"MERGE_TOLERANCE_DEGREES": 0.00005,
	"DEPARTURE_TIME":          "06:50",
	"GEOCODER":                "offline",
	"ORS_API_KEY":             "",
	"GEOCODE_CACHE":           "sql",
	"REDIS_ADDR":              "localhost:6379",
	"REDIS_GEOCODE_TTL":       "720h",
	"DISTRICT_GEOJSON":        "",
	"EXEMPT_GEOJSON":          "",
	"PUBLISHER":               "none",
	"NATS_URL":                "nats://localhost:4222",
	"NATS_SUBJECT":            "routes.planned",
	"KAFKA_BROKERS":           "localhost:9092",
	"KAFKA_TOPIC":             "routes.planned",
	"METRICS_ADDR":            "",
	"CORS_ORIGINS":            "",
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	return v
}

// FromViper builds and validates a Config from an already populated viper.
// Every problem is reported, not just the first.
func FromViper(v *viper.Viper) (*Config, error) {
	var errs []error

	num := func(key string) float64 {
		f, err := cast.ToFloat64E(v.Get(key))
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			errs = append(errs, fmt.Errorf("%s: want a number, got %q", key, v.GetString(key)))
			return 0
		}
		return f
	}

	ttl, err := cast.ToDurationE(v.Get("REDIS_GEOCODE_TTL"))
	if err != nil {
		errs = append(errs, fmt.Errorf("REDIS_GEOCODE_TTL: want a duration, got %q", v.GetString("REDIS_GEOCODE_TTL")))
	}

	cfg := &Config{
		Port:            strings.TrimPrefix(v.GetString("PORT"), ":"),
		AppEnv:          v.GetString("APP_ENV"),
		DBDriver:        strings.ToLower(v.GetString("DB_DRIVER")),
		DBPath:          v.GetString("DB_PATH"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		SeedPath:        v.GetString("SEED_PATH"),
		Anchor:          domain.Coordinates{Lat: num("ANCHOR_LAT"), Lon: num("ANCHOR_LON")},
		AverageSpeedMPH: num("AVERAGE_SPEED_MPH"),
		DwellMinutes:    num("DWELL_MINUTES"),
		MergeTolerance:  num("MERGE_TOLERANCE_DEGREES"),
		Geocoder:        strings.ToLower(v.GetString("GEOCODER")),
		ORSAPIKey:       v.GetString("ORS_API_KEY"),
		GeocodeCache:    strings.ToLower(v.GetString("GEOCODE_CACHE")),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisGeocodeTTL: ttl,
		DistrictGeoJSON: v.GetString("DISTRICT_GEOJSON"),
		ExemptGeoJSON:   v.GetString("EXEMPT_GEOJSON"),
		Publisher:       strings.ToLower(v.GetString("PUBLISHER")),
		NATSURL:         v.GetString("NATS_URL"),
		NATSSubject:     v.GetString("NATS_SUBJECT"),
		KafkaBrokers:    splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:      v.GetString("KAFKA_TOPIC"),
		MetricsAddr:     v.GetString("METRICS_ADDR"),
		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
	}

	dep, err := ParseClock(v.GetString("DEPARTURE_TIME"))
	if err != nil {
		errs = append(errs, fmt.Errorf("DEPARTURE_TIME: %w", err))
	}
	cfg.DepartureMinute = dep

	if err := errors.Join(append(errs, cfg.validate())...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.Anchor.Lat < -90 || c.Anchor.Lat > 90 || c.Anchor.Lon < -180 || c.Anchor.Lon > 180 {
		errs = append(errs, fmt.Errorf("anchor %v out of range", c.Anchor))
	}
	if c.MergeTolerance < 0 {
		errs = append(errs, errors.New("MERGE_TOLERANCE_DEGREES must be >= 0"))
	}
	if c.AverageSpeedMPH <= 0 {
		errs = append(errs, errors.New("AVERAGE_SPEED_MPH must be > 0"))
	}
	if c.DwellMinutes < 0 {
		errs = append(errs, errors.New("DWELL_MINUTES must be >= 0"))
	}
	if c.RedisGeocodeTTL < 0 {
		errs = append(errs, errors.New("REDIS_GEOCODE_TTL must be >= 0"))
	}

	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite"))
		}
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q: want sqlite or postgres", c.DBDriver))
	}

	switch c.Geocoder {
	case "offline":
	case "ors":
		if strings.TrimSpace(c.ORSAPIKey) == "" {
			errs = append(errs, errors.New("ORS_API_KEY is required when GEOCODER=ors"))
		}
	default:
		errs = append(errs, fmt.Errorf("GEOCODER %q: want offline or ors", c.Geocoder))
	}

	switch c.GeocodeCache {
	case "sql", "redis", "none":
	default:
		errs = append(errs, fmt.Errorf("GEOCODE_CACHE %q: want sql, redis or none", c.GeocodeCache))
	}

	switch c.Publisher {
	case "none", "nats", "kafka":
	default:
		errs = append(errs, fmt.Errorf("PUBLISHER %q: want none, nats or kafka", c.Publisher))
	}
	if c.Publisher == "kafka" && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when PUBLISHER=kafka"))
	}

	return errors.Join(errs...)
}

// DepartureOn returns the wall-clock time minute (after midnight) on day's
// date, in day's location.
func DepartureOn(day time.Time, minute int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, minute/60, minute%60, 0, 0, day.Location())
}

// ParseClock parses "HH:MM" (24h) into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
