package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"school-route-service/internal/domain"
	"school-route-service/internal/platform/obs"
	"school-route-service/internal/ports"
	"strings"
	"time"
)

const defaultORSBaseURL = "https://api.openrouteservice.org"

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder implements ports.Geocoder using the OpenRouteService
// /geocode/search endpoint. It is safe for concurrent use.
type ORSGeocoder struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	country     string
	maxAttempts int
	backoff     time.Duration
}

type ORSOption func(*ORSGeocoder)

// WithBaseURL points the geocoder at another ORS-compatible host.
func WithBaseURL(u string) ORSOption {
	return func(o *ORSGeocoder) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) ORSOption {
	return func(o *ORSGeocoder) { o.session = c }
}

// WithRetry sets the attempt limit and the initial backoff.
func WithRetry(maxAttempts int, backoff time.Duration) ORSOption {
	return func(o *ORSGeocoder) {
		if maxAttempts > 0 {
			o.maxAttempts = maxAttempts
		}
		if backoff > 0 {
			o.backoff = backoff
		}
	}
}

func NewORSGeocoder(apiKey string, opts ...ORSOption) (*ORSGeocoder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	o := &ORSGeocoder{
		session:     &http.Client{Timeout: 10 * time.Second},
		apiKey:      apiKey,
		baseURL:     defaultORSBaseURL,
		country:     "US",
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// Geocode resolves one address to the best ORS match.
// An empty result set is reported as ports.ErrAddressNotFound.
func (o *ORSGeocoder) Geocode(ctx context.Context, addr domain.Address) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	text := normalize(addr.String())
	if text == "" {
		return domain.Coordinates{}, fmt.Errorf("geocode: %w", ports.ErrAddressNotFound)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newSearchRequest(ctx, text)
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: execute request: %w", text, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: decode response: %w", text, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", text, ports.ErrAddressNotFound)
	}

	// GeoJSON order is [lon, lat].
	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) < 2 {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: invalid coordinate format", text)
	}

	return domain.Coordinates{Lat: coords[1], Lon: coords[0]}, nil
}

// normalize collapses whitespace so equivalent addresses share cache keys.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
