package eligibility

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"school-route-service/internal/domain"
)

// BoundaryEvaluator implements ports.EligibilityEvaluator from GeoJSON
// boundaries: a home qualifies when it lies inside the service district and
// outside the exempt area (typically the walk zone of the town itself).
type BoundaryEvaluator struct {
	district *polygonIndex
	exempt   *polygonIndex
}

// NewBoundaryEvaluator parses the district and exempt GeoJSON documents.
// The district must contain at least one polygon; exempt may be empty.
func NewBoundaryEvaluator(district, exempt []byte) (*BoundaryEvaluator, error) {
	districtPolys, err := parsePolygons(district)
	if err != nil {
		return nil, fmt.Errorf("district boundary: %w", err)
	}
	if len(districtPolys) == 0 {
		return nil, errors.New("district boundary: no polygons found")
	}

	var exemptPolys []polygon
	if len(exempt) > 0 {
		exemptPolys, err = parsePolygons(exempt)
		if err != nil {
			return nil, fmt.Errorf("exempt boundary: %w", err)
		}
	}

	d, err := newPolygonIndex(districtPolys)
	if err != nil {
		return nil, fmt.Errorf("district boundary: index: %w", err)
	}
	e, err := newPolygonIndex(exemptPolys)
	if err != nil {
		return nil, fmt.Errorf("exempt boundary: index: %w", err)
	}

	return &BoundaryEvaluator{district: d, exempt: e}, nil
}

// LoadBoundaryEvaluator reads both documents from disk. An empty exemptPath
// means nothing is exempt.
func LoadBoundaryEvaluator(districtPath, exemptPath string) (*BoundaryEvaluator, error) {
	district, err := os.ReadFile(districtPath)
	if err != nil {
		return nil, fmt.Errorf("load district boundary: %w", err)
	}

	var exempt []byte
	if exemptPath != "" {
		exempt, err = os.ReadFile(exemptPath)
		if err != nil {
			return nil, fmt.Errorf("load exempt boundary: %w", err)
		}
	}

	return NewBoundaryEvaluator(district, exempt)
}

func (b *BoundaryEvaluator) IsEligible(ctx context.Context, c domain.Coordinates) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false, fmt.Errorf("is eligible: invalid coordinates %v", c)
	}

	if !b.district.contains(c.Lon, c.Lat) {
		return false, nil
	}
	return !b.exempt.contains(c.Lon, c.Lat), nil
}
