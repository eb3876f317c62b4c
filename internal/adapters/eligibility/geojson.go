package eligibility

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type point struct{ x, y float64 } // x = lon, y = lat

// polygon is an outer ring followed by zero or more holes.
type polygon struct {
	rings [][]point
}

type geoJSONObject struct {
	Type        string          `json:"type"`
	Features    []geoJSONObject `json:"features"`
	Geometry    *geoJSONObject  `json:"geometry"`
	Geometries  []geoJSONObject `json:"geometries"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// parsePolygons extracts every Polygon and MultiPolygon from a
// FeatureCollection, a Feature or a bare geometry. Other geometry types are
// ignored; rings with fewer than three points are dropped.
func parsePolygons(data []byte) ([]polygon, error) {
	var root geoJSONObject
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	if root.Type == "" {
		return nil, errors.New("parse geojson: missing type")
	}

	var out []polygon
	if err := collect(&root, &out); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	return out, nil
}

func collect(obj *geoJSONObject, out *[]polygon) error {
	switch {
	case strings.EqualFold(obj.Type, "FeatureCollection"):
		for i := range obj.Features {
			if err := collect(&obj.Features[i], out); err != nil {
				return err
			}
		}
	case strings.EqualFold(obj.Type, "Feature"):
		if obj.Geometry != nil {
			return collect(obj.Geometry, out)
		}
	case strings.EqualFold(obj.Type, "GeometryCollection"):
		for i := range obj.Geometries {
			if err := collect(&obj.Geometries[i], out); err != nil {
				return err
			}
		}
	case strings.EqualFold(obj.Type, "Polygon"):
		var coords [][][]float64
		if err := json.Unmarshal(obj.Coordinates, &coords); err != nil {
			return fmt.Errorf("polygon coordinates: %w", err)
		}
		if p, ok := toPolygon(coords); ok {
			*out = append(*out, p)
		}
	case strings.EqualFold(obj.Type, "MultiPolygon"):
		var coords [][][][]float64
		if err := json.Unmarshal(obj.Coordinates, &coords); err != nil {
			return fmt.Errorf("multipolygon coordinates: %w", err)
		}
		for _, c := range coords {
			if p, ok := toPolygon(c); ok {
				*out = append(*out, p)
			}
		}
	}
	return nil
}

// toPolygon keeps rings with at least three points. A degenerate outer ring
// rejects the whole polygon so a hole is never promoted to the boundary.
func toPolygon(coords [][][]float64) (polygon, bool) {
	var p polygon
	for i, ring := range coords {
		pts := make([]point, 0, len(ring))
		for _, c := range ring {
			if len(c) < 2 {
				continue
			}
			pts = append(pts, point{x: c[0], y: c[1]})
		}
		if len(pts) < 3 {
			if i == 0 {
				return polygon{}, false
			}
			continue
		}
		p.rings = append(p.rings, pts)
	}
	return p, len(p.rings) > 0
}

// contains reports whether (x, y) lies inside the outer ring and outside
// every hole.
func (p polygon) contains(x, y float64) bool {
	if !ringContains(p.rings[0], x, y) {
		return false
	}
	for _, hole := range p.rings[1:] {
		if ringContains(hole, x, y) {
			return false
		}
	}
	return true
}

// ringContains is the even-odd ray casting test.
func ringContains(ring []point, x, y float64) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.y > y) == (b.y > y) {
			continue
		}
		dy := b.y - a.y
		if dy == 0 {
			dy = 1e-12
		}
		if x < (b.x-a.x)*(y-a.y)/dy+a.x {
			inside = !inside
		}
	}
	return inside
}
