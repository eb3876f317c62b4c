package eligibility

import (
	"math"

	"github.com/dhconnelly/rtreego"
)

// Minimum edge length of an indexed box; rtreego rejects zero-width rects.
const minBoxEdge = 1e-9

type indexedPolygon struct {
	polygon
	box rtreego.Rect
}

func (p *indexedPolygon) Bounds() rtreego.Rect { return p.box }

// polygonIndex answers point-in-any-polygon queries, using an R-tree of
// outer-ring bounding boxes to pick candidates. It is read-only after
// construction and safe for concurrent queries.
type polygonIndex struct {
	tree  *rtreego.Rtree
	count int
}

func newPolygonIndex(polys []polygon) (*polygonIndex, error) {
	tree := rtreego.NewTree(2, 25, 50)
	for _, p := range polys {
		box, err := boundingBox(p.rings[0])
		if err != nil {
			return nil, err
		}
		tree.Insert(&indexedPolygon{polygon: p, box: box})
	}
	return &polygonIndex{tree: tree, count: len(polys)}, nil
}

func (ix *polygonIndex) contains(lon, lat float64) bool {
	if ix == nil || ix.count == 0 {
		return false
	}

	probe := rtreego.Point{lon, lat}.ToRect(minBoxEdge)
	for _, s := range ix.tree.SearchIntersect(probe) {
		if s.(*indexedPolygon).contains(lon, lat) {
			return true
		}
	}
	return false
}

func boundingBox(ring []point) (rtreego.Rect, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range ring {
		minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
		minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
	}

	return rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{math.Max(maxX-minX, minBoxEdge), math.Max(maxY-minY, minBoxEdge)},
	)
}
