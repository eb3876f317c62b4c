package services

import (
	"errors"
	"fmt"
	"math"
	"school-route-service/internal/domain"
	"strings"

	"github.com/mmcloughlin/geohash"
)

// DefaultMergeTolerance is the per-axis coordinate delta (degrees, ~5 m)
// under which two riders share a stop.
const DefaultMergeTolerance = 0.00005

// labelNameLimit is how many occupant names a generated label lists.
const labelNameLimit = 3

// ErrNoOccupants is returned when a stop would be plotted without any rider.
var ErrNoOccupants = errors.New("stop requires at least one occupant")

type stopMeta struct {
	seen     map[string]struct{}
	explicit bool
}

// StopSet aggregates riders into pickup stops for one planning run.
//
// Stops are kept in creation order. Candidate lookup goes through a geohash
// grid whose cells are at least as large as the tolerance, so a matching stop
// is always in the point's own cell or one of its eight neighbours. Among
// candidates the earliest created stop wins, which matches a linear scan.
// A StopSet is not safe for concurrent use.
type StopSet struct {
	tolerance float64
	precision uint
	stops     []*domain.Stop
	meta      []stopMeta
	cells     map[string][]int
}

// NewStopSet returns an empty set. A negative tolerance selects DefaultMergeTolerance.
func NewStopSet(tolerance float64) *StopSet {
	if tolerance < 0 || math.IsNaN(tolerance) {
		tolerance = DefaultMergeTolerance
	}

	return &StopSet{
		tolerance: tolerance,
		precision: cellPrecision(tolerance),
		cells:     make(map[string][]int),
	}
}

// Plot places occupants at c, reusing the first stop within tolerance.
// An explicit label replaces the stop's label and is kept until another
// explicit label is supplied; otherwise the label is derived from occupants.
func (s *StopSet) Plot(c domain.Coordinates, occupants []string, explicitLabel string) (*domain.Stop, error) {
	names := make([]string, 0, len(occupants))
	for _, n := range occupants {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("plot stop at %v: %w", c, ErrNoOccupants)
	}

	idx := s.find(c)
	if idx < 0 {
		idx = s.add(c)
	}

	stop := s.stops[idx]
	meta := &s.meta[idx]
	for _, n := range names {
		key := strings.ToLower(n)
		if _, ok := meta.seen[key]; ok {
			continue
		}
		meta.seen[key] = struct{}{}
		stop.Occupants = append(stop.Occupants, n)
	}

	explicitLabel = strings.TrimSpace(explicitLabel)
	switch {
	case explicitLabel != "":
		stop.Label = explicitLabel
		meta.explicit = true
	case !meta.explicit:
		stop.Label = OccupantLabel(stop.Occupants)
	}

	return stop, nil
}

// Stops returns the stops in creation order.
func (s *StopSet) Stops() []*domain.Stop {
	out := make([]*domain.Stop, len(s.stops))
	copy(out, s.stops)
	return out
}

func (s *StopSet) Len() int { return len(s.stops) }

func (s *StopSet) add(c domain.Coordinates) int {
	idx := len(s.stops)
	s.stops = append(s.stops, &domain.Stop{Location: c})
	s.meta = append(s.meta, stopMeta{seen: make(map[string]struct{})})

	if s.precision > 0 {
		cell := geohash.EncodeWithPrecision(c.Lat, c.Lon, s.precision)
		s.cells[cell] = append(s.cells[cell], idx)
	}

	return idx
}

// find returns the index of the earliest stop within tolerance of c, or -1.
func (s *StopSet) find(c domain.Coordinates) int {
	if s.precision == 0 {
		for i, st := range s.stops {
			if s.within(st.Location, c) {
				return i
			}
		}
		return -1
	}

	cell := geohash.EncodeWithPrecision(c.Lat, c.Lon, s.precision)
	best := -1
	for _, h := range append(geohash.Neighbors(cell), cell) {
		for _, i := range s.cells[h] {
			if (best < 0 || i < best) && s.within(s.stops[i].Location, c) {
				best = i
			}
		}
	}

	return best
}

func (s *StopSet) within(a, b domain.Coordinates) bool {
	return math.Abs(a.Lat-b.Lat) <= s.tolerance && math.Abs(a.Lon-b.Lon) <= s.tolerance
}

// OccupantLabel renders "Jane Doe" for one occupant and
// "4 students: A, B, C +1 more" for several.
func OccupantLabel(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}

	shown := names
	if len(shown) > labelNameLimit {
		shown = shown[:labelNameLimit]
	}

	label := fmt.Sprintf("%d students: %s", len(names), strings.Join(shown, ", "))
	if extra := len(names) - labelNameLimit; extra > 0 {
		label += fmt.Sprintf(" +%d more", extra)
	}

	return label
}

// cellPrecision picks the finest geohash length whose cells are no smaller
// than tol on either axis. Zero means the tolerance is too coarse for any
// cell and lookups fall back to a linear scan.
func cellPrecision(tol float64) uint {
	for chars := uint(12); chars >= 1; chars-- {
		bits := 5 * chars
		lonBits := (bits + 1) / 2
		latBits := bits / 2
		height := 180 / math.Pow(2, float64(latBits))
		width := 360 / math.Pow(2, float64(lonBits))
		if height >= tol && width >= tol {
			return chars
		}
	}
	return 0
}
