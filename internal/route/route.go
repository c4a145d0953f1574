// Package route holds the immutable route geometry produced by a routing
// fetch and the position-at-time interpolation used to animate agents
// along it.
package route

import (
	"sort"

	"github.com/ubi-africa/ridewalk/internal/domain"
)

// Data is the immutable result of a routing fetch: full geometry, the
// per-segment distance/duration, and their prefix sums. Mirrors the
// reference RouteBase: built once from a RoutingClient response and never
// mutated afterward.
type Data struct {
	Start domain.Coordinate
	Dest  domain.Coordinate

	Profile domain.Profile

	// Geometry is the full polyline, start to dest inclusive.
	Geometry []domain.Coordinate

	// TotalDistM and TotalTimeS are the route totals as reported by the
	// routing upstream (not necessarily equal to the sum of the segment
	// arrays below, which come from a separate annotation source).
	TotalDistM float64
	TotalTimeS float64

	// SegDistM and SegTimeS hold len(Geometry)-1 entries, one per segment.
	SegDistM []float64
	SegTimeS []float64

	// CumDistM and CumTimeS are prefix sums with len(Geometry) entries;
	// CumDistM[0] == 0 and CumDistM[len-1] == sum(SegDistM).
	CumDistM []float64
	CumTimeS []float64
}

// New builds a Data from geometry plus per-segment distance/time arrays,
// computing the prefix sums. len(segDistM) and len(segTimeS) must equal
// len(geometry)-1.
func New(start, dest domain.Coordinate, profile domain.Profile, geometry []domain.Coordinate, totalDistM, totalTimeS float64, segDistM, segTimeS []float64) (*Data, error) {
	if len(geometry) < 2 {
		return nil, domain.ErrEmptyRoute
	}

	return &Data{
		Start:      start,
		Dest:       dest,
		Profile:    profile,
		Geometry:   geometry,
		TotalDistM: totalDistM,
		TotalTimeS: totalTimeS,
		SegDistM:   segDistM,
		SegTimeS:   segTimeS,
		CumDistM:   cumSum(segDistM),
		CumTimeS:   cumSum(segTimeS),
	}, nil
}

func cumSum(values []float64) []float64 {
	cum := make([]float64, len(values)+1)
	sum := 0.0
	for i, v := range values {
		sum += v
		cum[i+1] = sum
	}
	return cum
}

// PositionAtTime returns the interpolated position at elapsed time tS
// (seconds since route start). Clamps to the first point before 0 and the
// last point at or after the route's total duration, and linearly
// interpolates within the segment located by CumTimeS via binary search.
// A zero-length segment (seg_time == 0) resolves to its end point,
// matching the reference's get_pos_at_time.
func (d *Data) PositionAtTime(tS float64) domain.Coordinate {
	if tS <= 0 {
		return d.Geometry[0]
	}

	endT := d.TotalTimeS
	if len(d.CumTimeS) > 0 {
		endT = d.CumTimeS[len(d.CumTimeS)-1]
	}
	if tS >= endT {
		return d.Geometry[len(d.Geometry)-1]
	}

	// bisect_right(cum_time_s, t) - 1
	i := sort.Search(len(d.CumTimeS), func(idx int) bool {
		return d.CumTimeS[idx] > tS
	}) - 1
	if i < 0 {
		i = 0
	}
	if i >= len(d.SegTimeS) {
		i = len(d.SegTimeS) - 1
	}

	segT := d.SegTimeS[i]
	if segT <= 0 {
		return d.Geometry[i+1]
	}

	alpha := (tS - d.CumTimeS[i]) / segT
	p1 := d.Geometry[i]
	p2 := d.Geometry[i+1]

	return domain.Coordinate{
		Lat: p1.Lat + alpha*(p2.Lat-p1.Lat),
		Lon: p1.Lon + alpha*(p2.Lon-p1.Lon),
	}
}

// IndexAtOrAfterTime returns the smallest geometry index i such that
// CumTimeS[i] >= tS, or len(CumTimeS) if tS is past the route's end.
func (d *Data) IndexAtOrAfterTime(tS float64) int {
	return sort.Search(len(d.CumTimeS), func(idx int) bool {
		return d.CumTimeS[idx] >= tS
	})
}
