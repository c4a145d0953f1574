// Package congestion buckets unmatched walkers and drivers into H3 cells
// to surface a demand/supply density metric alongside each snapshot. It is
// an observability number, not a priced surge multiplier: adapted from the
// ride service's fare-surge H3 bucketing, repurposed since this engine has
// no pricing concern.
package congestion

import (
	"sort"

	"github.com/uber/h3-go/v4"
	"github.com/ubi-africa/ridewalk/internal/domain"
)

// Resolution mirrors the ride service's surge-zone resolution: ~5.16 km²
// hexagons, coarse enough to be meaningful with a handful of demo agents.
const Resolution = 7

// CellDensity is one H3 cell's demand/supply counts.
type CellDensity struct {
	H3Index string `json:"h3_index"`
	Demand  int    `json:"demand"` // unmatched walkers
	Supply  int    `json:"supply"` // unmatched drivers
}

// Snapshot buckets walker and driver positions into H3 cells and returns
// the per-cell density, sorted by descending demand.
func Snapshot(walkerPositions, driverPositions []domain.Coordinate) []CellDensity {
	byCell := make(map[string]*CellDensity)

	cellFor := func(c domain.Coordinate) string {
		return h3.LatLngToCell(h3.LatLng{Lat: c.Lat, Lng: c.Lon}, Resolution).String()
	}

	for _, pos := range walkerPositions {
		idx := cellFor(pos)
		cell, ok := byCell[idx]
		if !ok {
			cell = &CellDensity{H3Index: idx}
			byCell[idx] = cell
		}
		cell.Demand++
	}

	for _, pos := range driverPositions {
		idx := cellFor(pos)
		cell, ok := byCell[idx]
		if !ok {
			cell = &CellDensity{H3Index: idx}
			byCell[idx] = cell
		}
		cell.Supply++
	}

	out := make([]CellDensity, 0, len(byCell))
	for _, cell := range byCell {
		out = append(out, *cell)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Demand > out[j].Demand })
	return out
}
