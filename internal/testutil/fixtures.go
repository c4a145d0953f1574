package testutil

import "github.com/ubi-africa/ridewalk/internal/domain"

// Canonical coordinates from the system's own demo run, used across
// package tests as the default fixtures.
var (
	// DriverStart and DriverDest bound a driving route through Wuppertal
	// toward Düsseldorf.
	DriverStart = domain.Coordinate{Lat: 51.2562, Lon: 7.1508}
	DriverDest  = domain.Coordinate{Lat: 51.2277, Lon: 6.7735}

	// WalkerStart and WalkerDest bound a walker whose door-to-door walk
	// overlaps the driver's route closely enough to produce a match.
	WalkerStart = domain.Coordinate{Lat: 51.202561, Lon: 6.780486}
	WalkerDest  = domain.Coordinate{Lat: 51.219105, Lon: 6.787711}
)

// StraightLineGeometry builds a synthetic polyline of n points evenly
// interpolated between start and dest, for tests that need route geometry
// without a live routing upstream.
func StraightLineGeometry(start, dest domain.Coordinate, n int) []domain.Coordinate {
	if n < 2 {
		n = 2
	}
	pts := make([]domain.Coordinate, n)
	for i := 0; i < n; i++ {
		alpha := float64(i) / float64(n-1)
		pts[i] = domain.Coordinate{
			Lat: start.Lat + alpha*(dest.Lat-start.Lat),
			Lon: start.Lon + alpha*(dest.Lon-start.Lon),
		}
	}
	return pts
}

// UniformSegments builds n-1 equal per-segment distance/time arrays
// totaling totalDistM/totalTimeS, for tests that need a Data with evenly
// spaced segments.
func UniformSegments(n int, totalDistM, totalTimeS float64) (segDistM, segTimeS []float64) {
	if n < 2 {
		n = 2
	}
	segCount := n - 1
	segDistM = make([]float64, segCount)
	segTimeS = make([]float64, segCount)
	for i := 0; i < segCount; i++ {
		segDistM[i] = totalDistM / float64(segCount)
		segTimeS[i] = totalTimeS / float64(segCount)
	}
	return segDistM, segTimeS
}
