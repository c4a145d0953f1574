package geo_test

import (
	"testing"

	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/geo"
	"github.com/ubi-africa/ridewalk/internal/testutil"
)

func TestHaversineDistance_KnownPoints(t *testing.T) {
	assert := testutil.NewAssert(t)

	d := geo.HaversineDistance(0, 0, 0, 1)
	assert.InDelta(111195.0, d, 500.0)

	zero := geo.HaversineDistance(51.2, 6.8, 51.2, 6.8)
	assert.InDelta(0, zero, 1e-6)
}

func TestDistance_MatchesHaversine(t *testing.T) {
	assert := testutil.NewAssert(t)

	a := domain.Coordinate{Lat: 51.2562, Lon: 7.1508}
	b := domain.Coordinate{Lat: 51.2277, Lon: 6.7735}

	assert.Equal(geo.HaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon), geo.Distance(a, b))
}

func TestBearing_CardinalDirections(t *testing.T) {
	assert := testutil.NewAssert(t)

	north := geo.Bearing(domain.Coordinate{Lat: 0, Lon: 0}, domain.Coordinate{Lat: 1, Lon: 0})
	assert.InDelta(0, north, 1.0)

	east := geo.Bearing(domain.Coordinate{Lat: 0, Lon: 0}, domain.Coordinate{Lat: 0, Lon: 1})
	assert.InDelta(90, east, 1.0)
}

func TestIsValidCoordinate(t *testing.T) {
	assert := testutil.NewAssert(t)

	assert.True(geo.IsValidCoordinate(domain.Coordinate{Lat: 51.2, Lon: 6.8}))
	assert.False(geo.IsValidCoordinate(domain.Coordinate{Lat: 91, Lon: 6.8}))
	assert.False(geo.IsValidCoordinate(domain.Coordinate{Lat: 51.2, Lon: 181}))
}

func TestTopKByHaversine_RanksAscendingByDistance(t *testing.T) {
	assert := testutil.NewAssert(t)

	pts := []domain.Coordinate{
		{Lat: 0, Lon: 10}, // far
		{Lat: 0, Lon: 0},  // exact match
		{Lat: 0, Lon: 1},  // near
	}
	target := domain.Coordinate{Lat: 0, Lon: 0}

	top := geo.TopKByHaversine(pts, target, 2)
	assert.Len(top, 2)
	assert.Equal(1, top[0])
	assert.Equal(2, top[1])
}

func TestTopKByHaversine_ClampsKToLength(t *testing.T) {
	assert := testutil.NewAssert(t)

	pts := []domain.Coordinate{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}}
	top := geo.TopKByHaversine(pts, domain.Coordinate{Lat: 0, Lon: 0}, 10)
	assert.Len(top, 2)
}

func TestClosestPointIndex(t *testing.T) {
	assert := testutil.NewAssert(t)

	pts := []domain.Coordinate{
		{Lat: 0, Lon: 5},
		{Lat: 0, Lon: 0.01},
		{Lat: 0, Lon: 3},
	}
	idx := geo.ClosestPointIndex(pts, domain.Coordinate{Lat: 0, Lon: 0})
	assert.Equal(1, idx)
}

func TestRound_QuantizesToPrecision(t *testing.T) {
	assert := testutil.NewAssert(t)

	assert.Equal(51.25678, geo.Round(51.256781234, 5))
	assert.Equal(51.3, geo.Round(51.256781234, 1))
}

func TestRandomOffset_StaysWithinRadiusBound(t *testing.T) {
	assert := testutil.NewAssert(t)

	center := domain.Coordinate{Lat: 51.2562, Lon: 7.1508}
	radiusM := 1000.0

	// Each axis is independently bounded to +/- radiusM, so the combined
	// displacement can reach up to radiusM*sqrt(2); allow headroom above
	// that for the lat/lon-per-meter approximation.
	for i := 0; i < 50; i++ {
		offset := geo.RandomOffset(center, radiusM)
		assert.True(geo.IsValidCoordinate(offset))
		assert.LessOrEqual(geo.Distance(center, offset), radiusM*1.5)
	}
}

func TestRandomOffset_ZeroRadiusReturnsCenter(t *testing.T) {
	assert := testutil.NewAssert(t)

	center := domain.Coordinate{Lat: 51.2562, Lon: 7.1508}
	offset := geo.RandomOffset(center, 0)
	assert.Equal(center, offset)
}
