package route_test

import (
	"testing"

	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/route"
	"github.com/ubi-africa/ridewalk/internal/testutil"
)

func TestNew_RejectsEmptyGeometry(t *testing.T) {
	assert := testutil.NewAssert(t)

	_, err := route.New(testutil.WalkerStart, testutil.WalkerDest, domain.ProfileWalking,
		[]domain.Coordinate{{Lat: 1, Lon: 1}}, 0, 0, nil, nil)

	assert.Error(err)
	assert.Equal(domain.ErrEmptyRoute, err)
}

func TestPositionAtTime_ClampsBeforeStartAndAfterEnd(t *testing.T) {
	assert := testutil.NewAssert(t)

	geometry := testutil.StraightLineGeometry(testutil.WalkerStart, testutil.WalkerDest, 4)
	segDist, segTime := testutil.UniformSegments(4, 300, 300)

	data, err := route.New(testutil.WalkerStart, testutil.WalkerDest, domain.ProfileWalking, geometry, 300, 300, segDist, segTime)
	assert.NoError(err)

	before := data.PositionAtTime(-10)
	assert.Equal(geometry[0], before)

	after := data.PositionAtTime(10_000)
	assert.Equal(geometry[len(geometry)-1], after)
}

func TestPositionAtTime_InterpolatesMidSegment(t *testing.T) {
	assert := testutil.NewAssert(t)

	geometry := []domain.Coordinate{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 0, Lon: 2},
	}
	segDist := []float64{100, 100}
	segTime := []float64{10, 10}

	data, err := route.New(geometry[0], geometry[2], domain.ProfileWalking, geometry, 200, 20, segDist, segTime)
	assert.NoError(err)

	mid := data.PositionAtTime(5)
	assert.InDelta(0.5, mid.Lon, 1e-9)
	assert.InDelta(0, mid.Lat, 1e-9)

	secondSegMid := data.PositionAtTime(15)
	assert.InDelta(1.5, secondSegMid.Lon, 1e-9)
}

func TestIndexAtOrAfterTime_LocatesSuffixStart(t *testing.T) {
	assert := testutil.NewAssert(t)

	geometry := []domain.Coordinate{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 0, Lon: 2},
	}
	segDist := []float64{100, 100}
	segTime := []float64{10, 10}

	data, err := route.New(geometry[0], geometry[2], domain.ProfileWalking, geometry, 200, 20, segDist, segTime)
	assert.NoError(err)

	assert.Equal(1, data.IndexAtOrAfterTime(10))
	assert.Equal(0, data.IndexAtOrAfterTime(0))
	assert.Equal(2, data.IndexAtOrAfterTime(20))
}
