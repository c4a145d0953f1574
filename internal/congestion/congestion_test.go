package congestion_test

import (
	"testing"

	"github.com/ubi-africa/ridewalk/internal/congestion"
	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/testutil"
)

func TestSnapshot_BucketsByCellAndSortsByDescendingDemand(t *testing.T) {
	assert := testutil.NewAssert(t)

	// Two walkers very close together land in one cell; one far-away driver
	// lands in another with zero demand.
	walkers := []domain.Coordinate{
		{Lat: 51.202561, Lon: 6.780486},
		{Lat: 51.202565, Lon: 6.780490},
	}
	drivers := []domain.Coordinate{
		{Lat: 51.202563, Lon: 6.780488},
		{Lat: 40.0, Lon: -70.0},
	}

	cells := congestion.Snapshot(walkers, drivers)
	assert.GreaterOrEqual(len(cells), 1)

	// Demand must be non-increasing across the sorted result.
	for i := 1; i < len(cells); i++ {
		assert.GreaterOrEqual(cells[i-1].Demand, cells[i].Demand)
	}

	totalDemand, totalSupply := 0, 0
	for _, c := range cells {
		totalDemand += c.Demand
		totalSupply += c.Supply
	}
	assert.Equal(len(walkers), totalDemand)
	assert.Equal(len(drivers), totalSupply)
}

func TestSnapshot_NearbyPointsShareACell(t *testing.T) {
	assert := testutil.NewAssert(t)

	walkers := []domain.Coordinate{
		{Lat: 51.202561, Lon: 6.780486},
		{Lat: 51.202562, Lon: 6.780487},
	}

	cells := congestion.Snapshot(walkers, nil)
	assert.Len(cells, 1)
	assert.Equal(2, cells[0].Demand)
	assert.Equal(0, cells[0].Supply)
}

func TestSnapshot_EmptyInputReturnsEmptySlice(t *testing.T) {
	assert := testutil.NewAssert(t)

	cells := congestion.Snapshot(nil, nil)
	assert.Len(cells, 0)
}

func TestSnapshot_DistantPointsLandInDifferentCells(t *testing.T) {
	assert := testutil.NewAssert(t)

	walkers := []domain.Coordinate{
		testutil.WalkerStart,
		{Lat: testutil.WalkerStart.Lat + 5, Lon: testutil.WalkerStart.Lon + 5},
	}

	cells := congestion.Snapshot(walkers, nil)
	assert.Len(cells, 2)
}
