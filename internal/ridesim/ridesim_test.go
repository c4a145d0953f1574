package ridesim_test

import (
	"testing"

	"github.com/ubi-africa/ridewalk/internal/agent"
	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/matching"
	"github.com/ubi-africa/ridewalk/internal/ridesim"
	"github.com/ubi-africa/ridewalk/internal/route"
	"github.com/ubi-africa/ridewalk/internal/testutil"
)

// fixtureMatch builds a hand-assembled Match with simple, round phase
// boundaries: a 10s walk to a pickup point 100s into the driver's route,
// a ride to a dropoff point 200s in, then a 10s walk from there.
func fixtureMatch(t *testing.T) (*matching.Match, *agent.Agent) {
	t.Helper()
	assert := testutil.NewAssert(t)

	driverGeometry := testutil.StraightLineGeometry(testutil.DriverStart, testutil.DriverDest, 5)
	driverSegDist := []float64{100, 100, 100, 100}
	driverSegTime := []float64{50, 50, 50, 50}
	driverRoute, err := route.New(testutil.DriverStart, testutil.DriverDest, domain.ProfileDriving,
		driverGeometry, 400, 200, driverSegDist, driverSegTime)
	assert.NoError(err)
	driverAgent := agent.New(agent.KindDriver, driverRoute, 0)

	walkToGeometry := testutil.StraightLineGeometry(testutil.WalkerStart, driverGeometry[2], 2)
	walkToRoute, err := route.New(testutil.WalkerStart, driverGeometry[2], domain.ProfileWalking,
		walkToGeometry, 14, 10, []float64{14}, []float64{10})
	assert.NoError(err)

	walkFromGeometry := testutil.StraightLineGeometry(driverGeometry[4], testutil.WalkerDest, 2)
	walkFromRoute, err := route.New(driverGeometry[4], testutil.WalkerDest, domain.ProfileWalking,
		walkFromGeometry, 14, 10, []float64{14}, []float64{10})
	assert.NoError(err)

	walkerRoute, err := route.New(testutil.WalkerStart, testutil.WalkerDest, domain.ProfileWalking,
		testutil.StraightLineGeometry(testutil.WalkerStart, testutil.WalkerDest, 2), 50, 40, []float64{50}, []float64{40})
	assert.NoError(err)
	walker := agent.New(agent.KindWalker, walkerRoute, 0)

	match := &matching.Match{
		Driver:               driverAgent,
		Walker:               walker,
		WalkRouteToPickup:    walkToRoute,
		WalkRouteFromDropoff: walkFromRoute,
		Pickup:               driverGeometry[2],
		Dropoff:              driverGeometry[4],
		PickupIndex:          2,
		DropoffIndex:         4,
		DriverPickupETAS:     100,
		DriverDropoffETAS:    200,
	}
	return match, driverAgent
}

func TestRideSim_PhaseTransitions(t *testing.T) {
	assert := testutil.NewAssert(t)

	match, driverAgent := fixtureMatch(t)
	sim := ridesim.New(match, driverAgent, 0)

	sim.Update(5)
	assert.Equal(ridesim.PhaseWalkToPickup, sim.Phase)

	sim.Update(50)
	assert.Equal(ridesim.PhaseWaitAtPickup, sim.Phase)
	assert.Equal(match.Pickup, sim.WalkerPos())

	sim.Update(150)
	assert.Equal(ridesim.PhaseRideWithDriver, sim.Phase)
	assert.Equal(sim.DriverPos(), sim.WalkerPos())

	sim.Update(205)
	assert.Equal(ridesim.PhaseWalkFromDropoff, sim.Phase)

	sim.Update(300)
	assert.Equal(ridesim.PhaseDone, sim.Phase)
	assert.True(sim.Done())
	assert.Equal(match.WalkRouteFromDropoff.Dest, sim.WalkerPos())
}

func TestRideSim_DriverPositionAdvancesEveryUpdateRegardlessOfPhase(t *testing.T) {
	assert := testutil.NewAssert(t)

	match, driverAgent := fixtureMatch(t)
	sim := ridesim.New(match, driverAgent, 0)

	sim.Update(5)
	posAt5 := sim.DriverPos()

	sim.Update(50)
	posAt50 := sim.DriverPos()

	assert.NotEqual(posAt5, posAt50)
}
