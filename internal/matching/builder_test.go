package matching_test

import (
	"context"
	"testing"

	"github.com/ubi-africa/ridewalk/internal/agent"
	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/geo"
	"github.com/ubi-africa/ridewalk/internal/matching"
	"github.com/ubi-africa/ridewalk/internal/route"
	"github.com/ubi-africa/ridewalk/internal/routing"
	"github.com/ubi-africa/ridewalk/internal/testutil"
)

// routeFromPoints builds a route.Data whose geometry is exactly pts,
// traveled at metersPerSecond, so pickup/dropoff candidate indices in tests
// are fully predictable rather than depending on real-world geography.
func routeFromPoints(t *testing.T, pts []domain.Coordinate, metersPerSecond float64) *route.Data {
	t.Helper()

	totalDistM := 0.0
	segDistM := make([]float64, len(pts)-1)
	segTimeS := make([]float64, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		d := geo.Distance(pts[i], pts[i+1])
		segDistM[i] = d
		segTimeS[i] = d / metersPerSecond
		totalDistM += d
	}

	data, err := route.New(pts[0], pts[len(pts)-1], domain.ProfileDriving, pts, totalDistM, totalDistM/metersPerSecond, segDistM, segTimeS)
	if err != nil {
		t.Fatalf("route.New: %v", err)
	}
	return data
}

// passingThroughDriverRoute returns a driver route whose geometry runs
// directly through walkerStart then walkerDest, guaranteeing a zero-distance
// pickup and dropoff snap for tests that don't care about candidate search,
// only about the threshold/ranking policy above it.
func passingThroughDriverRoute(t *testing.T, walkerStart, walkerDest domain.Coordinate) *route.Data {
	t.Helper()
	pts := []domain.Coordinate{
		{Lat: walkerStart.Lat + 0.2, Lon: walkerStart.Lon - 0.2},
		walkerStart,
		walkerDest,
		{Lat: walkerDest.Lat - 0.2, Lon: walkerDest.Lon + 0.2},
	}
	return routeFromPoints(t, pts, 10.0)
}

func walkerRouteFixture(t *testing.T, walkerStart, walkerDest domain.Coordinate) *route.Data {
	t.Helper()
	d := geo.Distance(walkerStart, walkerDest)
	data, err := route.New(walkerStart, walkerDest, domain.ProfileWalking,
		[]domain.Coordinate{walkerStart, walkerDest}, d, d/1.4, []float64{d}, []float64{d / 1.4})
	if err != nil {
		t.Fatalf("route.New: %v", err)
	}
	return data
}

// fakeRoutingClient answers every Fetch/FetchSummary with a direct
// straight-line estimate at a fixed speed, avoiding a live OSRM dependency
// in matching tests.
type fakeRoutingClient struct {
	metersPerSecond float64
}

func (f *fakeRoutingClient) Fetch(ctx context.Context, start, dest domain.Coordinate, profile domain.Profile) (*route.Data, error) {
	d := geo.Distance(start, dest)
	return route.New(start, dest, profile, []domain.Coordinate{start, dest}, d, d/f.metersPerSecond,
		[]float64{d}, []float64{d / f.metersPerSecond})
}

func (f *fakeRoutingClient) FetchSummary(ctx context.Context, start, dest domain.Coordinate, profile domain.Profile) (routing.Summary, error) {
	d := geo.Distance(start, dest)
	return routing.Summary{TotalDistM: d, TotalTimeS: d / f.metersPerSecond}, nil
}

var _ routing.Client = (*fakeRoutingClient)(nil)

func TestBestMatch_PicksDriverPassingThresholds(t *testing.T) {
	assert := testutil.NewAssert(t)

	walkerStart := testutil.WalkerStart
	walkerDest := testutil.WalkerDest

	driverRoute := passingThroughDriverRoute(t, walkerStart, walkerDest)
	driverAgent := agent.New(agent.KindDriver, driverRoute, 0)

	walker := agent.New(agent.KindWalker, walkerRouteFixture(t, walkerStart, walkerDest), 0)

	cfg := matching.DefaultConfig()
	cfg.MinSavingM = 0
	builder := matching.NewBuilder(cfg, &fakeRoutingClient{metersPerSecond: 1.4})

	match, err := builder.BestMatch(context.Background(), []*agent.Agent{driverAgent}, walker)
	assert.NoError(err)
	assert.NotNil(match)
	assert.Equal(driverAgent, match.Driver)
	assert.Equal(walker, match.Walker)
	assert.InDelta(0, match.PickWalkDistM, 1.0)
	assert.InDelta(0, match.DropWalkDistM, 1.0)
	assert.Greater(match.DriverDropoffETAS, match.DriverPickupETAS)
}

func TestBestMatch_RejectsWhenSavingBelowThreshold(t *testing.T) {
	assert := testutil.NewAssert(t)

	walkerStart := testutil.WalkerStart
	walkerDest := testutil.WalkerDest

	driverRoute := passingThroughDriverRoute(t, walkerStart, walkerDest)
	driverAgent := agent.New(agent.KindDriver, driverRoute, 0)

	walker := agent.New(agent.KindWalker, walkerRouteFixture(t, walkerStart, walkerDest), 0)

	cfg := matching.DefaultConfig()
	cfg.MinSavingM = 1_000_000 // unreachable threshold
	builder := matching.NewBuilder(cfg, &fakeRoutingClient{metersPerSecond: 1.4})

	_, err := builder.BestMatch(context.Background(), []*agent.Agent{driverAgent}, walker)
	assert.Error(err)
	assert.Equal(domain.ErrNoMatch, err)
}

func TestBestMatch_NoDriversReturnsNoMatch(t *testing.T) {
	assert := testutil.NewAssert(t)

	walkerStart := testutil.WalkerStart
	walkerDest := testutil.WalkerDest
	walker := agent.New(agent.KindWalker, walkerRouteFixture(t, walkerStart, walkerDest), 0)

	builder := matching.NewBuilder(matching.DefaultConfig(), &fakeRoutingClient{metersPerSecond: 1.4})

	_, err := builder.BestMatch(context.Background(), nil, walker)
	assert.Error(err)
	assert.Equal(domain.ErrNoMatch, err)
}

func TestBestMatch_RejectsDropoffBeforePickup(t *testing.T) {
	assert := testutil.NewAssert(t)

	walkerStart := testutil.WalkerStart
	walkerDest := testutil.WalkerDest

	// Driver route runs from dropoff to pickup (reversed order): the
	// dropoff candidate search is restricted to the suffix after the
	// pickup index, so it can never land back on walkerDest. The resulting
	// walk distance is far larger than the walker's direct route, so
	// BestMatch rejects this driver on the saving threshold.
	pts := []domain.Coordinate{
		{Lat: walkerDest.Lat - 0.2, Lon: walkerDest.Lon + 0.2},
		walkerDest,
		walkerStart,
		{Lat: walkerStart.Lat + 0.2, Lon: walkerStart.Lon - 0.2},
	}
	driverRoute := routeFromPoints(t, pts, 10.0)
	driverAgent := agent.New(agent.KindDriver, driverRoute, 0)

	walker := agent.New(agent.KindWalker, walkerRouteFixture(t, walkerStart, walkerDest), 0)

	cfg := matching.DefaultConfig()
	cfg.MinSavingM = 0
	builder := matching.NewBuilder(cfg, &fakeRoutingClient{metersPerSecond: 1.4})

	_, err := builder.BestMatch(context.Background(), []*agent.Agent{driverAgent}, walker)
	assert.Error(err)
}
