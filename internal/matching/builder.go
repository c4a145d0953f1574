package matching

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/ubi-africa/ridewalk/internal/agent"
	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/geo"
	"github.com/ubi-africa/ridewalk/internal/route"
	"github.com/ubi-africa/ridewalk/internal/routing"
)

// Builder evaluates drivers against a walker and produces a finalized
// Match, using routing to fetch walking summaries/routes.
type Builder struct {
	cfg     Config
	routing routing.Client
}

// NewBuilder creates a Builder with the given policy config and routing
// client.
func NewBuilder(cfg Config, routingClient routing.Client) *Builder {
	return &Builder{cfg: cfg, routing: routingClient}
}

// findPickupLight ranks the top-KPickup driver-route points by haversine
// distance to the walker's start, then picks the one with the cheapest
// walking distance among them via a summary-only routing call per
// candidate.
func (b *Builder) findPickupLight(ctx context.Context, driverRoute *route.Data, walkerStart domain.Coordinate) (domain.Coordinate, float64, float64, int, error) {
	pts := driverRoute.Geometry
	candidates := geo.TopKByHaversine(pts, walkerStart, b.cfg.KPickup)

	bestIdx := -1
	bestDistM := -1.0
	bestTimeS := -1.0

	for _, i := range candidates {
		summary, err := b.routing.FetchSummary(ctx, walkerStart, pts[i], domain.ProfileWalking)
		if err != nil {
			continue
		}
		if bestIdx == -1 || summary.TotalDistM < bestDistM {
			bestIdx = i
			bestDistM = summary.TotalDistM
			bestTimeS = summary.TotalTimeS
		}
	}

	if bestIdx == -1 {
		return domain.Coordinate{}, 0, 0, 0, domain.ErrNoMatch
	}
	return pts[bestIdx], bestDistM, bestTimeS, bestIdx, nil
}

// findDropoffLight is findPickupLight's mirror over the driver-route
// suffix after pickupIdx, ranked by haversine distance to the walker's
// dest.
func (b *Builder) findDropoffLight(ctx context.Context, driverRoute *route.Data, walkerDest domain.Coordinate, pickupIdx int) (domain.Coordinate, float64, float64, int, error) {
	pts := driverRoute.Geometry
	tail := pts[pickupIdx+1:]
	if len(tail) == 0 {
		return domain.Coordinate{}, 0, 0, 0, domain.ErrPickupAtEnd
	}

	localCandidates := geo.TopKByHaversine(tail, walkerDest, b.cfg.KDropoff)

	bestIdx := -1
	bestDistM := -1.0
	bestTimeS := -1.0

	for _, j := range localCandidates {
		i := pickupIdx + 1 + j
		summary, err := b.routing.FetchSummary(ctx, pts[i], walkerDest, domain.ProfileWalking)
		if err != nil {
			continue
		}
		if bestIdx == -1 || summary.TotalDistM < bestDistM {
			bestIdx = i
			bestDistM = summary.TotalDistM
			bestTimeS = summary.TotalTimeS
		}
	}

	if bestIdx == -1 {
		return domain.Coordinate{}, 0, 0, 0, domain.ErrNoMatch
	}
	return pts[bestIdx], bestDistM, bestTimeS, bestIdx, nil
}

// buildLight runs Phase 1 for a single driver/walker pair: pickup then
// dropoff candidate search, summary-only.
func (b *Builder) buildLight(ctx context.Context, driverRoute, walkerRoute *route.Data) (Light, error) {
	pickup, pickM, pickS, pi, err := b.findPickupLight(ctx, driverRoute, walkerRoute.Start)
	if err != nil {
		return Light{}, err
	}

	dropoff, dropM, dropS, di, err := b.findDropoffLight(ctx, driverRoute, walkerRoute.Dest, pi)
	if err != nil {
		return Light{}, err
	}

	if di <= pi {
		return Light{}, domain.ErrDropoffBeforePickup
	}

	return Light{
		Pickup:        pickup,
		Dropoff:       dropoff,
		PickupIndex:   pi,
		DropoffIndex:  di,
		PickWalkDistM: pickM,
		DropWalkDistM: dropM,
		PickWalkS:     pickS,
		DropWalkS:     dropS,
	}, nil
}

// finalize fetches the two full walking routes (to-pickup, from-dropoff),
// verifies each lands within SnapToleranceM of the intended point, and
// assembles the final Match. No fallback to a runner-up candidate is
// attempted on SnapMismatch — the caller simply has no match this tick.
func (b *Builder) finalize(ctx context.Context, driver, walker *agent.Agent, light Light) (*Match, error) {
	walkTo, err := b.routing.Fetch(ctx, walker.Route.Start, light.Pickup, domain.ProfileWalking)
	if err != nil {
		return nil, err
	}
	if geo.Distance(walkTo.Geometry[len(walkTo.Geometry)-1], light.Pickup) > b.cfg.SnapToleranceM {
		return nil, domain.ErrSnapMismatch
	}

	walkFrom, err := b.routing.Fetch(ctx, light.Dropoff, walker.Route.Dest, domain.ProfileWalking)
	if err != nil {
		return nil, err
	}
	if geo.Distance(walkFrom.Geometry[0], light.Dropoff) > b.cfg.SnapToleranceM {
		return nil, domain.ErrSnapMismatch
	}

	totalWalkM := light.PickWalkDistM + light.DropWalkDistM
	totalWalkS := light.PickWalkS + light.DropWalkS

	driverRoute := driver.Route
	rideM := driverRoute.CumDistM[light.DropoffIndex] - driverRoute.CumDistM[light.PickupIndex]
	rideS := driverRoute.CumTimeS[light.DropoffIndex] - driverRoute.CumTimeS[light.PickupIndex]

	savingM := walker.Route.TotalDistM - totalWalkM
	savingS := walker.Route.TotalTimeS - totalWalkS

	return &Match{
		Driver:               driver,
		Walker:               walker,
		WalkRouteToPickup:    walkTo,
		WalkRouteFromDropoff: walkFrom,
		Pickup:               light.Pickup,
		Dropoff:              light.Dropoff,
		PickupIndex:          light.PickupIndex,
		DropoffIndex:         light.DropoffIndex,
		PickWalkDistM:        light.PickWalkDistM,
		DropWalkDistM:        light.DropWalkDistM,
		TotalWalkDistM:       totalWalkM,
		PickWalkS:            light.PickWalkS,
		DropWalkS:            light.DropWalkS,
		TotalWalkS:           totalWalkS,
		RideDistM:            rideM,
		RideS:                rideS,
		SavingDistM:          savingM,
		SavingS:              savingS,
		DriverPickupETAS:     driverRoute.CumTimeS[light.PickupIndex],
		DriverDropoffETAS:    driverRoute.CumTimeS[light.DropoffIndex],
	}, nil
}

// BestMatch evaluates every candidate driver against walker and returns the
// finalized Match with the earliest arrival time (driver's dropoff ETA
// plus the walker's remaining walk-from-dropoff time), or ErrNoMatch if no
// candidate clears the policy thresholds. Ties are broken by smaller total
// walk distance, then smaller pickup index; a full tie keeps the driver
// that comes first in drivers.
func (b *Builder) BestMatch(ctx context.Context, drivers []*agent.Agent, walker *agent.Agent) (*Match, error) {
	var bestLight Light
	var bestDriver *agent.Agent
	bestArrival := -1.0
	bestTotalWalkM := -1.0
	found := false

	for _, driver := range drivers {
		light, err := b.buildLight(ctx, driver.Route, walker.Route)
		if err != nil {
			continue
		}

		totalWalkM := light.PickWalkDistM + light.DropWalkDistM
		savingM := walker.Route.TotalDistM - totalWalkM
		if savingM < b.cfg.MinSavingM {
			continue
		}

		if light.PickWalkS > driver.Route.CumTimeS[light.PickupIndex] {
			continue
		}

		arrival := driver.Route.CumTimeS[light.DropoffIndex] + light.DropWalkS

		switch {
		case !found:
			found = true
		case arrival > bestArrival:
			continue
		case arrival == bestArrival:
			if totalWalkM > bestTotalWalkM {
				continue
			}
			if totalWalkM == bestTotalWalkM && light.PickupIndex >= bestLight.PickupIndex {
				continue
			}
		}

		bestArrival = arrival
		bestTotalWalkM = totalWalkM
		bestLight = light
		bestDriver = driver
	}

	if !found {
		return nil, domain.ErrNoMatch
	}

	match, err := b.finalize(ctx, bestDriver, walker, bestLight)
	if err != nil {
		log.Debug().Err(err).Str("driver_id", bestDriver.ID).Str("walker_id", walker.ID).
			Msg("match finalize rejected")
		return nil, err
	}

	return match, nil
}

// String renders a Match for debug logging.
func (m *Match) String() string {
	return fmt.Sprintf("Match{driver=%s walker=%s saving_m=%.1f}", m.Driver.ID, m.Walker.ID, m.SavingDistM)
}
