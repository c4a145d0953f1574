package dispatcher

import (
	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/ridesim"
)

// RouteGeometry carries a route's full polyline for client-side drawing.
type RouteGeometry struct {
	GeometryLatLon []domain.Coordinate `json:"geometry_latlon"`
}

// RoutePoints is a match's pickup/dropoff points.
type RoutePoints struct {
	Pickup  domain.Coordinate `json:"pickup"`
	Dropoff domain.Coordinate `json:"dropoff"`
}

// RouteIndices is a match's pickup/dropoff indices into the driver's route
// geometry.
type RouteIndices struct {
	Pickup  int `json:"pickup"`
	Dropoff int `json:"dropoff"`
}

// RouteFrame is one active ride's route geometry, sent once per match
// rather than every tick, since a driver/walker's polyline never changes
// once finalized.
type RouteFrame struct {
	MatchID         string        `json:"match_id"`
	DriverRoute     RouteGeometry `json:"driver_route"`
	WalkToPickup    RouteGeometry `json:"walk_to_pickup"`
	WalkFromDropoff RouteGeometry `json:"walk_from_dropoff"`
	Points          RoutePoints   `json:"points"`
	Idx             RouteIndices  `json:"idx"`
}

// RoutesSnapshot is the routes channel's payload: every still-active ride's
// route geometry, plus a version that only advances when the active set
// changes, mirroring the reference's write_routes_json(version=t)
// push-on-change contract.
type RoutesSnapshot struct {
	RoutesVersion float64      `json:"routes_version"`
	Routes        []RouteFrame `json:"routes"`
}

// RoutesSnapshot returns the current routes-channel payload.
func (d *Dispatcher) RoutesSnapshot() RoutesSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.routesSnapshotLocked()
}

func (d *Dispatcher) routesSnapshotLocked() RoutesSnapshot {
	routes := make([]RouteFrame, 0, len(d.sims))
	for _, sim := range d.sims {
		if sim.Phase == ridesim.PhaseDone {
			continue
		}

		m := sim.Match
		routes = append(routes, RouteFrame{
			MatchID:         sim.ID,
			DriverRoute:     RouteGeometry{GeometryLatLon: sim.DriverAgent.Route.Geometry},
			WalkToPickup:    RouteGeometry{GeometryLatLon: m.WalkRouteToPickup.Geometry},
			WalkFromDropoff: RouteGeometry{GeometryLatLon: m.WalkRouteFromDropoff.Geometry},
			Points:          RoutePoints{Pickup: m.Pickup, Dropoff: m.Dropoff},
			Idx:             RouteIndices{Pickup: m.PickupIndex, Dropoff: m.DropoffIndex},
		})
	}

	return RoutesSnapshot{RoutesVersion: d.routesVersion, Routes: routes}
}

// refreshRoutesVersionLocked bumps routesVersion to the current clock if the
// set of active (non-terminal) ride IDs changed since the last call — a new
// match appearing or a ride reaching PhaseDone both count as a change.
// Caller must hold d.mu.
func (d *Dispatcher) refreshRoutesVersionLocked() {
	active := make(map[string]struct{}, len(d.sims))
	for _, sim := range d.sims {
		if sim.Phase != ridesim.PhaseDone {
			active[sim.ID] = struct{}{}
		}
	}

	if sameSimSet(d.lastActiveSimIDs, active) {
		return
	}

	d.routesVersion = d.t
	d.lastActiveSimIDs = active
}

func sameSimSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
