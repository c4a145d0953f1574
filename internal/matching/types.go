// Package matching implements the two-phase driver/walker matching
// algorithm: a cheap haversine-plus-summary ranking pass over candidate
// drivers, followed by a single expensive full-route fetch to finalize the
// winner.
package matching

import (
	"github.com/ubi-africa/ridewalk/internal/agent"
	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/route"
)

// Config holds matching policy thresholds.
type Config struct {
	// KPickup is the number of driver-route points considered as pickup
	// candidates, ranked by haversine distance to the walker's start.
	KPickup int

	// KDropoff is the number of driver-route points (after the pickup
	// index) considered as dropoff candidates.
	KDropoff int

	// MinSavingM is the minimum distance the walker must save versus
	// walking door-to-door for a match to be valid.
	MinSavingM float64

	// SnapToleranceM bounds how far a full walking route's endpoint may
	// land from the intended pickup/dropoff point before the match is
	// rejected as a SnapMismatch.
	SnapToleranceM float64
}

// DefaultConfig returns the matching policy defaults.
func DefaultConfig() Config {
	return Config{
		KPickup:        15,
		KDropoff:       10,
		MinSavingM:     800.0,
		SnapToleranceM: 30.0,
	}
}

// Light is the result of Phase 1, cheap candidate evaluation: pickup and
// dropoff points and indices plus their light (summary-only) walk
// distances/times, with no full geometry fetched yet.
type Light struct {
	Pickup        domain.Coordinate
	Dropoff       domain.Coordinate
	PickupIndex   int
	DropoffIndex  int
	PickWalkDistM float64
	DropWalkDistM float64
	PickWalkS     float64
	DropWalkS     float64
}

// Match is the finalized, Phase 2 result: full walking routes to/from the
// driver's route, ready to drive a RideSim.
type Match struct {
	Driver *agent.Agent
	Walker *agent.Agent

	WalkRouteToPickup   *route.Data
	WalkRouteFromDropoff *route.Data

	Pickup       domain.Coordinate
	Dropoff      domain.Coordinate
	PickupIndex  int
	DropoffIndex int

	PickWalkDistM   float64
	DropWalkDistM   float64
	TotalWalkDistM  float64
	PickWalkS       float64
	DropWalkS       float64
	TotalWalkS      float64

	RideDistM float64
	RideS     float64

	SavingDistM float64
	SavingS     float64

	// DriverPickupETAS and DriverDropoffETAS are the driver's own
	// cum_time_s at the pickup/dropoff indices — the global-clock offsets
	// a RideSim uses to drive its phase transitions.
	DriverPickupETAS  float64
	DriverDropoffETAS float64
}

// Candidate pairs a driver agent with its route for evaluation against a
// single walker.
type Candidate struct {
	Driver *agent.Agent
}
