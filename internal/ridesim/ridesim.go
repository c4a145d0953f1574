// Package ridesim drives a single matched walker/driver pair through its
// ride lifecycle as the simulation clock advances.
package ridesim

import (
	"github.com/google/uuid"
	"github.com/ubi-africa/ridewalk/internal/agent"
	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/matching"
)

// Phase is a ride's current lifecycle stage.
type Phase string

const (
	PhaseWalkToPickup   Phase = "WALK_TO_PICKUP"
	PhaseWaitAtPickup   Phase = "WAIT_AT_PICKUP"
	PhaseRideWithDriver Phase = "RIDE_WITH_DRIVER"
	PhaseWalkFromDropoff Phase = "WALK_FROM_DROPOFF"
	PhaseDone           Phase = "DONE"
)

// RideSim tracks one finalized Match through its phases. DriverAgent
// tracks the driver's own route on the global clock throughout; the two
// walk agents are created for the sub-walks before/after the ride and
// offset so their local clock starts at the ride's creation time (pickup
// walk) or at the driver's dropoff ETA (dropoff walk).
type RideSim struct {
	ID    string
	Match *matching.Match

	DriverAgent          *agent.Agent
	WalkToPickupAgent    *agent.Agent
	WalkFromDropoffAgent *agent.Agent

	Phase        Phase
	CreationTimeS float64

	walkerPos domain.Coordinate
}

// New builds a RideSim from a finalized Match, wiring the two walk sub-agents
// with the offsets the phase transitions below expect: the to-pickup walk
// starts at the ride's creation time, the from-dropoff walk starts at the
// driver's dropoff ETA added to creation time.
func New(m *matching.Match, driverAgent *agent.Agent, nowT float64) *RideSim {
	return &RideSim{
		ID:                   uuid.NewString(),
		Match:                m,
		DriverAgent:          driverAgent,
		WalkToPickupAgent:    agent.New(agent.KindWalker, m.WalkRouteToPickup, nowT),
		WalkFromDropoffAgent: agent.New(agent.KindWalker, m.WalkRouteFromDropoff, nowT+m.DriverDropoffETAS),
		Phase:                PhaseWalkToPickup,
		CreationTimeS:        nowT,
		walkerPos:            m.Walker.Route.Start,
	}
}

// Update advances the ride to global clock tS, recomputing the driver's
// position (always) and the walker's displayed position according to the
// current phase.
func (r *RideSim) Update(tS float64) {
	t := tS - r.CreationTimeS
	r.DriverAgent.UpdatePosition(tS)

	walkToPickupEnd := r.Match.WalkRouteToPickup.TotalTimeS
	driverPickup := r.Match.DriverPickupETAS
	driverDropoff := r.Match.DriverDropoffETAS
	walkFromDropoffEnd := driverDropoff + r.Match.WalkRouteFromDropoff.TotalTimeS

	switch {
	case t < walkToPickupEnd:
		r.Phase = PhaseWalkToPickup
		r.WalkToPickupAgent.UpdatePosition(tS)
		pos, _ := r.WalkToPickupAgent.Pos()
		r.walkerPos = pos

	case t < driverPickup:
		r.Phase = PhaseWaitAtPickup
		r.walkerPos = r.Match.Pickup

	case t < driverDropoff:
		r.Phase = PhaseRideWithDriver
		pos, _ := r.DriverAgent.Pos()
		r.walkerPos = pos

	case t < walkFromDropoffEnd:
		r.Phase = PhaseWalkFromDropoff
		r.WalkFromDropoffAgent.UpdatePosition(tS)
		pos, _ := r.WalkFromDropoffAgent.Pos()
		r.walkerPos = pos

	default:
		r.Phase = PhaseDone
		r.walkerPos = r.Match.WalkRouteFromDropoff.Dest
	}
}

// WalkerPos returns the walker's current displayed position.
func (r *RideSim) WalkerPos() domain.Coordinate {
	return r.walkerPos
}

// DriverPos returns the driver's current position.
func (r *RideSim) DriverPos() domain.Coordinate {
	pos, _ := r.DriverAgent.Pos()
	return pos
}

// Done reports whether the ride has reached its terminal phase.
func (r *RideSim) Done() bool {
	return r.Phase == PhaseDone
}
