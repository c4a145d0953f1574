// Package agent tracks a single walker or driver's position along its
// assigned route as the simulation clock advances.
package agent

import (
	"github.com/google/uuid"
	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/route"
)

// Kind distinguishes a walker from a driver agent.
type Kind string

const (
	KindWalker Kind = "walker"
	KindDriver Kind = "driver"
)

// Agent is a mutable cursor over an immutable Route, advanced once per
// dispatcher tick via UpdatePosition. idx is cached across calls so
// repeated advances of a monotonically increasing clock only scan forward,
// matching the reference AgentState's incremental segment search.
type Agent struct {
	ID    string
	Kind  Kind
	Route *route.Data

	// StartOffsetS shifts this agent's local clock relative to the global
	// simulation clock: local_t = (global_t - StartOffsetS) * TimeScale.
	// Used for sub-walks created mid-simulation (e.g. the walk-from-dropoff
	// agent, which starts at the driver's dropoff ETA rather than at t=0).
	StartOffsetS float64

	// TimeScale multiplies the offset-adjusted clock, letting an agent run
	// its route faster or slower than the global clock. Defaults to 1.0.
	TimeScale float64

	idx   int
	pos   domain.Coordinate
	ready bool
}

// New creates an Agent bound to route r, offset so its local clock starts
// at startOffsetS on the global clock, running at the default time scale
// of 1.0.
func New(kind Kind, r *route.Data, startOffsetS float64) *Agent {
	return NewWithTimeScale(kind, r, startOffsetS, 1.0)
}

// NewWithTimeScale creates an Agent whose local clock is
// (global_t - startOffsetS) * timeScale.
func NewWithTimeScale(kind Kind, r *route.Data, startOffsetS, timeScale float64) *Agent {
	return &Agent{
		ID:           uuid.NewString(),
		Kind:         kind,
		Route:        r,
		StartOffsetS: startOffsetS,
		TimeScale:    timeScale,
		pos:          r.Start,
	}
}

// UpdatePosition advances the agent to globalT, recomputing its position
// along Route. The local clock is (globalT - StartOffsetS) * TimeScale.
func (a *Agent) UpdatePosition(globalT float64) {
	t := (globalT - a.StartOffsetS) * a.TimeScale
	geo := a.Route.Geometry
	cum := a.Route.CumTimeS

	if t <= cum[0] {
		a.idx = 0
		a.pos = geo[0]
		a.ready = true
		return
	}

	if t >= cum[len(cum)-1] {
		a.idx = len(geo) - 1
		a.pos = geo[len(geo)-1]
		a.ready = true
		return
	}

	for a.idx+1 < len(cum) && cum[a.idx+1] <= t {
		a.idx++
	}

	t0, t1 := cum[a.idx], cum[a.idx+1]
	p0, p1 := geo[a.idx], geo[a.idx+1]

	alpha := 0.0
	if t1 != t0 {
		alpha = (t - t0) / (t1 - t0)
	}

	a.pos = domain.Coordinate{
		Lat: p0.Lat + alpha*(p1.Lat-p0.Lat),
		Lon: p0.Lon + alpha*(p1.Lon-p0.Lon),
	}
	a.ready = true
}

// Pos returns the agent's most recently computed position. Returns
// ErrPositionNotReady if UpdatePosition has never been called.
func (a *Agent) Pos() (domain.Coordinate, error) {
	if !a.ready {
		return domain.Coordinate{}, domain.ErrPositionNotReady
	}
	return a.pos, nil
}

// Index returns the geometry index of the segment the agent currently
// occupies.
func (a *Agent) Index() int {
	return a.idx
}
