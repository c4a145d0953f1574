// Package dispatcher runs the single-threaded simulation tick loop:
// drain ingress, match new agents against the opposite pool, advance every
// unmatched agent and every active ride, then publish a snapshot.
package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/ubi-africa/ridewalk/internal/agent"
	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/matching"
	"github.com/ubi-africa/ridewalk/internal/ridesim"
	"github.com/ubi-africa/ridewalk/internal/routing"
)

// Config configures a Dispatcher.
type Config struct {
	Matching     matching.Config
	InitialSpeed float64
}

// Dispatcher owns every agent, match, and ride in the simulation and
// advances them all on each Tick call. Pools, rides and the clock are
// changed only by Tick (and its helpers) and are guarded by mu, which
// RoutesSnapshot also takes; the ingress queue and status table have
// their own locks, and the speed is read and written atomically.
type Dispatcher struct {
	builder *matching.Builder
	routing routing.Client

	ingress *ingressQueue
	status  *statusTable

	mu                sync.Mutex
	unmatchedDrivers  []*agent.Agent
	unmatchedWalkers  []*agent.Agent
	sims              []*ridesim.RideSim
	agentIDToRequest  map[string]string

	routesVersion    float64
	lastActiveSimIDs map[string]struct{}

	speed int64 // bits of a float64, via math.Float64bits/frombits
	t     float64
}

// New creates a Dispatcher with no agents or rides yet.
func New(cfg Config, routingClient routing.Client) *Dispatcher {
	d := &Dispatcher{
		builder:          matching.NewBuilder(cfg.Matching, routingClient),
		routing:          routingClient,
		ingress:          newIngressQueue(),
		status:           newStatusTable(),
		agentIDToRequest: make(map[string]string),
		lastActiveSimIDs: make(map[string]struct{}),
	}
	d.SetSpeed(cfg.InitialSpeed)
	return d
}

// Submit enqueues a CreateRequest for processing on the next Tick and
// records its initial "queued" status under req.RequestID.
func (d *Dispatcher) Submit(req CreateRequest) {
	d.status.Set(req.RequestID, RequestStatus{Status: StatusQueued, Kind: req.Kind})
	d.ingress.Push(req)
}

// RequestStatus returns the current status of a request by ID, or
// ErrUnknownRequestID if none was ever submitted.
func (d *Dispatcher) RequestStatus(requestID string) (RequestStatus, error) {
	status, ok := d.status.Get(requestID)
	if !ok {
		return RequestStatus{}, domain.ErrUnknownRequestID
	}
	return status, nil
}

// Tick advances the simulation clock by dt seconds: drains ingress,
// matches new agents against the opposite pool, advances unmatched agents
// and active rides, then returns a Snapshot of the new state.
func (d *Dispatcher) Tick(ctx context.Context, dt float64) Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.t += dt

	for _, req := range d.ingress.Drain() {
		d.processNewAgent(ctx, req)
	}

	for _, a := range d.unmatchedDrivers {
		a.UpdatePosition(d.t)
	}
	for _, a := range d.unmatchedWalkers {
		a.UpdatePosition(d.t)
	}

	for _, sim := range d.sims {
		sim.Update(d.t)
	}

	d.refreshRoutesVersionLocked()

	return d.snapshotLocked()
}

// processNewAgent builds an Agent from req, records it as "created", then
// attempts to match it against the current opposite-kind pool. Matching
// one side updates the other side's already-recorded request status too,
// when the partner's request ID is known — mirrors the reference
// process_new_agent's partner-status propagation.
func (d *Dispatcher) processNewAgent(ctx context.Context, req CreateRequest) {
	routeData, err := d.routing.Fetch(ctx, req.Start, req.Dest, profileFor(req.Kind))
	if err != nil {
		log.Error().Err(err).Str("request_id", req.RequestID).Msg("ingress route fetch failed")
		d.status.Set(req.RequestID, RequestStatus{Status: StatusNotMatched, Kind: req.Kind})
		return
	}

	newAgent := agent.New(req.Kind, routeData, d.t)
	d.status.Set(req.RequestID, RequestStatus{Status: StatusCreated, Kind: req.Kind, AgentID: newAgent.ID})
	d.agentIDToRequest[newAgent.ID] = req.RequestID

	switch req.Kind {
	case agent.KindDriver:
		d.matchNewDriver(ctx, newAgent, req.RequestID)
	case agent.KindWalker:
		d.matchNewWalker(ctx, newAgent, req.RequestID)
	}
}

func (d *Dispatcher) matchNewDriver(ctx context.Context, driver *agent.Agent, requestID string) {
	for i, walker := range d.unmatchedWalkers {
		match, err := d.builder.BestMatch(ctx, []*agent.Agent{driver}, walker)
		if err != nil {
			continue
		}

		d.unmatchedWalkers = append(d.unmatchedWalkers[:i], d.unmatchedWalkers[i+1:]...)
		sim := ridesim.New(match, driver, d.t)
		d.sims = append(d.sims, sim)

		d.status.Set(requestID, RequestStatus{Status: StatusMatched, Kind: agent.KindDriver, AgentID: driver.ID, MatchID: sim.ID})
		if partnerReq, ok := d.agentIDToRequest[walker.ID]; ok {
			d.status.Set(partnerReq, RequestStatus{Status: StatusMatched, Kind: agent.KindWalker, AgentID: walker.ID, MatchID: sim.ID})
		}
		return
	}

	d.status.Set(requestID, RequestStatus{Status: StatusNotMatched, Kind: agent.KindDriver, AgentID: driver.ID})
	d.unmatchedDrivers = append(d.unmatchedDrivers, driver)
}

func (d *Dispatcher) matchNewWalker(ctx context.Context, walker *agent.Agent, requestID string) {
	match, err := d.builder.BestMatch(ctx, d.unmatchedDrivers, walker)
	if err != nil {
		d.status.Set(requestID, RequestStatus{Status: StatusNotMatched, Kind: agent.KindWalker, AgentID: walker.ID})
		d.unmatchedWalkers = append(d.unmatchedWalkers, walker)
		return
	}

	for i, drv := range d.unmatchedDrivers {
		if drv.ID == match.Driver.ID {
			d.unmatchedDrivers = append(d.unmatchedDrivers[:i], d.unmatchedDrivers[i+1:]...)
			break
		}
	}

	sim := ridesim.New(match, match.Driver, d.t)
	d.sims = append(d.sims, sim)

	d.status.Set(requestID, RequestStatus{Status: StatusMatched, Kind: agent.KindWalker, AgentID: walker.ID, MatchID: sim.ID})
	if partnerReq, ok := d.agentIDToRequest[match.Driver.ID]; ok {
		d.status.Set(partnerReq, RequestStatus{Status: StatusMatched, Kind: agent.KindDriver, AgentID: match.Driver.ID, MatchID: sim.ID})
	}
}

func profileFor(kind agent.Kind) domain.Profile {
	if kind == agent.KindDriver {
		return domain.ProfileDriving
	}
	return domain.ProfileWalking
}

// Speed returns the current simulation-seconds-per-real-tick multiplier.
func (d *Dispatcher) Speed() float64 {
	return float64frombits(atomic.LoadInt64(&d.speed))
}

// SetSpeed absolutely sets the speed multiplier, floored at 0.001 per the
// reference's handler (speed must stay positive so the clock advances).
func (d *Dispatcher) SetSpeed(v float64) {
	if v < 0.001 {
		v = 0.001
	}
	atomic.StoreInt64(&d.speed, float64bits(v))
}

// Faster increments the speed multiplier by 0.05.
func (d *Dispatcher) Faster() {
	d.SetSpeed(d.Speed() + 0.05)
}

// Slower decrements the speed multiplier by 0.05, floored at 0.001.
func (d *Dispatcher) Slower() {
	d.SetSpeed(d.Speed() - 0.05)
}
