package dispatcher

import (
	"github.com/ubi-africa/ridewalk/internal/agent"
	"github.com/ubi-africa/ridewalk/internal/congestion"
	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/ridesim"
)

// SimFrame is one active ride's contribution to a Snapshot.
type SimFrame struct {
	SimID  string        `json:"sim_id"`
	Phase  ridesim.Phase `json:"phase"`
	Walker WalkerFrame   `json:"walker"`
	Driver DriverFrame   `json:"driver"`
	Meta   SimMeta       `json:"meta"`
}

// WalkerFrame is the walker's position plus the progress index of whichever
// sub-walk is currently relevant: PIdx tracks the walk-to-pickup agent,
// DIdx the walk-from-dropoff agent, mirroring the reference snapshot_all's
// separate pIdx/dIdx fields.
type WalkerFrame struct {
	AgentID   string  `json:"agent_id,omitempty"`
	RequestID string  `json:"req_id,omitempty"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	PIdx      int     `json:"pIdx"`
	DIdx      int     `json:"dIdx"`
}

// DriverFrame is the driver's position plus its own route-geometry index.
type DriverFrame struct {
	AgentID   string  `json:"agent_id,omitempty"`
	RequestID string  `json:"req_id,omitempty"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Index     int     `json:"idx"`
}

// SimMeta carries ride ETAs useful to a client rendering the timeline.
type SimMeta struct {
	DriverPickupETAS  float64 `json:"t_driver_pickup"`
	DriverDropoffETAS float64 `json:"t_driver_dropoff"`
}

// LeftoverFrame is an unmatched agent's position, included in a Snapshot so
// clients can render the full pool, not just active rides.
type LeftoverFrame struct {
	AgentID string  `json:"agent_id,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Snapshot is the full per-tick simulation state, the Dispatcher's half of
// the SnapshotPublisher contract.
type Snapshot struct {
	TS              float64                 `json:"t_s"`
	Sims            []SimFrame              `json:"sims"`
	LeftoverDrivers []LeftoverFrame         `json:"leftover_drivers"`
	LeftoverWalkers []LeftoverFrame         `json:"leftover_walkers"`
	Congestion      []congestion.CellDensity `json:"congestion"`
}

// snapshotLocked builds a Snapshot from current state. Caller must hold
// d.mu.
func (d *Dispatcher) snapshotLocked() Snapshot {
	sims := make([]SimFrame, 0, len(d.sims))
	for _, sim := range d.sims {
		walkerPos := sim.WalkerPos()
		driverPos := sim.DriverPos()

		sims = append(sims, SimFrame{
			SimID: sim.ID,
			Phase: sim.Phase,
			Walker: WalkerFrame{
				AgentID:   sim.Match.Walker.ID,
				RequestID: d.agentIDToRequest[sim.Match.Walker.ID],
				Lat:       walkerPos.Lat,
				Lon:       walkerPos.Lon,
				PIdx:      sim.WalkToPickupAgent.Index(),
				DIdx:      sim.WalkFromDropoffAgent.Index(),
			},
			Driver: DriverFrame{
				AgentID:   sim.DriverAgent.ID,
				RequestID: d.agentIDToRequest[sim.DriverAgent.ID],
				Lat:       driverPos.Lat,
				Lon:       driverPos.Lon,
				Index:     sim.DriverAgent.Index(),
			},
			Meta: SimMeta{
				DriverPickupETAS:  sim.Match.DriverPickupETAS,
				DriverDropoffETAS: sim.Match.DriverDropoffETAS,
			},
		})
	}

	return Snapshot{
		TS:              d.t,
		Sims:            sims,
		LeftoverDrivers: leftoverFrames(d.unmatchedDrivers),
		LeftoverWalkers: leftoverFrames(d.unmatchedWalkers),
		Congestion:      congestion.Snapshot(agentPositions(d.unmatchedWalkers), agentPositions(d.unmatchedDrivers)),
	}
}

func leftoverFrames(agents []*agent.Agent) []LeftoverFrame {
	out := make([]LeftoverFrame, 0, len(agents))
	for _, a := range agents {
		pos, err := a.Pos()
		if err != nil {
			continue
		}
		out = append(out, LeftoverFrame{AgentID: a.ID, Lat: pos.Lat, Lon: pos.Lon})
	}
	return out
}

func agentPositions(agents []*agent.Agent) []domain.Coordinate {
	out := make([]domain.Coordinate, 0, len(agents))
	for _, a := range agents {
		pos, err := a.Pos()
		if err != nil {
			continue
		}
		out = append(out, pos)
	}
	return out
}
