package dispatcher

import (
	"sync"

	"github.com/ubi-africa/ridewalk/internal/agent"
	"github.com/ubi-africa/ridewalk/internal/domain"
)

// CreateRequest is a single ingress request to add a walker or driver to
// the simulation, queued by the HTTP layer and drained once per tick.
type CreateRequest struct {
	RequestID string
	Kind      agent.Kind
	Start     domain.Coordinate
	Dest      domain.Coordinate
}

// RequestStatusKind is the lifecycle stage of a CreateRequest.
type RequestStatusKind string

const (
	StatusQueued     RequestStatusKind = "queued"
	StatusCreated    RequestStatusKind = "created"
	StatusMatched    RequestStatusKind = "matched"
	StatusNotMatched RequestStatusKind = "not_matched"
	StatusUnknown    RequestStatusKind = "unknown"
)

// RequestStatus is the queryable status of one ingress request.
type RequestStatus struct {
	Status  RequestStatusKind `json:"status"`
	Kind    agent.Kind        `json:"kind"`
	AgentID string            `json:"agent_id,omitempty"`
	MatchID string            `json:"match_id,omitempty"`
}

// ingressQueue is a thread-safe FIFO of pending CreateRequests, drained in
// full at the start of each tick before any matching or position update
// runs — mirrors the reference's drain_create_queue-then-process policy.
type ingressQueue struct {
	mu    sync.Mutex
	items []CreateRequest
}

func newIngressQueue() *ingressQueue {
	return &ingressQueue{}
}

// Push enqueues a request for the next tick.
func (q *ingressQueue) Push(req CreateRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, req)
}

// Drain empties and returns the whole queue.
func (q *ingressQueue) Drain() []CreateRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.items
	q.items = nil
	return drained
}

// statusTable tracks the lifecycle of every CreateRequest by ID.
type statusTable struct {
	mu    sync.RWMutex
	byID  map[string]RequestStatus
}

func newStatusTable() *statusTable {
	return &statusTable{byID: make(map[string]RequestStatus)}
}

func (t *statusTable) Set(requestID string, status RequestStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID[requestID] = status
}

func (t *statusTable) Get(requestID string) (RequestStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	status, ok := t.byID[requestID]
	return status, ok
}
