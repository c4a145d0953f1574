package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/ubi-africa/ridewalk/internal/dispatcher"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// frame is the envelope every WebSocket message (in either direction)
// is wrapped in.
type frame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// client is one connected WebSocket subscriber. Every client receives
// every broadcast frame. A client that sent {"type":"subscribe",
// "request_id":...} has that ID recorded and gets one "status" frame for
// it (none if the ID is unknown); broadcast frames are not filtered by
// the subscribed ID.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub

	mu          sync.Mutex
	requestID   string
}

// Hub fans broadcast frames out to every connected client, and serves
// each client's inbound create_request/subscribe messages against the
// Dispatcher.
type Hub struct {
	disp *dispatcher.Dispatcher

	mu      sync.RWMutex
	clients map[*client]bool
}

// NewHub creates a Hub bound to disp, used to service inbound
// create_request messages sent over the socket.
func NewHub(disp *dispatcher.Dispatcher) *Hub {
	return &Hub{disp: disp, clients: make(map[*client]bool)}
}

// ServeWS upgrades the connection and registers it with the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("transport: websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 32), hub: h}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

// BroadcastRoutes sends a {"type":"routes"} frame to every client,
// emitted only when the set of active rides changes.
func (h *Hub) BroadcastRoutes(payload any) {
	h.broadcast("routes", payload)
}

// BroadcastPositions sends a {"type":"positions"} frame to every client,
// emitted once per tick.
func (h *Hub) BroadcastPositions(payload any) {
	h.broadcast("positions", payload)
}

// BroadcastPositionsRaw sends a {"type":"positions"} frame whose data is
// already-marshaled JSON, avoiding a second marshal pass when the caller
// (the snapshot Publisher) has already encoded the payload for its other
// sinks.
func (h *Hub) BroadcastPositionsRaw(data json.RawMessage) {
	f := frame{Type: "positions", Data: data}
	encoded, err := json.Marshal(f)
	if err != nil {
		log.Error().Err(err).Msg("transport: broadcast frame marshal failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- encoded:
		default:
			log.Warn().Msg("transport: dropping broadcast to slow client")
		}
	}
}

func (h *Hub) broadcast(msgType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("transport: broadcast marshal failed")
		return
	}

	f := frame{Type: msgType, Data: data}
	encoded, err := json.Marshal(f)
	if err != nil {
		log.Error().Err(err).Msg("transport: broadcast frame marshal failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- encoded:
		default:
			log.Warn().Msg("transport: dropping broadcast to slow client")
		}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) readPump() {
	defer c.hub.unregister(c)
	defer c.conn.Close()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var in frame
		if err := json.Unmarshal(message, &in); err != nil {
			continue
		}

		switch in.Type {
		case "create_request":
			c.handleCreateRequest(in.Payload)
		case "subscribe":
			c.mu.Lock()
			c.requestID = in.RequestID
			c.mu.Unlock()
			c.sendStatus(in.RequestID)
		}
	}
}

func (c *client) handleCreateRequest(payload json.RawMessage) {
	var req createAgentRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}

	kind, err := parseKind(req.Type)
	if err != nil {
		return
	}

	requestID := uuid.NewString()
	c.hub.disp.Submit(dispatcher.CreateRequest{
		RequestID: requestID,
		Kind:      kind,
		Start:     req.Start,
		Dest:      req.Dest,
	})

	c.sendFrame(frame{Type: "created", RequestID: requestID})
}

func (c *client) sendStatus(requestID string) {
	status, err := c.hub.disp.RequestStatus(requestID)
	if err != nil {
		return
	}
	data, _ := json.Marshal(status)
	c.sendFrame(frame{Type: "status", RequestID: requestID, Data: data})
}

func (c *client) sendFrame(f frame) {
	encoded, err := json.Marshal(f)
	if err != nil {
		return
	}
	select {
	case c.send <- encoded:
	default:
	}
}
