// Package transport exposes the simulation's HTTP ingress surface: agent
// creation, speed control, request-status lookup, health checks, and a
// WebSocket hub streaming snapshots to subscribers.
package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/ubi-africa/ridewalk/internal/agent"
	"github.com/ubi-africa/ridewalk/internal/dispatcher"
	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/geo"
)

// Demo seeding defaults, mirroring the prototype's start() hardcoded
// center points and counts (walker_start/walker_end, start_pt/end_pt).
var (
	defaultDriverCenterStart = domain.Coordinate{Lat: 51.2562, Lon: 7.1508}
	defaultDriverCenterDest  = domain.Coordinate{Lat: 51.2277, Lon: 6.7735}
	defaultWalkerCenterStart = domain.Coordinate{Lat: 51.202561, Lon: 6.780486}
	defaultWalkerCenterDest  = domain.Coordinate{Lat: 51.219105, Lon: 6.787711}
)

const (
	defaultDriverRadiusM = 1000.0
	defaultDriverCount   = 1
	defaultWalkerRadiusM = 300.0
	defaultWalkerCount   = 6
)

// HTTP header and content type constants.
const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
	headerRequestID   = "X-Request-ID"
)

// Router builds the chi router for the ingress HTTP surface and WebSocket
// hub, wired to disp.
type Router struct {
	disp *dispatcher.Dispatcher
	hub  *Hub
}

// NewRouter creates a Router bound to disp, serving the /ws endpoint
// through hub.
func NewRouter(disp *dispatcher.Dispatcher, hub *Hub) *Router {
	return &Router{disp: disp, hub: hub}
}

// Handler assembles the full chi.Router with middleware, CORS, rate
// limiting, and every route, mirroring the teacher's main.go wiring.
func (rt *Router) Handler(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", headerContentType, headerRequestID},
		ExposedHeaders:   []string{headerRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(httprate.LimitByIP(100, time.Minute))

	r.Get("/health/live", rt.healthLive)
	r.Get("/health/ready", rt.healthReady)

	r.Post("/create_agent", rt.createAgent)
	r.Get("/create_status", rt.createStatus)

	r.Post("/demo/seed", rt.demoSeed)

	r.Get("/faster", rt.faster)
	r.Get("/slower", rt.slower)
	r.Get("/speed", rt.speed)

	r.Get("/ws", rt.hub.ServeWS)

	return r
}

func (rt *Router) healthLive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (rt *Router) healthReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type createAgentRequest struct {
	Type  string            `json:"type"`
	Start domain.Coordinate `json:"start"`
	Dest  domain.Coordinate `json:"dest"`
}

type createAgentResponse struct {
	RequestID string `json:"request_id"`
}

func (rt *Router) createAgent(w http.ResponseWriter, r *http.Request) {
	var payload createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	kind, err := parseKind(payload.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requestID := uuid.NewString()
	rt.disp.Submit(dispatcher.CreateRequest{
		RequestID: requestID,
		Kind:      kind,
		Start:     payload.Start,
		Dest:      payload.Dest,
	})

	writeJSON(w, http.StatusOK, createAgentResponse{RequestID: requestID})
}

func (rt *Router) createStatus(w http.ResponseWriter, r *http.Request) {
	requestID := r.URL.Query().Get("request_id")
	if requestID == "" {
		writeError(w, http.StatusBadRequest, "missing request_id")
		return
	}

	status, err := rt.disp.RequestStatus(requestID)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "unknown"})
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (rt *Router) faster(w http.ResponseWriter, r *http.Request) {
	rt.disp.Faster()
	w.Write([]byte("OK"))
}

func (rt *Router) slower(w http.ResponseWriter, r *http.Request) {
	rt.disp.Slower()
	w.Write([]byte("OK"))
}

func (rt *Router) speed(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query().Get("value")
	if v == "" {
		writeError(w, http.StatusBadRequest, "missing value")
		return
	}

	parsed, err := parseFloat(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rt.disp.SetSpeed(parsed)
	w.Write([]byte("OK"))
}

// demoSeedRequest scatters randomly-offset demo drivers/walkers around two
// center points, mirroring the prototype's create_drivers/create_walkers.
// Every field is optional; a zero coordinate or zero count falls back to
// the prototype's own hardcoded demo defaults.
type demoSeedRequest struct {
	DriverCenterStart domain.Coordinate `json:"driver_center_start"`
	DriverCenterDest  domain.Coordinate `json:"driver_center_dest"`
	DriverRadiusM     float64           `json:"driver_radius_m"`
	DriverCount       int               `json:"driver_count"`

	WalkerCenterStart domain.Coordinate `json:"walker_center_start"`
	WalkerCenterDest  domain.Coordinate `json:"walker_center_dest"`
	WalkerRadiusM     float64           `json:"walker_radius_m"`
	WalkerCount       int               `json:"walker_count"`
}

type demoSeedResponse struct {
	DriverRequestIDs []string `json:"driver_request_ids"`
	WalkerRequestIDs []string `json:"walker_request_ids"`
}

func (rt *Router) demoSeed(w http.ResponseWriter, r *http.Request) {
	var payload demoSeedRequest
	if r.Body != nil {
		// A body is optional: every field defaults when omitted, so a
		// malformed or empty body is not an error here.
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}
	applyDemoSeedDefaults(&payload)

	driverIDs := make([]string, 0, payload.DriverCount)
	for i := 0; i < payload.DriverCount; i++ {
		requestID := uuid.NewString()
		rt.disp.Submit(dispatcher.CreateRequest{
			RequestID: requestID,
			Kind:      agent.KindDriver,
			Start:     geo.RandomOffset(payload.DriverCenterStart, payload.DriverRadiusM),
			Dest:      geo.RandomOffset(payload.DriverCenterDest, payload.DriverRadiusM),
		})
		driverIDs = append(driverIDs, requestID)
	}

	walkerIDs := make([]string, 0, payload.WalkerCount)
	for i := 0; i < payload.WalkerCount; i++ {
		requestID := uuid.NewString()
		rt.disp.Submit(dispatcher.CreateRequest{
			RequestID: requestID,
			Kind:      agent.KindWalker,
			Start:     geo.RandomOffset(payload.WalkerCenterStart, payload.WalkerRadiusM),
			Dest:      geo.RandomOffset(payload.WalkerCenterDest, payload.WalkerRadiusM),
		})
		walkerIDs = append(walkerIDs, requestID)
	}

	writeJSON(w, http.StatusOK, demoSeedResponse{DriverRequestIDs: driverIDs, WalkerRequestIDs: walkerIDs})
}

func applyDemoSeedDefaults(p *demoSeedRequest) {
	if isZeroCoordinate(p.DriverCenterStart) {
		p.DriverCenterStart = defaultDriverCenterStart
	}
	if isZeroCoordinate(p.DriverCenterDest) {
		p.DriverCenterDest = defaultDriverCenterDest
	}
	if p.DriverRadiusM == 0 {
		p.DriverRadiusM = defaultDriverRadiusM
	}
	if p.DriverCount == 0 {
		p.DriverCount = defaultDriverCount
	}

	if isZeroCoordinate(p.WalkerCenterStart) {
		p.WalkerCenterStart = defaultWalkerCenterStart
	}
	if isZeroCoordinate(p.WalkerCenterDest) {
		p.WalkerCenterDest = defaultWalkerCenterDest
	}
	if p.WalkerRadiusM == 0 {
		p.WalkerRadiusM = defaultWalkerRadiusM
	}
	if p.WalkerCount == 0 {
		p.WalkerCount = defaultWalkerCount
	}
}

func isZeroCoordinate(c domain.Coordinate) bool {
	return c.Lat == 0 && c.Lon == 0
}

func parseKind(s string) (agent.Kind, error) {
	switch s {
	case string(agent.KindDriver):
		return agent.KindDriver, nil
	case string(agent.KindWalker):
		return agent.KindWalker, nil
	default:
		return "", domain.ErrInvalidIngressRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("transport: write response failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
