package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wricardo/micromouse/mouse/engine"
	"github.com/wricardo/micromouse/mouse/service"
	"github.com/wricardo/micromouse/transport/websocket"
)

// Server is the REST front end of the run service
type Server struct {
	service service.RunService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, which turns off /ws
// and live updates.
func NewServer(runService service.RunService, hub *websocket.Hub) *Server {
	s := &Server{service: runService, hub: hub, router: mux.NewRouter()}
	s.routes()
	return s
}

var endpoints = []string{
	"POST /api/sessions",
	"GET /api/sessions",
	"GET|DELETE /api/sessions/{id}",
	"GET /api/sessions/{id}/state",
	"POST /api/sessions/{id}/step",
	"POST /api/sessions/{id}/run",
	"POST /api/sessions/{id}/reset",
	"GET /api/sessions/{id}/history",
	"GET /api/sessions/{id}/render",
	"GET|POST /api/configs",
	"GET /api/configs/{name}",
}

func (s *Server) routes() {
	r := s.router.PathPrefix("/api").Subrouter()

	r.Handle("", handler(s.index)).Methods(http.MethodGet)
	r.Handle("/sessions", handler(s.createSession)).Methods(http.MethodPost)
	r.Handle("/sessions", handler(s.listSessions)).Methods(http.MethodGet)
	r.Handle("/sessions/{id}", handler(s.getSession)).Methods(http.MethodGet)
	r.Handle("/sessions/{id}", handler(s.deleteSession)).Methods(http.MethodDelete)
	r.Handle("/sessions/{id}/state", handler(s.runState)).Methods(http.MethodGet)
	r.Handle("/sessions/{id}/step", handler(s.step)).Methods(http.MethodPost)
	r.Handle("/sessions/{id}/run", handler(s.run)).Methods(http.MethodPost)
	r.Handle("/sessions/{id}/reset", handler(s.reset)).Methods(http.MethodPost)
	r.Handle("/sessions/{id}/history", handler(s.history)).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/render", s.render).Methods(http.MethodGet)
	r.Handle("/configs", handler(s.listConfigs)).Methods(http.MethodGet)
	r.Handle("/configs", handler(s.createConfig)).Methods(http.MethodPost)
	r.Handle("/configs/{name}", handler(s.getConfig)).Methods(http.MethodGet)

	s.router.Handle("/health", handler(s.health)).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.HandleFunc("/ws", s.liveUpdates)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handler writes its result as JSON with the returned status, or the
// error as {"error": ...}
type handler func(r *http.Request) (int, interface{}, error)

func (h handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, body, err := h(r)
	if err != nil {
		var bad badRequest
		switch {
		case errors.As(err, &bad):
			status = http.StatusBadRequest
		case status < http.StatusBadRequest:
			status = statusFor(err)
		}
		body = map[string]string{"error": err.Error()}
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// badRequest marks errors caused by the request itself
type badRequest string

func (e badRequest) Error() string { return string(e) }

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidConfig):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeOptional fills v from the body; an empty body leaves v alone
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return badRequest("Invalid request body")
}

func sessionID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// intParam reads a positive integer query parameter
func intParam(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func oneOf(value, fallback string, allowed ...string) string {
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return fallback
}

func (s *Server) index(*http.Request) (int, interface{}, error) {
	return http.StatusOK, map[string]interface{}{"name": "micromouse", "endpoints": endpoints}, nil
}

func (s *Server) health(*http.Request) (int, interface{}, error) {
	return http.StatusOK, map[string]string{"status": "healthy"}, nil
}

func (s *Server) createSession(r *http.Request) (int, interface{}, error) {
	var req struct {
		ConfigID string `json:"config_id,omitempty"`
	}
	// a missing or malformed body means the default maze
	decodeOptional(r, &req)

	info, err := s.service.CreateSession(r.Context(), req.ConfigID)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, info, nil
}

// listSessions supports ?sort=created|accessed, ?order=asc|desc and ?limit=n
func (s *Server) listSessions(r *http.Request) (int, interface{}, error) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}

	q := r.URL.Query()
	by := oneOf(q.Get("sort"), "accessed", "created", "accessed")
	order := oneOf(q.Get("order"), "desc", "asc", "desc")

	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		if by == "created" {
			a, b = sessions[i].CreatedAt, sessions[j].CreatedAt
		}
		if order == "asc" {
			return a.Before(b)
		}
		return a.After(b)
	})

	total := len(sessions)
	if n := intParam(r, "limit", total); n < total {
		sessions = sessions[:n]
	}

	return http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     by,
		"order":    order,
	}, nil
}

func (s *Server) getSession(r *http.Request) (int, interface{}, error) {
	info, err := s.service.GetSession(r.Context(), sessionID(r))
	return http.StatusOK, info, err
}

func (s *Server) deleteSession(r *http.Request) (int, interface{}, error) {
	id := sessionID(r)
	if err := s.service.DeleteSession(r.Context(), id); err != nil {
		return 0, nil, err
	}
	return http.StatusOK, map[string]string{"message": fmt.Sprintf("Session %s deleted", id)}, nil
}

func (s *Server) runState(r *http.Request) (int, interface{}, error) {
	state, err := s.service.GetRunState(r.Context(), sessionID(r))
	return http.StatusOK, state, err
}

func (s *Server) step(r *http.Request) (int, interface{}, error) {
	var req struct {
		Steps int  `json:"steps"`
		Reset bool `json:"reset,omitempty"`
	}
	if err := decodeOptional(r, &req); err != nil {
		return 0, nil, err
	}
	if req.Steps < 0 {
		return 0, nil, badRequest("steps must not be negative")
	}

	id := sessionID(r)
	result, err := s.service.Step(r.Context(), id, req.Steps, req.Reset)
	if err != nil {
		return 0, nil, err
	}
	s.publish(id, result)
	return http.StatusOK, result, nil
}

func (s *Server) run(r *http.Request) (int, interface{}, error) {
	var req struct {
		Reset bool `json:"reset,omitempty"`
	}
	if err := decodeOptional(r, &req); err != nil {
		return 0, nil, err
	}

	id := sessionID(r)
	result, err := s.service.RunToCompletion(r.Context(), id, req.Reset)
	if err != nil {
		return 0, nil, err
	}
	s.publish(id, result)
	return http.StatusOK, result, nil
}

// publish pushes a step response to the session's viewers and logs a summary line
func (s *Server) publish(id string, result *service.StepResponse) {
	if s.hub != nil {
		for _, ev := range result.Events {
			s.hub.BroadcastEvent(id, ev.Type, ev)
		}
		s.hub.BroadcastToSession(id, result.RunState)
	}

	stop := result.StopReasonCode
	if stop == "" {
		stop = "-"
	}
	log.Printf("[RUN] session=%s exec=%d/%d stop=%s %s->%s phase=%s stuckΔ=%d",
		id, result.StepsExecuted, result.RequestedSteps, stop,
		result.StartHead, result.EndHead, result.EndPhase, result.StuckDelta)
}

func (s *Server) reset(r *http.Request) (int, interface{}, error) {
	id := sessionID(r)
	state, err := s.service.Reset(r.Context(), id)
	if err != nil {
		return 0, nil, err
	}
	if s.hub != nil {
		s.hub.BroadcastToSession(id, state)
	}
	return http.StatusOK, map[string]interface{}{"message": "Run reset successfully", "state": state}, nil
}

func (s *Server) history(r *http.Request) (int, interface{}, error) {
	opts := service.HistoryOptions{
		Page:  intParam(r, "page", 1),
		Limit: intParam(r, "limit", 20),
		Order: oneOf(r.URL.Query().Get("order"), "desc", "asc", "desc"),
	}
	history, err := s.service.GetStepHistory(r.Context(), sessionID(r), opts)
	return http.StatusOK, history, err
}

// render returns the ASCII maze; ?format=text gives plain text
func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	out, err := s.service.Render(r.Context(), sessionID(r))
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	if r.URL.Query().Get("format") != "text" {
		writeJSON(w, http.StatusOK, out)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, strings.Join(out.Lines, "\n")+"\n")
}

func (s *Server) listConfigs(r *http.Request) (int, interface{}, error) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}
	if configs == nil {
		configs = []*service.ConfigInfo{}
	}
	return http.StatusOK, configs, nil
}

func (s *Server) getConfig(r *http.Request) (int, interface{}, error) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")
	config, err := s.service.LoadConfig(r.Context(), name)
	return http.StatusOK, config, err
}

// createConfig saves a maze; ?id= picks the file name, defaulting to a slug of the name
func (s *Server) createConfig(r *http.Request) (int, interface{}, error) {
	var config engine.MazeConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		return 0, nil, badRequest("Invalid request body")
	}
	if config.Name == "" {
		return 0, nil, badRequest("Config name is required")
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		id = slug(config.Name)
	}
	if err := s.service.SaveConfig(r.Context(), id, &config); err != nil {
		return statusFor(err), nil, fmt.Errorf("Failed to save config: %w", err)
	}

	return http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": id,
	}, nil
}

// slug lowercases name and keeps only letters, digits and underscores
func slug(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '_'
		}
		return -1
	}, strings.ToLower(name))
}

func (s *Server) liveUpdates(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live updates are disabled", http.StatusServiceUnavailable)
		return
	}
	id := r.URL.Query().Get("session")
	if id == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if _, err := s.service.GetSession(r.Context(), id); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}
	s.hub.ServeWS(w, r, id)
}
