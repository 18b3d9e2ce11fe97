// Package api provides the HTTP API for observing the tick engine.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/talgya/starbase/internal/engine"
	"github.com/talgya/starbase/internal/persistence"
	"github.com/talgya/starbase/internal/ship"
)

// Store is the persistence the API reads and, for readiness, writes.
type Store interface {
	ListShips(ctx context.Context) ([]*ship.Ship, error)
	Ship(ctx context.Context, id int64) (*ship.Ship, error)
	MessagesFor(ctx context.Context, recipient int64, limit int) ([]engine.Message, error)
	SaveShip(ctx context.Context, s *ship.Ship) error
}

// Server serves engine state over HTTP.
type Server struct {
	Eng       *engine.Engine
	DB        Store
	Hub       *Hub
	Readiness *engine.FightReadiness
	Port      int
	AdminKey  string // Bearer token for POST endpoints. Empty = POST disabled.
	RateLimit float64
	RateBurst int

	last    atomic.Pointer[engine.TickSummary]
	limiter *RateLimiter
	srv     *http.Server
}

// SetSummary records the latest orchestrator pass for /status.
func (s *Server) SetSummary(sum *engine.TickSummary) {
	if sum != nil {
		s.last.Store(sum)
	}
}

// Handler builds the routes.
func (s *Server) Handler() http.Handler {
	limiter := NewRateLimiter(s.RateLimit, s.RateBurst)
	s.limiter = limiter

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/ships", s.handleShips)
	mux.HandleFunc("GET /api/v1/ships/{id}", s.handleShip)
	mux.HandleFunc("GET /api/v1/messages", s.handleMessages)
	if s.Hub != nil {
		mux.HandleFunc("GET /api/v1/stream", s.Hub.ServeWs)
	}

	// Admin endpoints (POST, bearer token, rate limited).
	mux.HandleFunc("POST /api/v1/speed", RateLimitMiddleware(limiter, s.adminOnly(s.handleSpeed)))
	mux.HandleFunc("POST /api/v1/ships/{id}/ready", RateLimitMiddleware(limiter, s.adminOnly(s.handleReady)))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		for range time.Tick(time.Hour) {
			s.limiter.Cleanup(time.Hour)
		}
	}()

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the listener and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// CORS_ORIGINS holds a comma-separated list; localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires the admin bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no STARBASE_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"name":    "starbase",
		"turn":    s.Eng.Turn(),
		"speed":   s.Eng.Speed(),
		"running": s.Eng.Running(),
	}
	if sum := s.last.Load(); sum != nil {
		status["last_pass"] = sum
	}
	if s.Hub != nil {
		status["stream_clients"] = s.Hub.Clients(r.Context())
	}
	writeJSON(w, status)
}

type shipSummary struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	Name       string `json:"name"`
	Rump       string `json:"rump"`
	Station    bool   `json:"station"`
	State      string `json:"state"`
	Hull       int    `json:"hull"`
	MaxHull    int    `json:"max_hull"`
	Crew       int    `json:"crew"`
	AlertState string `json:"alert_state"`
	Eps        *int   `json:"eps,omitempty"`
	Sector     string `json:"sector"`
}

func summarize(sh *ship.Ship) shipSummary {
	sum := shipSummary{
		ID:         sh.ID,
		UserID:     sh.UserID,
		Name:       sh.Name,
		Rump:       sh.Rump.Name,
		Station:    sh.IsBase,
		State:      sh.State.String(),
		Hull:       sh.Hull,
		MaxHull:    sh.MaxHull,
		Crew:       sh.Crew,
		AlertState: sh.AlertState.Description(),
		Sector:     sh.Location.SectorString(),
	}
	if sh.Eps != nil {
		eps := sh.Eps.Eps
		sum.Eps = &eps
	}
	return sum
}

func (s *Server) handleShips(w http.ResponseWriter, r *http.Request) {
	ships, err := s.DB.ListShips(r.Context())
	if err != nil {
		slog.Error("list ships", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var user int64
	if v := r.URL.Query().Get("user"); v != "" {
		user, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid user", http.StatusBadRequest)
			return
		}
	}

	result := make([]shipSummary, 0, len(ships))
	for _, sh := range ships {
		if user != 0 && sh.UserID != user {
			continue
		}
		result = append(result, summarize(sh))
	}
	writeJSON(w, result)
}

func (s *Server) loadShip(w http.ResponseWriter, r *http.Request) (*ship.Ship, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid ship id", http.StatusBadRequest)
		return nil, false
	}
	sh, err := s.DB.Ship(r.Context(), id)
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "ship not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		slog.Error("load ship", "ship", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return sh, true
}

func (s *Server) handleShip(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.loadShip(w, r)
	if !ok {
		return
	}
	writeJSON(w, sh)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	user, err := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
	if err != nil {
		http.Error(w, "user query parameter required", http.StatusBadRequest)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	msgs, err := s.DB.MessagesFor(r.Context(), user, limit)
	if err != nil {
		slog.Error("list messages", "user", user, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, msgs)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Speed < 0 || req.Speed > 1000 {
		http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
		return
	}
	s.Eng.SetSpeed(req.Speed)
	slog.Info("speed changed", "speed", req.Speed)

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

// handleReady prepares a ship for an engagement. It runs between turns so
// it never races the orchestrator over the same ship.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.Readiness == nil {
		http.Error(w, "readiness disabled", http.StatusServiceUnavailable)
		return
	}

	var (
		lines  []string
		status = http.StatusOK
		msg    string
	)
	s.Eng.Exclusive(func() {
		sh, ok := s.loadShip(w, r)
		if !ok {
			status = 0
			return
		}
		lines = s.Readiness.Ready(sh)
		if lines == nil {
			return
		}
		if err := s.DB.SaveShip(r.Context(), sh); err != nil {
			slog.Error("save ship after readiness", "ship", sh.ID, "error", err)
			status, msg = http.StatusInternalServerError, "internal error"
		}
	})

	switch {
	case status == 0:
		// loadShip already answered.
	case status != http.StatusOK:
		http.Error(w, msg, status)
	default:
		if lines == nil {
			lines = []string{}
		}
		writeJSON(w, map[string]any{"actions": lines})
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
