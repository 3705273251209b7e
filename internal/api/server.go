// Package api provides the HTTP control server for remote pause/abort and
// status monitoring of recording and playback sessions.
package api

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/rs/zerolog"

	"macrorec/internal/config"
)

// Status describes the engine state pushed to clients.
type Status struct {
	// Mode is "idle", "recording" or "playing"
	Mode string `json:"mode"`

	// Paused reports the pause state of the active session
	Paused bool `json:"paused"`
}

// Hooks connects the server to the engine. Every field must be set; the
// callbacks are no-ops when no session is active.
type Hooks struct {
	// TogglePause toggles the active session's pause state
	TogglePause func()

	// Abort requests early termination of the active session
	Abort func()

	// Status reports the current engine state
	Status func() Status
}

// Server exposes the control surface over HTTP and WebSocket.
type Server struct {
	configMgr *config.Manager
	hooks     Hooks
	token     string
	wsMgr     *wsManager
	log       zerolog.Logger
}

// NewServer creates a new control server.
func NewServer(configMgr *config.Manager, hooks Hooks, log zerolog.Logger) *Server {
	s := &Server{
		configMgr: configMgr,
		hooks:     hooks,
		log:       log.With().Str("component", "api").Logger(),
	}
	s.wsMgr = newWSManager(s)
	return s
}

// Start starts the control server on the specified port. It blocks until
// the listener fails.
func (s *Server) Start(port int) error {
	cfg := s.configMgr.Get()
	s.token = cfg.General.APIToken

	go s.wsMgr.start()

	addr := fmt.Sprintf("0.0.0.0:%d", port)
	s.log.Info().Str("addr", addr).Msg("starting control server")

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("api: listen on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler: s.handler(),
	}

	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: serve: %w", err)
	}
	return nil
}

// handler builds the routed, middleware-wrapped control surface.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pause", s.handlePause)
	mux.HandleFunc("/api/abort", s.handleAbort)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return s.authMiddleware(s.recoverMiddleware(mux))
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error().Interface("panic", err).Msg("handler panic recovered")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks the API token if one is configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("request")

		// Skip auth for health check
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		if s.token != "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader != "Bearer "+s.token {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// handlePause handles POST /api/pause
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.hooks.TogglePause()
	s.wsMgr.broadcastStatus()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.hooks.Status())
}

// handleAbort handles POST /api/abort
func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.hooks.Abort()
	s.wsMgr.broadcastStatus()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.hooks.Status())
}

// handleConfig handles GET (read) and POST (update) for configuration
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.configMgr.Get())

	case http.MethodPost:
		var newCfg config.Config
		if err := json.NewDecoder(r.Body).Decode(&newCfg); err != nil {
			http.Error(w, "Invalid configuration data", http.StatusBadRequest)
			return
		}

		s.configMgr.Set(&newCfg)
		if err := s.configMgr.Save(); err != nil {
			s.log.Error().Err(err).Msg("save received config")
			http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
