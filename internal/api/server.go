package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Stats is the operational snapshot exposed by /api/stats.
type Stats struct {
	Connections    int `json:"connections"`
	Sessions       int `json:"sessions"`
	Rooms          int `json:"rooms"`
	PendingOffline int `json:"pending_offline"`
}

// StatsSource supplies the snapshot; the app wires it up from the
// connection table, session registry and grace scheduler.
type StatsSource interface {
	Stats() Stats
}

// Server exposes the health and stats endpoints. No business logic, only
// HTTP handling and JSON serialization.
type Server struct {
	source StatsSource
}

// NewServer creates the API server.
func NewServer(source StatsSource) *Server {
	return &Server{source: source}
}

// RegisterRoutes mounts the API endpoints.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Get("/api/stats", s.handleStats)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.source.Stats())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
