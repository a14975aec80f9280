// Package server exposes tracker telemetry over HTTP: JSON state snapshots,
// Prometheus metrics, and a WebSocket stream of per-frame snapshots.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/camlock/internal/tracker"
)

// stateSource is the slice of the tracker surface the server reads.
type stateSource interface {
	Snapshot() tracker.Snapshot
}

// Server holds the telemetry HTTP server state and dependencies.
type Server struct {
	source     stateSource
	timeoutSec int
}

// Config holds server configuration.
type Config struct {
	Host       string
	Port       int
	TimeoutSec int
}

// NewServer creates a telemetry server reading from the given tracker.
func NewServer(source stateSource, cfg Config) *Server {
	timeout := cfg.TimeoutSec
	if timeout <= 0 {
		timeout = 30
	}
	return &Server{source: source, timeoutSec: timeout}
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.observeMiddleware(s.healthHandler))
	mux.HandleFunc("/state", s.observeMiddleware(s.stateHandler))
	mux.HandleFunc("/ws", s.stateWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// Response types for API endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

type StateResponse struct {
	Tracker tracker.Snapshot `json:"tracker"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
