package api

import (
	"context"
	"net/http"
	"time"
)

// Health handles GET /health - detailed status.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	storeOK := s.Store.Ping(ctx) == nil

	status := "ok"
	if !storeOK {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, envelope{
		"status": status,
		"components": envelope{
			"store": storeOK,
		},
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

// HealthLive handles GET /health/live - liveness probe.
func (s *Server) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"status": "ok"})
}

// HealthReady handles GET /health/ready - readiness probe. The service is
// ready even when the remote store is down; the fallback layer absorbs it.
func (s *Server) HealthReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"status": "ready"})
}
