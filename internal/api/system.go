package api

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds the dependency probes of GET /health.
const healthCheckTimeout = 2 * time.Second

// handleHealth reports liveness and the state of optional dependencies.
// The response is 503 when the database is unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	checks := map[string]string{}
	body := map[string]any{"version": s.version, "checks": checks}

	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			s.logger.Warn("database health check failed", "error", err)
			checks["database"] = "unhealthy"
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
			if v, err := s.db.SchemaVersion(ctx); err == nil {
				body["schema"] = v
			}
		}
	}
	if s.mqtt != nil {
		if s.mqtt.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	body["status"] = state
	writeJSON(w, status, body)
}

// handleDebug dumps relays, cycles and running state.
func (s *Server) handleDebug(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.Debug())
}

// handleEmergencyOff stops every cycle and switches every relay off.
func (s *Server) handleEmergencyOff(w http.ResponseWriter, r *http.Request) {
	s.sched.EmergencyOff()
	s.logger.Warn("emergency off", "request_id", r.Context().Value(ctxKeyRequestID), "subject", r.Context().Value(ctxKeySubject))
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"relays":  s.relays.Len(),
		"stopped": true,
	})
}
