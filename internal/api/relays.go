package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/relaycycle/internal/relay"
)

// setRelayRequest is the body of POST /relays/{id}/set.
type setRelayRequest struct {
	Status bool `json:"status"`
}

// handleListRelays returns every relay in insertion order.
func (s *Server) handleListRelays(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"relays": s.relays.List(),
		"count":  s.relays.Len(),
	})
}

// handleUpsertRelay creates a relay or updates its wiring and labels.
// Status is never taken from the request body.
func (s *Server) handleUpsertRelay(w http.ResponseWriter, r *http.Request) {
	var def relay.Relay
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	saved, err := s.sched.UpsertRelay(r.Context(), def)
	if err != nil {
		if !writeDomainError(w, err, "failed to save relay") {
			s.logger.Error("relay upsert failed", "relay_id", def.ID, "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// handleToggleRelay flips a relay and returns its new record.
func (s *Server) handleToggleRelay(w http.ResponseWriter, r *http.Request) {
	id := relay.ID(chi.URLParam(r, "id"))
	rl, err := s.sched.ToggleRelay(id)
	if err != nil {
		writeDomainError(w, err, "failed to toggle relay")
		return
	}
	writeJSON(w, http.StatusOK, rl)
}

// handleSetRelay sets a relay to the requested status.
func (s *Server) handleSetRelay(w http.ResponseWriter, r *http.Request) {
	var req setRelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	id := relay.ID(chi.URLParam(r, "id"))
	rl, err := s.sched.SetRelay(id, req.Status)
	if err != nil {
		writeDomainError(w, err, "failed to set relay")
		return
	}
	writeJSON(w, http.StatusOK, rl)
}

// handleRelayHistory returns recent status changes for a relay.
//
// Query parameters:
//   - limit: maximum entries (default 50, max 200)
func (s *Server) handleRelayHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "relay history not configured")
		return
	}

	id := relay.ID(chi.URLParam(r, "id"))
	if _, ok := s.relays.Get(id); !ok {
		writeNotFound(w, "relay not found")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.history.List(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("relay history query failed", "relay_id", id, "error", err)
		writeInternalError(w, "failed to load relay history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"relay_id": id,
		"history":  entries,
		"count":    len(entries),
	})
}
