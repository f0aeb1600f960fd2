package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/relaycycle/internal/cycle"
)

// handleListCycles returns every cycle with its runtime state.
func (s *Server) handleListCycles(w http.ResponseWriter, _ *http.Request) {
	views := s.sched.DescribeCycles(time.Now())
	writeJSON(w, http.StatusOK, map[string]any{
		"cycles": views,
		"count":  len(views),
	})
}

// handleUpsertCycle stores a definition and (re)starts the cycle.
func (s *Server) handleUpsertCycle(w http.ResponseWriter, r *http.Request) {
	var def cycle.Cycle
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	saved, err := s.sched.UpsertCycle(r.Context(), def)
	if err != nil {
		if !writeDomainError(w, err, "failed to save cycle") {
			s.logger.Error("cycle upsert failed", "cycle_id", def.ID, "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// handleDeleteCycle stops a cycle and removes its definition.
func (s *Server) handleDeleteCycle(w http.ResponseWriter, r *http.Request) {
	id := cycle.ID(chi.URLParam(r, "id"))
	if err := s.sched.DeleteCycle(r.Context(), id); err != nil {
		if !writeDomainError(w, err, "failed to delete cycle") {
			s.logger.Error("cycle delete failed", "cycle_id", id, "error", err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleControlCycle applies start, stop, pause, resume, disable or enable.
func (s *Server) handleControlCycle(w http.ResponseWriter, r *http.Request) {
	id := cycle.ID(chi.URLParam(r, "id"))
	ctl, err := cycle.ParseControl(chi.URLParam(r, "control"))
	if err != nil {
		writeNotFound(w, err.Error())
		return
	}

	if err := s.sched.Control(id, ctl); err != nil {
		writeDomainError(w, err, "failed to control cycle")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cycle_id": id,
		"control":  ctl,
		"running":  s.sched.IsRunning(id),
	})
}
