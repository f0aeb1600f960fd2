package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/relaycycle/internal/cycle"
	"github.com/nerrad567/relaycycle/internal/relay"
	"github.com/nerrad567/relaycycle/internal/scheduler"
)

// Error is the body of every non-2xx response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned in Error.Code.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeNotFound           = "not_found"
	ErrCodeUnauthorized       = "unauthorised"
	ErrCodeInternal           = "internal_error"
	ErrCodeValidation         = "validation_error"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeServiceUnavailable = "service_unavailable"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// domainErrors maps sentinel errors to responses, first match wins. An
// empty message means the error text is returned to the client.
var domainErrors = []struct {
	target  error
	status  int
	code    string
	message string
}{
	{relay.ErrRelayNotFound, http.StatusNotFound, ErrCodeNotFound, "relay not found"},
	{cycle.ErrCycleNotFound, http.StatusNotFound, ErrCodeNotFound, "cycle not found"},
	{scheduler.ErrCycleNotRunning, http.StatusNotFound, ErrCodeNotFound, "cycle not running"},
	{relay.ErrInvalidRelay, http.StatusBadRequest, ErrCodeValidation, ""},
	{cycle.ErrInvalidCycle, http.StatusBadRequest, ErrCodeValidation, ""},
	{cycle.ErrUnknownControl, http.StatusBadRequest, ErrCodeBadRequest, ""},
	{scheduler.ErrClosed, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "scheduler is shutting down"},
}

// writeDomainError writes the response for a relay, cycle or scheduler
// error. It reports false after writing a 500 with fallback, leaving the
// caller to log the unexpected error.
func writeDomainError(w http.ResponseWriter, err error, fallback string) bool {
	for _, m := range domainErrors {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = err.Error()
		}
		writeError(w, m.status, m.code, msg)
		return true
	}
	writeInternalError(w, fallback)
	return false
}
