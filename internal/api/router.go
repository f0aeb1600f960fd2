package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Monitoring (no auth required)
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimitMiddleware)
			r.Use(s.authMiddleware)

			r.Route("/relays", func(r chi.Router) {
				r.Get("/", s.handleListRelays)
				r.Post("/", s.handleUpsertRelay)

				r.Route("/{id}", func(r chi.Router) {
					r.Post("/toggle", s.handleToggleRelay)
					r.Post("/set", s.handleSetRelay)
					r.Get("/history", s.handleRelayHistory)
				})
			})

			r.Post("/emergency-off", s.handleEmergencyOff)

			r.Route("/cycles", func(r chi.Router) {
				r.Get("/", s.handleListCycles)
				r.Post("/", s.handleUpsertCycle)

				r.Route("/{id}", func(r chi.Router) {
					r.Delete("/", s.handleDeleteCycle)
					r.Post("/{control}", s.handleControlCycle)
				})
			})

			r.Get("/debug", s.handleDebug)

			// WebSocket (bearer token via header or access_token query)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}
