// Package api implements the HTTP REST API and WebSocket server for the relay
// cycle controller.
//
// This package provides:
//   - REST endpoints for relays, cycles, cycle controls and emergency off
//   - WebSocket hub pushing relay_update and cycle_update events
//   - Optional JWT bearer authentication (HS256)
//   - Optional per-client rate limiting
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - TLS support for production deployments
//
// # Architecture
//
// Every mutation goes through the scheduler, which serialises it with timer
// callbacks. Resulting relay changes reach WebSocket clients through the
// notification dispatcher, not through the handlers.
//
// # Security
//
// Leaving security.jwt.secret empty disables authentication. When set,
// every route except /health and /metrics requires a bearer token; the
// WebSocket endpoint also accepts it as the access_token query parameter.
package api
