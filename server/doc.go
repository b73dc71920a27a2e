// Package server provides the HTTP server: a gin engine behind an h2c
// handler, with connection-level CORS and body limits and a per-route
// middleware stack (recovery, request id, metrics, request logging).
//
// Errors reach clients through RespondWithError as
//
//	{"error": {"code": "...", "message": "...", "retryable": false, "details": {}}}
//
// System routes (server/endpoint): /health, /api/health, /alive, /ready,
// /version and /metrics.
package server
