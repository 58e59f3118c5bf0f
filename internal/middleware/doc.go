// Package middleware provides the HTTP middleware of the media CMS API.
//
// # Server Chain
//
// The server wraps its mux in:
//
//	RequestID → Logger → Recovery → Metrics → CORS → RateLimit → Compress
//
// Metrics reads the matched ServeMux pattern after the mux has run, so no
// middleware between it and the mux may replace the request.
//
// # Per-Route Middleware
//
//   - Auth: verifies the bearer token and stores a *model.Principal
//   - Idempotency: replays keyed POST responses
//
// Handlers read the caller with GetPrincipal(r.Context()).
//
// # Rate Limiting
//
// RateLimit keeps a golang.org/x/time/rate token bucket per authenticated
// user or client IP. Refused requests get 429 with Retry-After.
package middleware
