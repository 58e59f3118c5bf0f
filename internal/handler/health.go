package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is the body of GET /health
type HealthStatus struct {
	Status            string  `json:"status"`
	DatabaseConnected bool    `json:"database_connected"`
	Uptime            float64 `json:"uptime_seconds"`
}

// HealthHandler reports service liveness and database connectivity
type HealthHandler struct {
	db        Pinger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, startTime: time.Now()}
}

// Health handles GET /health. It always answers 200; a lost database
// connection is reported as "degraded".
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	connected := h.db != nil && h.db.Ping(ctx) == nil
	status := "healthy"
	if !connected {
		status = "degraded"
	}

	WriteJSON(w, http.StatusOK, HealthStatus{
		Status:            status,
		DatabaseConnected: connected,
		Uptime:            time.Since(h.startTime).Seconds(),
	})
}
