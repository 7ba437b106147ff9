package handlers

import (
	"net/http"
	"time"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	*Base
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		Base:      &Base{},
		startTime: time.Now(),
	}
}

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// ServeHTTP handles GET /health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: "efm-sync-backend",
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}
