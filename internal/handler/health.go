package handler

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler reports ok only when every dependency answers.
type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler creates a health handler over named dependencies.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// ServeHTTP handles GET /health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = "down"
			continue
		}
		resp.Checks[name] = "up"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, resp)
}
