package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Jeffrey-enterN/entern-match/internal/transport/http/dto"
	httperrors "github.com/Jeffrey-enterN/entern-match/internal/transport/http/errors"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports an error when a dependency is unreachable.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks   map[string]HealthCheck
	instance string
}

func NewHealthHandler(instance string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, instance: instance}
}

// Live reports that the process serves requests. It never touches dependencies.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, dto.HealthResponse{Status: "ok", Instance: h.instance})
}

// Ready runs every dependency check and answers 503 when one of them fails.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := dto.HealthResponse{Status: "ok", Instance: h.instance}
	status := http.StatusOK
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	httperrors.Write(w, status, resp)
}
