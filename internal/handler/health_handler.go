package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readyTimeout = 5 * time.Second

// HealthChecker is a dependency that can report its health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles liveness and readiness probes
type HealthHandler struct {
	components []namedChecker
}

type namedChecker struct {
	name    string
	checker HealthChecker
}

// NewHealthHandler creates a HealthHandler with no components
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// WithComponent registers a dependency checked by Ready
func (h *HealthHandler) WithComponent(name string, checker HealthChecker) *HealthHandler {
	h.components = append(h.components, namedChecker{name: name, checker: checker})
	return h
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadyResponse represents readiness check response
type ReadyResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// Health is the liveness probe
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready checks every registered component
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	components := make(map[string]string, len(h.components))
	allHealthy := true
	for _, nc := range h.components {
		if err := nc.checker.HealthCheck(ctx); err != nil {
			components[nc.name] = "unhealthy: " + err.Error()
			allHealthy = false
			continue
		}
		components[nc.name] = "healthy"
	}

	resp := ReadyResponse{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}
	if allHealthy {
		resp.Status = "ready"
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Status = "not ready"
	c.JSON(http.StatusServiceUnavailable, resp)
}
