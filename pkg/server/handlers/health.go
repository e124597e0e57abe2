// Package handlers implements the HTTP handlers for the advisor API.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/graphrx/medadvisor"
)

// Build information, settable at build time using ldflags.
var (
	Version = "dev"
)

// HealthHandler handles liveness and readiness checks.
type HealthHandler struct {
	client *medadvisor.Client
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(client *medadvisor.Client) *HealthHandler {
	return &HealthHandler{client: client}
}

// HealthCheck handles GET /health.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "medadvisor",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// ReadinessCheck handles GET /ready. Ready means the graph store
// answers within the probe timeout.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.client.VerifyConnectivity(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "graph store unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
