package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// DegradationReporter reports whether an optional dependency is currently shed
type DegradationReporter interface {
	Degraded() bool
}

type HealthHandler struct {
	store    Pinger
	aiEngine DegradationReporter
}

// NewHealthHandler creates a health handler. store may be nil in offline mode
// and aiEngine when resume analysis is disabled.
func NewHealthHandler(store Pinger, aiEngine DegradationReporter) *HealthHandler {
	return &HealthHandler{
		store:    store,
		aiEngine: aiEngine,
	}
}

func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			attachError(c, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"reason": "document store unreachable",
			})
			return
		}
	}

	// an open AI engine breaker only disables resume features
	if h.aiEngine != nil && h.aiEngine.Degraded() {
		c.JSON(http.StatusOK, gin.H{
			"status":   "degraded",
			"aiEngine": "circuit open",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
