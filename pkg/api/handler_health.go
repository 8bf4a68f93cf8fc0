package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/buildstream/datashield/pkg/database"
)

// Health handles GET /health. The response includes database connectivity
// and worker pool state when those components are wired in.
func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := gin.H{"status": "healthy"}
	healthy := true

	if s.db != nil {
		dbHealth, err := database.Health(ctx, s.db.DB())
		resp["database"] = dbHealth
		if err != nil {
			healthy = false
		}
	}

	if s.pool != nil {
		poolHealth := s.pool.Health()
		resp["worker_pool"] = poolHealth
		if !poolHealth.IsHealthy {
			healthy = false
		}
	}

	if !healthy {
		resp["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
