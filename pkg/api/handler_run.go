package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildstream/datashield/pkg/models"
)

// CreateRun handles POST /api/v1/runs.
func (s *Server) CreateRun(c *gin.Context) {
	var req models.CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := s.runs.SubmitRun(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, run)
}

// GetRun handles GET /api/v1/runs/:id.
func (s *Server) GetRun(c *gin.Context) {
	run, err := s.runs.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// ListRuns handles GET /api/v1/runs.
func (s *Server) ListRuns(c *gin.Context) {
	var query struct {
		Status    string `form:"status"`
		ProjectID string `form:"project_id"`
		ModelID   string `form:"model_id"`
		Limit     int    `form:"limit"`
		Offset    int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.runs.ListRuns(c.Request.Context(), models.RunFilters{
		Status:    models.RunStatus(query.Status),
		ProjectID: query.ProjectID,
		ModelID:   query.ModelID,
		Limit:     query.Limit,
		Offset:    query.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CancelRun handles POST /api/v1/runs/:id/cancel. Cancellation only reaches
// runs executing on this pod.
func (s *Server) CancelRun(c *gin.Context) {
	if s.pool == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "worker pool not running"})
		return
	}

	id := c.Param("id")
	if !s.pool.CancelRun(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run is not executing on this pod"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
