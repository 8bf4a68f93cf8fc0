// Package api exposes the HTTP surface: run submission and retrieval,
// health, and metrics.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/buildstream/datashield/pkg/database"
	"github.com/buildstream/datashield/pkg/metrics"
	"github.com/buildstream/datashield/pkg/queue"
	"github.com/buildstream/datashield/pkg/services"
)

// Server represents the API server.
type Server struct {
	runs    *services.RunService
	pool    *queue.WorkerPool
	db      *database.Client
	metrics *metrics.Registry
}

// NewServer creates a new API server. pool, db, and metrics may be nil when
// the corresponding surface is disabled (mainly in tests).
func NewServer(runs *services.RunService, pool *queue.WorkerPool, db *database.Client, m *metrics.Registry) *Server {
	if runs == nil {
		panic("NewServer: runs must not be nil")
	}
	return &Server{
		runs:    runs,
		pool:    pool,
		db:      db,
		metrics: m,
	}
}

// Router builds the gin engine with all routes and middleware registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), securityHeaders())

	router.GET("/health", s.Health)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/runs", s.CreateRun)
		v1.GET("/runs", s.ListRuns)
		v1.GET("/runs/:id", s.GetRun)
		v1.POST("/runs/:id/cancel", s.CancelRun)
	}

	return router
}
