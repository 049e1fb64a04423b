package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/moviecatalog/internal/apiroutes"
	"github.com/mantonx/moviecatalog/internal/database"
	"github.com/mantonx/moviecatalog/internal/metrics"
	"github.com/mantonx/moviecatalog/internal/modules/modulemanager"
	"github.com/shirou/gopsutil/v4/mem"
)

const healthTimeout = 5 * time.Second

func (s *Server) setupRoutes() {
	r := s.router

	api := r.Group("/api")
	{
		setupHealthRoutes(api, s)
	}

	if s.cfg.Metrics.Enabled {
		r.GET(s.cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
		apiroutes.Register(s.cfg.Metrics.Path, "GET", "Prometheus metrics.")
	}

	s.registry.RegisterRoutes(r)

	r.GET("/api", s.handleAPIRoot)
	apiroutes.Register("/api", "GET", "Lists all available API endpoints.")
}

func setupHealthRoutes(api *gin.RouterGroup, s *Server) {
	api.GET("/health", s.handleHealth)
	apiroutes.Register(api.BasePath()+"/health", "GET", "System health check.")

	api.GET("/db-status", s.handleDBStatus)
	apiroutes.Register(api.BasePath()+"/db-status", "GET", "Database connection status.")

	api.GET("/connection-pool", s.handleConnectionPool)
	apiroutes.Register(api.BasePath()+"/connection-pool", "GET", "Database connection pool statistics.")
}

func (s *Server) handleAPIRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"routes": apiroutes.Get()})
}

// handleHealth reports database reachability, module health and host
// memory. A failed database ping or an unhealthy module answers 503.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := "ok"
	code := http.StatusOK

	dbStatus := "connected"
	if err := database.HealthCheck(ctx, s.db); err != nil {
		s.logger.Warn("database health check failed", "error", err)
		dbStatus = err.Error()
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	modules := s.registry.Health(ctx)
	for _, m := range modules {
		switch m.Status {
		case modulemanager.HealthStateUnhealthy:
			status, code = "unhealthy", http.StatusServiceUnavailable
		case modulemanager.HealthStateDegraded:
			if code == http.StatusOK {
				status = "degraded"
			}
		}
	}

	body := gin.H{
		"status":   status,
		"service":  "moviecatalog",
		"uptime":   time.Since(s.started).Round(time.Second).String(),
		"database": dbStatus,
		"modules":  modules,
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		body["memory"] = gin.H{
			"total":        vm.Total,
			"used":         vm.Used,
			"used_percent": vm.UsedPercent,
		}
	} else {
		s.logger.Debug("memory stats unavailable", "error", err)
	}

	c.JSON(code, body)
}

func (s *Server) handleDBStatus(c *gin.Context) {
	if err := database.HealthCheck(c.Request.Context(), s.db); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "connected",
		"database": s.cfg.Database.Type,
	})
}

func (s *Server) handleConnectionPool(c *gin.Context) {
	stats, err := database.ConnectionStats(s.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get connection pool stats: " + err.Error(),
		})
		return
	}

	var openUtilization float64
	if stats.MaxOpenConnections > 0 {
		openUtilization = float64(stats.OpenConnections) / float64(stats.MaxOpenConnections) * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"connection_pool": gin.H{
			"open_connections":     stats.OpenConnections,
			"max_open_connections": stats.MaxOpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration":        stats.WaitDuration.String(),
		},
		"open_connection_percent": openUtilization,
	})
}
