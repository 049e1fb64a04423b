// Package server assembles the HTTP router and runs the API server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/moviecatalog/internal/config"
	"github.com/mantonx/moviecatalog/internal/middleware"
	"github.com/mantonx/moviecatalog/internal/modules/modulemanager"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// sweepInterval is how often idle rate-limit entries are dropped.
const sweepInterval = time.Minute

// Server owns the router and the http.Server in front of it.
type Server struct {
	cfg      *config.Config
	db       *gorm.DB
	registry *modulemanager.ModuleRegistry
	logger   hclog.Logger
	router   *gin.Engine
	limiter  *middleware.RateLimiter
	started  time.Time
}

// New builds the router. Modules must already be loaded into registry.
func New(cfg *config.Config, db *gorm.DB, registry *modulemanager.ModuleRegistry, logger hclog.Logger) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		db:       db,
		registry: registry,
		logger:   logger.Named("server"),
		started:  time.Now(),
	}
	if err := s.setupRouter(); err != nil {
		return nil, err
	}
	return s, nil
}

// Router returns the configured gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Addr is the listen address derived from the server config.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
}

func (s *Server) setupRouter() error {
	r := gin.New()
	if err := r.SetTrustedProxies(s.cfg.Server.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(s.logger.Named("http")))
	r.Use(middleware.ErrorLogger(s.logger.Named("http")))
	if s.cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
	}
	if s.cfg.Server.EnableCORS {
		r.Use(corsMiddleware(s.cfg.Security.AllowedOrigins))
	}
	if s.cfg.Security.RateLimitEnabled {
		perRequest := time.Minute / time.Duration(max(1, s.cfg.Security.RateLimitRPM))
		s.limiter = middleware.NewRateLimiter(rate.Every(perRequest), s.cfg.Security.RateLimitBurst, 15*time.Minute)
		r.Use(s.limiter.Middleware())
	}

	s.router = r
	s.setupRoutes()
	s.logModuleStatus()
	return nil
}

// corsMiddleware allows every origin when origins is empty and otherwise
// echoes back only listed origins.
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		switch origin := c.GetHeader("Origin"); {
		case len(allowed) == 0 || allowed["*"]:
			c.Header("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:           s.Addr(),
		Handler:        s.router,
		ReadTimeout:    s.cfg.Server.ReadTimeout,
		WriteTimeout:   s.cfg.Server.WriteTimeout,
		MaxHeaderBytes: s.cfg.Server.MaxHeaderBytes,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if s.limiter != nil {
		go s.limiter.Run(ctx, sweepInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.cfg.Server.ShutdownTimeout)
	shutdownCtx, stop := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return <-errCh
}

// logModuleStatus logs the loaded modules
func (s *Server) logModuleStatus() {
	modules := s.registry.ListModules()
	s.logger.Info("module system initialized", "modules", len(modules))
	for _, module := range modules {
		s.logger.Info("module", "name", module.Name(), "id", module.ID(), "core", module.Core())
	}
}
