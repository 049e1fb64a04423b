// Package catalogmodule wires the movie query engine into the server.
package catalogmodule

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/moviecatalog/internal/config"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/api"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/repository"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/service"
	"github.com/mantonx/moviecatalog/internal/modules/modulemanager"
	"github.com/mantonx/moviecatalog/internal/services"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the catalog module
	ModuleID = "system.catalog"

	// ModuleName is the display name for the catalog module
	ModuleName = "Movie Catalog"

	// ModuleVersion is the version of the catalog module
	ModuleVersion = "1.0.0"
)

// Module implements the catalog functionality as a module
type Module struct {
	db     *gorm.DB
	cfg    *config.Config
	logger hclog.Logger

	store   *repository.GormStore
	service *service.CatalogService
	handler *api.Handler
}

// NewModule creates the catalog module. Init must be called before use.
func NewModule(db *gorm.DB, cfg *config.Config, logger hclog.Logger) *Module {
	return &Module{
		db:     db,
		cfg:    cfg,
		logger: logger.Named("catalog"),
	}
}

// ID returns the unique module identifier
func (m *Module) ID() string {
	return ModuleID
}

// Name returns the module display name
func (m *Module) Name() string {
	return ModuleName
}

// Version returns the module version
func (m *Module) Version() string {
	return ModuleVersion
}

// Core returns whether this is a core module
func (m *Module) Core() bool {
	return true
}

// Migrate performs database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	m.logger.Info("migrating catalog schema")
	return repository.Migrate(db)
}

// Init initializes the catalog module
func (m *Module) Init() error {
	if m.db == nil {
		return fmt.Errorf("catalog module requires a database")
	}

	m.store = repository.NewGormStore(m.db).WithBatchSize(m.cfg.Database.BatchSize)
	m.service = service.NewCatalogService(m.store, m.logger, service.SettingsFromConfig(m.cfg.Catalog))
	m.handler = api.NewHandler(m.service, m.logger)
	services.RegisterService[services.CatalogService](services.CatalogServiceName, m.service)

	m.logger.Info("catalog module initialized",
		"recent_window", m.cfg.Catalog.RecentWindow,
		"zero_is_missing", m.cfg.Catalog.ZeroIsMissing)
	return nil
}

// RegisterRoutes registers the catalog HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api.RegisterRoutes(router, m.handler)
}

// Service returns the catalog service
func (m *Module) Service() *service.CatalogService {
	return m.service
}

// Store returns the gorm-backed record store
func (m *Module) Store() *repository.GormStore {
	return m.store
}

// ReloadConfig applies catalog settings from a reloaded configuration
func (m *Module) ReloadConfig(cfg *config.Config) error {
	if m.service == nil {
		return fmt.Errorf("catalog module not initialized")
	}
	m.service.UpdateSettings(service.SettingsFromConfig(cfg.Catalog))
	m.logger.Info("catalog settings reloaded", "recent_window", cfg.Catalog.RecentWindow)
	return nil
}

// HealthCheck reports whether the movies table is reachable
func (m *Module) HealthCheck(ctx context.Context) modulemanager.HealthStatus {
	status := modulemanager.HealthStatus{LastChecked: time.Now()}
	if m.store == nil {
		status.Status = modulemanager.HealthStateUnknown
		status.Message = "not initialized"
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	n, err := m.store.Count(ctx, nil)
	if err != nil {
		status.Status = modulemanager.HealthStateUnhealthy
		status.Message = err.Error()
		return status
	}
	status.Status = modulemanager.HealthStateHealthy
	status.Details = map[string]interface{}{"movies": n}
	return status
}
