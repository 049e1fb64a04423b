package modulemanager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/moviecatalog/internal/config"
	"gorm.io/gorm"
)

// ModuleRegistry manages module registration and initialization
type ModuleRegistry struct {
	logger          hclog.Logger
	modules         map[string]Module
	order           []string
	disabledModules map[string]bool
	mu              sync.RWMutex
	initialized     bool
}

// NewRegistry creates an empty registry
func NewRegistry(logger hclog.Logger) *ModuleRegistry {
	return &ModuleRegistry{
		logger:          logger.Named("modules"),
		modules:         make(map[string]Module),
		disabledModules: make(map[string]bool),
	}
}

// Register adds a module to the registry. Modules load in registration order.
func (r *ModuleRegistry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		r.logger.Warn("module registered after initialization", "module", m.ID())
	}

	if _, exists := r.modules[m.ID()]; !exists {
		r.order = append(r.order, m.ID())
	}
	r.modules[m.ID()] = m
	r.logger.Info("module registered", "module", m.ID(), "name", m.Name())
}

// LoadAll migrates and initializes all enabled modules
func (r *ModuleRegistry) LoadAll(db *gorm.DB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		r.logger.Warn("module system already initialized")
		return nil
	}

	for i, id := range r.order {
		module := r.modules[id]
		if r.disabledModules[id] {
			r.logger.Warn("skipping disabled module", "module", id)
			continue
		}

		r.logger.Debug("initializing module", "module", id, "position", i+1, "of", len(r.order))
		if err := module.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", module.Name(), err)
		}
		if err := module.Init(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", module.Name(), err)
		}
		r.logger.Info("module loaded", "module", id)
	}

	r.initialized = true
	return nil
}

// DisableModule marks a module as disabled. Core modules cannot be disabled.
func (r *ModuleRegistry) DisableModule(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	module, exists := r.modules[id]
	if !exists {
		return fmt.Errorf("module not found: %s", id)
	}
	if module.Core() {
		return fmt.Errorf("cannot disable core module: %s", id)
	}

	r.disabledModules[id] = true
	r.logger.Info("module disabled", "module", id)
	return nil
}

// GetModule returns a module by ID
func (r *ModuleRegistry) GetModule(id string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	module, exists := r.modules[id]
	return module, exists
}

// ListModules returns all registered modules in registration order
func (r *ModuleRegistry) ListModules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	modules := make([]Module, 0, len(r.order))
	for _, id := range r.order {
		modules = append(modules, r.modules[id])
	}
	return modules
}

func (r *ModuleRegistry) enabled() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	modules := make([]Module, 0, len(r.order))
	for _, id := range r.order {
		if !r.disabledModules[id] {
			modules = append(modules, r.modules[id])
		}
	}
	return modules
}

// RegisterRoutes registers routes for all modules that implement RouteRegistrar
func (r *ModuleRegistry) RegisterRoutes(router *gin.Engine) {
	for _, module := range r.enabled() {
		if routeRegistrar, ok := module.(RouteRegistrar); ok {
			r.logger.Debug("registering routes", "module", module.ID())
			routeRegistrar.RegisterRoutes(router)
		}
	}
}

// Health collects the status of every module. Modules without a health
// check report unknown.
func (r *ModuleRegistry) Health(ctx context.Context) map[string]HealthStatus {
	statuses := make(map[string]HealthStatus)
	for _, module := range r.enabled() {
		checker, ok := module.(HealthChecker)
		if !ok {
			statuses[module.ID()] = HealthStatus{Status: HealthStateUnknown, LastChecked: time.Now()}
			continue
		}
		statuses[module.ID()] = checker.HealthCheck(ctx)
	}
	return statuses
}

// ReloadConfig forwards a configuration change to modules that accept one.
// It is shaped as a config.ConfigWatcher.
func (r *ModuleRegistry) ReloadConfig(_, newConfig *config.Config) {
	for _, module := range r.enabled() {
		reloadable, ok := module.(ConfigReloadable)
		if !ok {
			continue
		}
		if err := reloadable.ReloadConfig(newConfig); err != nil {
			r.logger.Error("module config reload failed", "module", module.ID(), "error", err)
		}
	}
}
