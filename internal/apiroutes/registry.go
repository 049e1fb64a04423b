// Package apiroutes keeps the list of documented endpoints served at /api.
package apiroutes

import (
	"sort"
	"sync"
)

// APIRoute describes one documented endpoint.
type APIRoute struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

var (
	routeRegistry = make([]APIRoute, 0)
	registryMu    sync.RWMutex
)

// Register adds a route to the registry. Registering the same method and
// path again replaces the description.
func Register(path, method, description string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for i, r := range routeRegistry {
		if r.Path == path && r.Method == method {
			routeRegistry[i].Description = description
			return
		}
	}
	routeRegistry = append(routeRegistry, APIRoute{
		Path:        path,
		Method:      method,
		Description: description,
	})
}

// Get returns a copy of the registry sorted by path, then method.
func Get() []APIRoute {
	registryMu.RLock()
	registryCopy := make([]APIRoute, len(routeRegistry))
	copy(registryCopy, routeRegistry)
	registryMu.RUnlock()

	sort.SliceStable(registryCopy, func(i, j int) bool {
		if registryCopy[i].Path != registryCopy[j].Path {
			return registryCopy[i].Path < registryCopy[j].Path
		}
		return registryCopy[i].Method < registryCopy[j].Method
	})
	return registryCopy
}

// ClearForTesting removes all registered routes. For use in tests only.
func ClearForTesting() {
	registryMu.Lock()
	defer registryMu.Unlock()
	routeRegistry = make([]APIRoute, 0)
}
