package prender

import (
	"fmt"
	"sort"
	"sync"
)

// RouteDescriptor binds an HTTP method and path to the component that
// renders it.
type RouteDescriptor struct {
	Method    string
	Path      string
	Component string
}

// RouteRegistry maps method+path pairs to components. Registration happens
// at startup; lookups happen per request, so reads take the shared lock.
type RouteRegistry struct {
	mu     sync.RWMutex
	routes map[string]RouteDescriptor
}

func NewRouteRegistry() *RouteRegistry {
	return &RouteRegistry{routes: make(map[string]RouteDescriptor)}
}

func routeKey(method, path string) string {
	return method + " " + path
}

// Register adds a route. Duplicate method+path pairs and empty fields are
// rejected.
func (r *RouteRegistry) Register(d RouteDescriptor) error {
	if d.Method == "" || d.Path == "" || d.Component == "" {
		return fmt.Errorf("route requires method, path, and component: %+v", d)
	}
	key := routeKey(d.Method, d.Path)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.routes[key]; exists {
		return fmt.Errorf("route %s already registered", key)
	}
	r.routes[key] = d
	return nil
}

// Lookup returns the descriptor for a method+path pair.
func (r *RouteRegistry) Lookup(method, path string) (RouteDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.routes[routeKey(method, path)]
	return d, ok
}

// Routes returns every registered descriptor, ordered by path then method.
func (r *RouteRegistry) Routes() []RouteDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RouteDescriptor, 0, len(r.routes))
	for _, d := range r.routes {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}
