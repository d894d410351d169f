package storage

import (
	"fmt"

	"github.com/imagehub/imagehub_server/internal/apperr"
)

// Registry maps configured backend names to resolved backends. It is built
// once at startup and injected into the orchestrator and batch runner; there
// is no process-global state.
type Registry struct {
	backends map[string]Backend
}

func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

func (r *Registry) Register(name string, backend Backend) {
	r.backends[name] = backend
}

// Get resolves a backend by its configured name.
func (r *Registry) Get(name string) (Backend, error) {
	backend, ok := r.backends[name]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "storage backend %q not registered", name)
	}
	return backend, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}

// BuildRegistry resolves every configured backend. A single misconfigured
// entry fails startup.
func BuildRegistry(configs map[string]BackendConfig) (*Registry, error) {
	registry := NewRegistry()
	for name, config := range configs {
		cfg := config
		backend, err := NewBackend(&cfg)
		if err != nil {
			return nil, fmt.Errorf("storage %q: %w", name, err)
		}
		registry.Register(name, backend)
	}
	return registry, nil
}
