package adserver

import (
	"fmt"
	"log/slog"
)

// Factory builds an adapter instance from tenant-level configuration.
type Factory interface {
	Create(config map[string]any) (Adapter, error)
	ID() string
}

// Registry holds the adapter factories known to the process. Tenants select an
// adapter by name; there is no type introspection anywhere.
type Registry struct {
	logger    *slog.Logger
	factories map[string]Factory
}

// NewRegistry creates an empty adapter registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under its ID.
func (r *Registry) Register(factory Factory) {
	r.factories[factory.ID()] = factory
}

// Create instantiates the named adapter.
func (r *Registry) Create(name string, config map[string]any) (Adapter, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, name)
	}

	return factory.Create(config)
}

// HealthCheck reports whether any adapters are registered.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.factories) == 0 {
		return "No ad server adapters registered", false
	}

	return fmt.Sprintf("%d ad server adapter(s) registered", len(r.factories)), true
}
