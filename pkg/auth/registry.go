package auth

import (
	"fmt"
	"sync"

	"github.com/saturnines/storefront-dispatch/pkg/config"
	"github.com/saturnines/storefront-dispatch/pkg/errors"
	"github.com/saturnines/storefront-dispatch/pkg/target"
)

// Registry maps each backend target to the handler that authenticates it
type Registry struct {
	handlers map[target.Target]Handler
	mutex    sync.RWMutex
}

// NewRegistry creates a registry with the default handler for every target
func NewRegistry(keys config.Credentials) *Registry {
	registry := &Registry{
		handlers: make(map[target.Target]Handler),
	}

	for _, t := range target.All() {
		registry.Register(t, defaultHandler(t, keys))
	}
	return registry
}

// Register replaces the handler for a target
func (r *Registry) Register(t target.Target, h Handler) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.handlers[t] = h
}

// Lookup returns the handler for a target
func (r *Registry) Lookup(t target.Target) (Handler, error) {
	r.mutex.RLock()
	h, exists := r.handlers[t]
	r.mutex.RUnlock()

	if !exists || h == nil {
		return nil, errors.WrapError(
			fmt.Errorf("no credential handler for target %s", t),
			errors.ErrConfiguration,
			"lookup credential handler",
		)
	}
	return h, nil
}
