package ai

import (
	"sync"

	"meridian/pkg/errors"
)

// Registry holds the configured chat providers together with the model each
// one should be called with.
type Registry struct {
	mu        sync.RWMutex
	providers map[ProviderName]ChatProvider
	models    map[ProviderName]string
	order     []ProviderName
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[ProviderName]ChatProvider),
		models:    make(map[ProviderName]string),
	}
}

// Register adds a provider to the registry. Registration order determines
// failover order unless reordered via SetPreferred.
func (r *Registry) Register(name ProviderName, provider ChatProvider, model string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.providers[name] = provider
	r.models[name] = model
}

// SetPreferred moves the given provider to the front of the failover order.
// Unknown providers are ignored.
func (r *Registry) SetPreferred(name ProviderName) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.order {
		if p == name {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return
	}
	r.order = append(r.order[:idx], r.order[idx+1:]...)
	r.order = append([]ProviderName{name}, r.order...)
}

// Get returns a registered provider and its configured model.
func (r *Registry) Get(name ProviderName) (ChatProvider, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[name]
	if !ok {
		return nil, "", errors.Newf("ai provider %q is not registered", name)
	}
	return provider, r.models[name], nil
}

// Order returns the current failover order.
func (r *Registry) Order() []ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderName, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
