package bundle

import (
	"fmt"
	"sync"
)

// Provider loads one bundle. Loading may block on I/O; the registry calls
// Load at most once per registered provider.
type Provider interface {
	Load() (*Bundle, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() (*Bundle, error)

// Load calls f.
func (f ProviderFunc) Load() (*Bundle, error) {
	return f()
}

// Static returns a provider that always yields b.
func Static(b *Bundle) Provider {
	return ProviderFunc(func() (*Bundle, error) { return b, nil })
}

// File returns a provider reading the bundle at path.
func File(path string) Provider {
	return ProviderFunc(func() (*Bundle, error) { return ReadFile(path) })
}

// Registry is the explicit set of bundle providers for one mapping
// collection. The host registers providers before handing the registry to a
// coordinator. Loaded bundles are cached for the registry's lifetime.
type Registry struct {
	mu      sync.Mutex
	entries []*entry
}

type entry struct {
	p      Provider
	once   sync.Once
	bundle *Bundle
	err    error
}

func (e *entry) load() (*Bundle, error) {
	e.once.Do(func() {
		e.bundle, e.err = e.p.Load()
		if e.err == nil && e.bundle == nil {
			e.err = fmt.Errorf("provider returned no bundle")
		}
	})
	return e.bundle, e.err
}

// NewRegistry creates a registry holding providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{}
	r.Register(providers...)
	return r
}

// Register adds providers.
func (r *Registry) Register(providers ...Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range providers {
		r.entries = append(r.entries, &entry{p: p})
	}
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Bundles loads every registered bundle in registration order. The first
// load failure is returned; later providers are not loaded.
func (r *Registry) Bundles() ([]*Bundle, error) {
	if r == nil {
		return nil, nil
	}
	r.mu.Lock()
	entries := make([]*entry, len(r.entries))
	copy(entries, r.entries)
	r.mu.Unlock()

	out := make([]*Bundle, 0, len(entries))
	for i, e := range entries {
		b, err := e.load()
		if err != nil {
			return nil, fmt.Errorf("load bundle %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}
