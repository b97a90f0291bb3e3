package export

import (
	"fmt"
	"sync"
)

// Registry maps export IDs to in-flight exports. It is the only state
// shared across concurrent exports and serializes all mutation; it is an
// injected value, owned by whatever hosts the engine.
type Registry struct {
	mu      sync.RWMutex
	exports map[string]*ActiveExport
}

func NewRegistry() *Registry {
	return &Registry{exports: make(map[string]*ActiveExport)}
}

// Add registers an in-flight export. Each export ID may only be registered
// once for its lifetime.
func (r *Registry) Add(ae *ActiveExport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.exports[ae.ID]; exists {
		return fmt.Errorf("export already registered: %s", ae.ID)
	}
	r.exports[ae.ID] = ae
	return nil
}

// Get returns the in-flight export or nil when the ID is unknown or the
// export already reached a terminal state.
func (r *Registry) Get(id string) *ActiveExport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exports[id]
}

// Remove drops a terminated export. Removing an unknown ID is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.exports, id)
}

// Count returns the number of in-flight exports.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exports)
}

// IDs returns the IDs of all in-flight exports.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.exports))
	for id := range r.exports {
		ids = append(ids, id)
	}
	return ids
}
