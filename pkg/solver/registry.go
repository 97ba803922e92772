package solver

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrAlreadyRegistered is returned when a backend name is registered twice.
var ErrAlreadyRegistered = errors.New("solver already registered")

// Registry holds the installed backends and their capability metadata.
// It is safe for concurrent registration, but the intended use is to build
// it once at process start and treat it as read-only afterwards; the planner
// takes it by reference and never mutates it.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend

	// byFamily preserves registration order within each family; Family()
	// sorts by rank on top of it so equal ranks keep registration order.
	byFamily map[Family][]Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Backend),
		byFamily: make(map[Family][]Backend),
	}
}

// Register adds a backend to the registry.
// Returns an error if the descriptor is invalid or the name already exists.
func (r *Registry) Register(b Backend) error {
	d := b.Describe()
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid solver descriptor: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, d.Name)
	}
	r.backends[d.Name] = b
	r.byFamily[d.Family] = append(r.byFamily[d.Family], b)
	return nil
}

// MustRegister registers a backend and panics on error.
// Use this for static registration at process start.
func (r *Registry) MustRegister(b Backend) {
	if err := r.Register(b); err != nil {
		panic(fmt.Sprintf("failed to register solver %s: %v", b.Describe().Name, err))
	}
}

// Lookup returns the backend with the given name.
func (r *Registry) Lookup(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	return b, ok
}

// Installed returns the names of all registered backends, sorted.
func (r *Registry) Installed() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Family returns the family's backends sorted by ascending rank, i.e. in
// preference order. The sort is stable, so equal ranks keep registration
// order. An absent family yields an empty slice, not an error.
func (r *Registry) Family(f Family) []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]Backend, len(r.byFamily[f]))
	copy(members, r.byFamily[f])
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Describe().Rank < members[j].Describe().Rank
	})
	return members
}
