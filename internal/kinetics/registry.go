package kinetics

import (
	"strconv"
	"sync"

	"kineticcore/pkg/domain"
)

// MaxSuffixAttempts bounds the numeric suffix search of IdentifierRegistry.Reserve.
const MaxSuffixAttempts = 1 << 16

// IdentifierRegistry hands out identifiers that are unique across the shared
// model namespace. It is safe for concurrent use.
type IdentifierRegistry struct {
	mu    sync.Mutex
	taken map[string]struct{}
}

// NewIdentifierRegistry returns a registry seeded with the given identifiers.
func NewIdentifierRegistry(seed ...string) *IdentifierRegistry {
	r := &IdentifierRegistry{taken: make(map[string]struct{}, len(seed))}
	for _, id := range seed {
		if id != "" {
			r.taken[id] = struct{}{}
		}
	}
	return r
}

// RegistryForModels seeds a registry with every identifier of the given
// models, plus the local parameter ids of laws not listed in regenerated.
func RegistryForModels(regenerated map[string]struct{}, models ...*domain.Model) *IdentifierRegistry {
	r := NewIdentifierRegistry()
	for _, m := range models {
		if m == nil {
			continue
		}
		for id := range m.Identifiers() {
			r.taken[id] = struct{}{}
		}
		for _, id := range m.LocalParameterIDs(regenerated) {
			r.taken[id] = struct{}{}
		}
	}
	return r
}

// Reserve claims base if it is free, otherwise the first free base_1, base_2, ...
func (r *IdentifierRegistry) Reserve(base string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.taken[base]; !ok {
		r.taken[base] = struct{}{}
		return base, nil
	}
	for i := 1; i < MaxSuffixAttempts; i++ {
		candidate := base + "_" + strconv.Itoa(i)
		if _, ok := r.taken[candidate]; !ok {
			r.taken[candidate] = struct{}{}
			return candidate, nil
		}
	}
	return "", domain.IdentifierExhaustionError{Base: base, Attempts: MaxSuffixAttempts}
}

// Claim marks id as used. It reports false when id was already taken.
func (r *IdentifierRegistry) Claim(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.taken[id]; ok {
		return false
	}
	r.taken[id] = struct{}{}
	return true
}

// Taken reports whether id is in use.
func (r *IdentifierRegistry) Taken(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.taken[id]
	return ok
}
