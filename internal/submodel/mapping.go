// Package submodel builds isolated working copies of a model for kinetic-law
// generation and merges their results back.
//
// A working copy holds the target reactions and everything they reference.
// Generation mutates only the copy; nothing reaches the original until Merge
// installs the changed laws together with the entities they depend on.
package submodel

import (
	"sort"

	"kineticcore/pkg/domain"
)

// Mapping is the bidirectional identifier correspondence between a working
// copy and its original. It is only needed until the merge completes.
type Mapping struct {
	toOriginal map[string]string
	toWorking  map[string]string
	kinds      map[string]domain.EntityKind
}

// NewMapping returns an empty mapping.
func NewMapping() Mapping {
	return Mapping{
		toOriginal: make(map[string]string),
		toWorking:  make(map[string]string),
		kinds:      make(map[string]domain.EntityKind),
	}
}

// Bind records that working id w stands for original id o.
func (m Mapping) Bind(kind domain.EntityKind, w, o string) {
	m.toOriginal[w] = o
	m.toWorking[o] = w
	m.kinds[w] = kind
}

// Original returns the original id of working id w.
func (m Mapping) Original(w string) (string, bool) {
	o, ok := m.toOriginal[w]
	return o, ok
}

// Working returns the working id of original id o.
func (m Mapping) Working(o string) (string, bool) {
	w, ok := m.toWorking[o]
	return w, ok
}

// Kind returns the entity kind bound to working id w.
func (m Mapping) Kind(w string) (domain.EntityKind, bool) {
	k, ok := m.kinds[w]
	return k, ok
}

// Len returns the number of bound entities.
func (m Mapping) Len() int { return len(m.toOriginal) }

// WorkingIDs returns the bound working ids of the given kind, sorted.
func (m Mapping) WorkingIDs(kind domain.EntityKind) []string {
	var out []string
	for w, k := range m.kinds {
		if k == kind {
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out
}
