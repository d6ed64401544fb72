package core

import (
	"sort"

	"kineticcore/pkg/domain"
)

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewIdentifierUniquenessRule())
	engine.Register(NewReferenceIntegrityRule())
	engine.Register(NewFastReactionRule())
	return engine
}

// changedModels returns the ids of models touched by changes, sorted.
func changedModels(changes []Change) []string {
	set := make(map[string]struct{})
	for _, c := range changes {
		if c.ModelID == "" || c.Entity == EntityModel && c.Action == ActionDelete {
			continue
		}
		set[c.ModelID] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// changedLaws returns the reactions per model whose kinetic law changed.
func changedLaws(changes []Change) map[string][]string {
	out := make(map[string][]string)
	for _, c := range changes {
		if c.Entity == domain.EntityKineticLaw && c.Action != ActionDelete {
			out[c.ModelID] = append(out[c.ModelID], c.EntityID)
		}
	}
	return out
}
