package matching

import (
	"sort"

	"kineticcore/pkg/domain"
)

// LawPlan describes how the law of a source reaction maps onto a target
// reaction.
type LawPlan struct {
	SourceReaction string
	TargetReaction string
	// Matches maps source species, compartment and reaction ids referenced by
	// the law to their counterparts in the target.
	Matches map[string]string
	// Unmatched lists referenced source ids without a counterpart, sorted.
	Unmatched []string
	// Parameters, Units and Functions are the source entities the law
	// carries along: global parameters it refers to, the units of those and
	// of its local parameters, and the functions it calls.
	Parameters []string
	Units      []string
	Functions  []string
}

// Importable reports whether every referenced component found a match.
func (p LawPlan) Importable() bool { return len(p.Unmatched) == 0 }

// PairReactions pairs every target reaction with the source reaction that
// carries a law for it. A pair is formed by a unique annotation match, or
// failing that by an identical id when neither side is annotated.
func PairReactions(source, target *domain.Model) map[string]string {
	pairs := make(map[string]string)
	for _, tr := range target.Reactions {
		idx := unique(len(source.Reactions), func(i int) bool {
			return Reactions(source.Reactions[i], tr)
		})
		if idx >= 0 {
			if !source.Reactions[idx].KineticLaw.Empty() {
				pairs[tr.ID] = source.Reactions[idx].ID
			}
			continue
		}
		sr, ok := source.FindReaction(tr.ID)
		if !ok || sr.KineticLaw.Empty() || len(sr.Annotations) > 0 || len(tr.Annotations) > 0 {
			continue
		}
		pairs[tr.ID] = sr.ID
	}
	return pairs
}

// PlanLaw matches the components referenced by the law of sourceReaction
// against what targetReaction can refer to: every reaction of the target,
// its participant species and their compartments.
func PlanLaw(source *domain.Model, sourceReaction string, target *domain.Model, targetReaction string) LawPlan {
	plan := LawPlan{SourceReaction: sourceReaction, TargetReaction: targetReaction, Matches: map[string]string{}}
	sr, ok := source.FindReaction(sourceReaction)
	tr, ok2 := target.FindReaction(targetReaction)
	if !ok || !ok2 || sr.KineticLaw.Empty() {
		plan.Unmatched = []string{sourceReaction}
		return plan
	}

	species, compartments := referenceable(target, tr)
	kinds := source.Identifiers()
	units := map[string]struct{}{}
	for _, id := range sr.KineticLaw.Math.References() {
		if p, local := sr.KineticLaw.FindLocalParameter(id); local {
			addUnit(source, units, p.Units)
			continue
		}
		var match string
		switch kinds[id] {
		case domain.EntitySpecies:
			s, _ := source.FindSpecies(id)
			if i := unique(len(species), func(i int) bool { return Species(s, species[i]) }); i >= 0 {
				match = species[i].ID
			}
		case domain.EntityCompartment:
			c, _ := source.FindCompartment(id)
			if i := unique(len(compartments), func(i int) bool { return Compartments(c, compartments[i]) }); i >= 0 {
				match = compartments[i].ID
			} else if SingleCandidateHeuristic(len(compartments)) {
				match = compartments[0].ID
			}
		case domain.EntityReaction:
			r, _ := source.FindReaction(id)
			if i := unique(len(target.Reactions), func(i int) bool { return Reactions(r, target.Reactions[i]) }); i >= 0 {
				match = target.Reactions[i].ID
			}
		case domain.EntityParameter:
			p, _ := source.FindParameter(id)
			plan.Parameters = append(plan.Parameters, id)
			addUnit(source, units, p.Units)
			continue
		}
		if match == "" {
			plan.Unmatched = append(plan.Unmatched, id)
			continue
		}
		plan.Matches[id] = match
	}
	plan.Functions = functionClosure(source, sr.KineticLaw.Math.Functions())
	plan.Units = sortedSet(units)
	sort.Strings(plan.Parameters)
	sort.Strings(plan.Unmatched)
	return plan
}

func referenceable(target *domain.Model, r domain.Reaction) ([]domain.Species, []domain.Compartment) {
	var species []domain.Species
	var compartments []domain.Compartment
	seen := map[string]struct{}{}
	for _, id := range r.ParticipantIDs() {
		s, ok := target.FindSpecies(id)
		if !ok {
			continue
		}
		species = append(species, s)
		if _, done := seen[s.Compartment]; done {
			continue
		}
		if c, ok := target.FindCompartment(s.Compartment); ok {
			seen[s.Compartment] = struct{}{}
			compartments = append(compartments, c)
		}
	}
	return species, compartments
}

func addUnit(m *domain.Model, set map[string]struct{}, ref string) {
	if _, ok := m.FindUnitDefinition(ref); ok {
		set[ref] = struct{}{}
	}
}

func functionClosure(m *domain.Model, names []string) []string {
	set := map[string]struct{}{}
	var visit func(string)
	visit = func(name string) {
		if _, done := set[name]; done {
			return
		}
		f, ok := m.FindFunctionDefinition(name)
		if !ok {
			return
		}
		set[name] = struct{}{}
		for _, inner := range f.Body.Functions() {
			visit(inner)
		}
	}
	for _, name := range names {
		visit(name)
	}
	return sortedSet(set)
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
