// Package matching decides whether entities of two independently built
// models denote the same thing.
//
// Matching is heuristic and conservative: it relies on shared annotation
// resources and reports no match when the evidence is missing or ambiguous.
// A missed match only means a law is not imported; a wrong match would
// silently wire a law to an unrelated entity.
package matching

import "kineticcore/pkg/domain"

// ShareResource reports whether a resource annotated on a with qualifier qa is
// also annotated on b with qualifier qb.
func ShareResource(a []domain.CVTerm, qa string, b []domain.CVTerm, qb string) bool {
	left := domain.Resources(a, qa)
	if len(left) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(left))
	for _, r := range left {
		set[r] = struct{}{}
	}
	for _, r := range domain.Resources(b, qb) {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

// Compartments match when they share an "is" resource.
func Compartments(a, b domain.Compartment) bool {
	return ShareResource(a.Annotations, domain.QualifierIs, b.Annotations, domain.QualifierIs)
}

// Reactions match when they share an "is" resource.
func Reactions(a, b domain.Reaction) bool {
	return ShareResource(a.Annotations, domain.QualifierIs, b.Annotations, domain.QualifierIs)
}

// Species match when they share an "is" resource, or when one is annotated
// as a version of what the other is.
func Species(a, b domain.Species) bool {
	return ShareResource(a.Annotations, domain.QualifierIs, b.Annotations, domain.QualifierIs) ||
		ShareResource(a.Annotations, domain.QualifierHasVersion, b.Annotations, domain.QualifierIs) ||
		ShareResource(a.Annotations, domain.QualifierIs, b.Annotations, domain.QualifierHasVersion)
}

// SingleCandidateHeuristic accepts a compartment without annotation evidence
// when the target offers exactly one compartment it could stand for. Both
// sides then describe a single-compartment system and nothing else could be
// meant.
func SingleCandidateHeuristic(candidates int) bool { return candidates == 1 }

// unique returns the only index for which match holds, or -1 when none or
// several do.
func unique(n int, match func(i int) bool) int {
	found := -1
	for i := 0; i < n; i++ {
		if !match(i) {
			continue
		}
		if found >= 0 {
			return -1
		}
		found = i
	}
	return found
}
