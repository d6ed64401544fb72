package kinetics

import (
	"context"
	"testing"

	"kineticcore/pkg/domain"
)

const waterResource = "http://identifiers.org/CHEBI:15377"

// newTestModel returns a model with one litre compartment "cell", species
// in mole per litre and the given reactions. Species are created for every
// participant that is not listed in extra.
func newTestModel(reactions []domain.Reaction, extra ...domain.Species) domain.Model {
	m := domain.Model{
		ID:             "m1",
		SubstanceUnits: "mole",
		TimeUnits:      "second",
		VolumeUnits:    "litre",
		Compartments:   []domain.Compartment{{ID: "cell", SpatialDimensions: 3, Size: domain.Float(1)}},
		Reactions:      reactions,
	}
	declared := make(map[string]struct{})
	for _, sp := range extra {
		declared[sp.ID] = struct{}{}
		m.Species = append(m.Species, sp)
	}
	for _, r := range reactions {
		for _, id := range r.ParticipantIDs() {
			if _, ok := declared[id]; ok {
				continue
			}
			declared[id] = struct{}{}
			m.Species = append(m.Species, domain.Species{ID: id, Compartment: "cell"})
		}
	}
	return m
}

func refs(ids ...string) []domain.SpeciesReference {
	out := make([]domain.SpeciesReference, len(ids))
	for i, id := range ids {
		out[i] = domain.SpeciesReference{Species: id, Stoichiometry: 1}
	}
	return out
}

func enzyme(id string) domain.ModifierReference {
	return domain.ModifierReference{Species: id, SBOTerm: domain.SBOEnzymaticCatalyst}
}

func overwrite() Options {
	opts := DefaultOptions()
	opts.OverwriteExistingLaws = true
	return opts
}

func generate(t *testing.T, m domain.Model, opts Options, ids ...string) Batch {
	t.Helper()
	batch, err := NewGenerator(nil).Generate(context.Background(), m, ids, opts)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return batch
}

func lawOf(t *testing.T, m domain.Model, reactionID string) *domain.KineticLaw {
	t.Helper()
	r, ok := m.FindReaction(reactionID)
	if !ok {
		t.Fatalf("reaction %s missing", reactionID)
	}
	if r.KineticLaw == nil {
		t.Fatalf("reaction %s has no law", reactionID)
	}
	return r.KineticLaw
}

func outcomeOf(t *testing.T, b Batch, reactionID string) domain.ReactionOutcome {
	t.Helper()
	for _, o := range b.Outcomes {
		if o.ReactionID == reactionID {
			return o
		}
	}
	t.Fatalf("no outcome for %s", reactionID)
	return domain.ReactionOutcome{}
}
