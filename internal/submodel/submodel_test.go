package submodel

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"kineticcore/internal/kinetics"
	"kineticcore/pkg/domain"
	"kineticcore/pkg/expr"
)

var hz = domain.UnitDefinition{ID: "hz", Units: []domain.Unit{{Kind: "second", Exponent: -1}}}

// fixture has two reactions. r2 carries a law using global k2 (in hz) and
// the function f; k9 is an unused global.
func fixture() domain.Model {
	return domain.Model{
		ID:             "m1",
		SubstanceUnits: "mole",
		TimeUnits:      "second",
		VolumeUnits:    "litre",
		UnitDefinitions: []domain.UnitDefinition{
			hz,
			{ID: "unused_unit", Units: []domain.Unit{{Kind: "metre", Exponent: 2}}},
		},
		FunctionDefinitions: []domain.FunctionDefinition{
			{ID: "f", Args: []string{"x"}, Body: expr.Function("g", expr.Reference("x"))},
			{ID: "g", Args: []string{"y"}, Body: expr.Reference("y")},
		},
		Compartments: []domain.Compartment{{ID: "cell", SpatialDimensions: 3, Size: domain.Float(1)}},
		Species: []domain.Species{
			{ID: "S1", Compartment: "cell"},
			{ID: "S2", Compartment: "cell"},
			{ID: "S3", Compartment: "cell"},
		},
		Parameters: []domain.Parameter{
			{ID: "k2", Units: "hz", Constant: true},
			{ID: "k9", Constant: true},
		},
		Reactions: []domain.Reaction{
			{ID: "r1", Reactants: stoich("S1"), Products: stoich("S2")},
			{ID: "r2", Reactants: stoich("S2"), Products: stoich("S3"), KineticLaw: &domain.KineticLaw{
				Math: expr.Function("f", expr.Product(expr.Reference("k2"), expr.Reference("S2"))),
			}},
		},
	}
}

func stoich(ids ...string) []domain.SpeciesReference {
	out := make([]domain.SpeciesReference, len(ids))
	for i, id := range ids {
		out[i] = domain.SpeciesReference{Species: id, Stoichiometry: 1}
	}
	return out
}

func overwrite() kinetics.Options {
	opts := kinetics.DefaultOptions()
	opts.OverwriteExistingLaws = true
	return opts
}

// session extracts the given reactions from original and generates laws for
// them in the working copy.
func session(t *testing.T, original domain.Model, opts kinetics.Options, ids ...string) (kinetics.Batch, Mapping) {
	t.Helper()
	working, mapping, err := Extract(original, ids, false)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	batch, err := kinetics.NewGenerator(nil).Generate(context.Background(), working, ids, opts, &original)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return batch, mapping
}

func TestExtractCollectsTransitiveClosure(t *testing.T) {
	working, mapping, err := Extract(fixture(), []string{"r2"}, false)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(working.Reactions) != 1 || working.Reactions[0].ID != "r2" {
		t.Fatalf("expected only r2, got %+v", working.Reactions)
	}
	ids := working.Identifiers()
	for _, id := range []string{"S2", "S3", "cell", "k2", "hz", "f", "g"} {
		if _, ok := ids[id]; !ok {
			t.Fatalf("expected %s in working copy", id)
		}
	}
	for _, id := range []string{"r1", "S1", "k9", "unused_unit"} {
		if _, ok := ids[id]; ok {
			t.Fatalf("did not expect %s in working copy", id)
		}
	}
	if o, ok := mapping.Original("k2"); !ok || o != "k2" {
		t.Fatalf("expected identity mapping for k2, got %q", o)
	}
	if got := mapping.WorkingIDs(domain.EntityFunctionDefinition); !reflect.DeepEqual(got, []string{"f", "g"}) {
		t.Fatalf("unexpected function mapping %v", got)
	}
}

func TestExtractEmptySelectionTakesAllReactions(t *testing.T) {
	ids := []string{}
	working, _, err := Extract(fixture(), ids, false)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(working.Reactions) != 2 {
		t.Fatalf("expected both reactions, got %d", len(working.Reactions))
	}
}

func TestExtractErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.Model)
		ids    []string
		entity domain.EntityKind
	}{
		{name: "unknown reaction", mutate: func(*domain.Model) {}, ids: []string{"nope"}, entity: domain.EntityReaction},
		{name: "missing species", mutate: func(m *domain.Model) { m.Species = m.Species[1:] }, ids: []string{"r1"}, entity: domain.EntitySpecies},
		{name: "missing compartment", mutate: func(m *domain.Model) { m.Compartments = nil }, ids: []string{"r1"}, entity: domain.EntityCompartment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := fixture()
			tc.mutate(&m)
			_, _, err := Extract(m, tc.ids, false)
			var ee domain.ExtractionError
			if !errors.As(err, &ee) {
				t.Fatalf("expected extraction error, got %v", err)
			}
			if ee.Entity != tc.entity {
				t.Fatalf("expected %s error, got %+v", tc.entity, ee)
			}
		})
	}
}

func TestGenerationLeavesOriginalUntouched(t *testing.T) {
	original := fixture()
	before := original.Clone()
	session(t, original, overwrite(), "r1", "r2")
	if !reflect.DeepEqual(before, original) {
		t.Fatalf("original model changed by generation")
	}
}

func TestMergeInstallsLawWithExistingUnit(t *testing.T) {
	original := fixture()
	batch, mapping := session(t, original, overwrite(), "r1")

	res, err := Merge(&original, batch.Model, mapping, PlanFromBatch(batch))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !reflect.DeepEqual(res.Applied, []string{"r1"}) || len(res.Rejected) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	r, _ := original.FindReaction("r1")
	if !kinetics.LawIntact(original.Identifiers(), r.KineticLaw) {
		t.Fatalf("merged law has dangling references: %s", r.KineticLaw.Math)
	}
	if got := r.KineticLaw.LocalParameters[0].Units; got != "hz" {
		t.Fatalf("expected existing unit hz, got %s", got)
	}
	if len(original.UnitDefinitions) != 2 {
		t.Fatalf("expected no new unit definitions, got %+v", original.UnitDefinitions)
	}
}

func TestMergeRenamesCollidingUnit(t *testing.T) {
	original := fixture()
	original.UnitDefinitions = original.UnitDefinitions[1:]
	batch, mapping := session(t, original, overwrite(), "r1")
	if len(batch.NewUnits) != 1 || batch.NewUnits[0].ID != "per_second" {
		t.Fatalf("expected per_second to be created, got %+v", batch.NewUnits)
	}
	// another commit took the id for a different unit in the meantime
	original.UnitDefinitions = append(original.UnitDefinitions, domain.UnitDefinition{ID: "per_second", Units: []domain.Unit{{Kind: "mole", Exponent: 1}}})

	res, err := Merge(&original, batch.Model, mapping, PlanFromBatch(batch))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Renamed["per_second"] != "per_second_1" {
		t.Fatalf("expected rename to per_second_1, got %v", res.Renamed)
	}
	r, _ := original.FindReaction("r1")
	if got := r.KineticLaw.LocalParameters[0].Units; got != "per_second_1" {
		t.Fatalf("expected rewritten unit ref, got %s", got)
	}
	if _, ok := original.FindUnitDefinition("per_second_1"); !ok {
		t.Fatalf("renamed unit not installed")
	}
}

func TestMergeDeduplicatesAcrossReports(t *testing.T) {
	original := fixture()
	original.UnitDefinitions = original.UnitDefinitions[1:]
	first, firstMap := session(t, original, overwrite(), "r1")
	second, secondMap := session(t, original, overwrite(), "r2")

	if _, err := Merge(&original, first.Model, firstMap, PlanFromBatch(first)); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	res, err := Merge(&original, second.Model, secondMap, PlanFromBatch(second))
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if len(res.Renamed) != 0 {
		t.Fatalf("expected identical unit to be reused, got renames %v", res.Renamed)
	}
	count := 0
	for _, u := range original.UnitDefinitions {
		if u.ID == "per_second" || u.ID == "per_second_1" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected a single per_second unit, got %+v", original.UnitDefinitions)
	}
}

func TestMergeRenamesCollidingLocalParameter(t *testing.T) {
	original := fixture()
	batch, mapping := session(t, original, overwrite(), "r1")
	original.Species = append(original.Species, domain.Species{ID: "kass_r1", Compartment: "cell"})

	res, err := Merge(&original, batch.Model, mapping, PlanFromBatch(batch))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Renamed["kass_r1"] != "kass_r1_1" {
		t.Fatalf("expected local rename, got %v", res.Renamed)
	}
	r, _ := original.FindReaction("r1")
	want := expr.Product(expr.Reference("kass_r1_1"), expr.Reference("S1"))
	if !r.KineticLaw.Math.Equal(want) || r.KineticLaw.LocalParameters[0].ID != "kass_r1_1" {
		t.Fatalf("expected %s, got %s %+v", want, r.KineticLaw.Math, r.KineticLaw.LocalParameters)
	}
}

func TestMergeInstallsGlobalParameterOnce(t *testing.T) {
	original := fixture()
	opts := overwrite()
	opts.AddParametersGlobally = true
	first, firstMap := session(t, original, opts, "r1")
	second, secondMap := session(t, original, opts, "r1")

	for _, b := range []struct {
		batch   kinetics.Batch
		mapping Mapping
	}{{first, firstMap}, {second, secondMap}} {
		if _, err := Merge(&original, b.batch.Model, b.mapping, PlanFromBatch(b.batch)); err != nil {
			t.Fatalf("merge: %v", err)
		}
	}
	n := 0
	for _, p := range original.Parameters {
		if p.ID == "kass_r1" || p.ID == "kass_r1_1" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected one kass_r1 parameter, got %+v", original.Parameters)
	}
}

func TestMergeRejectsDeletedReaction(t *testing.T) {
	original := fixture()
	batch, mapping := session(t, original, overwrite(), "r1")
	original.Reactions = original.Reactions[1:]

	res, err := Merge(&original, batch.Model, mapping, PlanFromBatch(batch))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(res.Applied) != 0 || res.Rejected["r1"] == "" {
		t.Fatalf("expected r1 rejected, got %+v", res)
	}
	if len(original.UnitDefinitions) != 2 || len(original.Parameters) != 2 {
		t.Fatalf("rejected law left entities behind")
	}
}

func TestMergeRejectsDanglingReference(t *testing.T) {
	original := fixture()
	working, mapping, err := Extract(original, []string{"r1"}, false)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	working.Reactions[0].KineticLaw = &domain.KineticLaw{Math: expr.Product(expr.Reference("ghost"), expr.Reference("S1"))}

	res, err := Merge(&original, working, mapping, Plan{Reactions: []string{"r1"}})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Rejected["r1"] == "" {
		t.Fatalf("expected dangling law to be rejected, got %+v", res)
	}
	if r, _ := original.FindReaction("r1"); r.KineticLaw != nil {
		t.Fatalf("original law changed: %+v", r.KineticLaw)
	}
}

func TestMergeRemovesOnlyUnreferencedParameters(t *testing.T) {
	original := fixture()
	res, err := Merge(&original, domain.Model{}, NewMapping(), Plan{RemovedParameters: []string{"k2", "k9"}})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !reflect.DeepEqual(res.Removed, []string{"k9"}) {
		t.Fatalf("expected only k9 removed, got %v", res.Removed)
	}
	if _, ok := original.FindParameter("k2"); !ok {
		t.Fatalf("k2 is still referenced and must stay")
	}
}
