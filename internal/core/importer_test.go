package core

import (
	"context"
	"strings"
	"testing"

	"kineticcore/pkg/domain"
	"kineticcore/pkg/expr"
)

func is(resources ...string) []domain.CVTerm {
	return []domain.CVTerm{{Qualifier: domain.QualifierIs, Resources: resources}}
}

// sourceModel carries a hexokinase law in its own naming and a law for r2
// that refers to a species the target does not have.
func sourceModel() Model {
	return Model{
		ID: "src",
		UnitDefinitions: []domain.UnitDefinition{
			{ID: "per_min", Units: []domain.Unit{{Kind: "second", Exponent: -1, Multiplier: 60}}},
		},
		FunctionDefinitions: []domain.FunctionDefinition{
			{ID: "sat", Args: []string{"x", "k"}, Body: expr.Divide(expr.Reference("x"), expr.Sum(expr.Reference("k"), expr.Reference("x")))},
		},
		Compartments: []domain.Compartment{{ID: "c_src", SpatialDimensions: 3}},
		Species: []domain.Species{
			{ID: "glc", Compartment: "c_src", Annotations: is("chebi:glucose")},
			{ID: "g6p", Compartment: "c_src", Annotations: is("chebi:g6p")},
			{ID: "ghost", Compartment: "c_src", Annotations: is("chebi:unknown")},
		},
		Parameters: []domain.Parameter{{ID: "vmax", Units: "per_min", Value: domain.Float(3), Constant: true}},
		Reactions: []domain.Reaction{
			{
				ID: "hex", Reactants: stoich("glc"), Products: stoich("g6p"), Annotations: is("ec:2.7.1.1"),
				KineticLaw: &domain.KineticLaw{
					Math: expr.Product(expr.Reference("c_src"), expr.Reference("vmax"),
						expr.Function("sat", expr.Reference("glc"), expr.Reference("km"))),
					LocalParameters: []domain.Parameter{{ID: "km", Value: domain.Float(0.1), Constant: true}},
				},
			},
			{
				ID: "r2", Reactants: stoich("g6p"), Products: stoich("ghost"),
				KineticLaw: &domain.KineticLaw{Math: expr.Reference("ghost")},
			},
		},
	}
}

func annotatedTarget() Model {
	m := testModel()
	m.Species[0].Annotations = is("chebi:glucose")
	m.Species[1].Annotations = is("chebi:g6p")
	m.Reactions[0].Annotations = is("ec:2.7.1.1")
	return m
}

func TestImportLawsCopiesMatchedLaw(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine())
	if _, _, err := svc.PutModel(ctx, annotatedTarget()); err != nil {
		t.Fatalf("put model: %v", err)
	}

	report, err := svc.ImportLaws(ctx, "m1", sourceModel())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Source != "import" {
		t.Fatalf("expected import report, got %s", report.Source)
	}
	imported, ok := report.Outcome("r1")
	if !ok || imported.Status != domain.OutcomeSuccess || imported.Template != ImportedTemplate {
		t.Fatalf("expected r1 imported, got %+v", report.Outcomes)
	}
	unmatched, ok := report.Outcome("r2")
	if !ok || unmatched.Status != domain.OutcomeFailed || unmatched.Reason != domain.ReasonImportUnmatched {
		t.Fatalf("expected r2 unmatched, got %+v", report.Outcomes)
	}
	if !strings.Contains(unmatched.Detail, "ghost") {
		t.Fatalf("expected unmatched detail to name ghost, got %q", unmatched.Detail)
	}
	if len(report.NewFunctions) != 1 || report.NewFunctions[0].ID != "sat" {
		t.Fatalf("expected sat to travel with the law, got %+v", report.NewFunctions)
	}

	summary, _, err := svc.Commit(ctx, report.ID)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(summary.Applied) != 1 || summary.Applied[0] != "r1" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	stored, _ := svc.GetModel("m1")
	r1, _ := stored.FindReaction("r1")
	want := expr.Product(expr.Reference("cell"), expr.Reference("vmax"),
		expr.Function("sat", expr.Reference("S1"), expr.Reference("km")))
	if r1.KineticLaw == nil || !r1.KineticLaw.Math.Equal(want) {
		t.Fatalf("expected %s, got %+v", want, r1.KineticLaw)
	}
	vmax, ok := stored.FindParameter("vmax")
	if !ok || vmax.Units != "per_min" || vmax.Value == nil || *vmax.Value != 3 {
		t.Fatalf("expected vmax installed with its unit, got %+v", vmax)
	}
	if _, ok := stored.FindUnitDefinition("per_min"); !ok {
		t.Fatalf("expected per_min installed")
	}
	if _, ok := stored.FindFunctionDefinition("sat"); !ok {
		t.Fatalf("expected sat installed")
	}
	r2, _ := stored.FindReaction("r2")
	if !r2.KineticLaw.Math.Equal(expr.Product(expr.Reference("k2"), expr.Reference("S2"))) {
		t.Fatalf("unmatched reaction must keep its law, got %s", r2.KineticLaw.Math)
	}
}

func TestImportLawsRenamesCollidingEntities(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine())
	target := annotatedTarget()
	target.Parameters = append(target.Parameters, domain.Parameter{ID: "vmax", Constant: true})
	target.FunctionDefinitions = []domain.FunctionDefinition{
		{ID: "sat", Args: []string{"a"}, Body: expr.Reference("a")},
	}
	if _, _, err := svc.PutModel(ctx, target); err != nil {
		t.Fatalf("put model: %v", err)
	}
	report, err := svc.ImportLaws(ctx, "m1", sourceModel())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, _, err := svc.Commit(ctx, report.ID); err != nil {
		t.Fatalf("commit: %v", err)
	}
	stored, _ := svc.GetModel("m1")
	r1, _ := stored.FindReaction("r1")
	want := expr.Product(expr.Reference("cell"), expr.Reference("vmax_1"),
		expr.Function("sat_1", expr.Reference("S1"), expr.Reference("km")))
	if !r1.KineticLaw.Math.Equal(want) {
		t.Fatalf("expected %s, got %s", want, r1.KineticLaw.Math)
	}
	if p, ok := stored.FindParameter("vmax"); !ok || p.Units != "" {
		t.Fatalf("existing vmax must stay untouched, got %+v", p)
	}
}

func TestImportLawsWithoutPairs(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewDefaultRulesEngine())
	report, err := svc.ImportLaws(ctx, "m1", Model{ID: "empty"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(report.Outcomes) != 0 {
		t.Fatalf("expected no outcomes, got %+v", report.Outcomes)
	}
	summary, _, err := svc.Commit(ctx, report.ID)
	if err != nil || len(summary.Applied) != 0 {
		t.Fatalf("expected empty commit, got %+v %v", summary, err)
	}
}
