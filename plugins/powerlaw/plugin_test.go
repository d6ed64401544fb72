package powerlaw

import (
	"context"
	"testing"

	"kineticcore/internal/core"
	"kineticcore/internal/kinetics"
	"kineticcore/pkg/domain"
	"kineticcore/pkg/expr"
)

func model(reversible bool) core.Model {
	return core.Model{
		ID:              "m1",
		SubstanceUnits:  "mole",
		TimeUnits:       "second",
		VolumeUnits:     "litre",
		UnitDefinitions: []domain.UnitDefinition{{ID: "hz", Units: []domain.Unit{{Kind: "second", Exponent: -1}}}},
		Compartments:    []domain.Compartment{{ID: "cell", SpatialDimensions: 3, Size: domain.Float(1)}},
		Species:         []domain.Species{{ID: "S1", Compartment: "cell"}, {ID: "S2", Compartment: "cell"}},
		Reactions: []domain.Reaction{{
			ID:         "r1",
			Reversible: reversible,
			Reactants:  []domain.SpeciesReference{{Species: "S1", Stoichiometry: 1}},
			Products:   []domain.SpeciesReference{{Species: "S2", Stoichiometry: 1}},
		}},
	}
}

func preferPowerLaw() kinetics.Options {
	opts := kinetics.DefaultOptions()
	opts.Preferences = map[kinetics.ShapeClass]string{kinetics.ClassNonEnzyme: TemplateName}
	return opts
}

func newService(t *testing.T, m core.Model) *core.Service {
	t.Helper()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	meta, err := svc.InstallPlugin(New())
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if meta.Name != "powerlaw" || len(meta.Templates) != 1 || meta.Templates[0] != TemplateName || len(meta.Rules) != 1 {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if _, _, err := svc.PutModel(context.Background(), m); err != nil {
		t.Fatalf("put model: %v", err)
	}
	return svc
}

func TestPowerLawIrreversible(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, model(false))
	report, err := svc.Generate(ctx, "m1", []string{"r1"}, preferPowerLaw())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if o, _ := report.Outcome("r1"); o.Template != TemplateName || o.Status != domain.OutcomeSuccess {
		t.Fatalf("unexpected outcome %+v", o)
	}
	_, res, err := svc.Commit(ctx, report.ID)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	noticed := false
	for _, v := range res.Violations {
		noticed = noticed || (v.Rule == RuleName && v.EntityID == "r1" && v.Severity == core.SeverityLog)
	}
	if !noticed {
		t.Fatalf("expected power-law notice, got %+v", res.Violations)
	}

	m, err := svc.GetModel("m1")
	if err != nil {
		t.Fatalf("get model: %v", err)
	}
	r1, _ := m.FindReaction("r1")
	want := expr.Product(expr.Reference("kpl_r1"), expr.Power(expr.Reference("S1"), expr.Reference("g_r1_S1")))
	if r1.KineticLaw == nil || !r1.KineticLaw.Math.Equal(want) {
		t.Fatalf("unexpected law %v", r1.KineticLaw)
	}
	locals := map[string]bool{}
	for _, p := range r1.KineticLaw.LocalParameters {
		locals[p.ID] = true
	}
	if !locals["kpl_r1"] || !locals["g_r1_S1"] || len(locals) != 2 {
		t.Fatalf("unexpected local parameters %+v", r1.KineticLaw.LocalParameters)
	}
}

func TestPowerLawReversibleHasReverseTerm(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, model(true))
	report, err := svc.Generate(ctx, "m1", []string{"r1"}, preferPowerLaw())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, _, err := svc.Commit(ctx, report.ID); err != nil {
		t.Fatalf("commit: %v", err)
	}
	m, _ := svc.GetModel("m1")
	r1, _ := m.FindReaction("r1")
	if r1.KineticLaw == nil || r1.KineticLaw.Math.Kind() != expr.KindDifference {
		t.Fatalf("expected forward minus reverse term, got %v", r1.KineticLaw)
	}
	refs := map[string]bool{}
	for _, id := range r1.KineticLaw.Math.References() {
		refs[id] = true
	}
	for _, id := range []string{"kpl_r1", "kplr_r1", "g_r1_S1", "h_r1_S2", "S1", "S2"} {
		if !refs[id] {
			t.Fatalf("law %s does not reference %s", r1.KineticLaw.Math, id)
		}
	}
}

func TestTemplateNotApplicableWithoutReactants(t *testing.T) {
	tmpl := Template()
	if tmpl.Applicable(&kinetics.Shape{}) {
		t.Fatalf("expected template to reject a reaction without reactants")
	}
	if !tmpl.Applicable(&kinetics.Shape{Reactants: []domain.SpeciesReference{{Species: "S1", Stoichiometry: 1}}}) {
		t.Fatalf("expected template to accept a reaction with reactants")
	}
}
