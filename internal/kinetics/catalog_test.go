package kinetics

import (
	"testing"

	"kineticcore/pkg/domain"
	"kineticcore/pkg/expr"
)

func TestDefaultCatalogOrder(t *testing.T) {
	want := []string{
		TemplateHill, TemplateCompetitiveInhibition, TemplateMichaelisMenten,
		TemplateRandomOrder, TemplateOrdered, TemplatePingPong,
		TemplateNonModulated, TemplateConvenience, TemplateMassAction,
	}
	got := DefaultCatalog().Templates()
	if len(got) != len(want) {
		t.Fatalf("expected %d templates, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], got[i].Name)
		}
	}
}

func TestCatalogRegisterValidation(t *testing.T) {
	c := NewCatalog()
	noop := func(*Builder) (expr.Node, error) { return expr.Constant(1), nil }
	if err := c.Register(Template{Instantiate: noop}); err == nil {
		t.Fatalf("expected missing name error")
	}
	if err := c.Register(Template{Name: "x"}); err == nil {
		t.Fatalf("expected missing instantiate error")
	}
	if err := c.Register(Template{Name: "x", Instantiate: noop}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := c.Register(Template{Name: "x", Instantiate: noop}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, ok := c.Lookup("x"); !ok {
		t.Fatalf("lookup failed")
	}
}

func TestCandidatesHonourPreferenceAndReversibility(t *testing.T) {
	r := domain.Reaction{ID: "r", Reactants: refs("A"), Products: refs("B"), Modifiers: []domain.ModifierReference{enzyme("E")}}
	m := newTestModel([]domain.Reaction{r})
	shape := DeriveShape(&m, r, DefaultOptions())

	opts := DefaultOptions()
	opts.Preferences = map[ShapeClass]string{ClassUniUni: TemplateConvenience}
	got := DefaultCatalog().Candidates(shape, opts)
	names := make([]string, len(got))
	for i, tpl := range got {
		names[i] = tpl.Name
	}
	want := []string{TemplateConvenience, TemplateMichaelisMenten, TemplateNonModulated, TemplateMassAction}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}

	r.Reversible = true
	shape = DeriveShape(&m, r, DefaultOptions())
	for _, tpl := range DefaultCatalog().Candidates(shape, DefaultOptions()) {
		if tpl.Reversibility == IrreversibleOnly {
			t.Fatalf("irreversible-only template %s offered for reversible reaction", tpl.Name)
		}
	}
}

func TestCustomTemplateRegistration(t *testing.T) {
	c := DefaultCatalog()
	err := c.Register(Template{
		Name:       "zero-order",
		Applicable: func(s *Shape) bool { return !s.EnzymeCatalysed },
		Instantiate: func(b *Builder) (expr.Node, error) {
			return b.Param(Role{Kind: ParamTurnover, ID: JoinID("k0", b.ReactionID())}), nil
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	m := newTestModel([]domain.Reaction{{ID: "r1", Reactants: refs("S1"), Products: refs("S2")}})
	opts := overwrite()
	opts.Preferences = map[ShapeClass]string{ClassNonEnzyme: "zero-order"}
	batch, err := NewGenerator(c).Generate(t.Context(), m, nil, opts)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	law := lawOf(t, batch.Model, "r1")
	if !law.Math.Equal(expr.Reference("k0_r1")) || law.LocalParameters[0].Units != "mole_per_litre_per_second" {
		t.Fatalf("unexpected law %s %+v", law.Math, law.LocalParameters)
	}
}
