package kinetics

import (
	"kineticcore/pkg/domain"
	"kineticcore/pkg/expr"
)

func nonModulatedTemplate() Template {
	return Template{
		Name:          TemplateNonModulated,
		Title:         "Irreversible non-modulated non-interacting kinetics",
		Reversibility: IrreversibleOnly,
		Applicable: func(s *Shape) bool {
			return s.EnzymeCatalysed && s.IntegerStoichiometry && !s.Modulated() &&
				len(s.Unknown) == 0 && len(s.Catalysts) == 0 && len(s.Reactants) > 0
		},
		Instantiate: instantiateNonModulated,
	}
}

// instantiateNonModulated builds kcat·E·Π(S/kM)^ν / Π(1 + S/kM)^ν.
func instantiateNonModulated(b *Builder) (expr.Node, error) {
	s := b.Shape()
	terms := make([]expr.Node, 0, len(b.Enzymes()))
	for _, e := range b.Enzymes() {
		num := []expr.Node{b.Turnover("kcat", e), b.Enzyme(e)}
		den := make([]expr.Node, 0, len(s.Reactants))
		for _, ref := range s.Reactants {
			ratio := expr.Divide(b.Species(ref.Species), b.Michaelis(e, ref.Species))
			num = append(num, stoichiometryPower(ratio, ref.Stoichiometry))
			den = append(den, stoichiometryPower(expr.Sum(expr.Constant(1), ratio), ref.Stoichiometry))
		}
		terms = append(terms, expr.Divide(expr.Product(num...), expr.Product(den...)))
	}
	return expr.Sum(terms...), nil
}

func convenienceTemplate() Template {
	return Template{
		Name:  TemplateConvenience,
		Title: "Convenience kinetics",
		Applicable: func(s *Shape) bool {
			return s.EnzymeCatalysed && len(s.Catalysts) == 0 && len(s.Reactants) > 0
		},
		Instantiate: instantiateConvenience,
	}
}

// instantiateConvenience builds the convenience rate law. Irreversible
// reactions use
//
//	kcat·E·Π(S/kM)^ν / Π Σ_{j=0..ν}(S/kM)^j
//
// and reversible ones the thermodynamically independent form, where the
// species weights kG enforce detailed balance.
func instantiateConvenience(b *Builder) (expr.Node, error) {
	s := b.Shape()
	if len(s.Unknown) > 0 {
		return expr.Node{}, b.NotApplicable("modifier " + s.Unknown[0] + " has no recognised role")
	}
	if !s.IntegerStoichiometry {
		return expr.Node{}, b.NotApplicable("non-integer stoichiometry")
	}
	if s.Reversible && len(s.Products) == 0 {
		return expr.Node{}, b.NotApplicable("reversible reaction without products")
	}
	terms := make([]expr.Node, 0, len(b.Enzymes()))
	for _, e := range b.Enzymes() {
		subNum, subDen := b.saturation(e, s.Reactants)
		if !s.Reversible {
			terms = append(terms, expr.Divide(
				expr.Product(b.Turnover("kcat", e), b.Enzyme(e), subNum),
				subDen,
			))
			continue
		}
		prodNum, prodDen := b.saturation(e, s.Products)
		subWeight, prodWeight := b.weights(e, s.Reactants), b.weights(e, s.Products)
		numerator := expr.Difference(
			expr.Product(subNum, expr.Sqrt(expr.Divide(subWeight, prodWeight))),
			expr.Product(prodNum, expr.Sqrt(expr.Divide(prodWeight, subWeight))),
		)
		terms = append(terms, expr.Divide(
			expr.Product(b.Turnover("kcat", e), b.Enzyme(e), numerator),
			expr.Difference(expr.Sum(subDen, prodDen), expr.Constant(1)),
		))
	}
	return b.Modulate(expr.Sum(terms...)), nil
}

// saturation returns Π(X/kM)^ν and Π Σ_{j=0..ν}(X/kM)^j over refs.
func (b *Builder) saturation(e string, refs []domain.SpeciesReference) (expr.Node, expr.Node) {
	num := make([]expr.Node, 0, len(refs))
	den := make([]expr.Node, 0, len(refs))
	for _, ref := range refs {
		ratio := expr.Divide(b.Species(ref.Species), b.Michaelis(e, ref.Species))
		num = append(num, stoichiometryPower(ratio, ref.Stoichiometry))
		series := []expr.Node{expr.Constant(1)}
		for j := 1; j <= int(ref.Stoichiometry); j++ {
			series = append(series, stoichiometryPower(ratio, float64(j)))
		}
		den = append(den, expr.Sum(series...))
	}
	return expr.Product(num...), expr.Product(den...)
}

// weights returns Π(kG·kM)^ν over refs.
func (b *Builder) weights(e string, refs []domain.SpeciesReference) expr.Node {
	factors := make([]expr.Node, 0, len(refs))
	for _, ref := range refs {
		factors = append(factors, stoichiometryPower(expr.Product(b.Energy(ref.Species), b.Michaelis(e, ref.Species)), ref.Stoichiometry))
	}
	return expr.Product(factors...)
}

// Energy returns the species-level weight kG of s. It is global and shared
// by every law mentioning s.
func (b *Builder) Energy(s string) expr.Node {
	return b.Param(Role{
		Kind:    ParamEnergy,
		ID:      JoinID("kG", s),
		Species: s,
		Name:    "thermodynamic weight of " + s,
	})
}
