package kinetics

import (
	"kineticcore/pkg/expr"
)

func michaelisMentenTemplate() Template {
	return Template{
		Name:  TemplateMichaelisMenten,
		Title: "Michaelis-Menten kinetics",
		Applicable: func(s *Shape) bool {
			if !s.EnzymeCatalysed || !s.UniSubstrate() || len(s.Catalysts) > 0 {
				return false
			}
			return !s.Reversible || (len(s.Products) == 1 && s.Products[0].Stoichiometry == 1)
		},
		Instantiate: instantiateMichaelisMenten,
	}
}

// instantiateMichaelisMenten builds kcat·E·S/(kM+S) per enzyme, or the
// reversible form with separate forward and reverse turnover numbers.
func instantiateMichaelisMenten(b *Builder) (expr.Node, error) {
	s := b.Shape()
	sub := s.Reactants[0].Species
	S := b.Species(sub)
	terms := make([]expr.Node, 0, len(b.Enzymes()))
	for _, e := range b.Enzymes() {
		kMs := b.Michaelis(e, sub)
		if !s.Reversible {
			terms = append(terms, expr.Divide(
				expr.Product(b.Turnover("kcat", e), b.Enzyme(e), S),
				expr.Sum(kMs, S),
			))
			continue
		}
		prod := s.Products[0].Species
		P := b.Species(prod)
		kMp := b.Michaelis(e, prod)
		numerator := expr.Difference(
			expr.Divide(expr.Product(b.Turnover("kcatp", e), S), kMs),
			expr.Divide(expr.Product(b.Turnover("kcatn", e), P), kMp),
		)
		terms = append(terms, expr.Divide(
			expr.Product(b.Enzyme(e), numerator),
			expr.Sum(expr.Constant(1), expr.Divide(S, kMs), expr.Divide(P, kMp)),
		))
	}
	return b.Modulate(expr.Sum(terms...)), nil
}
