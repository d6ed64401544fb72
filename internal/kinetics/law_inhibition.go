package kinetics

import (
	"kineticcore/pkg/expr"
)

func competitiveInhibitionTemplate() Template {
	return Template{
		Name:          TemplateCompetitiveInhibition,
		Title:         "Irreversible competitive inhibition",
		Reversibility: IrreversibleOnly,
		Applicable: func(s *Shape) bool {
			return s.EnzymeCatalysed && s.UniSubstrate() && len(s.Inhibitors) > 0 && len(s.Catalysts) == 0
		},
		Instantiate: instantiateCompetitiveInhibition,
	}
}

// instantiateCompetitiveInhibition builds
//
//	kcat·E·S / (kM·Π(1 + I/kI) + S)
//
// per enzyme. Inhibitors act through the apparent Michaelis constant only;
// activators still contribute their usual factor.
func instantiateCompetitiveInhibition(b *Builder) (expr.Node, error) {
	s := b.Shape()
	sub := s.Reactants[0].Species
	S := b.Species(sub)
	terms := make([]expr.Node, 0, len(b.Enzymes()))
	for _, e := range b.Enzymes() {
		apparent := []expr.Node{b.Michaelis(e, sub)}
		for _, i := range s.Inhibitors {
			apparent = append(apparent, expr.Sum(expr.Constant(1), expr.Divide(b.Species(i), b.InhibitionConstant(e, i))))
		}
		terms = append(terms, expr.Divide(
			expr.Product(b.Turnover("kcat", e), b.Enzyme(e), S),
			expr.Sum(expr.Product(apparent...), S),
		))
	}
	return expr.Product(b.Activation(), expr.Sum(terms...)), nil
}
