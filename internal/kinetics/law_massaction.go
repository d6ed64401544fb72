package kinetics

import (
	"kineticcore/pkg/domain"
	"kineticcore/pkg/expr"
)

func massActionTemplate() Template {
	return Template{
		Name:        TemplateMassAction,
		Title:       "Generalized mass-action kinetics",
		Applicable:  func(*Shape) bool { return true },
		Instantiate: instantiateMassAction,
	}
}

// instantiateMassAction builds
//
//	Σ_C C·(kass·Π S^ν − kdiss·Π P^ν)
//
// over all catalysts, or a single uncatalysed term. The reverse part is only
// present for reversible reactions.
func instantiateMassAction(b *Builder) (expr.Node, error) {
	s := b.Shape()
	r := b.ReactionID()
	catalysts := s.AllCatalysts()
	if len(catalysts) == 0 {
		catalysts = []string{""}
	}
	terms := make([]expr.Node, 0, len(catalysts))
	for _, c := range catalysts {
		tag := ""
		if len(catalysts) > 1 {
			tag = c
		}
		kass := b.Param(Role{
			Kind:     ParamForwardRate,
			ID:       JoinID("kass", r, tag),
			Catalyst: c,
			SBOTerm:  domain.SBOForwardRateConstant,
			Name:     "association constant of " + r,
		})
		rate := expr.Product(kass, b.speciesProduct(s.Reactants))
		if s.Reversible {
			kdiss := b.Param(Role{
				Kind:     ParamReverseRate,
				ID:       JoinID("kdiss", r, tag),
				Catalyst: c,
				SBOTerm:  domain.SBOReverseRateConstant,
				Name:     "dissociation constant of " + r,
			})
			rate = expr.Difference(rate, expr.Product(kdiss, b.speciesProduct(s.Products)))
		}
		terms = append(terms, expr.Product(b.Enzyme(c), rate))
	}
	return b.Modulate(expr.Sum(terms...)), nil
}
