package kinetics

import (
	"kineticcore/pkg/domain"
	"kineticcore/pkg/expr"
)

func hillTemplate() Template {
	return Template{
		Name:          TemplateHill,
		Title:         "Hill equation for gene regulation",
		Reversibility: IrreversibleOnly,
		Applicable:    (*Shape).GeneRegulatory,
		Instantiate:   instantiateHill,
	}
}

// instantiateHill builds
//
//	kg · Π_A A^np/(A^np + ksp^np) · Π_I (1 − I^nm/(I^nm + ksm^nm)) · Π S^ν
//
// where enzymes and catalysts count as activators and the last product runs
// over reactants that are not genes.
func instantiateHill(b *Builder) (expr.Node, error) {
	s := b.Shape()
	r := b.ReactionID()
	factors := []expr.Node{b.Param(Role{
		Kind:    ParamHillRate,
		ID:      JoinID("kg", r),
		SBOTerm: domain.SBOKineticConstant,
		Name:    "rate constant of " + r,
	})}
	activators := append(s.AllCatalysts(), s.Activators...)
	for _, a := range activators {
		n := b.hillCoefficient("np", a)
		k := b.halfSaturation("ksp", a)
		A := expr.Power(b.Species(a), n)
		factors = append(factors, expr.Divide(A, expr.Sum(A, expr.Power(k, n))))
	}
	for _, i := range s.Inhibitors {
		n := b.hillCoefficient("nm", i)
		k := b.halfSaturation("ksm", i)
		I := expr.Power(b.Species(i), n)
		factors = append(factors, expr.Difference(expr.Constant(1), expr.Divide(I, expr.Sum(I, expr.Power(k, n)))))
	}
	genes := make(map[string]struct{}, len(s.GeneReactants))
	for _, g := range s.GeneReactants {
		genes[g] = struct{}{}
	}
	for _, ref := range s.Reactants {
		if _, ok := genes[ref.Species]; ok {
			continue
		}
		factors = append(factors, stoichiometryPower(b.Species(ref.Species), ref.Stoichiometry))
	}
	return expr.Product(factors...), nil
}

func (b *Builder) hillCoefficient(prefix, species string) expr.Node {
	r := b.ReactionID()
	return b.Param(Role{
		Kind:    ParamDimensionless,
		ID:      JoinID(prefix, r, species),
		SBOTerm: domain.SBOHillCoefficient,
		Name:    "Hill coefficient of " + species + " in " + r,
	})
}

func (b *Builder) halfSaturation(prefix, species string) expr.Node {
	r := b.ReactionID()
	return b.Param(Role{
		Kind:    ParamAffinity,
		ID:      JoinID(prefix, r, species),
		Species: species,
		SBOTerm: domain.SBOHalfSaturationConstant,
		Name:    "half-saturation constant of " + species + " in " + r,
	})
}
