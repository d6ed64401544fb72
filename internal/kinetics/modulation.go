package kinetics

import (
	"kineticcore/pkg/domain"
	"kineticcore/pkg/expr"
)

// ActivationConstant returns kA for activator a.
func (b *Builder) ActivationConstant(a string) expr.Node {
	r := b.ReactionID()
	return b.Param(Role{
		Kind:    ParamAffinity,
		ID:      JoinID("kA", r, a),
		Species: a,
		SBOTerm: domain.SBOActivationConstant,
		Name:    "activation constant of " + a + " in " + r,
	})
}

// InhibitionConstant returns kI for inhibitor i. enzyme is only used to
// keep per-enzyme constants apart.
func (b *Builder) InhibitionConstant(enzyme, i string) expr.Node {
	r := b.ReactionID()
	return b.Param(Role{
		Kind:    ParamAffinity,
		ID:      JoinID("kI", r, b.EnzymeTag(enzyme), i),
		Species: i,
		SBOTerm: domain.SBOInhibitoryConstant,
		Name:    "inhibitory constant of " + i + " in " + r,
	})
}

// Activation returns the product of A/(kA+A) over the activators.
func (b *Builder) Activation() expr.Node {
	factors := make([]expr.Node, 0, len(b.shape.Activators))
	for _, a := range b.shape.Activators {
		x, k := b.Species(a), b.ActivationConstant(a)
		if b.opts.UseFunctionDefinitions {
			factors = append(factors, expr.Function(b.useFunction(FunctionActivation), x, k))
			continue
		}
		factors = append(factors, expr.Divide(x, expr.Sum(k, x)))
	}
	return expr.Product(factors...)
}

// Inhibition returns the product of kI/(kI+I) over the inhibitors.
func (b *Builder) Inhibition() expr.Node {
	factors := make([]expr.Node, 0, len(b.shape.Inhibitors))
	for _, i := range b.shape.Inhibitors {
		x, k := b.Species(i), b.InhibitionConstant("", i)
		if b.opts.UseFunctionDefinitions {
			factors = append(factors, expr.Function(b.useFunction(FunctionInhibition), x, k))
			continue
		}
		factors = append(factors, expr.Divide(k, expr.Sum(k, x)))
	}
	return expr.Product(factors...)
}

// Modulate multiplies rate by the activation and inhibition factors.
func (b *Builder) Modulate(rate expr.Node) expr.Node {
	return expr.Product(b.Activation(), b.Inhibition(), rate)
}

// stoichiometryPower returns x^ν, leaving x alone for ν = 1.
func stoichiometryPower(x expr.Node, nu float64) expr.Node {
	return expr.Power(x, expr.Constant(nu))
}

// speciesProduct returns the product of S^ν over refs.
func (b *Builder) speciesProduct(refs []domain.SpeciesReference) expr.Node {
	factors := make([]expr.Node, 0, len(refs))
	for _, ref := range refs {
		factors = append(factors, stoichiometryPower(b.Species(ref.Species), ref.Stoichiometry))
	}
	return expr.Product(factors...)
}
