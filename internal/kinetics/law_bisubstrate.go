package kinetics

import (
	"kineticcore/pkg/domain"
	"kineticcore/pkg/expr"
)

func bisubstrateApplicable(s *Shape) bool {
	return s.EnzymeCatalysed && s.BiSubstrate() && len(s.Catalysts) == 0
}

func randomOrderTemplate() Template {
	return Template{
		Name:          TemplateRandomOrder,
		Title:         "Random-order bi-substrate mechanism",
		Reversibility: IrreversibleOnly,
		Applicable: func(s *Shape) bool {
			n := s.ProductCount()
			return bisubstrateApplicable(s) && (n == 1 || n == 2)
		},
		Instantiate: instantiateRandomOrder,
	}
}

func orderedTemplate() Template {
	return Template{
		Name:          TemplateOrdered,
		Title:         "Ordered bi-substrate mechanism",
		Reversibility: IrreversibleOnly,
		Applicable: func(s *Shape) bool {
			n := s.ProductCount()
			return bisubstrateApplicable(s) && (n == 1 || n == 2)
		},
		Instantiate: instantiateOrdered,
	}
}

func pingPongTemplate() Template {
	return Template{
		Name:          TemplatePingPong,
		Title:         "Ping-pong bi-bi mechanism",
		Reversibility: IrreversibleOnly,
		Applicable: func(s *Shape) bool {
			return bisubstrateApplicable(s) && s.ProductCount() == 2
		},
		Instantiate: instantiatePingPong,
	}
}

// substratePair returns the two substrates of a bi-substrate reaction. A
// single reactant with stoichiometry two yields the same species twice.
func substratePair(s *Shape) (string, string) {
	if len(s.Reactants) == 1 {
		return s.Reactants[0].Species, s.Reactants[0].Species
	}
	return s.Reactants[0].Species, s.Reactants[1].Species
}

// pairConstants returns the Michaelis constants of both substrates, keeping
// them apart when both positions hold the same species.
func (b *Builder) pairConstants(e, a, bb string) (expr.Node, expr.Node) {
	kMa := b.Michaelis(e, a)
	if a != bb {
		return kMa, b.Michaelis(e, bb)
	}
	r := b.ReactionID()
	kMb := b.Param(Role{
		Kind:    ParamAffinity,
		ID:      JoinID("kM", r, b.EnzymeTag(e), bb, "2"),
		Species: bb,
		SBOTerm: domain.SBOMichaelisConstant,
		Name:    "second Michaelis constant of " + bb + " in " + r,
	})
	return kMa, kMb
}

// instantiateRandomOrder builds the rapid-equilibrium random-order rate
//
//	kcat·E·(A/kMa)·(B/kMb) / (1 + A/kMa + B/kMb + A·B/(kMa·kMb))
func instantiateRandomOrder(b *Builder) (expr.Node, error) {
	a, bb := substratePair(b.Shape())
	A, B := b.Species(a), b.Species(bb)
	terms := make([]expr.Node, 0, len(b.Enzymes()))
	for _, e := range b.Enzymes() {
		kMa, kMb := b.pairConstants(e, a, bb)
		ra, rb := expr.Divide(A, kMa), expr.Divide(B, kMb)
		terms = append(terms, expr.Divide(
			expr.Product(b.Turnover("kcat", e), b.Enzyme(e), ra, rb),
			expr.Sum(expr.Constant(1), ra, rb, expr.Divide(expr.Product(A, B), expr.Product(kMa, kMb))),
		))
	}
	return b.Modulate(expr.Sum(terms...)), nil
}

// instantiateOrdered builds the compulsory-order rate with A binding first
//
//	kcat·E·A·B / (kIa·kMb + kMb·A + kMa·B + A·B)
func instantiateOrdered(b *Builder) (expr.Node, error) {
	a, bb := substratePair(b.Shape())
	A, B := b.Species(a), b.Species(bb)
	r := b.ReactionID()
	terms := make([]expr.Node, 0, len(b.Enzymes()))
	for _, e := range b.Enzymes() {
		kMa, kMb := b.pairConstants(e, a, bb)
		kIa := b.Param(Role{
			Kind:    ParamAffinity,
			ID:      JoinID("kIa", r, b.EnzymeTag(e), a),
			Species: a,
			SBOTerm: domain.SBOInhibitoryConstant,
			Name:    "dissociation constant of " + a + " in " + r,
		})
		terms = append(terms, expr.Divide(
			expr.Product(b.Turnover("kcat", e), b.Enzyme(e), A, B),
			expr.Sum(expr.Product(kIa, kMb), expr.Product(kMb, A), expr.Product(kMa, B), expr.Product(A, B)),
		))
	}
	return b.Modulate(expr.Sum(terms...)), nil
}

// instantiatePingPong builds kcat·E·A·B / (kMb·A + kMa·B + A·B).
func instantiatePingPong(b *Builder) (expr.Node, error) {
	a, bb := substratePair(b.Shape())
	A, B := b.Species(a), b.Species(bb)
	terms := make([]expr.Node, 0, len(b.Enzymes()))
	for _, e := range b.Enzymes() {
		kMa, kMb := b.pairConstants(e, a, bb)
		terms = append(terms, expr.Divide(
			expr.Product(b.Turnover("kcat", e), b.Enzyme(e), A, B),
			expr.Sum(expr.Product(kMb, A), expr.Product(kMa, B), expr.Product(A, B)),
		))
	}
	return b.Modulate(expr.Sum(terms...)), nil
}
