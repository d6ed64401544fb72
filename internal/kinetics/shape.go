package kinetics

import (
	"math"

	"kineticcore/pkg/domain"
)

// ShapeClass groups reactions for template preferences.
type ShapeClass string

const (
	ClassUniUni         ShapeClass = "uni-uni"
	ClassBiUni          ShapeClass = "bi-uni"
	ClassBiBi           ShapeClass = "bi-bi"
	ClassOtherEnzyme    ShapeClass = "other-enzyme"
	ClassNonEnzyme      ShapeClass = "non-enzyme"
	ClassGeneRegulation ShapeClass = "gene-regulation"
)

// ShapeClasses lists every class in a stable order.
var ShapeClasses = []ShapeClass{ClassUniUni, ClassBiUni, ClassBiBi, ClassOtherEnzyme, ClassNonEnzyme, ClassGeneRegulation}

// DefaultPreferences returns the template tried first for each class.
func DefaultPreferences() map[ShapeClass]string {
	return map[ShapeClass]string{
		ClassUniUni:         TemplateMichaelisMenten,
		ClassBiUni:          TemplateRandomOrder,
		ClassBiBi:           TemplateRandomOrder,
		ClassOtherEnzyme:    TemplateConvenience,
		ClassNonEnzyme:      TemplateMassAction,
		ClassGeneRegulation: TemplateHill,
	}
}

// Shape is the structural summary of a reaction that template predicates
// and instantiation work from. Species annotated with an ignored resource
// are already removed.
type Shape struct {
	Reaction  domain.Reaction
	Reactants []domain.SpeciesReference
	Products  []domain.SpeciesReference
	// Enzymes holds catalysts that are not simple chemicals.
	Enzymes []string
	// Catalysts holds non-enzyme catalysts such as metal ions.
	Catalysts  []string
	Inhibitors []string
	Activators []string
	// Unknown holds modifiers without a recognised role.
	Unknown []string
	// GeneReactants lists reactants annotated as genes or coding regions.
	GeneReactants        []string
	Reversible           bool
	EnzymeCatalysed      bool
	IntegerStoichiometry bool
	ReactantOrder        float64
	ProductOrder         float64
	Class                ShapeClass
}

// ID returns the reaction id.
func (s *Shape) ID() string { return s.Reaction.ID }

// UniSubstrate reports one reactant with stoichiometry one.
func (s *Shape) UniSubstrate() bool {
	return len(s.Reactants) == 1 && s.Reactants[0].Stoichiometry == 1
}

// BiSubstrate reports two reactants, or one reactant with stoichiometry two.
func (s *Shape) BiSubstrate() bool {
	switch len(s.Reactants) {
	case 2:
		return s.Reactants[0].Stoichiometry == 1 && s.Reactants[1].Stoichiometry == 1
	case 1:
		return s.Reactants[0].Stoichiometry == 2
	}
	return false
}

// ProductCount returns the number of product molecules when stoichiometries
// are integral, or -1.
func (s *Shape) ProductCount() int {
	if !isInteger(s.ProductOrder) {
		return -1
	}
	return int(s.ProductOrder)
}

// GeneRegulatory reports transcription or translation reactions and
// reactions consuming a gene.
func (s *Shape) GeneRegulatory() bool {
	return s.Reaction.IsGeneExpression() || len(s.GeneReactants) > 0
}

// AllCatalysts returns enzymes followed by non-enzyme catalysts.
func (s *Shape) AllCatalysts() []string {
	out := make([]string, 0, len(s.Enzymes)+len(s.Catalysts))
	out = append(out, s.Enzymes...)
	return append(out, s.Catalysts...)
}

// Modulated reports whether activators or inhibitors act on the reaction.
func (s *Shape) Modulated() bool {
	return len(s.Activators) > 0 || len(s.Inhibitors) > 0
}

// DeriveShape summarises reaction r of model m.
func DeriveShape(m *domain.Model, r domain.Reaction, opts Options) *Shape {
	ignored := opts.ignored()
	keep := func(id string) bool {
		sp, ok := m.FindSpecies(id)
		return !ok || !domain.AnnotatedWithAny(sp.Annotations, ignored)
	}
	s := &Shape{
		Reaction:             r,
		Reversible:           r.Reversible || opts.TreatAllReversible,
		IntegerStoichiometry: true,
	}
	for _, ref := range r.Reactants {
		if !keep(ref.Species) {
			continue
		}
		s.Reactants = append(s.Reactants, ref)
		s.ReactantOrder += ref.Stoichiometry
		if !isInteger(ref.Stoichiometry) {
			s.IntegerStoichiometry = false
		}
		if sp, ok := m.FindSpecies(ref.Species); ok && sp.IsGene() {
			s.GeneReactants = append(s.GeneReactants, ref.Species)
		}
	}
	for _, ref := range r.Products {
		if !keep(ref.Species) {
			continue
		}
		s.Products = append(s.Products, ref)
		s.ProductOrder += ref.Stoichiometry
		if !isInteger(ref.Stoichiometry) {
			s.IntegerStoichiometry = false
		}
	}
	for _, mod := range r.Modifiers {
		if !keep(mod.Species) {
			continue
		}
		switch mod.Role() {
		case domain.RoleCatalyst:
			sp, _ := m.FindSpecies(mod.Species)
			if mod.SBOTerm == domain.SBOCatalyst && sp.SBOTerm == domain.SBOSimpleChemical {
				s.Catalysts = append(s.Catalysts, mod.Species)
			} else {
				s.Enzymes = append(s.Enzymes, mod.Species)
			}
		case domain.RoleInhibitor:
			s.Inhibitors = append(s.Inhibitors, mod.Species)
		case domain.RoleActivator:
			s.Activators = append(s.Activators, mod.Species)
		default:
			s.Unknown = append(s.Unknown, mod.Species)
		}
	}
	s.EnzymeCatalysed = len(s.Enzymes) > 0 || (opts.AllReactionsEnzymeCatalysed && len(s.Catalysts) == 0)
	s.Class = classify(s)
	return s
}

func classify(s *Shape) ShapeClass {
	switch {
	case s.GeneRegulatory():
		return ClassGeneRegulation
	case !s.EnzymeCatalysed:
		return ClassNonEnzyme
	case s.ReactantOrder == 1 && (s.ProductOrder == 1 || !s.Reversible):
		return ClassUniUni
	case s.ReactantOrder == 2 && s.ProductOrder == 1:
		return ClassBiUni
	case s.ReactantOrder == 2 && s.ProductOrder == 2:
		return ClassBiBi
	}
	return ClassOtherEnzyme
}

func isInteger(v float64) bool {
	return v == math.Trunc(v)
}
