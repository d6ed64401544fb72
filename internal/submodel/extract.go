package submodel

import (
	"kineticcore/pkg/domain"
	"kineticcore/pkg/expr"
)

// closure collects the ids a working copy must contain.
type closure struct {
	src          *domain.Model
	ids          map[string]domain.EntityKind
	reactions    map[string]struct{}
	species      map[string]struct{}
	compartments map[string]struct{}
	parameters   map[string]struct{}
	units        map[string]struct{}
	functions    map[string]struct{}
}

// Extract builds a working copy of model restricted to the given reactions
// and everything they transitively reference. An empty list, or all, selects
// every reaction. The copy keeps the original identifiers; the returned
// mapping binds each copied entity to its original.
//
// A target reaction that does not exist, a participant species that does not
// exist, or a species whose compartment does not exist is reported as an
// ExtractionError before any generation happens. References of existing laws
// that do not resolve are left out; such laws are regenerated.
func Extract(model domain.Model, reactionIDs []string, all bool) (domain.Model, Mapping, error) {
	c := &closure{
		src:          &model,
		ids:          model.Identifiers(),
		reactions:    make(map[string]struct{}),
		species:      make(map[string]struct{}),
		compartments: make(map[string]struct{}),
		parameters:   make(map[string]struct{}),
		units:        make(map[string]struct{}),
		functions:    make(map[string]struct{}),
	}
	targets := reactionIDs
	if all || len(targets) == 0 {
		targets = make([]string, 0, len(model.Reactions))
		for _, r := range model.Reactions {
			targets = append(targets, r.ID)
		}
	}
	for _, id := range targets {
		r, ok := model.FindReaction(id)
		if !ok {
			return domain.Model{}, Mapping{}, domain.ExtractionError{Entity: domain.EntityReaction, ID: id, Reason: "not in model"}
		}
		if err := c.addReaction(r); err != nil {
			return domain.Model{}, Mapping{}, err
		}
	}
	for _, ref := range []string{model.SubstanceUnits, model.TimeUnits, model.VolumeUnits, model.AreaUnits, model.LengthUnits} {
		c.addUnit(ref)
	}
	return c.build()
}

func (c *closure) addReaction(r domain.Reaction) error {
	if _, done := c.reactions[r.ID]; done {
		return nil
	}
	c.reactions[r.ID] = struct{}{}
	for _, id := range r.ParticipantIDs() {
		if err := c.addSpecies(id, r.ID); err != nil {
			return err
		}
	}
	if r.KineticLaw == nil {
		return nil
	}
	for _, p := range r.KineticLaw.LocalParameters {
		c.addUnit(p.Units)
	}
	for _, id := range r.KineticLaw.Math.References() {
		if _, local := r.KineticLaw.FindLocalParameter(id); local {
			continue
		}
		if err := c.addReference(id); err != nil {
			return err
		}
	}
	c.addFunctions(r.KineticLaw.Math)
	return nil
}

func (c *closure) addSpecies(id, reaction string) error {
	if _, done := c.species[id]; done {
		return nil
	}
	sp, ok := c.src.FindSpecies(id)
	if !ok {
		return domain.ExtractionError{Entity: domain.EntitySpecies, ID: id, Reason: "referenced by reaction " + reaction + " but not in model"}
	}
	if _, ok := c.src.FindCompartment(sp.Compartment); !ok {
		return domain.ExtractionError{Entity: domain.EntityCompartment, ID: sp.Compartment, Reason: "compartment of species " + id + " not in model"}
	}
	c.species[id] = struct{}{}
	c.addUnit(sp.SubstanceUnits)
	c.addCompartment(sp.Compartment)
	return nil
}

func (c *closure) addCompartment(id string) {
	if _, done := c.compartments[id]; done {
		return
	}
	comp, ok := c.src.FindCompartment(id)
	if !ok {
		return
	}
	c.compartments[id] = struct{}{}
	c.addUnit(comp.Units)
}

// addReference follows a law leaf that is not a local parameter.
func (c *closure) addReference(id string) error {
	switch c.ids[id] {
	case domain.EntitySpecies:
		return c.addSpecies(id, "")
	case domain.EntityCompartment:
		c.addCompartment(id)
	case domain.EntityParameter:
		if _, done := c.parameters[id]; !done {
			c.parameters[id] = struct{}{}
			p, _ := c.src.FindParameter(id)
			c.addUnit(p.Units)
		}
	case domain.EntityReaction:
		if r, ok := c.src.FindReaction(id); ok {
			return c.addReaction(r)
		}
	}
	return nil
}

func (c *closure) addUnit(ref string) {
	if ref == "" {
		return
	}
	if _, ok := c.src.FindUnitDefinition(ref); ok {
		c.units[ref] = struct{}{}
	}
}

func (c *closure) addFunctions(n expr.Node) {
	for _, name := range n.Functions() {
		if _, done := c.functions[name]; done {
			continue
		}
		f, ok := c.src.FindFunctionDefinition(name)
		if !ok {
			continue
		}
		c.functions[name] = struct{}{}
		c.addFunctions(f.Body)
	}
}

// build copies the collected entities in their original order.
func (c *closure) build() (domain.Model, Mapping, error) {
	src := c.src
	out := domain.Model{
		ID:             src.ID,
		Name:           src.Name,
		SubstanceUnits: src.SubstanceUnits,
		TimeUnits:      src.TimeUnits,
		VolumeUnits:    src.VolumeUnits,
		AreaUnits:      src.AreaUnits,
		LengthUnits:    src.LengthUnits,
		UpdatedAt:      src.UpdatedAt,
	}
	mapping := NewMapping()
	for _, u := range src.UnitDefinitions {
		if _, ok := c.units[u.ID]; ok {
			out.UnitDefinitions = append(out.UnitDefinitions, u.Clone())
			mapping.Bind(domain.EntityUnitDefinition, u.ID, u.ID)
		}
	}
	for _, f := range src.FunctionDefinitions {
		if _, ok := c.functions[f.ID]; ok {
			out.FunctionDefinitions = append(out.FunctionDefinitions, f.Clone())
			mapping.Bind(domain.EntityFunctionDefinition, f.ID, f.ID)
		}
	}
	for _, comp := range src.Compartments {
		if _, ok := c.compartments[comp.ID]; ok {
			out.Compartments = append(out.Compartments, comp.Clone())
			mapping.Bind(domain.EntityCompartment, comp.ID, comp.ID)
		}
	}
	for _, sp := range src.Species {
		if _, ok := c.species[sp.ID]; ok {
			out.Species = append(out.Species, sp.Clone())
			mapping.Bind(domain.EntitySpecies, sp.ID, sp.ID)
		}
	}
	for _, p := range src.Parameters {
		if _, ok := c.parameters[p.ID]; ok {
			out.Parameters = append(out.Parameters, p.Clone())
			mapping.Bind(domain.EntityParameter, p.ID, p.ID)
		}
	}
	for _, r := range src.Reactions {
		if _, ok := c.reactions[r.ID]; ok {
			out.Reactions = append(out.Reactions, r.Clone())
			mapping.Bind(domain.EntityReaction, r.ID, r.ID)
		}
	}
	return out, mapping, nil
}
