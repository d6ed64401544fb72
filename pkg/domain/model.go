// Package domain contains the reaction-network model and the contracts shared
// by the generation engine, the service layer and persistence backends.
package domain

import (
	"time"

	"kineticcore/pkg/expr"
)

// EntityKind identifies the kind of a model component.
type EntityKind string

// Entity kinds sharing the model identifier namespace, plus the auxiliary
// kinds used in errors and change records.
const (
	EntityModel              EntityKind = "model"
	EntityCompartment        EntityKind = "compartment"
	EntitySpecies            EntityKind = "species"
	EntityParameter          EntityKind = "parameter"
	EntityLocalParameter     EntityKind = "local_parameter"
	EntityReaction           EntityKind = "reaction"
	EntityUnitDefinition     EntityKind = "unit_definition"
	EntityFunctionDefinition EntityKind = "function_definition"
	EntityKineticLaw         EntityKind = "kinetic_law"
)

// Model is a reaction network: compartments holding species, reactions
// converting them, and the parameters, units and functions their kinetic
// laws refer to.
type Model struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name,omitempty"`
	SubstanceUnits      string               `json:"substance_units,omitempty"`
	TimeUnits           string               `json:"time_units,omitempty"`
	VolumeUnits         string               `json:"volume_units,omitempty"`
	AreaUnits           string               `json:"area_units,omitempty"`
	LengthUnits         string               `json:"length_units,omitempty"`
	UnitDefinitions     []UnitDefinition     `json:"unit_definitions,omitempty"`
	FunctionDefinitions []FunctionDefinition `json:"function_definitions,omitempty"`
	Compartments        []Compartment        `json:"compartments,omitempty"`
	Species             []Species            `json:"species,omitempty"`
	Parameters          []Parameter          `json:"parameters,omitempty"`
	Reactions           []Reaction           `json:"reactions,omitempty"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// Compartment is a bounded container of species.
type Compartment struct {
	ID                string   `json:"id"`
	Name              string   `json:"name,omitempty"`
	SpatialDimensions int      `json:"spatial_dimensions"`
	Size              *float64 `json:"size,omitempty"`
	Units             string   `json:"units,omitempty"`
	Annotations       []CVTerm `json:"annotations,omitempty"`
}

// Species is a pool of one chemical entity inside a compartment.
type Species struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name,omitempty"`
	Compartment           string   `json:"compartment"`
	BoundaryCondition     bool     `json:"boundary_condition,omitempty"`
	Constant              bool     `json:"constant,omitempty"`
	HasOnlySubstanceUnits bool     `json:"has_only_substance_units,omitempty"`
	SubstanceUnits        string   `json:"substance_units,omitempty"`
	SBOTerm               int      `json:"sbo_term,omitempty"`
	Annotations           []CVTerm `json:"annotations,omitempty"`
}

// SpeciesReference is a reactant or product entry of a reaction.
type SpeciesReference struct {
	Species       string  `json:"species"`
	Stoichiometry float64 `json:"stoichiometry"`
}

// ModifierReference names a species that influences a reaction without
// being consumed or produced.
type ModifierReference struct {
	Species string `json:"species"`
	SBOTerm int    `json:"sbo_term,omitempty"`
}

// Reaction converts reactants into products.
type Reaction struct {
	ID          string              `json:"id"`
	Name        string              `json:"name,omitempty"`
	Reactants   []SpeciesReference  `json:"reactants,omitempty"`
	Products    []SpeciesReference  `json:"products,omitempty"`
	Modifiers   []ModifierReference `json:"modifiers,omitempty"`
	Reversible  bool                `json:"reversible"`
	Fast        bool                `json:"fast,omitempty"`
	SBOTerm     int                 `json:"sbo_term,omitempty"`
	Annotations []CVTerm            `json:"annotations,omitempty"`
	KineticLaw  *KineticLaw         `json:"kinetic_law,omitempty"`
}

// KineticLaw is the rate expression attached to a reaction.
type KineticLaw struct {
	Math            expr.Node   `json:"math"`
	LocalParameters []Parameter `json:"local_parameters,omitempty"`
	Template        string      `json:"template,omitempty"`
}

// Parameter is a named quantity. A nil Value means undefined, to be
// determined later (for example by fitting).
type Parameter struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Value    *float64 `json:"value,omitempty"`
	Units    string   `json:"units,omitempty"`
	Constant bool     `json:"constant"`
	SBOTerm  int      `json:"sbo_term,omitempty"`
}

// FunctionDefinition is a named lambda callable from kinetic-law math.
type FunctionDefinition struct {
	ID   string    `json:"id"`
	Name string    `json:"name,omitempty"`
	Args []string  `json:"args"`
	Body expr.Node `json:"body"`
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 { return &v }

// Empty reports whether the law carries no math.
func (l *KineticLaw) Empty() bool {
	return l == nil || !l.Math.Valid()
}

// FindLocalParameter returns the local parameter with the given id.
func (l *KineticLaw) FindLocalParameter(id string) (Parameter, bool) {
	if l == nil {
		return Parameter{}, false
	}
	for _, p := range l.LocalParameters {
		if p.ID == id {
			return p, true
		}
	}
	return Parameter{}, false
}

// ParticipantIDs returns the ids of reactants, products and modifiers in
// declaration order, without duplicates.
func (r Reaction) ParticipantIDs() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, ref := range r.Reactants {
		add(ref.Species)
	}
	for _, ref := range r.Products {
		add(ref.Species)
	}
	for _, ref := range r.Modifiers {
		add(ref.Species)
	}
	return out
}

// FindCompartment looks up a compartment by id.
func (m *Model) FindCompartment(id string) (Compartment, bool) {
	for _, c := range m.Compartments {
		if c.ID == id {
			return c, true
		}
	}
	return Compartment{}, false
}

// FindSpecies looks up a species by id.
func (m *Model) FindSpecies(id string) (Species, bool) {
	for _, s := range m.Species {
		if s.ID == id {
			return s, true
		}
	}
	return Species{}, false
}

// FindParameter looks up a global parameter by id.
func (m *Model) FindParameter(id string) (Parameter, bool) {
	for _, p := range m.Parameters {
		if p.ID == id {
			return p, true
		}
	}
	return Parameter{}, false
}

// FindUnitDefinition looks up a unit definition by id.
func (m *Model) FindUnitDefinition(id string) (UnitDefinition, bool) {
	for _, u := range m.UnitDefinitions {
		if u.ID == id {
			return u, true
		}
	}
	return UnitDefinition{}, false
}

// FindFunctionDefinition looks up a function definition by id.
func (m *Model) FindFunctionDefinition(id string) (FunctionDefinition, bool) {
	for _, f := range m.FunctionDefinitions {
		if f.ID == id {
			return f, true
		}
	}
	return FunctionDefinition{}, false
}

// ReactionIndex returns the position of the reaction with the given id, or -1.
func (m *Model) ReactionIndex(id string) int {
	for i := range m.Reactions {
		if m.Reactions[i].ID == id {
			return i
		}
	}
	return -1
}

// FindReaction looks up a reaction by id.
func (m *Model) FindReaction(id string) (Reaction, bool) {
	if i := m.ReactionIndex(id); i >= 0 {
		return m.Reactions[i], true
	}
	return Reaction{}, false
}

// IdentifierIndex maps every id of a model's shared namespace to the kind
// that owns it.
type IdentifierIndex map[string]EntityKind

// Resolves reports whether id names an entity a kinetic law may refer to:
// a species, compartment, global parameter or reaction.
func (ix IdentifierIndex) Resolves(id string) bool {
	switch ix[id] {
	case EntitySpecies, EntityCompartment, EntityParameter, EntityReaction:
		return true
	}
	return false
}

// Function reports whether id names a function definition.
func (ix IdentifierIndex) Function(id string) bool {
	return ix[id] == EntityFunctionDefinition
}

// Identifiers returns every id of the shared namespace with the kind that owns it.
// Local parameters are not included.
func (m *Model) Identifiers() IdentifierIndex {
	out := make(IdentifierIndex, len(m.Species)+len(m.Reactions)+len(m.Parameters)+len(m.Compartments)+len(m.UnitDefinitions)+len(m.FunctionDefinitions))
	for _, u := range m.UnitDefinitions {
		out[u.ID] = EntityUnitDefinition
	}
	for _, f := range m.FunctionDefinitions {
		out[f.ID] = EntityFunctionDefinition
	}
	for _, c := range m.Compartments {
		out[c.ID] = EntityCompartment
	}
	for _, s := range m.Species {
		out[s.ID] = EntitySpecies
	}
	for _, p := range m.Parameters {
		out[p.ID] = EntityParameter
	}
	for _, r := range m.Reactions {
		out[r.ID] = EntityReaction
	}
	return out
}

// LocalParameterIDs returns the ids of local parameters of every law except
// those attached to the excluded reactions.
func (m *Model) LocalParameterIDs(exclude map[string]struct{}) []string {
	var out []string
	for _, r := range m.Reactions {
		if _, skip := exclude[r.ID]; skip || r.KineticLaw == nil {
			continue
		}
		for _, p := range r.KineticLaw.LocalParameters {
			out = append(out, p.ID)
		}
	}
	return out
}

// Clone returns a deep copy of the model.
func (m Model) Clone() Model {
	out := m
	out.UnitDefinitions = cloneSlice(m.UnitDefinitions, UnitDefinition.Clone)
	out.FunctionDefinitions = cloneSlice(m.FunctionDefinitions, FunctionDefinition.Clone)
	out.Compartments = cloneSlice(m.Compartments, Compartment.Clone)
	out.Species = cloneSlice(m.Species, Species.Clone)
	out.Parameters = cloneSlice(m.Parameters, Parameter.Clone)
	out.Reactions = cloneSlice(m.Reactions, Reaction.Clone)
	return out
}

// Clone returns a deep copy of the compartment.
func (c Compartment) Clone() Compartment {
	c.Size = cloneFloat(c.Size)
	c.Annotations = cloneSlice(c.Annotations, CVTerm.Clone)
	return c
}

// Clone returns a deep copy of the species.
func (s Species) Clone() Species {
	s.Annotations = cloneSlice(s.Annotations, CVTerm.Clone)
	return s
}

// Clone returns a deep copy of the parameter.
func (p Parameter) Clone() Parameter {
	p.Value = cloneFloat(p.Value)
	return p
}

// Clone returns a deep copy of the function definition. Bodies are immutable.
func (f FunctionDefinition) Clone() FunctionDefinition {
	f.Args = append([]string(nil), f.Args...)
	return f
}

// Clone returns a deep copy of the reaction including its kinetic law.
func (r Reaction) Clone() Reaction {
	r.Reactants = append([]SpeciesReference(nil), r.Reactants...)
	r.Products = append([]SpeciesReference(nil), r.Products...)
	r.Modifiers = append([]ModifierReference(nil), r.Modifiers...)
	r.Annotations = cloneSlice(r.Annotations, CVTerm.Clone)
	if r.KineticLaw != nil {
		law := r.KineticLaw.Clone()
		r.KineticLaw = &law
	}
	return r
}

// Clone returns a deep copy of the law. The math tree is immutable and shared.
func (l KineticLaw) Clone() KineticLaw {
	l.LocalParameters = cloneSlice(l.LocalParameters, Parameter.Clone)
	return l
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

func cloneSlice[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}
