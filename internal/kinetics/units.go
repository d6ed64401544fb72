package kinetics

import (
	"sync"

	"kineticcore/pkg/domain"
)

// quantityUnit derives the unit in which species id enters a rate law.
func quantityUnit(m *domain.Model, id string, policy UnitPolicy) (domain.UnitDefinition, error) {
	sp, ok := m.FindSpecies(id)
	if !ok {
		return domain.UnitDefinition{}, domain.UnresolvableUnitError{Entity: domain.EntitySpecies, ID: id}
	}
	substance, ok := m.SubstanceUnit(sp)
	if !ok {
		ref := sp.SubstanceUnits
		if ref == "" {
			ref = m.SubstanceUnits
		}
		return domain.UnitDefinition{}, domain.UnresolvableUnitError{Entity: domain.EntitySpecies, ID: id, Unit: ref}
	}
	if policy == UnitsAmount || sp.HasOnlySubstanceUnits {
		return substance, nil
	}
	comp, ok := m.FindCompartment(sp.Compartment)
	if !ok {
		return domain.UnitDefinition{}, domain.UnresolvableUnitError{Entity: domain.EntityCompartment, ID: sp.Compartment}
	}
	size, ok := m.SizeUnit(comp)
	if !ok {
		return domain.UnitDefinition{}, domain.UnresolvableUnitError{Entity: domain.EntityCompartment, ID: comp.ID, Unit: comp.Units}
	}
	return substance.Divide(size), nil
}

func timeUnit(m *domain.Model) (domain.UnitDefinition, error) {
	def, ok := m.ResolveUnit(domain.UnitTime)
	if !ok {
		return domain.UnitDefinition{}, domain.UnresolvableUnitError{Entity: domain.EntityModel, ID: m.ID, Unit: m.TimeUnits}
	}
	return def, nil
}

// unitDeriver computes parameter units for one reaction.
type unitDeriver struct {
	model  *domain.Model
	shape  *Shape
	policy UnitPolicy
	cache  map[string]domain.UnitDefinition
}

func newUnitDeriver(m *domain.Model, shape *Shape, policy UnitPolicy) *unitDeriver {
	return &unitDeriver{model: m, shape: shape, policy: policy, cache: make(map[string]domain.UnitDefinition)}
}

func (d *unitDeriver) quantity(id string) (domain.UnitDefinition, error) {
	if u, ok := d.cache[id]; ok {
		return u, nil
	}
	u, err := quantityUnit(d.model, id, d.policy)
	if err != nil {
		return domain.UnitDefinition{}, err
	}
	d.cache[id] = u
	return u, nil
}

// velocity is the quantity unit of the first reactant per time unit.
func (d *unitDeriver) velocity() (domain.UnitDefinition, error) {
	raw := d.shape.Reaction.Reactants
	if len(raw) == 0 {
		return domain.UnitDefinition{}, domain.UnresolvableUnitError{Entity: domain.EntityReaction, ID: d.shape.ID()}
	}
	q, err := d.quantity(raw[0].Species)
	if err != nil {
		return domain.UnitDefinition{}, err
	}
	t, err := timeUnit(d.model)
	if err != nil {
		return domain.UnitDefinition{}, err
	}
	return q.Divide(t), nil
}

// perQuantities multiplies u by q(S)^-stoichiometry for every reference.
func (d *unitDeriver) perQuantities(u domain.UnitDefinition, refs []domain.SpeciesReference, skip map[string]struct{}) (domain.UnitDefinition, error) {
	for _, ref := range refs {
		if _, ok := skip[ref.Species]; ok {
			continue
		}
		q, err := d.quantity(ref.Species)
		if err != nil {
			return domain.UnitDefinition{}, err
		}
		u = u.Multiply(q.Pow(-ref.Stoichiometry))
	}
	return u, nil
}

func (d *unitDeriver) derive(role Role) (domain.UnitDefinition, error) {
	switch role.Kind {
	case ParamDimensionless:
		return domain.Dimensionless(), nil
	case ParamAffinity:
		return d.quantity(role.Species)
	case ParamEnergy:
		q, err := d.quantity(role.Species)
		if err != nil {
			return domain.UnitDefinition{}, err
		}
		return q.Pow(-1), nil
	}
	v, err := d.velocity()
	if err != nil {
		return domain.UnitDefinition{}, err
	}
	switch role.Kind {
	case ParamTurnover:
		if role.Enzyme == "" {
			return v, nil
		}
		q, err := d.quantity(role.Enzyme)
		if err != nil {
			return domain.UnitDefinition{}, err
		}
		return v.Divide(q), nil
	case ParamHillRate:
		genes := make(map[string]struct{}, len(d.shape.GeneReactants))
		for _, g := range d.shape.GeneReactants {
			genes[g] = struct{}{}
		}
		return d.perQuantities(v, d.shape.Reactants, genes)
	case ParamForwardRate, ParamReverseRate:
		refs := d.shape.Reactants
		if role.Kind == ParamReverseRate {
			refs = d.shape.Products
		}
		u, err := d.perQuantities(v, refs, nil)
		if err != nil {
			return domain.UnitDefinition{}, err
		}
		if role.Catalyst != "" {
			q, err := d.quantity(role.Catalyst)
			if err != nil {
				return domain.UnitDefinition{}, err
			}
			u = u.Divide(q)
		}
		return u, nil
	}
	return domain.UnitDefinition{}, domain.UnresolvableUnitError{Entity: domain.EntityParameter, ID: role.ID}
}

// unitTable maps derived units to references shared by the whole batch.
type unitTable struct {
	mu       sync.Mutex
	existing []domain.UnitDefinition
	registry *IdentifierRegistry
	created  []domain.UnitDefinition
}

func newUnitTable(registry *IdentifierRegistry, models ...*domain.Model) *unitTable {
	t := &unitTable{registry: registry}
	seen := make(map[string]struct{})
	for _, m := range models {
		if m == nil {
			continue
		}
		for _, def := range m.UnitDefinitions {
			if _, dup := seen[def.ID]; dup {
				continue
			}
			seen[def.ID] = struct{}{}
			t.existing = append(t.existing, def)
		}
	}
	return t
}

// reference returns the id under which def can be referenced. Identical
// existing definitions are reused, a single plain base unit is referenced by
// kind, anything else gets a new definition named after its factors.
func (t *unitTable) reference(def domain.UnitDefinition) (string, error) {
	def = def.Normalize()
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.existing {
		if existing.Identical(def) {
			return existing.ID, nil
		}
	}
	if kind, ok := def.SingleBaseKind(); ok {
		return kind, nil
	}
	for _, c := range t.created {
		if c.Identical(def) {
			return c.ID, nil
		}
	}
	id, err := t.registry.Reserve(def.CanonicalID())
	if err != nil {
		return "", err
	}
	def.ID = id
	t.created = append(t.created, def)
	return id, nil
}

// definitions returns the definitions created so far in creation order.
func (t *unitTable) definitions() []domain.UnitDefinition {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.UnitDefinition, len(t.created))
	for i, d := range t.created {
		out[i] = d.Clone()
	}
	return out
}
