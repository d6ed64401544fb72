package submodel

import (
	"fmt"
	"sort"

	"kineticcore/internal/kinetics"
	"kineticcore/pkg/domain"
)

// Plan lists what a merge may install from a working copy.
type Plan struct {
	// Reactions are the working ids of reactions whose law changed.
	Reactions []string
	// Parameters, Units and Functions are the working ids of entities the
	// batch created. Anything else a law refers to must already exist in
	// the original.
	Parameters []string
	Units      []string
	Functions  []string
	// RemovedParameters are global parameters of the original to drop when
	// no law refers to them after the merge.
	RemovedParameters []string
}

// PlanFromBatch derives a plan from a generation batch.
func PlanFromBatch(b kinetics.Batch) Plan {
	p := Plan{Reactions: b.Changed(), RemovedParameters: append([]string(nil), b.RemovedParameters...)}
	for _, s := range b.NewParameters {
		if s.Scope == domain.ScopeGlobal {
			p.Parameters = append(p.Parameters, s.ID)
		}
	}
	for _, u := range b.NewUnits {
		p.Units = append(p.Units, u.ID)
	}
	for _, f := range b.NewFunctions {
		p.Functions = append(p.Functions, f.ID)
	}
	return p
}

// Result summarises a merge.
type Result struct {
	// Applied lists original ids of reactions that received their new law.
	Applied []string
	// Rejected maps original reaction ids to the reason their law was not
	// installed.
	Rejected map[string]string
	// Renamed maps working ids to the ids they were installed under, for
	// entities that collided with the original.
	Renamed map[string]string
	// Removed lists global parameters dropped from the original.
	Removed []string
}

// merger installs plan entities into the original on demand.
type merger struct {
	original  *domain.Model
	ids       domain.IdentifierIndex
	working   *domain.Model
	mapping   Mapping
	registry  *kinetics.IdentifierRegistry
	created   map[string]domain.EntityKind
	installed map[string]string
	result    *Result
}

// Merge installs the laws listed in plan into original. Each law is installed
// together with the created parameters, units and functions it depends on,
// or not at all. Created entities whose identifier is taken in the original
// are renamed and every reference to them is rewritten. Local parameters
// are renamed when they collide with the original namespace.
//
// A law is rejected when its reaction no longer exists in the original or
// when it refers to something that neither exists in the original nor was
// created by the batch.
func Merge(original *domain.Model, working domain.Model, mapping Mapping, plan Plan) (Result, error) {
	result := Result{Rejected: map[string]string{}, Renamed: map[string]string{}}
	replaced := make(map[string]struct{}, len(plan.Reactions))
	for _, w := range plan.Reactions {
		replaced[originalID(mapping, w)] = struct{}{}
	}
	m := &merger{
		original:  original,
		ids:       original.Identifiers(),
		working:   &working,
		mapping:   mapping,
		registry:  kinetics.RegistryForModels(replaced, original),
		created:   make(map[string]domain.EntityKind),
		installed: make(map[string]string),
		result:    &result,
	}
	for _, id := range plan.Parameters {
		m.created[id] = domain.EntityParameter
	}
	for _, id := range plan.Units {
		m.created[id] = domain.EntityUnitDefinition
	}
	for _, id := range plan.Functions {
		m.created[id] = domain.EntityFunctionDefinition
	}

	for _, w := range plan.Reactions {
		if err := m.mergeReaction(w); err != nil {
			return Result{}, err
		}
	}
	result.Removed = removeUnreferenced(original, plan.RemovedParameters)
	return result, nil
}

func originalID(mapping Mapping, w string) string {
	if o, ok := mapping.Original(w); ok {
		return o
	}
	return w
}

type rejection string

func (m *merger) mergeReaction(w string) error {
	o := originalID(m.mapping, w)
	wr, ok := m.working.FindReaction(w)
	if !ok || wr.KineticLaw.Empty() {
		m.result.Rejected[o] = "no law in working copy"
		return nil
	}
	idx := m.original.ReactionIndex(o)
	if idx < 0 {
		m.result.Rejected[o] = "reaction no longer in model"
		return nil
	}
	law := wr.KineticLaw.Clone()
	if reason := m.check(&law); reason != "" {
		m.result.Rejected[o] = string(reason)
		return nil
	}

	rename := make(map[string]string)
	for _, id := range law.Math.References() {
		if _, local := law.FindLocalParameter(id); local {
			continue
		}
		target, err := m.resolve(id)
		if err != nil {
			return err
		}
		if target != id {
			rename[id] = target
		}
	}
	for _, name := range law.Math.Functions() {
		target, err := m.resolve(name)
		if err != nil {
			return err
		}
		if target != name {
			rename[name] = target
		}
	}
	for i := range law.LocalParameters {
		p := &law.LocalParameters[i]
		unit, err := m.resolveUnitRef(p.Units)
		if err != nil {
			return err
		}
		p.Units = unit
		id, err := m.registry.Reserve(p.ID)
		if err != nil {
			return err
		}
		if id != p.ID {
			rename[p.ID] = id
			m.result.Renamed[p.ID] = id
			p.ID = id
		}
	}
	law.Math = law.Math.Rename(rename)
	m.original.Reactions[idx].KineticLaw = &law
	m.result.Applied = append(m.result.Applied, o)
	return nil
}

// check reports why law cannot be installed, or "" when every reference
// resolves in the original or to a created entity.
func (m *merger) check(law *domain.KineticLaw) rejection {
	for _, id := range law.Math.References() {
		if _, local := law.FindLocalParameter(id); local {
			continue
		}
		if kind, ok := m.created[id]; ok && kind == domain.EntityParameter {
			if _, ok := m.working.FindParameter(id); !ok {
				return rejection(fmt.Sprintf("created parameter %s missing from working copy", id))
			}
			continue
		}
		if !m.ids.Resolves(originalID(m.mapping, id)) {
			return rejection("dangling reference " + id)
		}
	}
	for _, name := range law.Math.Functions() {
		if _, ok := m.created[name]; ok {
			continue
		}
		if !m.ids.Function(originalID(m.mapping, name)) {
			return rejection("unknown function " + name)
		}
	}
	for _, p := range law.LocalParameters {
		if !m.unitAvailable(p.Units) {
			return rejection("unknown unit " + p.Units + " of " + p.ID)
		}
	}
	return ""
}

func (m *merger) unitAvailable(ref string) bool {
	if kind, ok := m.created[ref]; ok && kind == domain.EntityUnitDefinition {
		return true
	}
	return m.original.UnitRefResolves(originalID(m.mapping, ref))
}

// resolve returns the original id for a working id, installing created
// entities on first use.
func (m *merger) resolve(id string) (string, error) {
	if target, ok := m.installed[id]; ok {
		return target, nil
	}
	kind, created := m.created[id]
	if !created {
		return originalID(m.mapping, id), nil
	}
	var target string
	var err error
	switch kind {
	case domain.EntityParameter:
		target, err = m.installParameter(id)
	case domain.EntityUnitDefinition:
		target, err = m.installUnit(id)
	case domain.EntityFunctionDefinition:
		target, err = m.installFunction(id)
	}
	if err != nil {
		return "", err
	}
	m.installed[id] = target
	m.ids[target] = kind
	if target != id {
		m.result.Renamed[id] = target
	}
	return target, nil
}

func (m *merger) resolveUnitRef(ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	return m.resolve(ref)
}

// installParameter adds a created global parameter. A parameter of the
// original with the same id, name and unit is taken to be the same one.
func (m *merger) installParameter(id string) (string, error) {
	p, _ := m.working.FindParameter(id)
	p = p.Clone()
	unit, err := m.resolveUnitRef(p.Units)
	if err != nil {
		return "", err
	}
	p.Units = unit
	if existing, ok := m.original.FindParameter(p.ID); ok && existing.Name == p.Name && existing.Units == p.Units {
		return existing.ID, nil
	}
	target, err := m.registry.Reserve(p.ID)
	if err != nil {
		return "", err
	}
	p.ID = target
	m.original.Parameters = append(m.original.Parameters, p)
	return target, nil
}

// installUnit adds a created unit definition, reusing an identical one.
func (m *merger) installUnit(id string) (string, error) {
	def, ok := m.working.FindUnitDefinition(id)
	if !ok {
		return "", fmt.Errorf("created unit %s missing from working copy", id)
	}
	for _, existing := range m.original.UnitDefinitions {
		if existing.Identical(def) {
			return existing.ID, nil
		}
	}
	target, err := m.registry.Reserve(def.ID)
	if err != nil {
		return "", err
	}
	def = def.Clone()
	def.ID = target
	m.original.UnitDefinitions = append(m.original.UnitDefinitions, def)
	return target, nil
}

// installFunction adds a created function definition, reusing one with an
// equal body.
func (m *merger) installFunction(id string) (string, error) {
	def, ok := m.working.FindFunctionDefinition(id)
	if !ok {
		return "", fmt.Errorf("created function %s missing from working copy", id)
	}
	for _, existing := range m.original.FunctionDefinitions {
		if sameDefinition(existing, def) {
			return existing.ID, nil
		}
	}
	target, err := m.registry.Reserve(def.ID)
	if err != nil {
		return "", err
	}
	def = def.Clone()
	def.ID = target
	m.original.FunctionDefinitions = append(m.original.FunctionDefinitions, def)
	return target, nil
}

func sameDefinition(a, b domain.FunctionDefinition) bool {
	if len(a.Args) != len(b.Args) {
		return false
	}
	rename := make(map[string]string, len(a.Args))
	for i := range a.Args {
		rename[a.Args[i]] = b.Args[i]
	}
	return a.Body.Rename(rename).Equal(b.Body)
}

// removeUnreferenced drops the listed global parameters that no law of m
// refers to.
func removeUnreferenced(m *domain.Model, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	used := make(map[string]struct{})
	for _, r := range m.Reactions {
		if r.KineticLaw.Empty() {
			continue
		}
		for _, id := range r.KineticLaw.Math.References() {
			used[id] = struct{}{}
		}
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := used[id]; !ok {
			drop[id] = struct{}{}
		}
	}
	var removed []string
	kept := m.Parameters[:0]
	for _, p := range m.Parameters {
		if _, ok := drop[p.ID]; ok {
			removed = append(removed, p.ID)
			continue
		}
		kept = append(kept, p)
	}
	m.Parameters = kept
	sort.Strings(removed)
	return removed
}
