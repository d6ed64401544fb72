package kinetics

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"kineticcore/pkg/domain"
	"kineticcore/pkg/expr"
)

// Batch is the outcome of generating laws on a working model.
type Batch struct {
	// Model is the working model with new laws and entities installed.
	Model         domain.Model
	Outcomes      []domain.ReactionOutcome
	NewParameters []domain.ParameterSummary
	NewUnits      []domain.UnitDefinition
	NewFunctions  []domain.FunctionDefinition
	// RemovedParameters lists global parameters dropped because only
	// replaced laws used them.
	RemovedParameters []string
	FastReactions     []string
}

// Changed returns the ids of reactions that received a new law.
func (b Batch) Changed() []string {
	var out []string
	for _, o := range b.Outcomes {
		if o.Changed() {
			out = append(out, o.ReactionID)
		}
	}
	return out
}

// Generator assigns kinetic laws to reactions using a template catalog.
type Generator struct {
	catalog *Catalog
}

// NewGenerator returns a generator over catalog, or the default catalog
// when catalog is nil.
func NewGenerator(catalog *Catalog) *Generator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Generator{catalog: catalog}
}

// Catalog returns the generator's template catalog.
func (g *Generator) Catalog() *Catalog { return g.catalog }

type batchTables struct {
	registry  *IdentifierRegistry
	units     *unitTable
	globals   *globalTable
	functions *functionTable
}

// reactionPlan is the per-reaction output of the parallel phase. A plan
// with a builder still needs identifiers assigned.
type reactionPlan struct {
	outcome domain.ReactionOutcome
	builder *Builder
	node    expr.Node
	units   []domain.UnitDefinition
	law     *domain.KineticLaw
}

// Generate assigns laws to the reactions listed in reactionIDs, or to every
// reaction when the list is empty or opts.GenerateForAllReactions is set.
// working is not modified; the returned batch carries an updated copy.
//
// shared lists the models the result will be merged into. Their identifiers
// are reserved, and their unit definitions, function definitions and
// species-level parameters are referenced instead of duplicated.
// Per-reaction failures are reported in the outcomes; only cancellation and
// identifier exhaustion abort the batch.
func (g *Generator) Generate(ctx context.Context, working domain.Model, reactionIDs []string, opts Options, shared ...*domain.Model) (Batch, error) {
	model := working.Clone()
	targets, err := targetIndexes(&model, reactionIDs, opts.GenerateForAllReactions)
	if err != nil {
		return Batch{}, err
	}

	ids := model.Identifiers()
	regenerate := make(map[string]struct{})
	for _, i := range targets {
		r := model.Reactions[i]
		if len(r.Reactants) > 0 && !preserveLaw(ids, r, opts) {
			regenerate[r.ID] = struct{}{}
		}
	}
	visible := append([]*domain.Model{&model}, shared...)
	registry := RegistryForModels(regenerate, visible...)
	tables := batchTables{
		registry:  registry,
		units:     newUnitTable(registry, visible...),
		globals:   newGlobalTable(registry, visible...),
		functions: newFunctionTable(registry, visible...),
	}

	plans := make([]reactionPlan, len(targets))
	var done atomic.Int64
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(opts.workers())
	for n, i := range targets {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			plan, err := g.planOne(&model, ids, model.Reactions[i], opts)
			if err != nil {
				return err
			}
			plans[n] = plan
			if opts.Progress != nil {
				opts.Progress(int(done.Add(1)), len(targets))
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Batch{}, err
	}
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}

	// Identifiers are assigned in target order so that suffixes do not
	// depend on the worker count.
	for n := range plans {
		if plans[n].builder == nil {
			continue
		}
		if err := plans[n].assign(tables); err != nil {
			return Batch{}, err
		}
	}

	batch := Batch{Outcomes: make([]domain.ReactionOutcome, 0, len(targets))}
	var previous []*domain.KineticLaw
	for n, i := range targets {
		res := plans[n]
		batch.Outcomes = append(batch.Outcomes, res.outcome)
		if res.law == nil {
			continue
		}
		r := &model.Reactions[i]
		if r.KineticLaw != nil {
			previous = append(previous, r.KineticLaw)
		}
		r.KineticLaw = res.law
		for _, p := range res.law.LocalParameters {
			batch.NewParameters = append(batch.NewParameters, domain.ParameterSummary{
				ID: p.ID, Scope: domain.ScopeLocal, ReactionID: r.ID, Units: p.Units, Value: p.Value,
			})
		}
		if r.Fast {
			batch.FastReactions = append(batch.FastReactions, r.ID)
		}
	}

	globals := tables.globals.parameters()
	for _, p := range globals {
		batch.NewParameters = append(batch.NewParameters, domain.ParameterSummary{
			ID: p.ID, Scope: domain.ScopeGlobal, Units: p.Units, Value: p.Value,
		})
	}
	model.Parameters = append(model.Parameters, globals...)
	batch.NewUnits = tables.units.definitions()
	model.UnitDefinitions = append(model.UnitDefinitions, batch.NewUnits...)
	batch.NewFunctions = tables.functions.definitions()
	model.FunctionDefinitions = append(model.FunctionDefinitions, batch.NewFunctions...)

	if opts.RemoveOrphanedParameters {
		batch.RemovedParameters = removeOrphans(&model, previous)
	}
	batch.Model = model
	return batch, nil
}

func targetIndexes(m *domain.Model, ids []string, all bool) ([]int, error) {
	if all || len(ids) == 0 {
		out := make([]int, len(m.Reactions))
		for i := range out {
			out[i] = i
		}
		return out, nil
	}
	out := make([]int, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		i := m.ReactionIndex(id)
		if i < 0 {
			return nil, domain.ErrNotFound{Entity: domain.EntityReaction, ID: id}
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	return out, nil
}

// preserveLaw reports whether r keeps its current law.
func preserveLaw(ids domain.IdentifierIndex, r domain.Reaction, opts Options) bool {
	return !opts.OverwriteExistingLaws && LawIntact(ids, r.KineticLaw)
}

// LawIntact reports whether law has math whose references all resolve
// within the model indexed by ids.
func LawIntact(ids domain.IdentifierIndex, law *domain.KineticLaw) bool {
	if law.Empty() {
		return false
	}
	for _, id := range law.Math.References() {
		if _, ok := law.FindLocalParameter(id); ok {
			continue
		}
		if !ids.Resolves(id) {
			return false
		}
	}
	for _, name := range law.Math.Functions() {
		if !expr.IsBuiltin(name) && !ids.Function(name) {
			return false
		}
	}
	return true
}

// planOne selects a template for r and derives its parameter units. It only
// reads m, so plans for different reactions may run concurrently.
func (g *Generator) planOne(m *domain.Model, ids domain.IdentifierIndex, r domain.Reaction, opts Options) (reactionPlan, error) {
	outcome := domain.ReactionOutcome{ReactionID: r.ID}
	if len(r.Reactants) == 0 {
		outcome.Status = domain.OutcomeSkipped
		outcome.Reason = domain.ReasonNoSubstrate
		return reactionPlan{outcome: outcome}, nil
	}
	if preserveLaw(ids, r, opts) {
		outcome.Status = domain.OutcomeSuccess
		outcome.Reason = domain.ReasonExistingLawPreserved
		outcome.Preserved = true
		outcome.Template = r.KineticLaw.Template
		outcome.Law = r.KineticLaw.Math.String()
		return reactionPlan{outcome: outcome}, nil
	}

	shape := DeriveShape(m, r, opts)
	for _, t := range g.catalog.Candidates(shape, opts) {
		b := newBuilder(t.Name, shape, opts)
		node, err := t.Instantiate(b)
		if err != nil {
			if domain.IsNotApplicable(err) {
				outcome.Attempts = append(outcome.Attempts, domain.TemplateAttempt{Template: t.Name, Error: err.Error()})
				continue
			}
			return reactionPlan{}, fmt.Errorf("instantiate %s for %s: %w", t.Name, r.ID, err)
		}
		outcome.Template = t.Name
		units, err := deriveUnits(b, m)
		if err != nil {
			if domain.IsUnresolvableUnit(err) {
				outcome.Status = domain.OutcomeFailed
				outcome.Reason = domain.ReasonUnresolvableUnit
				outcome.Detail = err.Error()
				return reactionPlan{outcome: outcome}, nil
			}
			return reactionPlan{}, err
		}
		return reactionPlan{outcome: outcome, builder: b, node: node, units: units}, nil
	}
	outcome.Status = domain.OutcomeFailed
	outcome.Reason = domain.ReasonNoApplicableFormalism
	return reactionPlan{outcome: outcome}, nil
}

// assign reserves the plan's identifiers and installs the finished law.
func (p *reactionPlan) assign(tables batchTables) error {
	law, err := finalize(p.builder, p.node, p.units, tables)
	if err != nil {
		return err
	}
	p.outcome.Status = domain.OutcomeSuccess
	p.outcome.Law = law.Math.String()
	p.law = &law
	return nil
}

// deriveUnits derives the unit of every parameter b requested. Units are
// derived before any identifier is reserved so that a failing reaction
// leaves no trace.
func deriveUnits(b *Builder, m *domain.Model) ([]domain.UnitDefinition, error) {
	deriver := newUnitDeriver(m, b.shape, b.opts.policy())
	units := make([]domain.UnitDefinition, len(b.params))
	for i, req := range b.params {
		u, err := deriver.derive(req.role)
		if err != nil {
			return nil, err
		}
		units[i] = u
	}
	return units, nil
}

// finalize assigns final identifiers and rewrites the placeholder
// references of node.
func finalize(b *Builder, node expr.Node, units []domain.UnitDefinition, tables batchTables) (domain.KineticLaw, error) {
	law := domain.KineticLaw{Template: b.template}
	mapping := make(map[string]string, len(b.params)+len(b.functions))
	for i, req := range b.params {
		unitID, err := tables.units.reference(units[i])
		if err != nil {
			return domain.KineticLaw{}, err
		}
		p := domain.Parameter{
			ID:       req.role.ID,
			Name:     req.role.Name,
			Value:    b.opts.cloneValue(),
			Units:    unitID,
			Constant: true,
			SBOTerm:  req.role.SBOTerm,
		}
		if req.global {
			id, err := tables.globals.get(p, req.role.Kind == ParamEnergy)
			if err != nil {
				return domain.KineticLaw{}, err
			}
			mapping[req.placeholder] = id
			continue
		}
		id, err := tables.registry.Reserve(p.ID)
		if err != nil {
			return domain.KineticLaw{}, err
		}
		p.ID = id
		mapping[req.placeholder] = id
		law.LocalParameters = append(law.LocalParameters, p)
	}

	names := make([]string, 0, len(b.functions))
	for name := range b.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		id, err := tables.functions.get(name)
		if err != nil {
			return domain.KineticLaw{}, err
		}
		mapping[b.functions[name]] = id
	}

	law.Math = node.Rename(mapping)
	return law, nil
}

// removeOrphans drops global parameters that previous laws referred to and
// that no law of m refers to any more.
func removeOrphans(m *domain.Model, previous []*domain.KineticLaw) []string {
	candidates := make(map[string]struct{})
	for _, law := range previous {
		for _, id := range law.Math.References() {
			if _, local := law.FindLocalParameter(id); local {
				continue
			}
			if _, ok := m.FindParameter(id); ok {
				candidates[id] = struct{}{}
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	for _, r := range m.Reactions {
		if r.KineticLaw.Empty() {
			continue
		}
		for _, id := range r.KineticLaw.Math.References() {
			delete(candidates, id)
		}
	}
	var removed []string
	kept := m.Parameters[:0]
	for _, p := range m.Parameters {
		if _, orphan := candidates[p.ID]; orphan {
			removed = append(removed, p.ID)
			continue
		}
		kept = append(kept, p)
	}
	m.Parameters = kept
	return removed
}
