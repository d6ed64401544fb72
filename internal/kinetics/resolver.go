package kinetics

import (
	"strconv"
	"strings"
	"sync"

	"kineticcore/pkg/domain"
	"kineticcore/pkg/expr"
)

// ParamKind selects how a parameter's unit is derived.
type ParamKind int

const (
	// ParamForwardRate is a mass-action forward constant (kass).
	ParamForwardRate ParamKind = iota
	// ParamReverseRate is a mass-action reverse constant (kdiss).
	ParamReverseRate
	// ParamTurnover is a turnover number when bound to an enzyme and a
	// maximal velocity otherwise.
	ParamTurnover
	// ParamAffinity covers Michaelis, inhibition and activation constants.
	ParamAffinity
	// ParamDimensionless covers Hill coefficients and exponents.
	ParamDimensionless
	// ParamEnergy is the species-level thermodynamic weight kG. It is
	// always global and shared by every law.
	ParamEnergy
	// ParamHillRate is the rate constant of gene-regulatory laws (kg).
	ParamHillRate
)

// Role describes a parameter a template asks for.
type Role struct {
	Kind ParamKind
	// ID is the deterministic base identifier.
	ID       string
	Species  string
	Enzyme   string
	Catalyst string
	SBOTerm  int
	Name     string
}

// JoinID builds an identifier from non-empty parts separated by underscores.
func JoinID(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "_")
}

const placeholderPrefix = "\x00"

type paramRequest struct {
	role        Role
	global      bool
	placeholder string
}

// Builder collects the parameters and functions one law instantiation needs.
// Templates receive symbolic references and never see final identifiers;
// the generator resolves them after the template succeeds, so rejected
// templates leave no trace in the model.
type Builder struct {
	template  string
	shape     *Shape
	opts      Options
	params    []paramRequest
	index     map[string]int
	functions map[string]string
}

func newBuilder(template string, shape *Shape, opts Options) *Builder {
	return &Builder{
		template:  template,
		shape:     shape,
		opts:      opts,
		index:     make(map[string]int),
		functions: make(map[string]string),
	}
}

// Shape returns the reaction summary.
func (b *Builder) Shape() *Shape { return b.shape }

// ReactionID returns the id of the reaction being instantiated.
func (b *Builder) ReactionID() string { return b.shape.ID() }

// NotApplicable returns the error a template raises when it cannot serve
// the reaction.
func (b *Builder) NotApplicable(reason string) error {
	return domain.NotApplicableError{Template: b.template, Reaction: b.shape.ID(), Reason: reason}
}

// Param returns a reference to the parameter described by role. Asking
// twice for the same id within one law yields the same parameter.
func (b *Builder) Param(role Role) expr.Node {
	if i, ok := b.index[role.ID]; ok {
		return expr.Reference(b.params[i].placeholder)
	}
	req := paramRequest{
		role:        role,
		global:      b.opts.AddParametersGlobally || role.Kind == ParamEnergy,
		placeholder: placeholderPrefix + strconv.Itoa(len(b.params)),
	}
	b.index[role.ID] = len(b.params)
	b.params = append(b.params, req)
	return expr.Reference(req.placeholder)
}

// Species returns a reference to a species.
func (b *Builder) Species(id string) expr.Node { return expr.Reference(id) }

// EnzymeTag returns the enzyme id when several enzymes share the reaction,
// so that per-enzyme parameters stay distinct.
func (b *Builder) EnzymeTag(enzyme string) string {
	if len(b.shape.Enzymes) > 1 {
		return enzyme
	}
	return ""
}

// Turnover returns the turnover parameter for enzyme, or the maximal
// velocity when enzyme is empty. prefix selects the direction, for example
// "kcat", "kcatp" or "kcatn"; velocity names drop the "kcat" stem.
func (b *Builder) Turnover(prefix, enzyme string) expr.Node {
	r := b.ReactionID()
	if enzyme == "" {
		name := "V" + strings.TrimPrefix(prefix, "kcat")
		return b.Param(Role{Kind: ParamTurnover, ID: JoinID(name, r), SBOTerm: domain.SBOMaximalVelocity, Name: "maximal velocity of " + r})
	}
	return b.Param(Role{
		Kind:    ParamTurnover,
		ID:      JoinID(prefix, r, b.EnzymeTag(enzyme)),
		Enzyme:  enzyme,
		SBOTerm: domain.SBOCatalyticRateConstant,
		Name:    "turnover number of " + r,
	})
}

// Michaelis returns the Michaelis constant of species s for enzyme.
func (b *Builder) Michaelis(enzyme, s string) expr.Node {
	r := b.ReactionID()
	return b.Param(Role{
		Kind:    ParamAffinity,
		ID:      JoinID("kM", r, b.EnzymeTag(enzyme), s),
		Species: s,
		SBOTerm: domain.SBOMichaelisConstant,
		Name:    "Michaelis constant of " + s + " in " + r,
	})
}

// Enzymes returns the enzymes to sum over. Reactions treated as enzyme
// catalysed without a modelled enzyme yield one empty entry.
func (b *Builder) Enzymes() []string {
	if len(b.shape.Enzymes) == 0 {
		return []string{""}
	}
	return b.shape.Enzymes
}

// Enzyme returns a reference to enzyme, or the empty node that products
// skip when no enzyme is modelled.
func (b *Builder) Enzyme(enzyme string) expr.Node {
	if enzyme == "" {
		return expr.Node{}
	}
	return b.Species(enzyme)
}

// useFunction returns the callee name for a shared function definition.
func (b *Builder) useFunction(name string) string {
	if p, ok := b.functions[name]; ok {
		return p
	}
	p := placeholderPrefix + "f:" + name
	b.functions[name] = p
	return p
}

// globalTable hands out global parameters for the whole batch.
type globalTable struct {
	mu       sync.Mutex
	existing map[string]struct{}
	byBase   map[string]string
	created  []domain.Parameter
	registry *IdentifierRegistry
}

func newGlobalTable(registry *IdentifierRegistry, models ...*domain.Model) *globalTable {
	g := &globalTable{
		existing: make(map[string]struct{}),
		byBase:   make(map[string]string),
		registry: registry,
	}
	for _, m := range models {
		if m == nil {
			continue
		}
		for _, p := range m.Parameters {
			g.existing[p.ID] = struct{}{}
		}
	}
	return g
}

// get returns the global parameter with base id p.ID, creating it on first
// use within the batch. Shared parameters also reuse a model parameter
// carrying exactly that id; others get a suffix on collision.
func (g *globalTable) get(p domain.Parameter, shared bool) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.existing[p.ID]; ok && shared {
		return p.ID, nil
	}
	if id, ok := g.byBase[p.ID]; ok {
		return id, nil
	}
	id, err := g.registry.Reserve(p.ID)
	if err != nil {
		return "", err
	}
	g.byBase[p.ID] = id
	p.ID = id
	g.created = append(g.created, p)
	return id, nil
}

func (g *globalTable) parameters() []domain.Parameter {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.Parameter, len(g.created))
	for i, p := range g.created {
		out[i] = p.Clone()
	}
	return out
}

// Shared modulation functions.
const (
	FunctionActivation = "activation"
	FunctionInhibition = "inhibition"
)

func modulationFunction(name string) domain.FunctionDefinition {
	x, k := expr.Reference("x"), expr.Reference("k")
	def := domain.FunctionDefinition{ID: name, Name: name + " factor", Args: []string{"x", "k"}}
	if name == FunctionActivation {
		def.Body = expr.Divide(x, expr.Sum(k, x))
	} else {
		def.Body = expr.Divide(k, expr.Sum(k, x))
	}
	return def
}

// functionTable hands out shared function definitions for the batch.
type functionTable struct {
	mu       sync.Mutex
	existing []domain.FunctionDefinition
	byName   map[string]string
	created  []domain.FunctionDefinition
	registry *IdentifierRegistry
}

func newFunctionTable(registry *IdentifierRegistry, models ...*domain.Model) *functionTable {
	t := &functionTable{byName: make(map[string]string), registry: registry}
	for _, m := range models {
		if m == nil {
			continue
		}
		t.existing = append(t.existing, m.FunctionDefinitions...)
	}
	return t
}

// get returns the id of a definition equal to the named modulation function,
// creating it when the model has none.
func (t *functionTable) get(name string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.byName[name]; ok {
		return id, nil
	}
	want := modulationFunction(name)
	for _, f := range t.existing {
		if sameFunction(f, want) {
			t.byName[name] = f.ID
			return f.ID, nil
		}
	}
	id, err := t.registry.Reserve(name)
	if err != nil {
		return "", err
	}
	want.ID = id
	t.byName[name] = id
	t.created = append(t.created, want)
	return id, nil
}

func (t *functionTable) definitions() []domain.FunctionDefinition {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.FunctionDefinition, len(t.created))
	for i, f := range t.created {
		out[i] = f.Clone()
	}
	return out
}

func sameFunction(a, b domain.FunctionDefinition) bool {
	if len(a.Args) != len(b.Args) {
		return false
	}
	rename := make(map[string]string, len(a.Args))
	for i := range a.Args {
		rename[a.Args[i]] = b.Args[i]
	}
	return a.Body.Rename(rename).Equal(b.Body)
}
