// Package kinetics classifies reactions and instantiates rate-law templates
// on a working model.
package kinetics

import (
	"fmt"
	"sync"

	"kineticcore/pkg/expr"
)

// Template names in catalog priority order.
const (
	TemplateHill                  = "hill-equation"
	TemplateCompetitiveInhibition = "irreversible-competitive-inhibition"
	TemplateMichaelisMenten       = "michaelis-menten"
	TemplateRandomOrder           = "random-order"
	TemplateOrdered               = "ordered"
	TemplatePingPong              = "ping-pong"
	TemplateNonModulated          = "irreversible-non-modulated"
	TemplateConvenience           = "convenience"
	TemplateMassAction            = "generalized-mass-action"
)

// FallbackTemplate applies to every reaction with at least one reactant.
const FallbackTemplate = TemplateMassAction

// Reversibility restricts the reactions a template may serve.
type Reversibility int

const (
	AnyReversibility Reversibility = iota
	ReversibleOnly
	IrreversibleOnly
)

// Allows reports whether a reaction with the given reversibility qualifies.
func (r Reversibility) Allows(reversible bool) bool {
	switch r {
	case ReversibleOnly:
		return reversible
	case IrreversibleOnly:
		return !reversible
	}
	return true
}

// Template is one rate-law formalism: a structural predicate plus an
// instantiation procedure. Instantiate may still reject the reaction with
// Builder.NotApplicable after Applicable passed.
type Template struct {
	Name          string
	Title         string
	Reversibility Reversibility
	Applicable    func(*Shape) bool
	Instantiate   func(*Builder) (expr.Node, error)
}

// Matches reports whether the template qualifies for shape.
func (t Template) Matches(s *Shape) bool {
	if !t.Reversibility.Allows(s.Reversible) {
		return false
	}
	return t.Applicable == nil || t.Applicable(s)
}

// Catalog is the ordered template registry. Registration order is priority
// order. It is safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	templates []Template
	index     map[string]int
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// Register appends t to the catalog. Names must be unique.
func (c *Catalog) Register(t Template) error {
	if t.Name == "" {
		return fmt.Errorf("template name required")
	}
	if t.Instantiate == nil {
		return fmt.Errorf("template %s has no instantiation", t.Name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.index[t.Name]; exists {
		return fmt.Errorf("template %s already registered", t.Name)
	}
	c.index[t.Name] = len(c.templates)
	c.templates = append(c.templates, t)
	return nil
}

// Lookup returns the template with the given name.
func (c *Catalog) Lookup(name string) (Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[name]
	if !ok {
		return Template{}, false
	}
	return c.templates[i], true
}

// Templates returns the templates in priority order.
func (c *Catalog) Templates() []Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// DefaultCatalog returns the built-in formalisms, most specific first and
// generalized mass action last.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, t := range []Template{
		hillTemplate(),
		competitiveInhibitionTemplate(),
		michaelisMentenTemplate(),
		randomOrderTemplate(),
		orderedTemplate(),
		pingPongTemplate(),
		nonModulatedTemplate(),
		convenienceTemplate(),
		massActionTemplate(),
	} {
		if err := c.Register(t); err != nil {
			panic(err)
		}
	}
	return c
}
