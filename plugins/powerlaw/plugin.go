// Package powerlaw contributes a power-law rate law whose kinetic orders
// are free parameters instead of stoichiometric exponents.
package powerlaw

import (
	"context"
	"fmt"

	"kineticcore/internal/core"
	"kineticcore/internal/kinetics"
	"kineticcore/pkg/expr"
)

// TemplateName is the catalog name of the contributed template.
const TemplateName = "power-law"

// RuleName is the name of the rule noting installed power laws.
const RuleName = "power_law_orders"

// Plugin registers the power-law template and its notice rule.
type Plugin struct{}

// New returns the plugin.
func New() Plugin { return Plugin{} }

func (Plugin) Name() string    { return "powerlaw" }
func (Plugin) Version() string { return "0.1.0" }

func (Plugin) Register(registry *core.PluginRegistry) error {
	if err := registry.RegisterTemplate(Template()); err != nil {
		return err
	}
	registry.RegisterRule(ordersRule{})
	return nil
}

// Template returns the power-law template:
//
//	kf·Π S^g − kr·Π P^h
//
// with one dimensionless order per species. The reverse part is present for
// reversible reactions only.
func Template() kinetics.Template {
	return kinetics.Template{
		Name:  TemplateName,
		Title: "Power-law kinetics",
		Applicable: func(s *kinetics.Shape) bool {
			return len(s.Reactants) > 0
		},
		Instantiate: instantiate,
	}
}

func instantiate(b *kinetics.Builder) (expr.Node, error) {
	s := b.Shape()
	r := b.ReactionID()
	if len(s.Reactants) == 0 {
		return expr.Node{}, b.NotApplicable("no reactants")
	}
	forward := []expr.Node{b.Param(kinetics.Role{
		Kind: kinetics.ParamForwardRate,
		ID:   kinetics.JoinID("kpl", r),
		Name: "power-law forward constant of " + r,
	})}
	for _, ref := range s.Reactants {
		forward = append(forward, expr.Power(b.Species(ref.Species), order(b, "g", ref.Species)))
	}
	rate := expr.Product(forward...)
	if s.Reversible && len(s.Products) > 0 {
		reverse := []expr.Node{b.Param(kinetics.Role{
			Kind: kinetics.ParamReverseRate,
			ID:   kinetics.JoinID("kplr", r),
			Name: "power-law reverse constant of " + r,
		})}
		for _, ref := range s.Products {
			reverse = append(reverse, expr.Power(b.Species(ref.Species), order(b, "h", ref.Species)))
		}
		rate = expr.Difference(rate, expr.Product(reverse...))
	}
	var catalysed []expr.Node
	for _, e := range s.Enzymes {
		catalysed = append(catalysed, b.Enzyme(e))
	}
	return b.Modulate(expr.Product(append(catalysed, rate)...)), nil
}

func order(b *kinetics.Builder, prefix, species string) expr.Node {
	return b.Param(kinetics.Role{
		Kind:    kinetics.ParamDimensionless,
		ID:      kinetics.JoinID(prefix, b.ReactionID(), species),
		Species: species,
		Name:    "kinetic order of " + species + " in " + b.ReactionID(),
	})
}

// ordersRule notes every installed power law; its orders need fitting
// before simulation.
type ordersRule struct{}

func (ordersRule) Name() string { return RuleName }

func (r ordersRule) Evaluate(_ context.Context, view core.RuleView, changes []core.Change) (core.Result, error) {
	res := core.Result{}
	for _, c := range changes {
		if c.Entity != core.EntityKineticLaw || c.Action == core.ActionDelete {
			continue
		}
		m, ok := view.FindModel(c.ModelID)
		if !ok {
			continue
		}
		reaction, ok := m.FindReaction(c.EntityID)
		if !ok || reaction.KineticLaw == nil || reaction.KineticLaw.Template != TemplateName {
			continue
		}
		res.Violations = append(res.Violations, core.Violation{
			Rule:     r.Name(),
			Severity: core.SeverityLog,
			Message:  fmt.Sprintf("reaction %s uses a power law; its kinetic orders are unset", c.EntityID),
			Entity:   core.EntityReaction,
			EntityID: c.EntityID,
		})
	}
	return res, nil
}
