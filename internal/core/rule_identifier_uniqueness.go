package core

import (
	"context"
	"fmt"

	"kineticcore/pkg/domain"
)

// NewIdentifierUniquenessRule blocks commits that leave two components of a
// model with the same identifier. A local parameter shadowing a component of
// the model namespace is reported as a warning.
func NewIdentifierUniquenessRule() domain.Rule {
	return identifierUniquenessRule{}
}

type identifierUniquenessRule struct{}

func (identifierUniquenessRule) Name() string { return "identifier_uniqueness" }

func (r identifierUniquenessRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, id := range changedModels(changes) {
		m, ok := view.FindModel(id)
		if !ok {
			continue
		}
		for _, dup := range duplicateIDs(&m) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: dup.severity,
				Message:  fmt.Sprintf("model %s: identifier %s is used %s", m.ID, dup.id, dup.what),
				Entity:   domain.EntityModel,
				EntityID: m.ID,
			})
		}
	}
	return res, nil
}

type duplicate struct {
	id       string
	what     string
	severity domain.Severity
}

func duplicateIDs(m *domain.Model) []duplicate {
	seen := make(map[string]domain.EntityKind)
	var out []duplicate
	claim := func(id string, kind domain.EntityKind) {
		if prev, ok := seen[id]; ok {
			out = append(out, duplicate{id: id, what: fmt.Sprintf("by %s and %s", prev, kind), severity: domain.SeverityBlock})
			return
		}
		seen[id] = kind
	}
	for _, u := range m.UnitDefinitions {
		claim(u.ID, domain.EntityUnitDefinition)
	}
	for _, f := range m.FunctionDefinitions {
		claim(f.ID, domain.EntityFunctionDefinition)
	}
	for _, c := range m.Compartments {
		claim(c.ID, domain.EntityCompartment)
	}
	for _, s := range m.Species {
		claim(s.ID, domain.EntitySpecies)
	}
	for _, p := range m.Parameters {
		claim(p.ID, domain.EntityParameter)
	}
	for _, r := range m.Reactions {
		claim(r.ID, domain.EntityReaction)
	}
	for _, r := range m.Reactions {
		if r.KineticLaw == nil {
			continue
		}
		for _, p := range r.KineticLaw.LocalParameters {
			if kind, ok := seen[p.ID]; ok {
				out = append(out, duplicate{id: p.ID, what: fmt.Sprintf("by %s and a local parameter of %s", kind, r.ID), severity: domain.SeverityWarn})
			}
		}
	}
	return out
}
