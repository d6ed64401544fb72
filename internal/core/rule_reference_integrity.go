package core

import (
	"context"
	"fmt"

	"kineticcore/internal/kinetics"
	"kineticcore/pkg/domain"
)

// NewReferenceIntegrityRule blocks commits that install a kinetic law
// referring to a component or function the model does not define.
func NewReferenceIntegrityRule() domain.Rule {
	return referenceIntegrityRule{}
}

type referenceIntegrityRule struct{}

func (referenceIntegrityRule) Name() string { return "reference_integrity" }

func (r referenceIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for modelID, reactions := range changedLaws(changes) {
		m, ok := view.FindModel(modelID)
		if !ok {
			continue
		}
		ids := m.Identifiers()
		for _, id := range reactions {
			reaction, ok := m.FindReaction(id)
			if !ok || kinetics.LawIntact(ids, reaction.KineticLaw) {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("kinetic law of %s refers to undefined components", id),
				Entity:   domain.EntityReaction,
				EntityID: id,
			})
		}
	}
	return res, nil
}
