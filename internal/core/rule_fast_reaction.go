package core

import (
	"context"
	"fmt"

	"kineticcore/pkg/domain"
)

// NewFastReactionRule warns when a generated law is installed on a reaction
// flagged fast. Such reactions are usually treated as in equilibrium by
// simulators and the law may be ignored.
func NewFastReactionRule() domain.Rule {
	return fastReactionRule{}
}

type fastReactionRule struct{}

func (fastReactionRule) Name() string { return "fast_reaction" }

func (r fastReactionRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for modelID, reactions := range changedLaws(changes) {
		m, ok := view.FindModel(modelID)
		if !ok {
			continue
		}
		for _, id := range reactions {
			if reaction, ok := m.FindReaction(id); ok && reaction.Fast {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     r.Name(),
					Severity: domain.SeverityWarn,
					Message:  fmt.Sprintf("reaction %s is fast; its new law may be ignored by simulators", id),
					Entity:   domain.EntityReaction,
					EntityID: id,
				})
			}
		}
	}
	return res, nil
}
