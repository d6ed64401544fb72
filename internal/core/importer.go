package core

import (
	"context"
	"fmt"
	"strings"

	"kineticcore/internal/kinetics"
	"kineticcore/internal/matching"
	"kineticcore/internal/submodel"
	"kineticcore/pkg/domain"
)

// ImportedTemplate labels outcomes whose law was taken from another model.
const ImportedTemplate = "imported"

// ImportLaws copies the kinetic laws of source onto the matching reactions
// of a stored model. A law is imported only when every species, compartment
// and reaction it refers to has a unique counterpart in the target; the
// parameters, units and functions it needs travel with it under fresh ids.
// Like Generate, the result is a pending report.
func (s *Service) ImportLaws(ctx context.Context, modelID string, source Model) (GenerationReport, error) {
	var report GenerationReport
	err := s.run(ctx, "import_laws", EntityKineticLaw, ActionCreate, modelID, func(ctx context.Context) (string, error) {
		original, ok := s.store.GetModel(modelID)
		if !ok {
			return "", domain.ErrNotFound{Entity: EntityModel, ID: modelID}
		}
		pairs := matching.PairReactions(&source, &original)
		var targets []string
		for _, r := range original.Reactions {
			if _, paired := pairs[r.ID]; paired {
				targets = append(targets, r.ID)
			}
		}

		report = s.newReport(modelID, "import")
		if len(targets) == 0 {
			s.track(report, Model{}, submodel.NewMapping(), submodel.Plan{})
			return report.ID, nil
		}
		working, mapping, err := submodel.Extract(original, targets, false)
		if err != nil {
			return "", err
		}
		replaced := make(map[string]struct{}, len(targets))
		for _, id := range targets {
			replaced[id] = struct{}{}
		}
		im := &lawImporter{
			source:    &source,
			working:   &working,
			mapping:   mapping,
			registry:  kinetics.RegistryForModels(replaced, &working, &original),
			units:     map[string]string{},
			params:    map[string]string{},
			functions: map[string]string{},
		}
		for _, target := range targets {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			lp := matching.PlanLaw(&source, pairs[target], &original, target)
			if !lp.Importable() {
				report.Outcomes = append(report.Outcomes, domain.ReactionOutcome{
					ReactionID: target,
					Status:     domain.OutcomeFailed,
					Reason:     domain.ReasonImportUnmatched,
					Detail:     "unmatched: " + strings.Join(lp.Unmatched, ", "),
				})
				continue
			}
			law, err := im.transplant(lp)
			if err != nil {
				return "", fmt.Errorf("import law of %s onto %s: %w", lp.SourceReaction, target, err)
			}
			for _, p := range law.LocalParameters {
				report.NewParameters = append(report.NewParameters, domain.ParameterSummary{
					ID: p.ID, Scope: domain.ScopeLocal, ReactionID: target, Units: p.Units, Value: p.Value,
				})
			}
			report.Outcomes = append(report.Outcomes, domain.ReactionOutcome{
				ReactionID: target,
				Status:     domain.OutcomeSuccess,
				Template:   ImportedTemplate,
				Law:        law.Math.String(),
				Detail:     "from " + lp.SourceReaction,
			})
		}
		for _, id := range im.plan.Parameters {
			p, _ := working.FindParameter(id)
			report.NewParameters = append(report.NewParameters, domain.ParameterSummary{
				ID: p.ID, Scope: domain.ScopeGlobal, Units: p.Units, Value: p.Value,
			})
		}
		for _, id := range im.plan.Units {
			def, _ := working.FindUnitDefinition(id)
			report.NewUnits = append(report.NewUnits, def)
		}
		for _, id := range im.plan.Functions {
			def, _ := working.FindFunctionDefinition(id)
			report.NewFunctions = append(report.NewFunctions, def)
		}
		s.track(report, working, mapping, im.plan)
		s.opts.logger.Info("import report ready",
			"report", report.ID, "model", modelID,
			"imported", report.Count(domain.OutcomeSuccess),
			"unmatched", report.Count(domain.OutcomeFailed))
		return report.ID, nil
	})
	if err != nil {
		return GenerationReport{}, err
	}
	return report, nil
}

// lawImporter copies source laws into a working copy of the target model.
// Entities it copies are listed in plan so a later merge installs them.
type lawImporter struct {
	source   *domain.Model
	working  *domain.Model
	mapping  submodel.Mapping
	registry *kinetics.IdentifierRegistry
	plan     submodel.Plan

	// source id -> working id of already copied entities
	units     map[string]string
	params    map[string]string
	functions map[string]string
}

func (im *lawImporter) transplant(lp matching.LawPlan) (domain.KineticLaw, error) {
	sr, _ := im.source.FindReaction(lp.SourceReaction)
	law := sr.KineticLaw.Clone()
	law.Template = ImportedTemplate

	rename := make(map[string]string)
	for from, to := range lp.Matches {
		if w, ok := im.mapping.Working(to); ok {
			to = w
		}
		rename[from] = to
	}
	if err := im.copyFunctions(lp.Functions); err != nil {
		return domain.KineticLaw{}, err
	}
	for _, id := range lp.Functions {
		rename[id] = im.functions[id]
	}
	for _, id := range lp.Parameters {
		target, err := im.parameter(id)
		if err != nil {
			return domain.KineticLaw{}, err
		}
		rename[id] = target
	}
	for i := range law.LocalParameters {
		p := &law.LocalParameters[i]
		unit, err := im.unit(p.Units)
		if err != nil {
			return domain.KineticLaw{}, err
		}
		p.Units = unit
		id, err := im.registry.Reserve(p.ID)
		if err != nil {
			return domain.KineticLaw{}, err
		}
		rename[p.ID] = id
		p.ID = id
	}
	law.Math = law.Math.Rename(rename)

	target, _ := im.mapping.Working(lp.TargetReaction)
	if target == "" {
		target = lp.TargetReaction
	}
	idx := im.working.ReactionIndex(target)
	if idx < 0 {
		return domain.KineticLaw{}, domain.ErrNotFound{Entity: domain.EntityReaction, ID: lp.TargetReaction}
	}
	installed := law.Clone()
	im.working.Reactions[idx].KineticLaw = &installed
	im.plan.Reactions = append(im.plan.Reactions, target)
	return law, nil
}

// unit returns the working id for a source unit reference. Base kinds and
// built-in references pass through unchanged.
func (im *lawImporter) unit(ref string) (string, error) {
	def, ok := im.source.FindUnitDefinition(ref)
	if !ok {
		return ref, nil
	}
	if target, done := im.units[ref]; done {
		return target, nil
	}
	for _, existing := range im.working.UnitDefinitions {
		if existing.Identical(def) {
			im.units[ref] = existing.ID
			return existing.ID, nil
		}
	}
	id, err := im.registry.Reserve(def.ID)
	if err != nil {
		return "", err
	}
	def = def.Clone()
	def.ID = id
	im.working.UnitDefinitions = append(im.working.UnitDefinitions, def)
	im.plan.Units = append(im.plan.Units, id)
	im.units[ref] = id
	return id, nil
}

func (im *lawImporter) parameter(id string) (string, error) {
	if target, done := im.params[id]; done {
		return target, nil
	}
	p, _ := im.source.FindParameter(id)
	p = p.Clone()
	unit, err := im.unit(p.Units)
	if err != nil {
		return "", err
	}
	p.Units = unit
	target, err := im.registry.Reserve(p.ID)
	if err != nil {
		return "", err
	}
	p.ID = target
	im.working.Parameters = append(im.working.Parameters, p)
	im.plan.Parameters = append(im.plan.Parameters, target)
	im.params[id] = target
	return target, nil
}

// copyFunctions copies a closed set of function definitions. Ids are
// reserved for the whole set first so calls between them can be rewritten.
func (im *lawImporter) copyFunctions(ids []string) error {
	var fresh []string
	for _, id := range ids {
		if _, done := im.functions[id]; done {
			continue
		}
		target, err := im.registry.Reserve(id)
		if err != nil {
			return err
		}
		im.functions[id] = target
		fresh = append(fresh, id)
	}
	for _, id := range fresh {
		def, _ := im.source.FindFunctionDefinition(id)
		def = def.Clone()
		def.ID = im.functions[id]
		def.Body = def.Body.Rename(im.functions)
		im.working.FunctionDefinitions = append(im.working.FunctionDefinitions, def)
		im.plan.Functions = append(im.plan.Functions, def.ID)
	}
	return nil
}
