package core

import "kineticcore/pkg/domain"

type (
	Model              = domain.Model
	EntityKind         = domain.EntityKind
	Severity           = domain.Severity
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
	GenerationReport   = domain.GenerationReport
	CommitSummary      = domain.CommitSummary
	ReportState        = domain.ReportState
)

const (
	EntityModel      = domain.EntityModel
	EntityReaction   = domain.EntityReaction
	EntityParameter  = domain.EntityParameter
	EntityKineticLaw = domain.EntityKineticLaw
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// NewRulesEngine constructs an empty rules engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }
