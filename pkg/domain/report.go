package domain

import "time"

// OutcomeStatus is the terminal state of one reaction in a generation batch.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// OutcomeReason explains skipped, failed and preserved outcomes.
type OutcomeReason string

const (
	ReasonNone                  OutcomeReason = ""
	ReasonNoSubstrate           OutcomeReason = "no-substrate"
	ReasonNoApplicableFormalism OutcomeReason = "no-applicable-formalism"
	ReasonUnresolvableUnit      OutcomeReason = "unresolvable-unit"
	ReasonExistingLawPreserved  OutcomeReason = "existing-law-preserved"
	ReasonImportUnmatched       OutcomeReason = "import-unmatched"
)

// TemplateAttempt records a template that was tried and rejected.
type TemplateAttempt struct {
	Template string `json:"template"`
	Error    string `json:"error"`
}

// ReactionOutcome describes what happened to one reaction.
type ReactionOutcome struct {
	ReactionID string            `json:"reaction_id"`
	Status     OutcomeStatus     `json:"status"`
	Reason     OutcomeReason     `json:"reason,omitempty"`
	Detail     string            `json:"detail,omitempty"`
	Template   string            `json:"template,omitempty"`
	Law        string            `json:"law,omitempty"`
	Preserved  bool              `json:"preserved,omitempty"`
	Attempts   []TemplateAttempt `json:"attempts,omitempty"`
}

// Changed reports whether the outcome carries a new law to install.
func (o ReactionOutcome) Changed() bool {
	return o.Status == OutcomeSuccess && !o.Preserved
}

// ParameterScope tells whether a parameter lives in the model or in one law.
type ParameterScope string

const (
	ScopeGlobal ParameterScope = "global"
	ScopeLocal  ParameterScope = "local"
)

// ParameterSummary describes a parameter created during generation.
type ParameterSummary struct {
	ID         string         `json:"id"`
	Scope      ParameterScope `json:"scope"`
	ReactionID string         `json:"reaction_id,omitempty"`
	Units      string         `json:"units,omitempty"`
	Value      *float64       `json:"value,omitempty"`
}

// ReportState tracks whether a report still awaits a decision.
type ReportState string

const (
	ReportPending   ReportState = "pending"
	ReportCommitted ReportState = "committed"
	ReportDiscarded ReportState = "discarded"
)

// GenerationReport is the result of a generation or import batch. It is
// committed or discarded exactly once.
type GenerationReport struct {
	ID            string               `json:"id"`
	ModelID       string               `json:"model_id"`
	Source        string               `json:"source"`
	CreatedAt     time.Time            `json:"created_at"`
	Outcomes      []ReactionOutcome    `json:"outcomes"`
	NewParameters []ParameterSummary   `json:"new_parameters,omitempty"`
	NewUnits      []UnitDefinition     `json:"new_units,omitempty"`
	NewFunctions  []FunctionDefinition `json:"new_functions,omitempty"`
	FastReactions []string             `json:"fast_reactions,omitempty"`
}

// Outcome returns the outcome recorded for a reaction.
func (r GenerationReport) Outcome(reactionID string) (ReactionOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.ReactionID == reactionID {
			return o, true
		}
	}
	return ReactionOutcome{}, false
}

// Count returns the number of outcomes with the given status.
func (r GenerationReport) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// CommitSummary lists what a commit installed.
type CommitSummary struct {
	ReportID          string            `json:"report_id"`
	ModelID           string            `json:"model_id"`
	Applied           []string          `json:"applied"`
	Rejected          map[string]string `json:"rejected,omitempty"`
	Renamed           map[string]string `json:"renamed,omitempty"`
	RemovedParameters []string          `json:"removed_parameters,omitempty"`
}
