package domain

import (
	"context"
	"fmt"
	"strings"
)

// Severity grades a rule violation.
type Severity string

const (
	// SeverityBlock rolls the commit back.
	SeverityBlock Severity = "block"
	// SeverityWarn is reported with the commit result.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Action is the kind of mutation recorded for a model entity.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change records one entity touched by a commit. EntityID is empty for
// whole-model changes.
type Change struct {
	Entity   EntityKind
	Action   Action
	ModelID  string
	EntityID string
}

// Violation is one finding of a commit rule.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityKind
	EntityID string
}

func (v Violation) String() string {
	target := string(v.Entity)
	if v.EntityID != "" {
		target += " " + v.EntityID
	}
	return fmt.Sprintf("%s [%s] %s: %s", v.Rule, v.Severity, target, v.Message)
}

// Result collects the violations of one rule pass.
type Result struct {
	Violations []Violation
}

// Merge appends the violations of other.
func (r *Result) Merge(other Result) {
	r.Violations = append(r.Violations, other.Violations...)
}

// Blocking returns the violations with SeverityBlock.
func (r Result) Blocking() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

func (r Result) HasBlocking() bool { return len(r.Blocking()) > 0 }

// RuleViolationError carries the result of a commit that blocking
// violations rolled back.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	blocking := e.Result.Blocking()
	msgs := make([]string, len(blocking))
	for i, v := range blocking {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("commit blocked by %d rule violation(s): %s", len(blocking), strings.Join(msgs, "; "))
}

// RuleView is the read-only model state a rule inspects.
type RuleView = TransactionView

// Rule is evaluated against the post-commit state and the entities the
// commit touched.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine evaluates rules in registration order.
type RulesEngine struct {
	rules []Rule
}

func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns a copy of the registered rules.
func (e *RulesEngine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Evaluate runs every rule and merges their violations. The first rule
// error aborts the pass.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		combined.Merge(res)
	}
	return combined, nil
}
