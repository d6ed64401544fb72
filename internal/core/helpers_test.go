package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"kineticcore/internal/kinetics"
	"kineticcore/pkg/domain"
	"kineticcore/pkg/expr"
)

type captureAuditRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus, pred func(AuditEntry) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Operation == op && e.Status == status && (pred == nil || pred(e)) {
			return true
		}
	}
	return false
}

type metricCall struct {
	operation string
	success   bool
	duration  time.Duration
}

type captureMetricsRecorder struct {
	mu    sync.Mutex
	calls []metricCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, metricCall{operation: operation, success: success, duration: duration})
}

func (c *captureMetricsRecorder) count(op string, success bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.operation == op && call.success == success {
			n++
		}
	}
	return n
}

type captureSpan struct {
	operation string
	ended     bool
	err       error
}

func (s *captureSpan) End(err error) {
	s.ended = true
	s.err = err
}

type captureTracer struct {
	mu    sync.Mutex
	spans []*captureSpan
}

func (c *captureTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	span := &captureSpan{operation: operation}
	c.spans = append(c.spans, span)
	return ctx, span
}

type logEntry struct {
	level string
	msg   string
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (c *captureLogger) log(level, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, logEntry{level: level, msg: msg})
}

func (c *captureLogger) Debug(msg string, _ ...any) { c.log("debug", msg) }
func (c *captureLogger) Info(msg string, _ ...any)  { c.log("info", msg) }
func (c *captureLogger) Warn(msg string, _ ...any)  { c.log("warn", msg) }
func (c *captureLogger) Error(msg string, _ ...any) { c.log("error", msg) }

func (c *captureLogger) has(level, msg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

// staticRule reports a fixed violation for every kinetic-law change.
type staticRule struct {
	name     string
	severity Severity
}

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(_ context.Context, _ domain.RuleView, changes []Change) (Result, error) {
	res := Result{}
	for _, c := range changes {
		if c.Entity == EntityKineticLaw {
			res.Violations = append(res.Violations, Violation{
				Rule:     r.name,
				Severity: r.severity,
				Message:  fmt.Sprintf("%s touched", c.EntityID),
				Entity:   EntityReaction,
				EntityID: c.EntityID,
			})
		}
	}
	return res, nil
}

func stoich(ids ...string) []domain.SpeciesReference {
	out := make([]domain.SpeciesReference, len(ids))
	for i, id := range ids {
		out[i] = domain.SpeciesReference{Species: id, Stoichiometry: 1}
	}
	return out
}

// testModel has an unregulated reaction r1 without law and r2 whose law
// uses the global k2.
func testModel() Model {
	return Model{
		ID:             "m1",
		SubstanceUnits: "mole",
		TimeUnits:      "second",
		VolumeUnits:    "litre",
		UnitDefinitions: []domain.UnitDefinition{
			{ID: "hz", Units: []domain.Unit{{Kind: "second", Exponent: -1}}},
		},
		Compartments: []domain.Compartment{{ID: "cell", SpatialDimensions: 3, Size: domain.Float(1)}},
		Species: []domain.Species{
			{ID: "S1", Compartment: "cell"},
			{ID: "S2", Compartment: "cell"},
			{ID: "S3", Compartment: "cell"},
		},
		Parameters: []domain.Parameter{{ID: "k2", Units: "hz", Constant: true}},
		Reactions: []domain.Reaction{
			{ID: "r1", Reactants: stoich("S1"), Products: stoich("S2")},
			{ID: "r2", Reactants: stoich("S2"), Products: stoich("S3"), KineticLaw: &domain.KineticLaw{
				Math: expr.Product(expr.Reference("k2"), expr.Reference("S2")),
			}},
		},
	}
}

func overwrite() kinetics.Options {
	opts := kinetics.DefaultOptions()
	opts.OverwriteExistingLaws = true
	return opts
}

func fixedClock() Clock {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return ClockFunc(func() time.Time { return at })
}

// newTestService returns an in-memory service holding testModel.
func newTestService(t *testing.T, engine *RulesEngine, opts ...Option) *Service {
	t.Helper()
	svc := NewInMemoryService(engine, opts...)
	if _, _, err := svc.PutModel(context.Background(), testModel()); err != nil {
		t.Fatalf("put model: %v", err)
	}
	return svc
}
