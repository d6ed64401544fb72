package core

import (
	"context"

	"kineticcore/internal/kinetics"
)

// DefaultSessionCapacity bounds the number of generation reports awaiting a
// commit or discard decision.
const DefaultSessionCapacity = 128

// CommitHook runs after a report was committed and the store persisted the
// merged model.
type CommitHook func(ctx context.Context, report GenerationReport, summary CommitSummary)

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	clock           Clock
	logger          Logger
	metrics         MetricsRecorder
	tracer          Tracer
	audit           AuditRecorder
	catalog         *kinetics.Catalog
	sessionCapacity int
	hooks           []CommitHook
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		clock:           ClockFunc(nil),
		logger:          noopLogger{},
		metrics:         noopMetrics{},
		tracer:          noopTracer{},
		audit:           noopAudit{},
		sessionCapacity: DefaultSessionCapacity,
	}
}

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger installs a structured logger.
func WithLogger(logger Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsRecorder installs a metrics recorder.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(tracer Tracer) Option {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithAuditRecorder installs an audit recorder.
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.audit = recorder
		}
	}
}

// WithCatalog replaces the default template catalog.
func WithCatalog(catalog *kinetics.Catalog) Option {
	return func(o *serviceOptions) {
		o.catalog = catalog
	}
}

// WithSessionCapacity bounds the pending report set. Older pending reports
// are evicted first.
func WithSessionCapacity(n int) Option {
	return func(o *serviceOptions) {
		if n > 0 {
			o.sessionCapacity = n
		}
	}
}

// WithCommitHook registers a callback run after every successful commit.
func WithCommitHook(hook CommitHook) Option {
	return func(o *serviceOptions) {
		if hook != nil {
			o.hooks = append(o.hooks, hook)
		}
	}
}
