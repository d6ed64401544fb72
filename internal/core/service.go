package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"kineticcore/internal/infra/persistence/memory"
	"kineticcore/internal/kinetics"
	"kineticcore/internal/submodel"
	"kineticcore/pkg/domain"
)

// Service exposes model storage and the generate, commit and discard life
// cycle of kinetic-law generation reports.
type Service struct {
	store     PersistentStore
	generator *kinetics.Generator
	sessions  *lru.Cache[string, *session]
	opts      serviceOptions

	pluginMu sync.Mutex
	plugins  map[string]PluginMetadata
}

// session holds what a pending report needs to be committed.
type session struct {
	mu      sync.Mutex
	state   ReportState
	report  GenerationReport
	working Model
	mapping submodel.Mapping
	plan    submodel.Plan
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	// the capacity is always positive, the only error lru.New reports
	sessions, _ := lru.New[string, *session](o.sessionCapacity)
	return &Service{
		store:     store,
		generator: kinetics.NewGenerator(o.catalog),
		sessions:  sessions,
		opts:      o,
		plugins:   make(map[string]PluginMetadata),
	}
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// Templates lists the rate-law templates in priority order.
func (s *Service) Templates() []kinetics.Template {
	return s.generator.Catalog().Templates()
}

// run wraps an operation with tracing, metrics, audit and logging. fn
// returns the id of the entity it acted on.
func (s *Service) run(ctx context.Context, op string, entity EntityKind, action Action, modelID string, fn func(context.Context) (string, error)) error {
	started := s.opts.clock.Now()
	ctx, span := s.opts.tracer.Start(ctx, op)
	entityID, err := fn(ctx)
	span.End(err)
	ended := s.opts.clock.Now()
	duration := ended.Sub(started)
	s.opts.metrics.Observe(ctx, op, err == nil, duration)

	entry := AuditEntry{
		ID:        uuid.NewString(),
		Operation: op,
		Entity:    entity,
		Action:    action,
		ModelID:   modelID,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: ended,
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
		s.opts.logger.Error("operation failed", "operation", op, "model", modelID, "error", err)
	} else {
		s.opts.logger.Debug("operation completed", "operation", op, "model", modelID, "entity", entityID, "duration", duration)
	}
	s.opts.audit.Record(ctx, entry)
	return err
}

// PutModel stores a model, replacing any model with the same id. A model
// without id receives a generated one.
func (s *Service) PutModel(ctx context.Context, model Model) (Model, Result, error) {
	action := ActionCreate
	if _, exists := s.store.GetModel(model.ID); exists && model.ID != "" {
		action = ActionUpdate
	}
	var stored Model
	var res Result
	err := s.run(ctx, "put_model", EntityModel, action, model.ID, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			if action == ActionUpdate {
				stored, err = tx.UpdateModel(model.ID, func(m *Model) error {
					*m = model.Clone()
					return nil
				})
				return err
			}
			stored, err = tx.CreateModel(model)
			return err
		})
		return stored.ID, err
	})
	if err != nil {
		return Model{}, res, err
	}
	return stored, res, nil
}

// GetModel returns a stored model.
func (s *Service) GetModel(id string) (Model, error) {
	m, ok := s.store.GetModel(id)
	if !ok {
		return Model{}, domain.ErrNotFound{Entity: EntityModel, ID: id}
	}
	return m, nil
}

// ListModels returns every stored model ordered by id.
func (s *Service) ListModels() []Model {
	return s.store.ListModels()
}

// DeleteModel removes a model.
func (s *Service) DeleteModel(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.run(ctx, "delete_model", EntityModel, ActionDelete, id, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteModel(id)
		})
		return id, err
	})
	return res, err
}

// Generate derives kinetic laws for the listed reactions of a stored model,
// or for all of them when the list is empty or opts.GenerateForAllReactions
// is set. The stored model is not changed; the returned report stays pending
// until it is committed or discarded.
func (s *Service) Generate(ctx context.Context, modelID string, reactionIDs []string, opts kinetics.Options) (GenerationReport, error) {
	var report GenerationReport
	err := s.run(ctx, "generate", EntityKineticLaw, ActionCreate, modelID, func(ctx context.Context) (string, error) {
		original, ok := s.store.GetModel(modelID)
		if !ok {
			return "", domain.ErrNotFound{Entity: EntityModel, ID: modelID}
		}
		working, mapping, err := submodel.Extract(original, reactionIDs, opts.GenerateForAllReactions)
		if err != nil {
			return "", err
		}
		batch, err := s.generator.Generate(ctx, working, reactionIDs, opts, &original)
		if err != nil {
			return "", fmt.Errorf("generate laws for model %s: %w", modelID, err)
		}
		report = s.newReport(modelID, "generate")
		report.Outcomes = batch.Outcomes
		report.NewParameters = batch.NewParameters
		report.NewUnits = batch.NewUnits
		report.NewFunctions = batch.NewFunctions
		report.FastReactions = batch.FastReactions
		s.track(report, batch.Model, mapping, submodel.PlanFromBatch(batch))
		s.opts.logger.Info("generation report ready",
			"report", report.ID, "model", modelID,
			"succeeded", report.Count(domain.OutcomeSuccess),
			"skipped", report.Count(domain.OutcomeSkipped),
			"failed", report.Count(domain.OutcomeFailed))
		return report.ID, nil
	})
	if err != nil {
		return GenerationReport{}, err
	}
	return report, nil
}

func (s *Service) newReport(modelID, source string) GenerationReport {
	return GenerationReport{
		ID:        uuid.NewString(),
		ModelID:   modelID,
		Source:    source,
		CreatedAt: s.opts.clock.Now(),
	}
}

func (s *Service) track(report GenerationReport, working Model, mapping submodel.Mapping, plan submodel.Plan) {
	s.sessions.Add(report.ID, &session{
		state:   domain.ReportPending,
		report:  report,
		working: working,
		mapping: mapping,
		plan:    plan,
	})
}

// Report returns a tracked report and its state.
func (s *Service) Report(reportID string) (GenerationReport, ReportState, error) {
	sess, ok := s.sessions.Peek(reportID)
	if !ok {
		return GenerationReport{}, "", domain.ErrReportUnknown
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.report, sess.state, nil
}

// PendingReports returns the ids of reports awaiting a decision, least
// recently used first.
func (s *Service) PendingReports() []string {
	var out []string
	for _, id := range s.sessions.Keys() {
		sess, ok := s.sessions.Peek(id)
		if !ok {
			continue
		}
		sess.mu.Lock()
		pending := sess.state == domain.ReportPending
		sess.mu.Unlock()
		if pending {
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) openSession(reportID string) (*session, error) {
	sess, ok := s.sessions.Get(reportID)
	if !ok {
		return nil, domain.ErrReportUnknown
	}
	sess.mu.Lock()
	if sess.state != domain.ReportPending {
		state := sess.state
		sess.mu.Unlock()
		return nil, domain.ReportClosedError{ReportID: reportID, State: state}
	}
	return sess, nil
}

// Commit merges the laws of a pending report into the stored model in one
// transaction. Laws whose reaction vanished or whose references no longer
// resolve are rejected individually; blocking rule violations roll the whole
// commit back and leave the report pending. A failed durable write returns a
// domain.PersistenceError, leaves the stored model unchanged and keeps the
// report pending so the commit can be retried.
func (s *Service) Commit(ctx context.Context, reportID string) (CommitSummary, Result, error) {
	sess, err := s.openSession(reportID)
	if err != nil {
		return CommitSummary{}, Result{}, err
	}
	defer sess.mu.Unlock()

	modelID := sess.report.ModelID
	var summary CommitSummary
	var res Result
	err = s.run(ctx, "commit", EntityKineticLaw, ActionUpdate, modelID, func(ctx context.Context) (string, error) {
		var merged submodel.Result
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			_, err := tx.UpdateModel(modelID, func(m *Model) error {
				var err error
				merged, err = submodel.Merge(m, sess.working, sess.mapping, sess.plan)
				return err
			})
			if err != nil {
				return err
			}
			for _, id := range merged.Applied {
				tx.Record(Change{Entity: EntityKineticLaw, Action: ActionUpdate, ModelID: modelID, EntityID: id})
			}
			for _, id := range merged.Removed {
				tx.Record(Change{Entity: EntityParameter, Action: ActionDelete, ModelID: modelID, EntityID: id})
			}
			return nil
		})
		if err != nil {
			return reportID, err
		}
		summary = CommitSummary{
			ReportID:          reportID,
			ModelID:           modelID,
			Applied:           merged.Applied,
			Rejected:          merged.Rejected,
			Renamed:           merged.Renamed,
			RemovedParameters: merged.Removed,
		}
		return reportID, nil
	})
	if err != nil {
		if domain.IsPersistence(err) {
			s.opts.logger.Error("commit not persisted; report left pending", "report", reportID, "model", modelID, "error", err)
		}
		return CommitSummary{}, res, err
	}
	sess.state = domain.ReportCommitted
	for _, v := range res.Violations {
		s.opts.logger.Warn("commit rule violation", "rule", v.Rule, "severity", v.Severity, "entity", v.EntityID, "message", v.Message)
	}
	for _, hook := range s.opts.hooks {
		hook(ctx, sess.report, summary)
	}
	return summary, res, nil
}

// Discard drops a pending report. The stored model is never touched.
func (s *Service) Discard(ctx context.Context, reportID string) error {
	sess, err := s.openSession(reportID)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()
	return s.run(ctx, "discard", EntityKineticLaw, ActionDelete, sess.report.ModelID, func(context.Context) (string, error) {
		sess.state = domain.ReportDiscarded
		sess.working = Model{}
		return reportID, nil
	})
}

// InstallPlugin registers the templates and rules a plugin contributes.
func (s *Service) InstallPlugin(plugin Plugin) (PluginMetadata, error) {
	if plugin == nil {
		return PluginMetadata{}, fmt.Errorf("plugin is nil")
	}
	s.pluginMu.Lock()
	defer s.pluginMu.Unlock()

	name := plugin.Name()
	if _, exists := s.plugins[name]; exists {
		return PluginMetadata{}, fmt.Errorf("plugin %s already installed", name)
	}
	registry := NewPluginRegistry()
	if err := plugin.Register(registry); err != nil {
		return PluginMetadata{}, fmt.Errorf("register plugin %s: %w", name, err)
	}

	catalog := s.generator.Catalog()
	templates := registry.Templates()
	for _, t := range templates {
		if _, taken := catalog.Lookup(t.Name); taken {
			return PluginMetadata{}, fmt.Errorf("plugin %s: template %s already in catalog", name, t.Name)
		}
	}
	meta := PluginMetadata{Name: name, Version: plugin.Version()}
	for _, t := range templates {
		if err := catalog.Register(t); err != nil {
			return PluginMetadata{}, fmt.Errorf("plugin %s: %w", name, err)
		}
		meta.Templates = append(meta.Templates, t.Name)
	}
	if provider, ok := s.store.(interface{ RulesEngine() *RulesEngine }); ok {
		if engine := provider.RulesEngine(); engine != nil {
			for _, rule := range registry.Rules() {
				engine.Register(rule)
				meta.Rules = append(meta.Rules, rule.Name())
			}
		}
	}
	s.plugins[name] = meta
	s.opts.logger.Info("plugin installed", "plugin", name, "version", meta.Version, "templates", len(meta.Templates), "rules", len(meta.Rules))
	return meta, nil
}

// Plugins returns the installed plugins.
func (s *Service) Plugins() []PluginMetadata {
	s.pluginMu.Lock()
	defer s.pluginMu.Unlock()
	out := make([]PluginMetadata, 0, len(s.plugins))
	for _, meta := range s.plugins {
		out = append(out, meta)
	}
	return out
}
