// Package memory provides an in-memory implementation of the model store used
// for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"kineticcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Model aliases domain.Model for in-memory persistence operations.
	Model = domain.Model
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	models map[string]Model
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Models map[string]Model `json:"models"`
}

func newMemoryState() memoryState {
	return memoryState{models: make(map[string]Model)}
}

func (s memoryState) clone() memoryState {
	out := memoryState{models: make(map[string]Model, len(s.models))}
	for k, v := range s.models {
		out.models[k] = v.Clone()
	}
	return out
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	return Snapshot{Models: state.clone().models}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Models {
		if v.ID == "" {
			v.ID = k
		}
		state.models[v.ID] = v.Clone()
	}
	return state
}

// Store provides an in-memory transactional store for reaction-network models.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine for integration points like plugins.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the clock used to stamp model updates.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

type transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListModels returns all models within the snapshot ordered by id.
func (v transactionView) ListModels() []Model {
	return sortedModels(v.state.models)
}

// FindModel retrieves a model by id from the snapshot.
func (v transactionView) FindModel(id string) (Model, bool) {
	m, ok := v.state.models[id]
	if !ok {
		return Model{}, false
	}
	return m.Clone(), true
}

// CommitFunc makes the state a transaction is about to install durable. It
// runs under the store lock; an error leaves the previous state in place.
type CommitFunc func(ctx context.Context, next Snapshot) error

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	return s.RunInTransactionWith(ctx, fn, nil)
}

// RunInTransactionWith is RunInTransaction with commit called after rules
// pass and before the new state replaces the current one. Errors from commit
// are returned as domain.PersistenceError together with the rule result.
func (s *Store) RunInTransactionWith(ctx context.Context, fn func(tx Transaction) error, commit CommitFunc) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if commit != nil {
		if err := commit(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			return result, domain.PersistenceError{Err: err}
		}
	}
	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newTransactionView(&snapshot))
}

func (tx *transaction) Record(changes ...Change) {
	tx.changes = append(tx.changes, changes...)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindModel exposes model lookup within the transaction scope.
func (tx *transaction) FindModel(id string) (Model, bool) {
	m, ok := tx.state.models[id]
	if !ok {
		return Model{}, false
	}
	return m.Clone(), true
}

// CreateModel stores a new model within the transaction.
func (tx *transaction) CreateModel(m Model) (Model, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if _, exists := tx.state.models[m.ID]; exists {
		return Model{}, fmt.Errorf("model %q already exists", m.ID)
	}
	m.UpdatedAt = tx.now
	tx.state.models[m.ID] = m.Clone()
	tx.Record(Change{Entity: domain.EntityModel, Action: domain.ActionCreate, ModelID: m.ID, EntityID: m.ID})
	return m.Clone(), nil
}

// UpdateModel mutates a model using the provided mutator function.
func (tx *transaction) UpdateModel(id string, mutator func(*Model) error) (Model, error) {
	current, ok := tx.state.models[id]
	if !ok {
		return Model{}, domain.ErrNotFound{Entity: domain.EntityModel, ID: id}
	}
	current = current.Clone()
	if err := mutator(&current); err != nil {
		return Model{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.models[id] = current.Clone()
	tx.Record(Change{Entity: domain.EntityModel, Action: domain.ActionUpdate, ModelID: id, EntityID: id})
	return current, nil
}

// DeleteModel removes a model from the transaction state.
func (tx *transaction) DeleteModel(id string) error {
	if _, ok := tx.state.models[id]; !ok {
		return domain.ErrNotFound{Entity: domain.EntityModel, ID: id}
	}
	delete(tx.state.models, id)
	tx.Record(Change{Entity: domain.EntityModel, Action: domain.ActionDelete, ModelID: id, EntityID: id})
	return nil
}

// GetModel retrieves a model by id from committed state.
func (s *Store) GetModel(id string) (Model, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.models[id]
	if !ok {
		return Model{}, false
	}
	return m.Clone(), true
}

// ListModels returns all models from committed state ordered by id.
func (s *Store) ListModels() []Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedModels(s.state.models)
}

func sortedModels(models map[string]Model) []Model {
	out := make([]Model, 0, len(models))
	for _, m := range models {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
