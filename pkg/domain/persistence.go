package domain

import "context"

// Transaction exposes the model operations a persistence implementation must
// support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	FindModel(id string) (Model, bool)
	CreateModel(Model) (Model, error)
	UpdateModel(id string, mutator func(*Model) error) (Model, error)
	DeleteModel(id string) error
	// Record appends change records for rule evaluation, for mutations that
	// need finer granularity than the model level.
	Record(changes ...Change)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListModels() []Model
	FindModel(id string) (Model, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetModel(id string) (Model, bool)
	ListModels() []Model
}
