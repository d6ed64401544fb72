package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"kineticcore/pkg/domain"
)

func TestStoreRunInTransactionAndSnapshots(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindModel("missing"); ok {
			t.Fatalf("expected missing model lookup")
		}
		created, err := tx.CreateModel(domain.Model{Name: "glycolysis"})
		if err != nil {
			return err
		}
		if created.ID == "" {
			t.Fatalf("expected generated ID")
		}
		if len(tx.Snapshot().ListModels()) != 1 {
			t.Fatalf("snapshot mismatch")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run transaction: %v", err)
	}
	if len(store.ListModels()) != 1 {
		t.Fatalf("expected persisted model")
	}
	snapshot := store.ExportState()
	store.ImportState(Snapshot{})
	if len(store.ListModels()) != 0 {
		t.Fatalf("expected cleared state")
	}
	store.ImportState(snapshot)
	if len(store.ListModels()) != 1 {
		t.Fatalf("expected restored state")
	}
	if store.RulesEngine() == nil {
		t.Fatalf("expected rules engine")
	}
	if store.NowFunc() == nil {
		t.Fatalf("expected now func")
	}
}

func TestStoreRuleViolationRollsBack(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	store.RulesEngine().Register(blockingRule{})
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateModel(domain.Model{ID: "m1"})
		return e
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if _, ok := store.GetModel("m1"); ok {
		t.Fatalf("blocked transaction must not persist")
	}
}

type blockingRule struct{}

func (blockingRule) Name() string { return "block" }

func (blockingRule) Evaluate(context.Context, domain.RuleView, []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{Rule: "block", Severity: domain.SeverityBlock}}}, nil
}

type recordingRule struct {
	changes []domain.Change
}

func (r *recordingRule) Name() string { return "record" }

func (r *recordingRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	r.changes = append(r.changes, changes...)
	return domain.Result{}, nil
}

func TestStoreUpdateAndDelete(t *testing.T) {
	engine := domain.NewRulesEngine()
	rec := &recordingRule{}
	engine.Register(rec)
	store := NewStore(engine)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.SetNowFunc(func() time.Time { return fixed })
	ctx := context.Background()

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateModel(domain.Model{ID: "m1", Species: []domain.Species{{ID: "S1", Compartment: "c"}}})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateModel(domain.Model{ID: "m1"})
		return err
	}); err == nil {
		t.Fatalf("expected duplicate model error")
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateModel("m1", func(m *domain.Model) error {
			m.Name = "renamed"
			m.ID = "ignored"
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, ok := store.GetModel("m1")
	if !ok || got.Name != "renamed" || !got.UpdatedAt.Equal(fixed) {
		t.Fatalf("unexpected model after update: %+v", got)
	}

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateModel("missing", func(*domain.Model) error { return nil })
		return err
	})
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) || nf.ID != "missing" {
		t.Fatalf("expected not found error, got %v", err)
	}

	sentinel := errors.New("mutator failed")
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateModel("m1", func(m *domain.Model) error {
			m.Name = "dirty"
			return sentinel
		})
		return err
	}); !errors.Is(err, sentinel) {
		t.Fatalf("expected mutator error, got %v", err)
	}
	if got, _ := store.GetModel("m1"); got.Name != "renamed" {
		t.Fatalf("failed transaction leaked state: %q", got.Name)
	}

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteModel("m1")
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteModel("m1")
	}); err == nil {
		t.Fatalf("expected delete of missing model to fail")
	}

	var actions []domain.Action
	for _, c := range rec.changes {
		actions = append(actions, c.Action)
	}
	want := []domain.Action{domain.ActionCreate, domain.ActionUpdate, domain.ActionDelete}
	if len(actions) != len(want) {
		t.Fatalf("expected changes %v, got %v", want, actions)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("expected changes %v, got %v", want, actions)
		}
	}
}

func TestStoreReturnsClones(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateModel(domain.Model{ID: "m1", Species: []domain.Species{{ID: "S1"}}})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, _ := store.GetModel("m1")
	got.Species[0].ID = "mutated"
	again, _ := store.GetModel("m1")
	if again.Species[0].ID != "S1" {
		t.Fatalf("store leaked internal state")
	}
	if err := store.View(ctx, func(view domain.TransactionView) error {
		m, ok := view.FindModel("m1")
		if !ok {
			t.Fatalf("expected model in view")
		}
		m.Species[0].ID = "view-mutation"
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if again, _ := store.GetModel("m1"); again.Species[0].ID != "S1" {
		t.Fatalf("view leaked internal state")
	}
}

func TestImportStateKeysModelsByID(t *testing.T) {
	store := NewStore(nil)
	store.ImportState(Snapshot{Models: map[string]domain.Model{
		"b": {ID: "b"},
		"a": {},
	}})
	models := store.ListModels()
	if len(models) != 2 || models[0].ID != "a" || models[1].ID != "b" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestRunInTransactionWithFailedCommitKeepsState(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	create := func(tx domain.Transaction) error {
		_, err := tx.CreateModel(domain.Model{ID: "m1"})
		return err
	}
	var seen Snapshot
	disk := errors.New("disk full")
	_, err := store.RunInTransactionWith(ctx, create, func(_ context.Context, next Snapshot) error {
		seen = next
		return disk
	})
	if !errors.Is(err, disk) || !domain.IsPersistence(err) {
		t.Fatalf("expected wrapped persistence error, got %v", err)
	}
	if _, ok := seen.Models["m1"]; !ok {
		t.Fatalf("commit did not receive the pending state")
	}
	if _, ok := store.GetModel("m1"); ok {
		t.Fatalf("failed commit installed the model")
	}

	if _, err := store.RunInTransactionWith(ctx, create, func(context.Context, Snapshot) error { return nil }); err != nil {
		t.Fatalf("run transaction: %v", err)
	}
	if _, ok := store.GetModel("m1"); !ok {
		t.Fatalf("expected model after successful commit")
	}
}
