package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"kineticcore/pkg/domain"
	"kineticcore/pkg/expr"
)

func create(id string) func(domain.Transaction) error {
	return func(tx domain.Transaction) error {
		_, err := tx.CreateModel(domain.Model{ID: id, Species: []domain.Species{{ID: "S1", Compartment: "c"}}})
		return err
	}
}

func countModels(t *testing.T, s *Store) int {
	t.Helper()
	var count int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM models`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	law := &domain.KineticLaw{
		Math:            expr.Product(expr.Reference("kass_r1"), expr.Reference("S1")),
		LocalParameters: []domain.Parameter{{ID: "kass_r1", Units: "per_second", Constant: true}},
		Template:        "generalized-mass-action",
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateModel(domain.Model{
			ID:        "m1",
			Species:   []domain.Species{{ID: "S1", Compartment: "c"}},
			Reactions: []domain.Reaction{{ID: "r1", Reactants: []domain.SpeciesReference{{Species: "S1", Stoichiometry: 1}}, KineticLaw: law}},
		})
		return e
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if store.Path() != path {
		t.Fatalf("unexpected path %s", store.Path())
	}
	_ = store.DB().Close()

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.DB().Close() })
	m, ok := reloaded.GetModel("m1")
	if !ok {
		t.Fatalf("expected model after reload")
	}
	got := m.Reactions[0].KineticLaw
	if got == nil || !got.Math.Equal(law.Math) || got.LocalParameters[0].Units != "per_second" {
		t.Fatalf("kinetic law not preserved: %+v", got)
	}
}

func TestSQLiteStoreWritesOneRowPerModel(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.DB().Close() })
	ctx := context.Background()
	for _, id := range []string{"m1", "m2"} {
		if _, err := store.RunInTransaction(ctx, create(id)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if n := countModels(t, store); n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error { return tx.DeleteModel("m1") }); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var id string
	if err := store.DB().QueryRow(`SELECT id FROM models`).Scan(&id); err != nil || id != "m2" {
		t.Fatalf("expected only m2 to remain, got %q %v", id, err)
	}
}

func TestSQLiteStoreRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.DB().Exec(`INSERT INTO models(id,document) VALUES(?,?)`, "m1", []byte("{")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_ = store.DB().Close()
	if _, err := NewStore(path, nil); err == nil || !strings.Contains(err.Error(), "decode model m1") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestSQLiteStoreSkipsPersistOnError(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.DB().Close() })
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteModel("missing")
	}); err == nil {
		t.Fatalf("expected delete error")
	}
	if n := countModels(t, store); n != 0 {
		t.Fatalf("expected no rows after failed transaction, got %d", n)
	}
}
