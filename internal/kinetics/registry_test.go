package kinetics

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"kineticcore/pkg/domain"
)

func TestReserveAppendsSuffixes(t *testing.T) {
	r := NewIdentifierRegistry("k", "k_2")
	for _, want := range []string{"k_1", "k_3", "k_4"} {
		got, err := r.Reserve("k")
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
	if got, _ := r.Reserve("fresh"); got != "fresh" {
		t.Fatalf("expected unsuffixed id, got %s", got)
	}
	if !r.Taken("fresh") || r.Claim("fresh") {
		t.Fatalf("fresh should be taken")
	}
	if !r.Claim("other") {
		t.Fatalf("expected claim to succeed")
	}
}

func TestReserveExhaustion(t *testing.T) {
	seed := []string{"k"}
	for i := 1; i < MaxSuffixAttempts; i++ {
		seed = append(seed, "k_"+strconv.Itoa(i))
	}
	r := NewIdentifierRegistry(seed...)
	_, err := r.Reserve("k")
	var exhausted domain.IdentifierExhaustionError
	if !errors.As(err, &exhausted) || exhausted.Base != "k" {
		t.Fatalf("expected exhaustion error, got %v", err)
	}
}

func TestReserveConcurrentUnique(t *testing.T) {
	r := NewIdentifierRegistry()
	const n = 64
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := r.Reserve("kcat")
			if err != nil {
				t.Errorf("reserve: %v", err)
				return
			}
			ids[i] = id
		}()
	}
	wg.Wait()
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestRegistryForModelsSkipsRegeneratedLocals(t *testing.T) {
	m := newTestModel([]domain.Reaction{
		{ID: "r1", Reactants: refs("S1"), KineticLaw: &domain.KineticLaw{LocalParameters: []domain.Parameter{{ID: "k1"}}}},
		{ID: "r2", Reactants: refs("S1"), KineticLaw: &domain.KineticLaw{LocalParameters: []domain.Parameter{{ID: "k2"}}}},
	})
	r := RegistryForModels(map[string]struct{}{"r1": {}}, &m)
	if r.Taken("k1") {
		t.Fatalf("locals of regenerated laws must be free")
	}
	for _, id := range []string{"k2", "r1", "S1", "cell"} {
		if !r.Taken(id) {
			t.Fatalf("expected %s taken", id)
		}
	}
}
