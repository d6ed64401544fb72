package expr

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestConstructorsSimplifyDegenerateShapes(t *testing.T) {
	s := Reference("S")
	cases := []struct {
		name string
		got  Node
		want Node
	}{
		{"sum of one child", Sum(s), s},
		{"empty sum", Sum(), Constant(0)},
		{"empty product", Product(), Constant(1)},
		{"product of one", Product(s), s},
		{"product drops ones", Product(Constant(1), s, Constant(1)), s},
		{"divide by one", Divide(s, Constant(1)), s},
		{"power of one", Power(s, Constant(1)), s},
		{"difference without subtrahend", Difference(s, Node{}), s},
		{"sum skips empty nodes", Sum(Node{}, s), s},
	}
	for _, tc := range cases {
		if !tc.got.Equal(tc.want) {
			t.Errorf("%s: got %s want %s", tc.name, tc.got, tc.want)
		}
	}
}

func TestConstructorsFlattenNestedSumsAndProducts(t *testing.T) {
	a, b, c := Reference("a"), Reference("b"), Reference("c")
	p := Product(a, Product(b, c))
	if p.Kind() != KindProduct || p.Len() != 3 {
		t.Fatalf("expected flat product of 3, got %s (%d children)", p, p.Len())
	}
	s := Sum(Sum(a, b), c)
	if s.Kind() != KindSum || s.Len() != 3 {
		t.Fatalf("expected flat sum of 3, got %s", s)
	}
}

func TestStringUsesMinimalParentheses(t *testing.T) {
	law := Divide(
		Product(Reference("kcat"), Reference("E"), Reference("S")),
		Sum(Reference("kM"), Reference("S")),
	)
	if got, want := law.String(), "kcat * E * S / (kM + S)"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	pow := Power(Sum(Reference("a"), Reference("b")), Constant(2))
	if got, want := pow.String(), "(a + b)^2"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	diff := Difference(Reference("a"), Sum(Reference("b"), Reference("c")))
	if got, want := diff.String(), "a - (b + c)"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	fn := Function("activation", Reference("A"), Reference("kA"))
	if got, want := fn.String(), "activation(A, kA)"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestReferencesAndFunctions(t *testing.T) {
	law := Product(
		Reference("k"),
		Function("activation", Reference("A"), Reference("kA")),
		Sqrt(Reference("k")),
	)
	if got, want := law.References(), []string{"A", "k", "kA"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("references: got %v want %v", got, want)
	}
	if got, want := law.Functions(), []string{"activation"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("functions: got %v want %v", got, want)
	}
}

func TestRenameRewritesLeavesAndCallees(t *testing.T) {
	law := Product(Reference("k"), Function("f", Reference("S")))
	renamed := law.Rename(map[string]string{"k": "k_1", "f": "f_2"})
	want := Product(Reference("k_1"), Function("f_2", Reference("S")))
	if !renamed.Equal(want) {
		t.Fatalf("got %s want %s", renamed, want)
	}
	if !law.Equal(Product(Reference("k"), Function("f", Reference("S")))) {
		t.Fatalf("rename mutated the source tree: %s", law)
	}
}

func TestChildrenReturnsCopy(t *testing.T) {
	law := Sum(Reference("a"), Reference("b"))
	kids := law.Children()
	kids[0] = Reference("z")
	if law.Child(0).Name() != "a" {
		t.Fatalf("expected node to stay immutable, got %s", law)
	}
}

func TestJSONPreservesTree(t *testing.T) {
	law := Difference(
		Divide(Product(Reference("kcatp"), Reference("S")), Sum(Constant(1), Reference("S"))),
		Power(Reference("P"), Constant(2.5)),
	)
	data, err := json.Marshal(law)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Node
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Equal(law) {
		t.Fatalf("decoded %s, want %s", decoded, law)
	}
}

func TestJSONRejectsMalformedTrees(t *testing.T) {
	bad := []string{
		`{"type":"divide","children":[{"type":"reference","name":"a"}]}`,
		`{"type":"reference"}`,
		`{"type":"constant"}`,
		`{"type":"matrix"}`,
		`{}`,
	}
	for _, raw := range bad {
		var n Node
		if err := json.Unmarshal([]byte(raw), &n); err == nil {
			t.Errorf("expected error decoding %s", raw)
		}
	}
	var empty Node
	if err := json.Unmarshal([]byte("null"), &empty); err != nil || empty.Valid() {
		t.Fatalf("null should decode to the empty node, err=%v", err)
	}
}
