// Package expr builds the immutable expression trees used as kinetic-law math.
//
// Trees are assembled bottom-up through the constructor functions in this
// package. Constructors simplify degenerate shapes at construction time so
// templates can compose terms without special-casing arity.
package expr

import (
	"sort"
)

// Kind tags the variant held by a Node.
type Kind string

const (
	KindConstant   Kind = "constant"
	KindReference  Kind = "reference"
	KindSum        Kind = "sum"
	KindDifference Kind = "difference"
	KindProduct    Kind = "product"
	KindDivide     Kind = "divide"
	KindPower      Kind = "power"
	KindFunction   Kind = "function"
)

// Built-in function names understood without a model function definition.
const (
	FuncSqrt = "sqrt"
	FuncExp  = "exp"
	FuncLn   = "ln"
	FuncAbs  = "abs"
)

var builtins = map[string]struct{}{
	FuncSqrt: {},
	FuncExp:  {},
	FuncLn:   {},
	FuncAbs:  {},
}

// IsBuiltin reports whether name is a built-in function.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// Node is an immutable expression tree node. The zero value is the empty
// node; Valid reports false for it and constructors skip it.
type Node struct {
	kind     Kind
	value    float64
	name     string
	children []Node
}

// Kind returns the node variant.
func (n Node) Kind() Kind { return n.kind }

// Valid reports whether n holds an expression.
func (n Node) Valid() bool { return n.kind != "" }

// Value returns the number held by a constant node.
func (n Node) Value() float64 { return n.value }

// Name returns the identifier of a reference node or the callee of a function node.
func (n Node) Name() string { return n.name }

// Len returns the number of direct children.
func (n Node) Len() int { return len(n.children) }

// Child returns the i-th child.
func (n Node) Child(i int) Node { return n.children[i] }

// Children returns a copy of the direct children.
func (n Node) Children() []Node {
	out := make([]Node, len(n.children))
	copy(out, n.children)
	return out
}

// IsConstant reports whether n is the constant v.
func (n Node) IsConstant(v float64) bool {
	return n.kind == KindConstant && n.value == v
}

// Equal reports structural equality.
func (n Node) Equal(other Node) bool {
	if n.kind != other.kind || n.name != other.name || len(n.children) != len(other.children) {
		return false
	}
	if n.kind == KindConstant && n.value != other.value {
		return false
	}
	for i := range n.children {
		if !n.children[i].Equal(other.children[i]) {
			return false
		}
	}
	return true
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the visited node.
func (n Node) Walk(fn func(Node) bool) {
	if !n.Valid() {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// References returns the sorted, de-duplicated identifiers named by reference leaves.
func (n Node) References() []string {
	seen := make(map[string]struct{})
	n.Walk(func(x Node) bool {
		if x.kind == KindReference {
			seen[x.name] = struct{}{}
		}
		return true
	})
	return sortedKeys(seen)
}

// Functions returns the sorted, de-duplicated names of non built-in function calls.
func (n Node) Functions() []string {
	seen := make(map[string]struct{})
	n.Walk(func(x Node) bool {
		if x.kind == KindFunction && !IsBuiltin(x.name) {
			seen[x.name] = struct{}{}
		}
		return true
	})
	return sortedKeys(seen)
}

// Rename returns a copy of n where reference leaves and function callees
// found in mapping are replaced. The shape of the tree is preserved.
func (n Node) Rename(mapping map[string]string) Node {
	if !n.Valid() || len(mapping) == 0 {
		return n
	}
	out := Node{kind: n.kind, value: n.value, name: n.name}
	if n.kind == KindReference || n.kind == KindFunction {
		if to, ok := mapping[n.name]; ok {
			out.name = to
		}
	}
	if len(n.children) > 0 {
		out.children = make([]Node, len(n.children))
		for i, c := range n.children {
			out.children[i] = c.Rename(mapping)
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
