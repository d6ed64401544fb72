package expr

// Constant returns a numeric leaf.
func Constant(v float64) Node { return Node{kind: KindConstant, value: v} }

// Reference returns a leaf naming a model entity.
func Reference(id string) Node { return Node{kind: KindReference, name: id} }

// References returns one reference leaf per identifier.
func References(ids ...string) []Node {
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, Reference(id))
	}
	return out
}

// Sum adds the children. Nested sums are flattened; an empty sum is 0 and a
// single child is returned unchanged.
func Sum(children ...Node) Node {
	flat := flatten(KindSum, children)
	switch len(flat) {
	case 0:
		return Constant(0)
	case 1:
		return flat[0]
	}
	return Node{kind: KindSum, children: flat}
}

// Product multiplies the children. Nested products are flattened and factors
// equal to 1 are dropped; an empty product is 1 and a single factor is
// returned unchanged.
func Product(children ...Node) Node {
	flat := flatten(KindProduct, children)
	kept := flat[:0]
	for _, c := range flat {
		if c.IsConstant(1) {
			continue
		}
		kept = append(kept, c)
	}
	switch len(kept) {
	case 0:
		return Constant(1)
	case 1:
		return kept[0]
	}
	return Node{kind: KindProduct, children: kept}
}

// Difference subtracts b from a. An empty b yields a.
func Difference(a, b Node) Node {
	if !b.Valid() {
		return a
	}
	if !a.Valid() {
		a = Constant(0)
	}
	return Node{kind: KindDifference, children: []Node{a, b}}
}

// Divide returns numerator/denominator, or the numerator alone when the
// denominator is the constant 1 or empty.
func Divide(numerator, denominator Node) Node {
	if !denominator.Valid() || denominator.IsConstant(1) {
		return numerator
	}
	return Node{kind: KindDivide, children: []Node{numerator, denominator}}
}

// Power raises base to exponent; an exponent of 1 returns the base.
func Power(base, exponent Node) Node {
	if !exponent.Valid() || exponent.IsConstant(1) {
		return base
	}
	return Node{kind: KindPower, children: []Node{base, exponent}}
}

// Function applies a named function to the arguments.
func Function(name string, args ...Node) Node {
	return Node{kind: KindFunction, name: name, children: flatten("", args)}
}

// Sqrt is shorthand for the built-in square root.
func Sqrt(x Node) Node { return Function(FuncSqrt, x) }

// flatten copies valid children, splicing grandchildren of nodes whose kind
// matches into the result.
func flatten(kind Kind, children []Node) []Node {
	out := make([]Node, 0, len(children))
	for _, c := range children {
		if !c.Valid() {
			continue
		}
		if kind != "" && c.kind == kind {
			out = append(out, c.children...)
			continue
		}
		out = append(out, c)
	}
	return out
}
