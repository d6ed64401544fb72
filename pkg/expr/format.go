package expr

import (
	"strconv"
	"strings"
)

const (
	precSum = iota + 1
	precProduct
	precPower
	precAtom
)

func (n Node) precedence() int {
	switch n.kind {
	case KindSum, KindDifference:
		return precSum
	case KindProduct, KindDivide:
		return precProduct
	case KindPower:
		return precPower
	case KindConstant:
		if n.value < 0 {
			return precSum
		}
	}
	return precAtom
}

// String renders n in infix notation, e.g. "kcat_r1 * E * S / (kM_r1_S + S)".
func (n Node) String() string {
	var b strings.Builder
	n.format(&b)
	return b.String()
}

func (n Node) format(b *strings.Builder) {
	switch n.kind {
	case "":
		return
	case KindConstant:
		b.WriteString(strconv.FormatFloat(n.value, 'g', -1, 64))
	case KindReference:
		b.WriteString(n.name)
	case KindFunction:
		b.WriteString(n.name)
		b.WriteByte('(')
		for i, c := range n.children {
			if i > 0 {
				b.WriteString(", ")
			}
			c.format(b)
		}
		b.WriteByte(')')
	case KindSum:
		n.join(b, " + ", precSum)
	case KindProduct:
		n.join(b, " * ", precProduct)
	case KindDifference:
		n.children[0].formatAtLeast(b, precSum)
		b.WriteString(" - ")
		n.children[1].formatAtLeast(b, precProduct)
	case KindDivide:
		n.children[0].formatAtLeast(b, precProduct)
		b.WriteString(" / ")
		n.children[1].formatAtLeast(b, precPower)
	case KindPower:
		n.children[0].formatAtLeast(b, precAtom)
		b.WriteByte('^')
		n.children[1].formatAtLeast(b, precAtom)
	}
}

func (n Node) join(b *strings.Builder, sep string, prec int) {
	for i, c := range n.children {
		if i > 0 {
			b.WriteString(sep)
		}
		c.formatAtLeast(b, prec)
	}
}

func (n Node) formatAtLeast(b *strings.Builder, prec int) {
	if n.precedence() < prec {
		b.WriteByte('(')
		n.format(b)
		b.WriteByte(')')
		return
	}
	n.format(b)
}
