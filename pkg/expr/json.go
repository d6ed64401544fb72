package expr

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type wireNode struct {
	Type     Kind       `json:"type"`
	Value    *float64   `json:"value,omitempty"`
	Name     string     `json:"name,omitempty"`
	Children []wireNode `json:"children,omitempty"`
}

// MarshalJSON encodes the tree as nested {"type": ...} objects. The empty
// node encodes as null.
func (n Node) MarshalJSON() ([]byte, error) {
	if !n.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(n.toWire())
}

// UnmarshalJSON decodes a tree produced by MarshalJSON. The decoded shape is
// kept as-is; constructors are not re-applied.
func (n *Node) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = Node{}
		return nil
	}
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := fromWire(w)
	if err != nil {
		return err
	}
	*n = decoded
	return nil
}

func (n Node) toWire() wireNode {
	w := wireNode{Type: n.kind, Name: n.name}
	if n.kind == KindConstant {
		v := n.value
		w.Value = &v
	}
	if len(n.children) > 0 {
		w.Children = make([]wireNode, len(n.children))
		for i, c := range n.children {
			w.Children[i] = c.toWire()
		}
	}
	return w
}

func fromWire(w wireNode) (Node, error) {
	n := Node{kind: w.Type, name: w.Name}
	switch w.Type {
	case KindConstant:
		if w.Value == nil {
			return Node{}, fmt.Errorf("constant: missing value")
		}
		n.value = *w.Value
		n.name = ""
		return n, nil
	case KindReference:
		if w.Name == "" {
			return Node{}, fmt.Errorf("reference: missing name")
		}
		return n, nil
	case KindSum, KindProduct:
		if len(w.Children) == 0 {
			return Node{}, fmt.Errorf("%s: needs at least one child", w.Type)
		}
	case KindDifference, KindDivide, KindPower:
		if len(w.Children) != 2 {
			return Node{}, fmt.Errorf("%s: needs exactly two children, got %d", w.Type, len(w.Children))
		}
	case KindFunction:
		if w.Name == "" {
			return Node{}, fmt.Errorf("function: missing name")
		}
	case "":
		return Node{}, fmt.Errorf("missing 'type' field")
	default:
		return Node{}, fmt.Errorf("unknown node type %q", w.Type)
	}
	if w.Type != KindFunction {
		n.name = ""
	}
	n.children = make([]Node, len(w.Children))
	for i, c := range w.Children {
		child, err := fromWire(c)
		if err != nil {
			return Node{}, fmt.Errorf("%s[%d]: %w", w.Type, i, err)
		}
		n.children[i] = child
	}
	return n, nil
}
