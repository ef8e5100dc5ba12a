package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// ChildrenProperty is the pseudo field that yields a node's named children.
const ChildrenProperty = "children"

// Node is a syntax tree node bound to the file it came from. Nodes are
// lightweight views; two views of the same tree node compare equal with Same.
type Node struct {
	n  *sitter.Node
	sf *SourceFile
}

func wrap(n *sitter.Node, sf *SourceFile) *Node {
	if n == nil || n.IsNull() {
		return nil
	}
	return &Node{n: n, sf: sf}
}

// Kind returns the grammar node type, e.g. call_expression.
func (n *Node) Kind() string { return n.n.Type() }

// Text returns the source text the node spans.
func (n *Node) Text() string { return n.n.Content(n.sf.Source) }

// Start returns the byte offset where the node begins.
func (n *Node) Start() int { return int(n.n.StartByte()) }

// End returns the byte offset just past the node.
func (n *Node) End() int { return int(n.n.EndByte()) }

// Line returns the 1-based line the node starts on.
func (n *Node) Line() int { return int(n.n.StartPoint().Row) + 1 }

// Column returns the 0-based byte column the node starts at.
func (n *Node) Column() int { return int(n.n.StartPoint().Column) }

// SourceFile returns the file the node belongs to.
func (n *Node) SourceFile() *SourceFile { return n.sf }

// IsNamed reports whether the node is a named grammar rule rather than an
// anonymous token.
func (n *Node) IsNamed() bool { return n.n.IsNamed() }

// Same reports whether both views refer to the same tree node.
func (n *Node) Same(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.sf == other.sf &&
		n.Kind() == other.Kind() &&
		n.Start() == other.Start() &&
		n.End() == other.End()
}

// Parent returns the enclosing node, or false at the root.
func (n *Node) Parent() (*Node, bool) {
	p := wrap(n.n.Parent(), n.sf)
	return p, p != nil
}

// Children returns the named children in source order, comments excluded.
func (n *Node) Children() []*Node {
	count := int(n.n.NamedChildCount())
	out := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		c := wrap(n.n.NamedChild(i), n.sf)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Field returns the first child stored under the given field name.
func (n *Node) Field(name string) *Node {
	return wrap(n.n.ChildByFieldName(name), n.sf)
}

// Property returns the child stored under field name. A field that occurs
// several times yields a []*Node; an absent field yields nil. The name
// "children" yields the named children.
func (n *Node) Property(name string) any {
	if name == ChildrenProperty {
		return n.Children()
	}
	var found []*Node
	n.eachField(func(field string, child *Node) {
		if field == name {
			found = append(found, child)
		}
	})
	switch len(found) {
	case 0:
		return nil
	case 1:
		return found[0]
	default:
		return found
	}
}

// Fields lists the distinct field names present on the node in source order.
func (n *Node) Fields() []string {
	var names []string
	seen := make(map[string]bool)
	n.eachField(func(field string, _ *Node) {
		if !seen[field] {
			seen[field] = true
			names = append(names, field)
		}
	})
	return names
}

func (n *Node) eachField(fn func(field string, child *Node)) {
	cursor := sitter.NewTreeCursor(n.n)
	defer cursor.Close()

	if !cursor.GoToFirstChild() {
		return
	}
	for {
		if field := cursor.CurrentFieldName(); field != "" {
			if child := wrap(cursor.CurrentNode(), n.sf); child != nil {
				fn(field, child)
			}
		}
		if !cursor.GoToNextSibling() {
			return
		}
	}
}

// NodeAt returns the smallest named node that contains offset, starting the
// search at root.
func NodeAt(root *Node, offset int) *Node {
	if offset < root.Start() || offset > root.End() {
		return nil
	}
	current := root
	for {
		var next *Node
		for _, c := range current.Children() {
			if c.Start() <= offset && offset < c.End() {
				next = c
				break
			}
		}
		if next == nil {
			return current
		}
		current = next
	}
}
