package pattern

import (
	"fmt"
	"strings"
)

// Node is the tree vocabulary a Factory builds patterns over. N is the host's
// own node type, so "is this value a node" is a plain type assertion.
type Node[N any] interface {
	// Kind returns the node's type tag.
	Kind() string
	// Text returns the source text the node spans.
	Text() string
	// Property returns the child stored under a named field, a slice of
	// children for repeated fields, or nil when the field is absent.
	Property(name string) any
	// Fields lists the field names present on the node in source order.
	Fields() []string
	Parent() (N, bool)
	Children() []N
}

// Factory constructs patterns bound to one node vocabulary.
type Factory[N Node[N]] struct {
	identifierKind string
}

// FactoryOption configures a Factory.
type FactoryOption func(*factoryOptions)

type factoryOptions struct {
	identifierKind string
}

// WithIdentifierKind sets the node kind Identifier matches. Defaults to
// "identifier".
func WithIdentifierKind(kind string) FactoryOption {
	return func(o *factoryOptions) {
		o.identifierKind = kind
	}
}

// NewFactory creates a factory for node type N.
func NewFactory[N Node[N]](opts ...FactoryOption) *Factory[N] {
	o := factoryOptions{identifierKind: "identifier"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Factory[N]{identifierKind: o.identifierKind}
}

func (f *Factory[N]) asNode(v any) (N, bool) {
	n, ok := v.(N)
	return n, ok
}

// Node matches nodes of the given kind whose named properties all match
// their patterns. Properties not mentioned are ignored.
func (f *Factory[N]) Node(kind string, props Props) Pattern {
	return Pattern{v: shapeVariant{
		kind:  kind,
		props: sortedProps(props),
		node: func(v any) (shape, bool) {
			n, ok := f.asNode(v)
			if !ok {
				return nil, false
			}
			return n, true
		},
	}}
}

// Identifier matches identifier nodes. When text is given the identifier
// must read exactly that.
func (f *Factory[N]) Identifier(text ...string) Pattern {
	return Predicate(func(v any) bool {
		n, ok := f.asNode(v)
		if !ok || n.Kind() != f.identifierKind {
			return false
		}
		if len(text) == 0 {
			return true
		}
		return n.Text() == text[0]
	})
}

// Parent matches a node whose direct parent matches p. The result is p's
// match on the parent.
func (f *Factory[N]) Parent(p Pattern) Pattern {
	return FromFunc(func(v any) (*Match, bool) {
		n, ok := f.asNode(v)
		if !ok {
			return nil, false
		}
		parent, ok := n.Parent()
		if !ok {
			return nil, false
		}
		return p.Match(parent)
	})
}

// Any matches every value.
func (f *Factory[N]) Any() Pattern {
	return Predicate(func(any) bool { return true })
}

// Test matches nodes accepted by fn.
func (f *Factory[N]) Test(fn func(n N) bool) Pattern {
	return Predicate(func(v any) bool {
		n, ok := f.asNode(v)
		return ok && fn(n)
	})
}

// ListOption configures a list pattern.
type ListOption func(*listVariant)

// WithRest lets the list be longer than its item patterns; the trailing
// slice is matched against rest as a whole.
func WithRest(rest Pattern) ListOption {
	return func(lv *listVariant) {
		lv.rest = &rest
	}
}

// List matches a []N whose elements match items positionally. Without
// WithRest the lengths must be equal. A repeated field holds a single N when
// it occurs once and nil when it is absent, so a lone N counts as a
// one-element list and nil as an empty one.
func (f *Factory[N]) List(items []Pattern, opts ...ListOption) Pattern {
	lv := listVariant{
		items: append([]Pattern(nil), items...),
		seq: func(v any) (int, func(int) any, func(int) any, bool) {
			var nodes []N
			switch x := v.(type) {
			case []N:
				nodes = x
			case N:
				nodes = []N{x}
			case nil:
			default:
				return 0, nil, nil, false
			}
			item := func(i int) any { return nodes[i] }
			tail := func(from int) any { return nodes[from:] }
			return len(nodes), item, tail, true
		},
	}
	for _, opt := range opts {
		opt(&lv)
	}
	return Pattern{v: lv}
}

// FindAllMatches walks the tree below root depth-first and tests p at every
// node. A match stops the descent into that node, so matches never nest.
func (f *Factory[N]) FindAllMatches(p Pattern, root N) []*Match {
	var result []*Match
	var traverse func(n N)
	traverse = func(n N) {
		if m, ok := p.Match(n); ok {
			result = append(result, m)
			return
		}
		for _, child := range n.Children() {
			traverse(child)
		}
	}
	traverse(root)
	return result
}

// GenCode renders Go source for a factory expression that matches n. The
// factory is assumed to be in scope as f.
func (f *Factory[N]) GenCode(n N) string {
	if n.Kind() == f.identifierKind {
		return fmt.Sprintf("f.Identifier(%q)", n.Text())
	}

	if fields := n.Fields(); len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for _, name := range fields {
			switch child := n.Property(name).(type) {
			case N:
				parts = append(parts, fmt.Sprintf("%q: %s", name, f.GenCode(child)))
			case []N:
				parts = append(parts, fmt.Sprintf("%q: %s", name, f.genList(child)))
			}
		}
		return fmt.Sprintf("f.Node(%q, pattern.Props{%s})", n.Kind(), strings.Join(parts, ", "))
	}

	children := n.Children()
	if len(children) == 0 {
		return fmt.Sprintf("f.Node(%q, nil)", n.Kind())
	}
	return fmt.Sprintf("f.Node(%q, pattern.Props{\"children\": %s})", n.Kind(), f.genList(children))
}

func (f *Factory[N]) genList(nodes []N) string {
	parts := make([]string, len(nodes))
	for i, c := range nodes {
		parts[i] = f.GenCode(c)
	}
	return fmt.Sprintf("f.List([]pattern.Pattern{%s})", strings.Join(parts, ", "))
}
