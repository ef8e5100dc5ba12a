// Package pattern implements a small combinator algebra for matching values
// and syntax tree nodes, with named captures that aggregate across the whole
// composite pattern.
package pattern

import "sort"

// Pattern tests a value and either fails or produces a Match. Patterns are
// immutable; combinators wrap them instead of changing them.
type Pattern struct {
	v variant
}

// variant is the closed set of pattern kinds.
type variant interface {
	isVariant()
}

type predicateVariant struct {
	test func(v any) bool
}

type shapeVariant struct {
	kind  string
	props []prop
	node  func(v any) (shape, bool)
}

type prop struct {
	name    string
	pattern Pattern
}

// shape is the node view a shape pattern inspects.
type shape interface {
	Kind() string
	Property(name string) any
}

type listVariant struct {
	items []Pattern
	rest  *Pattern
	seq   func(v any) (int, func(i int) any, func(from int) any, bool)
}

type orVariant struct {
	left, right Pattern
}

type andVariant struct {
	left, right Pattern
}

type namedVariant struct {
	inner Pattern
	name  string
}

type fnVariant struct {
	fn func(v any) (*Match, bool)
}

func (predicateVariant) isVariant() {}
func (shapeVariant) isVariant()     {}
func (listVariant) isVariant()      {}
func (orVariant) isVariant()        {}
func (andVariant) isVariant()       {}
func (namedVariant) isVariant()     {}
func (fnVariant) isVariant()        {}

// Predicate builds a pattern from a boolean test. The matched value is the
// input itself.
func Predicate(test func(v any) bool) Pattern {
	return Pattern{v: predicateVariant{test: test}}
}

// FromFunc builds a pattern from a function that produces the match itself.
func FromFunc(fn func(v any) (*Match, bool)) Pattern {
	return Pattern{v: fnVariant{fn: fn}}
}

// OfType matches values whose dynamic type is T.
func OfType[T any]() Pattern {
	return Predicate(func(v any) bool {
		_, ok := v.(T)
		return ok
	})
}

// Match tests v against the pattern.
func (p Pattern) Match(v any) (*Match, bool) {
	switch pv := p.v.(type) {
	case predicateVariant:
		if !pv.test(v) {
			return nil, false
		}
		return newBuilder(v).freeze(), true

	case shapeVariant:
		n, ok := pv.node(v)
		if !ok || n.Kind() != pv.kind {
			return nil, false
		}
		b := newBuilder(v)
		for _, pr := range pv.props {
			m, ok := pr.pattern.Match(n.Property(pr.name))
			if !ok {
				return nil, false
			}
			b.addSub(m)
		}
		return b.freeze(), true

	case listVariant:
		return pv.match(v)

	case orVariant:
		if m, ok := pv.left.Match(v); ok {
			return m, true
		}
		return pv.right.Match(v)

	case andVariant:
		m, ok := pv.left.Match(v)
		if !ok {
			return nil, false
		}
		m2, ok := pv.right.Match(m.value)
		if !ok {
			return nil, false
		}
		b := newBuilder(m2.value)
		b.addSub(m)
		b.addSub(m2)
		return b.freeze(), true

	case namedVariant:
		m, ok := pv.inner.Match(v)
		if !ok {
			return nil, false
		}
		b := newBuilder(m.value)
		b.addVar(pv.name, v)
		b.addSub(m)
		return b.freeze(), true

	case fnVariant:
		return pv.fn(v)
	}
	return nil, false
}

func (lv listVariant) match(v any) (*Match, bool) {
	n, item, tail, ok := lv.seq(v)
	if !ok {
		return nil, false
	}
	if lv.rest != nil {
		if n < len(lv.items) {
			return nil, false
		}
	} else if n != len(lv.items) {
		return nil, false
	}

	b := newBuilder(v)
	for i, p := range lv.items {
		m, ok := p.Match(item(i))
		if !ok {
			return nil, false
		}
		b.addSub(m)
	}
	if lv.rest != nil {
		m, ok := lv.rest.Match(tail(len(lv.items)))
		if !ok {
			return nil, false
		}
		b.addSub(m)
	}
	return b.freeze(), true
}

// Or tries p first and falls back to other. Only the winning side's captures
// are present in the result.
func (p Pattern) Or(other Pattern) Pattern {
	return Pattern{v: orVariant{left: p, right: other}}
}

// And requires p to match and then matches other against p's matched value.
// The result carries other's matched value and the captures of both sides.
func (p Pattern) And(other Pattern) Pattern {
	return Pattern{v: andVariant{left: p, right: other}}
}

// Named records the input value under name whenever p matches.
func (p Pattern) Named(name string) Pattern {
	return Pattern{v: namedVariant{inner: p, name: name}}
}

// Typed is a pattern whose matched value is asserted to be a T.
type Typed[T any] struct {
	Pattern
}

// MustBe narrows the output type of p to T. Nothing is checked when the
// pattern is built; Match panics if a matched value is not a T.
func MustBe[T any](p Pattern) Typed[T] {
	return Typed[T]{Pattern: p}
}

// MatchTyped tests v and returns the matched value as T.
func (t Typed[T]) MatchTyped(v any) (T, *Match, bool) {
	var zero T
	m, ok := t.Pattern.Match(v)
	if !ok {
		return zero, nil, false
	}
	return m.value.(T), m, true
}

// Props declares the property patterns of a node-shape pattern.
type Props map[string]Pattern

func sortedProps(props Props) []prop {
	out := make([]prop, 0, len(props))
	for name, p := range props {
		out = append(out, prop{name: name, pattern: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
