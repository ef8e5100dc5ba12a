package pattern

import (
	"errors"
	"fmt"
)

// ErrCaptureCount is returned when a capture expected exactly once was bound
// zero or several times.
var ErrCaptureCount = errors.New("capture count mismatch")

// binding is one value recorded by a named pattern.
type binding struct {
	name  string
	value any
}

// Match is the immutable result of a successful pattern test. It carries the
// matched value plus the bindings of every named pattern that took part in
// the match.
type Match struct {
	value any
	vars  []binding
	subs  []*Match
}

// Value returns the matched value.
func (m *Match) Value() any {
	return m.value
}

// Captures returns all bindings grouped by name. A match lists its own
// bindings first, then those of its sub-matches in the order they were added.
func (m *Match) Captures() map[string][]any {
	captures := make(map[string][]any)
	m.collect(captures)
	return captures
}

func (m *Match) collect(captures map[string][]any) {
	for _, v := range m.vars {
		captures[v.name] = append(captures[v.name], v.value)
	}
	for _, sub := range m.subs {
		sub.collect(captures)
	}
}

// Has reports whether name was bound at least once.
func (m *Match) Has(name string) bool {
	return len(m.All(name)) > 0
}

// All returns every value bound to name, in document order. It never fails.
func (m *Match) All(name string) []any {
	return m.Captures()[name]
}

// Single returns the only value bound to name.
func (m *Match) Single(name string) (any, error) {
	all := m.All(name)
	if len(all) != 1 {
		return nil, fmt.Errorf("%w: expected %q to match exactly once, but matched %d times", ErrCaptureCount, name, len(all))
	}
	return all[0], nil
}

// SingleAs returns the only value bound to name as T.
func SingleAs[T any](m *Match, name string) (T, error) {
	var zero T
	v, err := m.Single(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T", ErrCaptureCount, name, v)
	}
	return t, nil
}

// AllAs returns the values bound to name that are of type T.
func AllAs[T any](m *Match, name string) []T {
	var out []T
	for _, v := range m.All(name) {
		if t, ok := v.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// builder assembles a Match. It is never handed out; freeze produces the
// value callers see.
type builder struct {
	value any
	vars  []binding
	subs  []*Match
}

func newBuilder(value any) *builder {
	return &builder{value: value}
}

func (b *builder) addSub(m *Match) {
	b.subs = append(b.subs, m)
}

func (b *builder) addVar(name string, value any) {
	b.vars = append(b.vars, binding{name: name, value: value})
}

func (b *builder) freeze() *Match {
	return &Match{value: b.value, vars: b.vars, subs: b.subs}
}
