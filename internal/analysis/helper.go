package analysis

import (
	"fmt"

	"i18n-analyzer/internal/parser"
)

func fmtNotRewritable(field string) error {
	return fmt.Errorf("%w: original %s is not a static string", ErrNotRewritable, field)
}

// parseString resolves a string literal expression.
func parseString(n *parser.Node) literal {
	if n == nil || n.Kind() != kindString {
		return literal{state: fieldInvalid}
	}
	v, err := parser.UnquoteString(n.Text())
	if err != nil {
		return literal{state: fieldInvalid}
	}
	return literal{state: fieldValid, value: v, node: n}
}

// parseJSXInitializer resolves an attribute value that is either a string or
// an expression container holding a single string literal. The recorded
// node is the whole value so a rewrite replaces the container too.
func parseJSXInitializer(value *parser.Node) literal {
	if value == nil {
		return literal{state: fieldInvalid}
	}
	switch value.Kind() {
	case kindString:
		v, err := parser.UnquoteJSXString(value.Text())
		if err != nil {
			return literal{state: fieldInvalid}
		}
		return literal{state: fieldValid, value: v, node: value}
	case kindJSXExpression:
		inner := value.Children()
		if len(inner) != 1 {
			return literal{state: fieldInvalid}
		}
		l := parseString(inner[0])
		if l.state == fieldValid {
			l.node = value
		}
		return l
	}
	return literal{state: fieldInvalid}
}

// objectEntry is one key of an object literal.
type objectEntry struct {
	key   string
	value *parser.Node
}

// parseObjectLiteral reads an object literal whose keys are all plain
// identifiers. A later duplicate key overrides the earlier value but keeps
// its position. ok is false for anything else, including spreads, methods,
// and computed or quoted keys.
func parseObjectLiteral(n *parser.Node) (entries []objectEntry, duplicates bool, ok bool) {
	if n == nil || n.Kind() != kindObject {
		return nil, false, false
	}
	index := make(map[string]int)
	add := func(key string, value *parser.Node) {
		if i, seen := index[key]; seen {
			duplicates = true
			entries[i].value = value
			return
		}
		index[key] = len(entries)
		entries = append(entries, objectEntry{key: key, value: value})
	}

	for _, p := range n.Children() {
		switch p.Kind() {
		case kindPair:
			key := p.Field("key")
			if key == nil || key.Kind() != kindPropertyIdent {
				return nil, false, false
			}
			add(key.Text(), p.Field("value"))
		case kindShorthandProperty:
			add(p.Text(), p)
		default:
			return nil, false, false
		}
	}
	return entries, duplicates, true
}
