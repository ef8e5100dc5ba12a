package analysis

import (
	"strings"

	"i18n-analyzer/internal/parser"
)

// Messages reported for <TransMsg /> elements.
const (
	MsgInvalidProperty = "Invalid property."
	MsgNoDefaultText   = "No default text specified."
	MsgNoID            = "No id specified."
)

// processJSXElement reads <TransMsg default="..." id="..." description="..." data={...} />.
func (a *StaticAnalysis) processJSXElement(elem *parser.Node) *TranslatableSrcElement {
	var id, description, defaultText literal
	var errs []SrcError

	attrs := jsxAttributes(elem)

	for _, attr := range attrs {
		name, value, ok := splitJSXAttribute(attr)
		if !ok {
			errs = append(errs, SrcError{Node: attr, Message: MsgInvalidProperty})
			continue
		}

		switch name {
		case "default":
			defaultText = parseJSXInitializer(value)
			if defaultText.state == fieldInvalid {
				errs = append(errs, SrcError{Node: attr, Message: MsgInvalidDefaultText})
			}
		case "id":
			id = parseJSXInitializer(value)
			if id.state == fieldInvalid {
				errs = append(errs, SrcError{Node: attr, Message: MsgInvalidID})
			}
		case "description":
			description = parseJSXInitializer(value)
			if description.state == fieldInvalid {
				errs = append(errs, SrcError{Node: attr, Message: MsgInvalidDescription})
			}
		case "data":
		default:
			errs = append(errs, SrcError{Node: attr, Message: MsgInvalidProperty})
		}
	}

	if defaultText.state == fieldUnset {
		errs = append(errs, SrcError{Message: MsgNoDefaultText})
	}

	if id.state == fieldUnset {
		errs = append(errs, SrcError{
			Message: MsgNoID,
			GetFixedSource: func() string {
				return printSelfClosing(elem, attrs, "id="+parser.QuoteJSXAttribute(a.ids.NewID()))
			},
		})
	}

	t := newElement(elem, defaultText, id, description, errs)
	t.getSource = sourceRenderer(elem, id, defaultText, parser.QuoteJSXAttribute)
	return t
}

// jsxAttributes returns the attribute nodes of a self-closing element: every
// named child except the tag name, type arguments and comments.
func jsxAttributes(elem *parser.Node) []*parser.Node {
	name := elem.Field("name")
	var attrs []*parser.Node
	for _, c := range elem.Children() {
		if c.Same(name) || c.Kind() == kindTypeArguments {
			continue
		}
		attrs = append(attrs, c)
	}
	return attrs
}

// splitJSXAttribute returns the plain name and the value node (nil when the
// attribute has no value). ok is false for spreads and namespaced names.
func splitJSXAttribute(attr *parser.Node) (name string, value *parser.Node, ok bool) {
	if attr.Kind() != kindJSXAttribute {
		return "", nil, false
	}
	parts := attr.Children()
	if len(parts) == 0 || parts[0].Kind() != kindPropertyIdent {
		return "", nil, false
	}
	if len(parts) > 1 {
		value = parts[1]
	}
	return parts[0].Text(), value, true
}

// printSelfClosing renders elem with its original attributes followed by
// extra.
func printSelfClosing(elem *parser.Node, attrs []*parser.Node, extra ...string) string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(elem.Field("name").Text())
	for _, c := range elem.Children() {
		if c.Kind() == kindTypeArguments {
			b.WriteString(c.Text())
		}
	}
	for _, attr := range attrs {
		b.WriteString(" ")
		b.WriteString(attr.Text())
	}
	for _, e := range extra {
		b.WriteString(" ")
		b.WriteString(e)
	}
	b.WriteString(" />")
	return b.String()
}
