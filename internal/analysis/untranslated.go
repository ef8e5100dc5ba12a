package analysis

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"i18n-analyzer/internal/parser"
	"i18n-analyzer/internal/pattern"
)

// UntranslatedOptions configures the untranslated text check.
type UntranslatedOptions struct {
	// SkipElements are JSX element names whose content is never reported.
	SkipElements []string
	// SkipRegexes suppress reports whose text matches any of them.
	SkipRegexes []*regexp.Regexp
}

// DefaultUntranslatedOptions skips text inside <TransMsg> and <Untranslatable>.
func DefaultUntranslatedOptions() UntranslatedOptions {
	return UntranslatedOptions{SkipElements: []string{"TransMsg", "Untranslatable"}}
}

// UntranslatedFinder reports user-visible JSX text that is not wrapped in a
// translatable.
type UntranslatedFinder struct {
	a       *StaticAnalysis
	opts    UntranslatedOptions
	pattern pattern.Pattern
}

// NewUntranslatedFinder builds a finder sharing the extractor's factory and
// id generator.
func (a *StaticAnalysis) NewUntranslatedFinder(opts UntranslatedOptions) *UntranslatedFinder {
	f := a.f
	inElement := f.Parent(f.Node(kindJSXElement, nil))
	container := f.Node(kindJSXExpression, nil).Named("container").And(inElement)

	text := f.Node(kindJSXText, nil).Named("text").And(inElement)
	literal := f.Node(kindString, nil).Named("literal").And(f.Parent(container))
	template := f.Node(kindTemplateString, nil).Named("template").And(f.Parent(container))

	return &UntranslatedFinder{
		a:       a,
		opts:    opts,
		pattern: text.Or(literal).Or(template),
	}
}

var lineBreaksOnly = regexp.MustCompile(`^[\r\n\t\f\v]+$`)

func hasOnlyLineBreak(value string) bool {
	return lineBreaksOnly.MatchString(strings.ReplaceAll(value, " ", ""))
}

// FindInFile returns one error per untranslated text, in document order.
// Node is the node the fix replaces.
func (u *UntranslatedFinder) FindInFile(sf *parser.SourceFile) []SrcError {
	var result []SrcError
	for _, m := range u.a.f.FindAllMatches(u.pattern, sf.Root()) {
		if e, ok := u.process(m); ok {
			result = append(result, e)
		}
	}
	return result
}

// FindInProgram runs FindInFile over every file of prog.
func (u *UntranslatedFinder) FindInProgram(prog *parser.Program) []SrcError {
	var result []SrcError
	for _, sf := range prog.SourceFiles() {
		result = append(result, u.FindInFile(sf)...)
	}
	return result
}

func (u *UntranslatedFinder) process(m *pattern.Match) (SrcError, bool) {
	switch {
	case m.Has("text"):
		n, err := pattern.SingleAs[*parser.Node](m, "text")
		if err != nil {
			return SrcError{}, false
		}
		value := html.UnescapeString(n.Text())
		if hasOnlyLineBreak(value) || u.skippedBy(n) {
			return SrcError{}, false
		}
		return u.report(n, strings.TrimSpace(value), n)

	case m.Has("literal"):
		n, err := pattern.SingleAs[*parser.Node](m, "literal")
		if err != nil {
			return SrcError{}, false
		}
		container, err := pattern.SingleAs[*parser.Node](m, "container")
		if err != nil {
			return SrcError{}, false
		}
		value, err := parser.UnquoteString(n.Text())
		if err != nil || hasOnlyLineBreak(value) || u.skippedBy(container) {
			return SrcError{}, false
		}
		return u.report(n, strings.TrimSpace(value), n)

	case m.Has("template"):
		n, err := pattern.SingleAs[*parser.Node](m, "template")
		if err != nil {
			return SrcError{}, false
		}
		container, err := pattern.SingleAs[*parser.Node](m, "container")
		if err != nil || u.skippedBy(container) {
			return SrcError{}, false
		}
		return u.reportTemplate(n, container)
	}
	return SrcError{}, false
}

func (u *UntranslatedFinder) report(n *parser.Node, value string, replace *parser.Node) (SrcError, bool) {
	if u.suppressed(value) {
		return SrcError{}, false
	}
	e := SrcError{Node: replace, Message: untranslatedMessage(value)}
	if value != "" {
		e.GetFixedSource = func() string {
			return fmt.Sprintf("<TransMsg default=%s id=%s />",
				parser.QuoteJSXAttribute(value), parser.QuoteJSXAttribute(u.a.ids.NewID()))
		}
	}
	return e, true
}

// reportTemplate handles `...` inside a JSX child container. A template with
// substitutions is rewritten into a TransMsg that passes each substitution
// as data.
func (u *UntranslatedFinder) reportTemplate(n, container *parser.Node) (SrcError, bool) {
	quasis, exprs := splitTemplate(n)
	if len(exprs) == 0 {
		return u.report(n, strings.TrimSpace(quasis[0]), n)
	}

	value := ""
	if exprs[0] != nil && exprs[0].Kind() == kindIdentifier {
		value = "TemplateLiteral: " + exprs[0].Text()
	}
	if u.suppressed(value) {
		return SrcError{}, false
	}

	e := SrcError{Node: container, Message: untranslatedMessage(value)}
	if value != "" {
		e.GetFixedSource = func() string {
			var text strings.Builder
			data := make([]string, 0, len(exprs))
			for i, q := range quasis {
				text.WriteString(q)
				if i < len(exprs) {
					name := fmt.Sprintf("var%d", i)
					fmt.Fprintf(&text, "{%s}", name)
					expr := ""
					if exprs[i] != nil {
						expr = exprs[i].Text()
					}
					data = append(data, name+": "+expr)
				}
			}
			return fmt.Sprintf("<TransMsg default=%s id=%s data={{ %s }} />",
				parser.QuoteJSXAttribute(text.String()),
				parser.QuoteJSXAttribute(u.a.ids.NewID()),
				strings.Join(data, ", "))
		}
	}
	return e, true
}

// splitTemplate returns the raw text chunks of a template string and the
// expression of every substitution between them. There is always one more
// chunk than expressions.
func splitTemplate(n *parser.Node) (quasis []string, exprs []*parser.Node) {
	src := n.SourceFile().Source
	pos := n.Start() + 1
	for _, c := range n.Children() {
		if c.Kind() != kindTemplateSubst {
			continue
		}
		quasis = append(quasis, string(src[pos:c.Start()]))
		var expr *parser.Node
		if inner := c.Children(); len(inner) > 0 {
			expr = inner[0]
		}
		exprs = append(exprs, expr)
		pos = c.End()
	}
	end := n.End() - 1
	if end < pos {
		end = pos
	}
	quasis = append(quasis, string(src[pos:end]))
	return quasis, exprs
}

func untranslatedMessage(value string) string {
	formatted := "Whitespace(s)"
	if value != "" {
		formatted = "Raw text (" + value + ")"
	}
	return formatted + " is untranslated. All user-visible text must be wrapped in <TransMsg />, transStr(), or <Untranslatable>."
}

func (u *UntranslatedFinder) suppressed(value string) bool {
	for _, re := range u.opts.SkipRegexes {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// skippedBy reports whether n sits inside one of the skipped elements.
func (u *UntranslatedFinder) skippedBy(n *parser.Node) bool {
	if len(u.opts.SkipElements) == 0 {
		return false
	}
	for cur, ok := n.Parent(); ok; cur, ok = cur.Parent() {
		if cur.Kind() != kindJSXElement {
			continue
		}
		name := jsxElementName(cur)
		for _, skip := range u.opts.SkipElements {
			if name == skip {
				return true
			}
		}
	}
	return false
}

// jsxElementName returns the dotted tag name of an element with children.
func jsxElementName(elem *parser.Node) string {
	for _, c := range elem.Children() {
		if c.Kind() != kindJSXOpening {
			continue
		}
		if name := c.Field("name"); name != nil {
			return strings.Join(strings.Fields(name.Text()), "")
		}
	}
	return ""
}
