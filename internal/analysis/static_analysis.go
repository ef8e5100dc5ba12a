// Package analysis finds translatables in TypeScript and JavaScript sources:
// translatable(...) and transStr(...) calls and <TransMsg /> elements. Each
// one is validated, its static parts are extracted, and safe source
// rewrites are offered.
package analysis

import (
	"i18n-analyzer/internal/parser"
	"i18n-analyzer/internal/pattern"
)

// Node kinds of the tree-sitter TypeScript grammars.
const (
	kindCall              = "call_expression"
	kindArguments         = "arguments"
	kindJSXSelfClosing    = "jsx_self_closing_element"
	kindJSXElement        = "jsx_element"
	kindJSXOpening        = "jsx_opening_element"
	kindJSXAttribute      = "jsx_attribute"
	kindJSXExpression     = "jsx_expression"
	kindJSXText           = "jsx_text"
	kindString            = "string"
	kindTemplateString    = "template_string"
	kindTemplateSubst     = "template_substitution"
	kindPropertyIdent     = "property_identifier"
	kindTypeArguments     = "type_arguments"
	kindObject            = "object"
	kindPair              = "pair"
	kindShorthandProperty = "shorthand_property_identifier"
	kindIdentifier        = "identifier"
)

// StaticAnalysis extracts translatables. One instance builds its pattern once
// and can be reused across any number of files.
type StaticAnalysis struct {
	f       *pattern.Factory[*parser.Node]
	pattern pattern.Typed[*parser.Node]
	ids     IDGenerator
}

// Option configures a StaticAnalysis.
type Option func(*StaticAnalysis)

// WithIDGenerator sets the generator used for id fixes.
func WithIDGenerator(g IDGenerator) Option {
	return func(a *StaticAnalysis) {
		a.ids = g
	}
}

// New creates an extractor.
func New(opts ...Option) *StaticAnalysis {
	f := pattern.NewFactory[*parser.Node]()
	a := &StaticAnalysis{f: f, ids: RandomIDs{}}
	for _, opt := range opts {
		opt(a)
	}

	call := f.Node(kindCall, pattern.Props{
		"function":  f.Identifier("translatable").Or(f.Identifier("transStr")),
		// Tagged templates (translatable`Hi`) carry a template_string here.
		"arguments": f.Node(kindArguments, nil),
	})
	element := f.Node(kindJSXSelfClosing, pattern.Props{
		"name": f.Identifier("TransMsg"),
	})
	a.pattern = pattern.MustBe[*parser.Node](call.Or(element))
	return a
}

// Factory returns the pattern factory the extractor is built on.
func (a *StaticAnalysis) Factory() *pattern.Factory[*parser.Node] {
	return a.f
}

// IDs returns the generator used for id fixes.
func (a *StaticAnalysis) IDs() IDGenerator {
	return a.ids
}

// FindTranslatablesInProgram returns the translatables of every file, in file
// order and then document order.
func (a *StaticAnalysis) FindTranslatablesInProgram(prog *parser.Program) []*TranslatableSrcElement {
	var result []*TranslatableSrcElement
	for _, sf := range prog.SourceFiles() {
		result = append(result, a.FindTranslatablesInFile(sf)...)
	}
	return result
}

// FindTranslatablesInFile returns the translatables of one file in document
// order.
func (a *StaticAnalysis) FindTranslatablesInFile(sf *parser.SourceFile) []*TranslatableSrcElement {
	var result []*TranslatableSrcElement
	for _, m := range a.f.FindAllMatches(a.pattern.Pattern, sf.Root()) {
		if t := a.processMatch(m.Value().(*parser.Node)); t != nil {
			result = append(result, t)
		}
	}
	return result
}

// FindTranslatableAt processes n if n itself is a translatable. It does not
// search below n.
func (a *StaticAnalysis) FindTranslatableAt(n *parser.Node) *TranslatableSrcElement {
	matched, _, ok := a.pattern.MatchTyped(n)
	if !ok {
		return nil
	}
	return a.processMatch(matched)
}

func (a *StaticAnalysis) processMatch(n *parser.Node) *TranslatableSrcElement {
	switch n.Kind() {
	case kindCall:
		return a.processCall(n)
	case kindJSXSelfClosing:
		return a.processJSXElement(n)
	}
	return nil
}

func newElement(n *parser.Node, defaultText, id, description literal, errs []SrcError) *TranslatableSrcElement {
	return &TranslatableSrcElement{
		DefaultText: defaultText.text(),
		ID:          id.ptr(),
		Description: description.ptr(),
		Parameters:  map[string]ParameterInfo{},
		FileName:    n.SourceFile().Name,
		Range:       Range{Pos: n.Start(), End: n.End()},
		Errors:      errs,
		node:        n,
	}
}
