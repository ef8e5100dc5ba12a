package analysis

import (
	"errors"

	"i18n-analyzer/internal/parser"
)

// ErrNotRewritable is returned by GetSource when asked to substitute a value
// whose original was not a static string literal.
var ErrNotRewritable = errors.New("translatable cannot be rewritten")

// ParameterKind classifies a placeholder of a translatable.
type ParameterKind string

const (
	ParameterContent ParameterKind = "content"
	ParameterNumber  ParameterKind = "number"
	ParameterMarkup  ParameterKind = "markup"
)

// ParameterInfo describes one placeholder.
type ParameterInfo struct {
	Kind ParameterKind `json:"kind"`
}

// Range is a half-open byte range into a source file.
type Range struct {
	Pos int `json:"pos"`
	End int `json:"end"`
}

// SrcError is a problem found in a translatable.
type SrcError struct {
	// Node is the offending node, nil when the problem concerns the whole
	// translatable.
	Node    *parser.Node
	Message string
	// GetFixedSource returns replacement source for Node (or for the whole
	// translatable when Node is nil). It is nil when no safe fix exists.
	GetFixedSource func() string
}

// Target returns the node the error is reported on, falling back to the
// translatable itself.
func (e SrcError) Target(elem *TranslatableSrcElement) *parser.Node {
	if e.Node != nil {
		return e.Node
	}
	return elem.node
}

// SourceOverrides names replacement values for GetSource. Empty fields are
// left unchanged.
type SourceOverrides struct {
	ID          string
	DefaultText string
}

// TranslatableSrcElement is one translatable call or element found in
// source. DefaultText is empty and ID nil whenever the literal could not be
// resolved; Errors is the only reliable validity signal.
type TranslatableSrcElement struct {
	DefaultText string
	ID          *string
	Description *string
	Parameters  map[string]ParameterInfo
	FileName    string
	Range       Range
	Errors      []SrcError

	node      *parser.Node
	getSource func(SourceOverrides) (string, error)
}

// GetSource re-renders the translatable with the overrides substituted into
// the original literals. Everything else is emitted verbatim.
func (e *TranslatableSrcElement) GetSource(overrides SourceOverrides) (string, error) {
	return e.getSource(overrides)
}

// Node returns the call expression or JSX element the translatable was read
// from.
func (e *TranslatableSrcElement) Node() *parser.Node {
	return e.node
}

// Line returns the 1-based line the translatable starts on.
func (e *TranslatableSrcElement) Line() int {
	return e.node.Line()
}

// IDOrEmpty returns the id, or "" when none was resolved.
func (e *TranslatableSrcElement) IDOrEmpty() string {
	if e.ID == nil {
		return ""
	}
	return *e.ID
}

// DescriptionOrEmpty returns the description, or "" when none was resolved.
func (e *TranslatableSrcElement) DescriptionOrEmpty() string {
	if e.Description == nil {
		return ""
	}
	return *e.Description
}

// fieldState tracks what was found for one property of a translatable.
type fieldState int

const (
	fieldUnset fieldState = iota
	fieldInvalid
	fieldValid
)

// literal is a resolved static string together with the node that holds it.
type literal struct {
	state fieldState
	value string
	node  *parser.Node
}

func (l literal) ptr() *string {
	if l.state != fieldValid {
		return nil
	}
	v := l.value
	return &v
}

func (l literal) text() string {
	if l.state != fieldValid {
		return ""
	}
	return l.value
}

// sourceRenderer builds the GetSource function of a translatable rooted at
// root. quote renders a replacement value in the literal syntax of the site.
func sourceRenderer(root *parser.Node, id, defaultText literal, quote func(string) string) func(SourceOverrides) (string, error) {
	return func(o SourceOverrides) (string, error) {
		var edits []parser.Edit
		if o.ID != "" {
			if id.state != fieldValid {
				return "", fmtNotRewritable("id")
			}
			edits = append(edits, parser.ReplaceNode(id.node, quote(o.ID)))
		}
		if o.DefaultText != "" {
			if defaultText.state != fieldValid {
				return "", fmtNotRewritable("default text")
			}
			edits = append(edits, parser.ReplaceNode(defaultText.node, quote(o.DefaultText)))
		}
		return parser.Rewrite(root, edits)
	}
}
