package parser

import (
	"fmt"
	"sort"
	"strings"
)

// Edit replaces the source bytes [Start, End) with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// ReplaceNode returns an edit that swaps the node's text for text.
func ReplaceNode(n *Node, text string) Edit {
	return Edit{Start: n.Start(), End: n.End(), Text: text}
}

// Rewrite re-emits the source of n with the edits applied. Every edit must lie
// inside n and edits must not overlap; bytes not covered by an edit are kept
// verbatim.
func Rewrite(n *Node, edits []Edit) (string, error) {
	return rewriteRange(n.SourceFile().Source, n.Start(), n.End(), edits)
}

// RewriteSource applies edits to a whole file's content.
func RewriteSource(src []byte, edits []Edit) (string, error) {
	return rewriteRange(src, 0, len(src), edits)
}

func rewriteRange(src []byte, start, end int, edits []Edit) (string, error) {
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder
	pos := start
	for _, e := range sorted {
		if e.Start < pos || e.End < e.Start || e.End > end {
			return "", fmt.Errorf("edit [%d,%d) outside [%d,%d) or overlapping", e.Start, e.End, pos, end)
		}
		b.Write(src[pos:e.Start])
		b.WriteString(e.Text)
		pos = e.End
	}
	b.Write(src[pos:end])
	return b.String(), nil
}
