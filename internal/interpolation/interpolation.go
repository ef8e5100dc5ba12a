package interpolation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"i18n-analyzer/internal/textutil"
)

// Mapping stores the original placeholder and its safe replacement.
type Mapping struct {
	Original    string
	Placeholder string
	Index       int
}

// varMatch stores a detected interpolation variable position.
type varMatch struct {
	start, end int
	value      string
}

// patterns to detect interpolation variables in default texts.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\{[^{}]*\}`),                         // ${value}
	regexp.MustCompile(`\{[a-zA-Z_][a-zA-Z0-9_.]*\}`),          // {name}, {user.name}
	regexp.MustCompile(`\{[0-9]+\}`),                           // {0}, {1}
	regexp.MustCompile(`%[-+0-9]*\.?[0-9]*[dsfieEgGxXoubcpq]`), // %d, %s, %2d, etc.
	regexp.MustCompile(`%%`),                                   // escaped percent literal
}

var protected = regexp.MustCompile(`\{\{var_[0-9]+\}\}`)

func findVars(text string) []varMatch {
	var all []varMatch
	for _, p := range patterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			all = append(all, varMatch{start: loc[0], end: loc[1], value: text[loc[0]:loc[1]]})
		}
	}

	// By position, longest first on ties.
	sort.Slice(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end-all[i].start > all[j].end-all[j].start
	})

	var filtered []varMatch
	lastEnd := -1
	for _, m := range all {
		if m.start >= lastEnd {
			filtered = append(filtered, m)
			lastEnd = m.end
		}
	}
	return filtered
}

// Protect replaces all interpolation variables with safe {{var_N}} placeholders.
// Returns the safe string and a mapping to restore originals afterwards.
func Protect(text string) (string, []Mapping) {
	vars := findVars(text)
	if len(vars) == 0 {
		return text, nil
	}

	var b strings.Builder
	mappings := make([]Mapping, 0, len(vars))
	pos := 0
	for i, m := range vars {
		placeholder := fmt.Sprintf("{{var_%d}}", i+1)
		b.WriteString(text[pos:m.start])
		b.WriteString(placeholder)
		pos = m.end
		mappings = append(mappings, Mapping{Original: m.value, Placeholder: placeholder, Index: i + 1})
	}
	b.WriteString(text[pos:])
	return b.String(), mappings
}

// Placeholders returns the interpolation variables of text in order.
func Placeholders(text string) []string {
	vars := findVars(text)
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.value
	}
	return out
}

// Normalize reduces a default text to a comparison key: placeholders become
// "{}", whitespace is collapsed and letters are lowercased. Two texts that
// only differ in variable names normalize to the same key.
func Normalize(text string) string {
	safe, _ := Protect(text)
	safe = protected.ReplaceAllString(safe, "{}")
	return strings.ToLower(textutil.CollapseSpace(safe))
}
