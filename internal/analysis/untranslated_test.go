package analysis

import (
	"regexp"
	"testing"

	"i18n-analyzer/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findUntranslated(t *testing.T, src string, opts UntranslatedOptions) []SrcError {
	t.Helper()
	a := New(WithIDGenerator(fixedIDs("GENERATD")))
	return a.NewUntranslatedFinder(opts).FindInFile(parseSource(t, "view.tsx", src))
}

func TestUntranslated_JSXText(t *testing.T) {
	errs := findUntranslated(t, `const v = <div>Hello world</div>;`, DefaultUntranslatedOptions())

	require.Len(t, errs, 1)
	assert.Equal(t,
		"Raw text (Hello world) is untranslated. All user-visible text must be wrapped in <TransMsg />, transStr(), or <Untranslatable>.",
		errs[0].Message)
	require.NotNil(t, errs[0].GetFixedSource)
	assert.Equal(t, `<TransMsg default="Hello world" id="GENERATD" />`, errs[0].GetFixedSource())
	assert.Contains(t, errs[0].Node.Text(), "Hello world")
}

func TestUntranslated_StringInContainer(t *testing.T) {
	errs := findUntranslated(t, `const v = <p>{"Say \"hi\""}</p>;`, DefaultUntranslatedOptions())

	require.Len(t, errs, 1)
	assert.Equal(t, `"Say \"hi\""`, errs[0].Node.Text())
	assert.Equal(t, `<TransMsg default="Say &quot;hi&quot;" id="GENERATD" />`, errs[0].GetFixedSource())
}

func TestUntranslated_TemplateWithSubstitutions(t *testing.T) {
	errs := findUntranslated(t, "const v = <p>{`Hello ${name}, you have ${count} mails`}</p>;", DefaultUntranslatedOptions())

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Raw text (TemplateLiteral: name)")
	assert.Equal(t, "{`Hello ${name}, you have ${count} mails`}", errs[0].Node.Text())
	assert.Equal(t,
		`<TransMsg default="Hello {var0}, you have {var1} mails" id="GENERATD" data={{ var0: name, var1: count }} />`,
		errs[0].GetFixedSource())
}

func TestUntranslated_Ignored(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"translated", `const v = <div><TransMsg default="Hi" id="abc" /></div>;`},
		{"untranslatable", `const v = <Untranslatable><b>Brand</b></Untranslatable>;`},
		{"attribute", `const v = <input placeholder="Name" title={"Title"} />;`},
		{"line breaks only", "const v = <div>\n\t<span />\n</div>;"},
		{"not jsx", `const s = "plain string";`},
		{"nested expression", `const v = <p>{cond ? "a" : "b"}</p>;`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, findUntranslated(t, tt.src, DefaultUntranslatedOptions()))
		})
	}
}

func TestUntranslated_SkipOptions(t *testing.T) {
	src := `const v = <section><Code>x = 1</Code><p>42</p><p>Visible</p></section>;`
	opts := UntranslatedOptions{
		SkipElements: []string{"Code"},
		SkipRegexes:  []*regexp.Regexp{regexp.MustCompile(`^\d+$`)},
	}

	errs := findUntranslated(t, src, opts)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Raw text (Visible)")
}

func TestSplitTemplate(t *testing.T) {
	sf := parseSource(t, "a.ts", "const s = `a${x}b${y.z}c`;")
	tmpl := findKindIn(sf.Root(), kindTemplateString)
	require.NotNil(t, tmpl)

	quasis, exprs := splitTemplate(tmpl)
	assert.Equal(t, []string{"a", "b", "c"}, quasis)
	require.Len(t, exprs, 2)
	assert.Equal(t, "x", exprs[0].Text())
	assert.Equal(t, "y.z", exprs[1].Text())
}

func findKindIn(n *parser.Node, kind string) *parser.Node {
	if n.Kind() == kind {
		return n
	}
	for _, c := range n.Children() {
		if found := findKindIn(c, kind); found != nil {
			return found
		}
	}
	return nil
}
