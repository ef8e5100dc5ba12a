package analysis

import (
	"context"
	"regexp"
	"testing"

	"i18n-analyzer/internal/parser"
	"i18n-analyzer/internal/pattern"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, name, src string) *parser.SourceFile {
	t.Helper()
	sf, err := parser.NewTSParser().ParseSource(context.Background(), name, []byte(src))
	require.NoError(t, err)
	t.Cleanup(sf.Close)
	return sf
}

func findOne(t *testing.T, name, src string) *TranslatableSrcElement {
	t.Helper()
	elems := New(WithIDGenerator(fixedIDs("GENERATD"))).FindTranslatablesInFile(parseSource(t, name, src))
	require.Len(t, elems, 1)
	return elems[0]
}

func fixedIDs(id string) IDGenerator {
	return IDGeneratorFunc(func() string { return id })
}

func messages(errs []SrcError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Message
	}
	return out
}

func strPtr(s string) *string { return &s }

func TestCall_Valid(t *testing.T) {
	src := `const x = translatable("Hello", { id: "abc123", description: "greeting" });`
	elem := findOne(t, "a.ts", src)

	assert.Empty(t, elem.Errors)
	assert.Equal(t, "Hello", elem.DefaultText)
	assert.Equal(t, strPtr("abc123"), elem.ID)
	assert.Equal(t, strPtr("greeting"), elem.Description)
	assert.Empty(t, elem.Parameters)
	assert.Equal(t, "a.ts", elem.FileName)
	assert.Equal(t, `translatable("Hello", { id: "abc123", description: "greeting" })`, src[elem.Range.Pos:elem.Range.End])
	assert.Equal(t, 1, elem.Line())
}

func TestCall_RoundTrip(t *testing.T) {
	elem := findOne(t, "a.ts", `translatable("Hello", {id: "abc123"})`)

	got, err := elem.GetSource(SourceOverrides{})
	require.NoError(t, err)
	assert.Equal(t, `translatable("Hello", {id: "abc123"})`, got)

	got, err = elem.GetSource(SourceOverrides{ID: "newId", DefaultText: `Hi "you"`})
	require.NoError(t, err)
	assert.Equal(t, `translatable("Hi \"you\"", {id: "newId"})`, got)

	again := findOne(t, "b.ts", got)
	assert.Equal(t, `Hi "you"`, again.DefaultText)
	assert.Equal(t, strPtr("newId"), again.ID)
}

func TestCall_TransStrWithoutID(t *testing.T) {
	elem := findOne(t, "a.ts", `transStr('It\'s')`)

	assert.Equal(t, "It's", elem.DefaultText)
	assert.Nil(t, elem.ID)
	require.Equal(t, []string{MsgIDMissing}, messages(elem.Errors))
	assert.Nil(t, elem.Errors[0].GetFixedSource)
	assert.Nil(t, elem.Errors[0].Node)
}

func TestCall_TooManyArguments(t *testing.T) {
	elem := findOne(t, "a.ts", `translatable("Hi", {id:"x"}, "extra")`)

	assert.Contains(t, messages(elem.Errors), MsgTooManyArguments)
	assert.Equal(t, "Hi", elem.DefaultText)
	assert.Equal(t, strPtr("x"), elem.ID)
}

func TestCall_NonStaticDefault(t *testing.T) {
	elem := findOne(t, "a.ts", `translatable(someVariable, {id:"x"})`)

	assert.Equal(t, "", elem.DefaultText)
	require.Equal(t, []string{MsgInvalidDefaultText}, messages(elem.Errors))
	assert.Equal(t, "someVariable", elem.Errors[0].Node.Text())

	_, err := elem.GetSource(SourceOverrides{DefaultText: "new"})
	assert.ErrorIs(t, err, ErrNotRewritable)

	got, err := elem.GetSource(SourceOverrides{ID: "y"})
	require.NoError(t, err)
	assert.Equal(t, `translatable(someVariable, {id:"y"})`, got)
}

func TestCall_TemplateIsNotStatic(t *testing.T) {
	elem := findOne(t, "a.ts", "translatable(`Hi`, {id: \"x\"})")
	assert.Equal(t, []string{MsgInvalidDefaultText}, messages(elem.Errors))
}

func TestCall_ArgumentsMissing(t *testing.T) {
	elem := findOne(t, "a.ts", `translatable()`)
	assert.Equal(t, []string{MsgArgumentsMissing, MsgIDMissing}, messages(elem.Errors))

	_, err := elem.GetSource(SourceOverrides{ID: "x"})
	assert.ErrorIs(t, err, ErrNotRewritable)
}

func TestCall_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"identifier", `translatable("Hi", opts)`},
		{"spread", `translatable("Hi", { ...opts })`},
		{"string key", `translatable("Hi", { "id": "x" })`},
		{"computed key", `translatable("Hi", { [k]: "x" })`},
		{"method", `translatable("Hi", { id() { return "x"; } })`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elem := findOne(t, "a.ts", tt.src)
			assert.Equal(t, []string{MsgInvalidOptions}, messages(elem.Errors), "id counts as invalid, not missing")
			assert.Nil(t, elem.ID)
			assert.Equal(t, "Hi", elem.DefaultText)
		})
	}
}

func TestCall_OptionValues(t *testing.T) {
	elem := findOne(t, "a.ts", `translatable("Hi", { id: someId, description: desc, data: { n: 1 }, other: 1 })`)
	assert.Equal(t, []string{MsgInvalidID, MsgInvalidDescription}, messages(elem.Errors))
	assert.Equal(t, "someId", elem.Errors[0].Node.Text())
	assert.Equal(t, "desc", elem.Errors[1].Node.Text())
	assert.Nil(t, elem.ID)
	assert.Nil(t, elem.Description)
}

func TestCall_ShorthandID(t *testing.T) {
	elem := findOne(t, "a.ts", `translatable("Hi", { id })`)
	assert.Equal(t, []string{MsgInvalidID}, messages(elem.Errors))
}

func TestCall_DuplicateKeys(t *testing.T) {
	elem := findOne(t, "a.ts", `translatable("Hi", { id: "a", id: "b" })`)
	assert.Equal(t, []string{MsgDuplicateKeys}, messages(elem.Errors))
	assert.Equal(t, strPtr("b"), elem.ID)
}

func TestCall_OtherCalleesIgnored(t *testing.T) {
	sf := parseSource(t, "a.ts", "t(\"Hi\"); obj.translatable(\"Hi\"); translatable`Hi`;")
	assert.Empty(t, New().FindTranslatablesInFile(sf))
}

func TestJSX_Valid(t *testing.T) {
	elem := findOne(t, "a.tsx", `const x = <TransMsg default="Tom &amp; Jerry" id={"abc"} description={'d'} data={{ n: 1 }} />;`)

	assert.Empty(t, elem.Errors)
	assert.Equal(t, "Tom & Jerry", elem.DefaultText)
	assert.Equal(t, strPtr("abc"), elem.ID)
	assert.Equal(t, strPtr("d"), elem.Description)
}

func TestJSX_EntitiesNeedSemicolon(t *testing.T) {
	elem := findOne(t, "a.tsx", `const x = <TransMsg default="a &amp b &copy; c" id="x" />;`)
	assert.Equal(t, "a &amp b © c", elem.DefaultText)
}

func TestJSX_MissingIDFix(t *testing.T) {
	sf := parseSource(t, "a.tsx", `const x = <TransMsg default="Hi" />;`)
	elems := New().FindTranslatablesInFile(sf)
	require.Len(t, elems, 1)
	elem := elems[0]

	require.Len(t, elem.Errors, 1)
	assert.Equal(t, MsgNoID, elem.Errors[0].Message)
	require.NotNil(t, elem.Errors[0].GetFixedSource)

	fixed := elem.Errors[0].GetFixedSource()
	assert.Regexp(t, regexp.MustCompile(`^<TransMsg default="Hi" id="[0-9A-Za-z]{8}" />$`), fixed)

	reparsed := findOne(t, "b.tsx", fixed)
	assert.Empty(t, reparsed.Errors)
	assert.Equal(t, "Hi", reparsed.DefaultText)
	require.NotNil(t, reparsed.ID)
	assert.True(t, IsGeneratedIDShape(*reparsed.ID))
}

func TestJSX_FixUsesGenerator(t *testing.T) {
	elem := findOne(t, "a.tsx", `<TransMsg default="Hi" description="greeting" />`)
	require.Len(t, elem.Errors, 1)
	assert.Equal(t, `<TransMsg default="Hi" description="greeting" id="GENERATD" />`, elem.Errors[0].GetFixedSource())
}

func TestJSX_Problems(t *testing.T) {
	elem := findOne(t, "a.tsx", `<TransMsg foo="x" {...props} default={text} id={"a"} />`)

	assert.Equal(t, []string{MsgInvalidProperty, MsgInvalidProperty, MsgInvalidDefaultText}, messages(elem.Errors))
	assert.Equal(t, `foo="x"`, elem.Errors[0].Node.Text())
	assert.Equal(t, `default={text}`, elem.Errors[2].Node.Text())
	assert.Equal(t, "", elem.DefaultText)
	assert.Equal(t, strPtr("a"), elem.ID)
}

func TestJSX_MissingEverything(t *testing.T) {
	elem := findOne(t, "a.tsx", `<TransMsg />`)
	assert.Equal(t, []string{MsgNoDefaultText, MsgNoID}, messages(elem.Errors))
	assert.Equal(t, `<TransMsg id="GENERATD" />`, elem.Errors[1].GetFixedSource())
}

func TestJSX_GetSource(t *testing.T) {
	elem := findOne(t, "a.tsx", `<TransMsg default={"Hi"} id="abc" description="d" />`)

	got, err := elem.GetSource(SourceOverrides{})
	require.NoError(t, err)
	assert.Equal(t, `<TransMsg default={"Hi"} id="abc" description="d" />`, got)

	got, err = elem.GetSource(SourceOverrides{DefaultText: `Say "hi" & go`, ID: "xyz"})
	require.NoError(t, err)
	assert.Equal(t, `<TransMsg default="Say &quot;hi&quot; &amp; go" id="xyz" description="d" />`, got)

	again := findOne(t, "b.tsx", got)
	assert.Equal(t, `Say "hi" & go`, again.DefaultText)
}

func TestJSX_GetSourceNotRewritable(t *testing.T) {
	elem := findOne(t, "a.tsx", `<TransMsg default="Hi" />`)
	_, err := elem.GetSource(SourceOverrides{ID: "x"})
	assert.ErrorIs(t, err, ErrNotRewritable)
}

func TestFindTranslatablesInFile_DocumentOrderAndNoNesting(t *testing.T) {
	src := `
const a = translatable("first", { id: "1" });
const b = <div><TransMsg default="second" id="2" /></div>;
const c = translatable("third", { id: "3", description: transStr("inner", { id: "4" }) });
`
	elems := New().FindTranslatablesInFile(parseSource(t, "a.tsx", src))
	require.Len(t, elems, 3)
	assert.Equal(t, "first", elems[0].DefaultText)
	assert.Equal(t, "second", elems[1].DefaultText)
	assert.Equal(t, "third", elems[2].DefaultText)
	assert.Equal(t, []string{MsgInvalidDescription}, messages(elems[2].Errors))
	assert.Less(t, elems[0].Range.End, elems[1].Range.Pos)
	assert.Less(t, elems[1].Range.End, elems[2].Range.Pos)
}

type snapshot struct {
	DefaultText string
	ID          *string
	Description *string
	FileName    string
	Range       Range
	Errors      []string
}

func snapshots(elems []*TranslatableSrcElement) []snapshot {
	out := make([]snapshot, len(elems))
	for i, e := range elems {
		out[i] = snapshot{e.DefaultText, e.ID, e.Description, e.FileName, e.Range, messages(e.Errors)}
	}
	return out
}

func TestFindTranslatablesInFile_Deterministic(t *testing.T) {
	sf := parseSource(t, "a.tsx", `
translatable("a", { id: "1" }, 3);
<TransMsg default="b" bogus />;
transStr(x);
`)
	a := New()
	first := snapshots(a.FindTranslatablesInFile(sf))
	second := snapshots(a.FindTranslatablesInFile(sf))
	require.Len(t, first, 3)
	assert.Equal(t, first, second)
}

func TestFindTranslatablesInProgram(t *testing.T) {
	prog := parser.NewProgram(
		parseSource(t, "a.ts", `translatable("a1", {id: "a1"}); translatable("a2", {id: "a2"});`),
		parseSource(t, "b.tsx", `<TransMsg default="b1" id="b1" />`),
	)
	elems := New().FindTranslatablesInProgram(prog)

	var ids []string
	for _, e := range elems {
		ids = append(ids, e.IDOrEmpty())
	}
	assert.Equal(t, []string{"a1", "a2", "b1"}, ids)
}

func TestFindTranslatableAt(t *testing.T) {
	sf := parseSource(t, "a.ts", `translatable("Hi", { id: "x" });`)
	a := New()

	call := parser.NodeAt(sf.Root(), 0)
	for call != nil && call.Kind() != "call_expression" {
		call, _ = call.Parent()
	}
	require.NotNil(t, call)

	elem := a.FindTranslatableAt(call)
	require.NotNil(t, elem)
	assert.Equal(t, "Hi", elem.DefaultText)
	assert.True(t, elem.Node().Same(call))

	assert.Nil(t, a.FindTranslatableAt(call.Field("function")))
	assert.Nil(t, a.FindTranslatableAt(sf.Root()), "does not search below the node")
}

func TestRandomIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := RandomIDs{}.NewID()
		require.True(t, IsGeneratedIDShape(id), id)
		seen[id] = true
	}
	assert.Len(t, seen, 200)
}

func TestFactory_ListOverRepeatedField(t *testing.T) {
	sa := New()
	f := sa.Factory()
	anyAttrs := f.Node(kindJSXSelfClosing, pattern.Props{"attribute": f.List(nil, pattern.WithRest(f.Any()))})
	oneAttr := f.Node(kindJSXSelfClosing, pattern.Props{"attribute": f.List([]pattern.Pattern{f.Any()})})

	tests := []struct {
		src     string
		wantAny int
		wantOne int
	}{
		{`const v = <X />;`, 1, 0},
		{`const v = <X a="1" />;`, 1, 1},
		{`const v = <X a="1" b="2" />;`, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			root := parseSource(t, "x.tsx", tt.src).Root()
			assert.Len(t, f.FindAllMatches(anyAttrs, root), tt.wantAny)
			assert.Len(t, f.FindAllMatches(oneAttr, root), tt.wantOne)
		})
	}
}
