package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, name, src string) *SourceFile {
	t.Helper()
	sf, err := NewTSParser().ParseSource(context.Background(), name, []byte(src))
	require.NoError(t, err)
	t.Cleanup(sf.Close)
	return sf
}

func findKind(n *Node, kind string) *Node {
	if n.Kind() == kind {
		return n
	}
	for _, c := range n.Children() {
		if found := findKind(c, kind); found != nil {
			return found
		}
	}
	return nil
}

func TestTSParser_CanParse(t *testing.T) {
	p := NewTSParser()
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cts", ".TSX"} {
		assert.True(t, p.CanParse(ext), ext)
	}
	for _, ext := range []string{".lua", ".json", ""} {
		assert.False(t, p.CanParse(ext), ext)
	}
}

func TestTSParser_GrammarByExtension(t *testing.T) {
	assert.Equal(t, LangTypeScript, parse(t, "a.ts", "let a = 1;").Language)
	assert.Equal(t, LangTSX, parse(t, "a.tsx", "let a = <b />;").Language)
	assert.Equal(t, LangJavaScript, parse(t, "a.jsx", "let a = <b />;").Language)

	_, err := NewTSParser().ParseSource(context.Background(), "a.lua", nil)
	assert.Error(t, err)
}

func TestTSParser_ParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.ts")
	require.NoError(t, os.WriteFile(path, []byte(`translatable("Hi");`), 0o644))

	sf, err := NewTSParser().Parse(context.Background(), path)
	require.NoError(t, err)
	defer sf.Close()

	assert.Equal(t, path, sf.Name)
	assert.False(t, sf.HasErrors())
	assert.NotNil(t, findKind(sf.Root(), "call_expression"))
}

func TestTSParser_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTSParser().ParseSource(ctx, "a.ts", []byte("let a;"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsDeclarationFile(t *testing.T) {
	assert.True(t, IsDeclarationFile("src/global.d.ts"))
	assert.False(t, IsDeclarationFile("src/d.ts"))
	assert.False(t, IsDeclarationFile("src/app.ts"))
}

func TestNode_FieldsAndProperties(t *testing.T) {
	sf := parse(t, "a.ts", `translatable("Hi", { id: "x" });`)
	call := findKind(sf.Root(), "call_expression")
	require.NotNil(t, call)

	assert.Contains(t, call.Fields(), "function")
	assert.Contains(t, call.Fields(), "arguments")

	fn, ok := call.Property("function").(*Node)
	require.True(t, ok)
	assert.Equal(t, "identifier", fn.Kind())
	assert.Equal(t, "translatable", fn.Text())

	args, ok := call.Property("arguments").(*Node)
	require.True(t, ok)
	children := args.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "string", children[0].Kind())
	assert.Equal(t, "object", children[1].Kind())

	assert.Nil(t, call.Property("missing"))

	viaProperty, ok := args.Property(ChildrenProperty).([]*Node)
	require.True(t, ok)
	assert.Len(t, viaProperty, 2)
}

func TestNode_CommentsAreNotChildren(t *testing.T) {
	sf := parse(t, "a.ts", `f(/* note */ "a", "b");`)
	args := findKind(sf.Root(), "arguments")
	require.NotNil(t, args)
	for _, c := range args.Children() {
		assert.NotEqual(t, "comment", c.Kind())
	}
	assert.Len(t, args.Children(), 2)
}

func TestNode_ParentAndSame(t *testing.T) {
	sf := parse(t, "a.ts", `translatable("Hi");`)
	call := findKind(sf.Root(), "call_expression")
	fn := call.Field("function")

	parent, ok := fn.Parent()
	require.True(t, ok)
	assert.True(t, parent.Same(call))
	assert.False(t, parent.Same(fn))

	_, ok = sf.Root().Parent()
	assert.False(t, ok)
}

func TestNode_Positions(t *testing.T) {
	src := "let a = 1;\nlet b = translatable(\"x\");"
	sf := parse(t, "a.ts", src)
	call := findKind(sf.Root(), "call_expression")

	assert.Equal(t, 2, call.Line())
	assert.Equal(t, `translatable("x")`, src[call.Start():call.End()])
	assert.Equal(t, `translatable("x")`, call.Text())
	assert.Same(t, sf, call.SourceFile())
}

func TestNodeAt(t *testing.T) {
	src := `translatable("Hi");`
	sf := parse(t, "a.ts", src)

	n := NodeAt(sf.Root(), 2)
	require.NotNil(t, n)
	assert.Equal(t, "identifier", n.Kind())

	n = NodeAt(sf.Root(), len("translatable(")+1)
	require.NotNil(t, n)
	assert.Contains(t, []string{"string", "string_fragment"}, n.Kind())

	assert.Nil(t, NodeAt(sf.Root(), len(src)+10))
}

func TestProgram(t *testing.T) {
	a := parse(t, "a.ts", "let a;")
	b := parse(t, "b.ts", "let b;")
	prog := NewProgram(a, b)
	assert.Equal(t, []*SourceFile{a, b}, prog.SourceFiles())
}
