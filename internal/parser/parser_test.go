package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astro8/yabal/internal/ast"
	"github.com/astro8/yabal/internal/diag"
	"github.com/astro8/yabal/internal/lexer"
)

func parse(t *testing.T, src string) (*ast.Program, *diag.Bag) {
	t.Helper()
	diags := diag.NewBag()
	toks := lexer.Tokenize("test.yb", []byte(src), diags)
	prog := Parse("test.yb", toks, diags)
	require.NotNil(t, prog)
	return prog, diags
}

func TestParseGlobalVarDecl(t *testing.T) {
	prog, diags := parse(t, "var x = 1;")
	assert.False(t, diags.HasErrors())
	require.Len(t, prog.Decls, 1)
	d, ok := prog.Decls[0].(*ast.GlobalVarDecl)
	require.True(t, ok)
	assert.Equal(t, "x", d.Name)
}

func TestParseFuncDecl(t *testing.T) {
	prog, diags := parse(t, "int add(int a, int b) { return a + b; }")
	assert.False(t, diags.HasErrors())
	require.Len(t, prog.Decls, 1)
	fn, ok := prog.Decls[0].(*ast.FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	assert.Len(t, fn.Params, 2)
}

func TestParseStructDecl(t *testing.T) {
	prog, diags := parse(t, "struct Point { int x; int y; }")
	assert.False(t, diags.HasErrors())
	require.Len(t, prog.Decls, 1)
	sd, ok := prog.Decls[0].(*ast.StructDecl)
	require.True(t, ok)
	assert.Equal(t, "Point", sd.Name)
	assert.Len(t, sd.Fields, 2)
}

func TestParseEmbedFileExpr(t *testing.T) {
	prog, diags := parse(t, `var p = embed_file("assets/a.bin", "raw");`)
	assert.False(t, diags.HasErrors())
	require.Len(t, prog.Decls, 1)
	d, ok := prog.Decls[0].(*ast.GlobalVarDecl)
	require.True(t, ok)
	e, ok := d.Init.(*ast.EmbedFileExpr)
	require.True(t, ok)
	path, ok := e.Path.(*ast.StringLiteral)
	require.True(t, ok)
	assert.Equal(t, "assets/a.bin", path.Value)
}

func TestParseTopLevelStatement(t *testing.T) {
	prog, diags := parse(t, "var x = 1; x = x + 1;")
	assert.False(t, diags.HasErrors())
	require.Len(t, prog.Decls, 2)
	_, ok := prog.Decls[1].(*ast.TopLevelStmt)
	assert.True(t, ok)
}

func TestParseUnexpectedTokenIsError(t *testing.T) {
	_, diags := parse(t, "var = 1;")
	assert.True(t, diags.HasErrors())
}

func TestParsePostfixIncrementInForPost(t *testing.T) {
	prog, diags := parse(t, "var v = 0; for (; v < 10; v++) { v += 1; }")
	assert.False(t, diags.HasErrors())
	require.Len(t, prog.Decls, 2)
	top, ok := prog.Decls[1].(*ast.TopLevelStmt)
	require.True(t, ok)
	forStmt, ok := top.S.(*ast.ForStmt)
	require.True(t, ok)
	inc, ok := forStmt.Post.(*ast.IncDecExpr)
	require.True(t, ok)
	assert.True(t, inc.Inc)
	assert.True(t, inc.Postfix)
}

func TestParsePrefixDecrement(t *testing.T) {
	prog, diags := parse(t, "var v = 0; --v;")
	assert.False(t, diags.HasErrors())
	require.Len(t, prog.Decls, 2)
	top, ok := prog.Decls[1].(*ast.TopLevelStmt)
	require.True(t, ok)
	exprStmt, ok := top.S.(*ast.ExprStmt)
	require.True(t, ok)
	dec, ok := exprStmt.X.(*ast.IncDecExpr)
	require.True(t, ok)
	assert.False(t, dec.Inc)
	assert.False(t, dec.Postfix)
}

func TestParseCreatePointerWithBank(t *testing.T) {
	prog, diags := parse(t, "int[] bank 1 p = create_pointer(0xD26F, 1);")
	assert.False(t, diags.HasErrors())
	require.Len(t, prog.Decls, 1)
	d, ok := prog.Decls[0].(*ast.GlobalVarDecl)
	require.True(t, ok)
	require.NotNil(t, d.Declared)
	assert.Equal(t, 1, d.Declared.Bank)
	cp, ok := d.Init.(*ast.CreatePointerExpr)
	require.True(t, ok)
	require.NotNil(t, cp.Bank)
}
