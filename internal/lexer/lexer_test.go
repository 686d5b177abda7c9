package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astro8/yabal/internal/diag"
	"github.com/astro8/yabal/internal/token"
)

func tokenize(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	diags := diag.NewBag()
	toks := Tokenize("test.yb", []byte(src), diags)
	require.NotEmpty(t, toks)
	require.Equal(t, token.EOF, toks[len(toks)-1].Kind)
	return toks, diags
}

func TestTokenizeKeywordsAndIdents(t *testing.T) {
	toks, diags := tokenize(t, "var x = embed_file(\"a\", \"raw\")")
	assert.False(t, diags.HasErrors())

	assert.Equal(t, token.Keyword, toks[0].Kind)
	assert.Equal(t, "var", toks[0].Text)
	assert.Equal(t, token.Ident, toks[1].Kind)
	assert.Equal(t, "x", toks[1].Text)
	assert.Equal(t, token.Keyword, toks[3].Kind)
	assert.Equal(t, "embed_file", toks[3].Text)
}

func TestTokenizeIntegerLiterals(t *testing.T) {
	toks, diags := tokenize(t, "10 0xFF")
	assert.False(t, diags.HasErrors())
	assert.Equal(t, int64(10), toks[0].Int)
	assert.Equal(t, int64(255), toks[1].Int)
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, diags := tokenize(t, `"a\nb"`)
	assert.False(t, diags.HasErrors())
	assert.Equal(t, "a\nb", toks[0].Str)
}

func TestTokenizeUnterminatedStringIsError(t *testing.T) {
	_, diags := tokenize(t, `"abc`)
	assert.True(t, diags.HasErrors())
}

func TestTokenizeSkipsComments(t *testing.T) {
	toks, diags := tokenize(t, "// comment\nx /* block */ y")
	assert.False(t, diags.HasErrors())
	assert.Equal(t, "x", toks[0].Text)
	assert.Equal(t, "y", toks[1].Text)
}

func TestTokenizeUnexpectedCharacterIsError(t *testing.T) {
	_, diags := tokenize(t, "x ` y")
	assert.True(t, diags.HasErrors())
}
