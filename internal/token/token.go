// Package token defines the lexical categories produced by the Yabal
// lexer, in the spirit of the teacher's ylex package but carrying
// structured tokens instead of a printable pipe-delimited stream: this
// core has the lexer and parser in the same process, so there is no
// need to serialize tokens to text between passes.
package token

import "github.com/astro8/yabal/internal/diag"

// Kind categorizes a token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Int
	String
	Char
	Keyword
	Punct
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "ident"
	case Int:
		return "int"
	case String:
		return "string"
	case Char:
		return "char"
	case Keyword:
		return "keyword"
	case Punct:
		return "punct"
	default:
		return "unknown"
	}
}

// Token is one lexical unit with its source range.
type Token struct {
	Kind  Kind
	Text  string // raw spelling; for Keyword/Punct this is the canonical form
	Int   int64  // populated for Int and Char
	Str   string // populated for String (already unescaped)
	Range diag.Range
}

// Is reports whether the token is a Punct or Keyword with the given text.
func (t Token) Is(text string) bool {
	return (t.Kind == Punct || t.Kind == Keyword) && t.Text == text
}

// IsIdent reports whether the token is an identifier, optionally with a
// specific spelling when name is non-empty.
func (t Token) IsIdent(name string) bool {
	if t.Kind != Ident {
		return false
	}
	return name == "" || t.Text == name
}

// Keywords is the reserved-word set; type names are keywords, matching
// the teacher's design decision in ylex/lexer.go.
var Keywords = map[string]bool{
	"var": true, "const": true, "struct": true, "ref": true,
	"if": true, "else": true, "while": true, "for": true,
	"return": true, "break": true, "continue": true,
	"true": true, "false": true, "void": true,
	"int": true, "bool": true, "char": true,
	"asm": true, "sizeof": true, "create_pointer": true,
	"bank": true, "embed_file": true,
}

// multiCharOps lists multi-character operators; order matters, longest
// first, so the lexer's greedy match doesn't split "<<=" into "<<" "=".
var MultiCharOps = []string{
	"<<=", ">>=",
	"&&", "||", "==", "!=", "<=", ">=", "<<", ">>", "->",
	"++", "--",
	"+=", "-=", "*=", "/=", "&=", "|=", "^=",
}

var SingleCharOps = map[byte]bool{
	'+': true, '-': true, '*': true, '/': true, '%': true,
	'&': true, '|': true, '^': true, '~': true, '!': true,
	'<': true, '>': true, '=': true, '@': true,
	'(': true, ')': true, '[': true, ']': true, '{': true, '}': true,
	';': true, ':': true, ',': true, '.': true,
}
