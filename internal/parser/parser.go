// Package parser implements a recursive-descent parser over the
// token stream produced by internal/lexer, following the panic-mode
// recovery style of the teacher's yparse/parser.go (error/errorAt,
// synchronize/synchronizeStmt), generalized to the richer grammar
// spec.md §4.3/§6 describes: references, bit-field struct members,
// inline asm, sizeof, and create_pointer.
package parser

import (
	"github.com/astro8/yabal/internal/ast"
	"github.com/astro8/yabal/internal/diag"
	"github.com/astro8/yabal/internal/token"
	"github.com/astro8/yabal/internal/types"
)

// Parser holds the token stream and the diagnostics it reports to.
type Parser struct {
	file      string
	toks      []token.Token
	pos       int
	diags     *diag.Bag
	panicMode bool

	// structNames tracks declared struct types seen so far, so a bare
	// identifier in type position can be recognized without a second
	// pass; forward references to a struct declared later in the file
	// are still accepted (the builder's DeclareStructs pass resolves
	// them regardless of parse order).
	structNames map[string]bool
}

// New creates a Parser over toks, attributing diagnostics to file.
func New(file string, toks []token.Token, diags *diag.Bag) *Parser {
	return &Parser{file: file, toks: toks, diags: diags, structNames: map[string]bool{}}
}

// Parse consumes the whole token stream and returns the program AST.
// Parse errors are recorded in the Bag passed to New; Parse always
// returns a (possibly partial) *ast.Program rather than nil, so a
// caller can still report every accumulated diagnostic.
func Parse(file string, toks []token.Token, diags *diag.Bag) *ast.Program {
	p := New(file, toks, diags)
	return p.ParseProgram()
}

func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	// Pre-scan struct names so forward uses of a struct type in a
	// param list or field declared before the struct itself still
	// parse as a struct type rather than falling through to an error.
	for i := 0; i+1 < len(p.toks); i++ {
		if p.toks[i].Kind == token.Keyword && p.toks[i].Text == "struct" && p.toks[i+1].Kind == token.Ident {
			p.structNames[p.toks[i+1].Text] = true
		}
	}
	for !p.atEnd() {
		d := p.parseDecl()
		if d != nil {
			prog.Decls = append(prog.Decls, d)
		}
	}
	return prog
}

// ============================================================
// Token stream primitives
// ============================================================

func (p *Parser) peek() token.Token  { return p.toks[p.pos] }
func (p *Parser) peekAt(off int) token.Token {
	i := p.pos + off
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}
func (p *Parser) atEnd() bool { return p.peek().Kind == token.EOF }

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) check(text string) bool { return p.peek().Is(text) }

func (p *Parser) match(text string) bool {
	if p.check(text) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(text, context string) (token.Token, bool) {
	if p.check(text) {
		return p.advance(), true
	}
	p.error("expected %q %s, got %q", text, context, p.peek().Text)
	return token.Token{}, false
}

func (p *Parser) expectIdent(context string) (string, diag.Range, bool) {
	if p.peek().Kind == token.Ident {
		t := p.advance()
		return t.Text, t.Range, true
	}
	p.error("expected identifier %s, got %q", context, p.peek().Text)
	return "", p.peek().Range, false
}

// eatSemi consumes an optional trailing ';' (spec.md §6: "semicolons
// optional at end of line"). A semicolon is accepted but never
// required.
func (p *Parser) eatSemi() {
	p.match(";")
}

func (p *Parser) error(format string, args ...interface{}) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.diags.Errorf(p.peek().Range, diag.KindParse, format, args...)
}

// synchronize skips tokens until a declaration-starting keyword, or a
// consumed ';' or '}', matching the teacher's top-level recovery.
func (p *Parser) synchronize() {
	p.panicMode = false
	for !p.atEnd() {
		t := p.peek()
		if t.Kind == token.Keyword {
			switch t.Text {
			case "var", "const", "struct", "int", "bool", "char", "void":
				return
			}
		}
		if t.Is(";") {
			p.advance()
			return
		}
		if t.Is("}") {
			p.advance()
			return
		}
		p.advance()
	}
}

// synchronizeStmt synchronizes within a function body: stops before a
// statement-starting keyword or '}', consumes a stray ';'.
func (p *Parser) synchronizeStmt() {
	p.panicMode = false
	for !p.atEnd() {
		t := p.peek()
		if t.Kind == token.Keyword {
			switch t.Text {
			case "if", "while", "for", "return", "var", "const", "asm":
				return
			}
		}
		if t.Is(";") {
			p.advance()
			return
		}
		if t.Is("}") {
			return
		}
		p.advance()
	}
}

func rangeSpan(a, b diag.Range) diag.Range {
	return diag.Range{Start: a.Start, End: b.End}
}

// ============================================================
// Types
// ============================================================

// startsType reports whether the current token can begin a type
// specifier, used to disambiguate a declaration from a bare statement.
func (p *Parser) startsType() bool {
	t := p.peek()
	if t.Kind != token.Keyword {
		return false
	}
	switch t.Text {
	case "int", "bool", "char", "void", "ref":
		return true
	}
	return false
}

func (p *Parser) isIdentStructType() bool {
	t := p.peek()
	return t.Kind == token.Ident && p.structNames[t.Text]
}

// parseType parses a base type followed by any number of `[]`
// (pointer) or `[N]` (fixed array) suffixes and an optional trailing
// `bank N` (spec.md §4.2 Pointer(element, bank)); `ref` prefixes the
// whole thing as a Reference.
func (p *Parser) parseType() *types.Type {
	if p.match("ref") {
		inner := p.parseType()
		if inner == nil {
			return nil
		}
		return types.NewReference(inner)
	}

	var base *types.Type
	switch {
	case p.match("int"):
		base = types.TypeInt
	case p.match("bool"):
		base = types.TypeBool
	case p.match("char"):
		base = types.TypeChar
	case p.match("void"):
		base = types.TypeVoid
	case p.isIdentStructType():
		name, _, _ := p.expectIdent("struct name")
		base = types.NewStruct(&types.StructDef{Name: name})
	default:
		p.error("expected a type, got %q", p.peek().Text)
		return nil
	}

	for p.check("[") {
		p.advance()
		if p.match("]") {
			base = types.NewPointer(base, 0)
			continue
		}
		if p.peek().Kind != token.Int {
			p.error("expected array length or ']'")
			return base
		}
		n := p.advance().Int
		if _, ok := p.expect("]", "to close array length"); !ok {
			return base
		}
		base = types.NewArray(base, int(n))
	}

	if p.match("bank") {
		if p.peek().Kind != token.Int {
			p.error("expected bank number")
			return base
		}
		n := p.advance().Int
		if base.Kind == types.Pointer {
			base = types.NewPointer(base.Elem, int(n))
		}
	}

	return base
}

// ============================================================
// Declarations
// ============================================================

func (p *Parser) parseDecl() ast.Decl {
	switch {
	case p.check("struct") && p.peekAt(1).Kind == token.Ident && p.peekAt(2).Is("{"):
		return p.parseStructDecl()
	case p.check("var") || p.check("const"):
		return p.parseGlobalVarDecl()
	case p.startsFuncDecl():
		return p.parseFuncDecl()
	case p.startsType() || p.isIdentStructType():
		s := p.parseTypedVarDecl()
		if s == nil {
			p.synchronize()
			return nil
		}
		return &ast.GlobalVarDecl{Name: s.Name, Declared: s.Declared, Init: s.Init, Rng: s.Rng}
	default:
		start := p.peek().Range
		s := p.parseStmt()
		if s == nil {
			p.synchronize()
			return nil
		}
		return &ast.TopLevelStmt{S: s, Rng: rangeSpan(start, s.Range())}
	}
}

// startsFuncDecl looks ahead for "<type> ident (" since a bare type
// also starts a local-style `<type> x = expr;` top-level statement.
func (p *Parser) startsFuncDecl() bool {
	if !p.startsType() && !p.isIdentStructType() {
		return false
	}
	save := p.pos
	defer func() { p.pos = save }()
	t := p.parseTypeNoDiag()
	if t == nil {
		return false
	}
	if p.peek().Kind != token.Ident {
		return false
	}
	return p.peekAt(1).Is("(")
}

// parseTypeNoDiag speculatively parses a type for lookahead, silencing
// diagnostics it would otherwise raise (the caller discards the result
// either way on failure).
func (p *Parser) parseTypeNoDiag() *types.Type {
	silenced := p.diags
	p.diags = diag.NewBag()
	defer func() { p.diags = silenced }()
	wasPanic := p.panicMode
	t := p.parseType()
	p.panicMode = wasPanic
	return t
}

func (p *Parser) parseStructDecl() *ast.StructDecl {
	start := p.advance().Range // 'struct'
	name, _, _ := p.expectIdent("after 'struct'")
	p.structNames[name] = true
	if _, ok := p.expect("{", "to open struct body"); !ok {
		p.synchronize()
		return nil
	}
	d := &ast.StructDecl{Name: name}
	for !p.check("}") && !p.atEnd() {
		ft := p.parseType()
		fname, frng, ok := p.expectIdent("in struct field")
		if !ok {
			p.synchronize()
			continue
		}
		fs := ast.StructFieldSyntax{Name: fname, Type: ft, Rng: frng}
		if p.match(":") {
			if p.peek().Kind != token.Int {
				p.error("expected bit-field width after ':'")
			} else {
				fs.Bits = int(p.advance().Int)
			}
		}
		d.Fields = append(d.Fields, fs)
		p.eatSemi()
	}
	end, _ := p.expect("}", "to close struct body")
	d.Rng = rangeSpan(start, end.Range)
	return d
}

func (p *Parser) parseGlobalVarDecl() *ast.GlobalVarDecl {
	isConst := p.check("const")
	start := p.advance().Range // 'var' or 'const'
	var declared *types.Type
	if p.startsType() || p.isIdentStructType() {
		declared = p.parseType()
	}
	name, _, ok := p.expectIdent("in variable declaration")
	if !ok {
		p.synchronize()
		return nil
	}
	var init ast.Expr
	if p.match("=") {
		init = p.parseExpr()
	}
	p.eatSemi()
	return &ast.GlobalVarDecl{Name: name, Declared: declared, Init: init, IsConst: isConst, Rng: rangeSpan(start, p.lastRange())}
}

func (p *Parser) lastRange() diag.Range {
	if p.pos == 0 {
		return p.toks[0].Range
	}
	return p.toks[p.pos-1].Range
}

func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	start := p.peek().Range
	ret := p.parseType()
	name, _, ok := p.expectIdent("in function declaration")
	if !ok {
		p.synchronize()
		return nil
	}
	if _, ok := p.expect("(", "after function name"); !ok {
		p.synchronize()
		return nil
	}
	var params []*ast.Param
	for !p.check(")") && !p.atEnd() {
		pt := p.parseType()
		pname, prng, ok := p.expectIdent("in parameter list")
		if !ok {
			break
		}
		params = append(params, &ast.Param{Name: pname, Type: pt, Rng: prng})
		if !p.match(",") {
			break
		}
	}
	p.expect(")", "to close parameter list")
	body := p.parseBlock()
	end := p.lastRange()
	return &ast.FuncDecl{Name: name, Params: params, ReturnType: ret, Body: body, Rng: rangeSpan(start, end)}
}

// ============================================================
// Statements
// ============================================================

func (p *Parser) parseBlock() *ast.BlockStmt {
	start, _ := p.expect("{", "to open block")
	b := &ast.BlockStmt{}
	for !p.check("}") && !p.atEnd() {
		s := p.parseStmt()
		if s != nil {
			b.Stmts = append(b.Stmts, s)
		} else {
			p.synchronizeStmt()
		}
	}
	end, _ := p.expect("}", "to close block")
	b.Rng = rangeSpan(start.Range, end.Range)
	return b
}

func (p *Parser) parseStmt() ast.Stmt {
	switch {
	case p.check("{"):
		return p.parseBlock()
	case p.check("if"):
		return p.parseIf()
	case p.check("while"):
		return p.parseWhile()
	case p.check("for"):
		return p.parseFor()
	case p.check("return"):
		return p.parseReturn()
	case p.check("asm"):
		return p.parseAsmStmt()
	case p.check("var") || p.check("const"):
		return p.parseLocalVarDecl()
	case p.startsType() || p.isIdentStructType():
		return p.parseTypedVarDecl()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseLocalVarDecl() *ast.VarDeclStmt {
	isConst := p.check("const")
	start := p.advance().Range
	var declared *types.Type
	if p.startsType() || p.isIdentStructType() {
		declared = p.parseType()
	}
	name, _, ok := p.expectIdent("in variable declaration")
	if !ok {
		p.synchronizeStmt()
		return nil
	}
	var init ast.Expr
	if p.match("=") {
		init = p.parseExpr()
	}
	p.eatSemi()
	return &ast.VarDeclStmt{Name: name, Declared: declared, Init: init, IsConst: isConst, Rng: rangeSpan(start, p.lastRange())}
}

// parseTypedVarDecl handles `<type> name = expr;` form local decls
// (spec.md §4.3), distinguished from an expression statement by the
// type-starting lookahead in parseStmt.
func (p *Parser) parseTypedVarDecl() *ast.VarDeclStmt {
	start := p.peek().Range
	declared := p.parseType()
	name, _, ok := p.expectIdent("in variable declaration")
	if !ok {
		p.synchronizeStmt()
		return nil
	}
	var init ast.Expr
	if p.match("=") {
		init = p.parseExpr()
	}
	p.eatSemi()
	return &ast.VarDeclStmt{Name: name, Declared: declared, Init: init, Rng: rangeSpan(start, p.lastRange())}
}

func (p *Parser) parseExprStmt() *ast.ExprStmt {
	start := p.peek().Range
	x := p.parseExpr()
	if x == nil {
		p.synchronizeStmt()
		return nil
	}
	p.eatSemi()
	return &ast.ExprStmt{X: x, Rng: rangeSpan(start, p.lastRange())}
}

func (p *Parser) parseIf() *ast.IfStmt {
	start := p.advance().Range // 'if'
	p.expect("(", "after 'if'")
	cond := p.parseExpr()
	p.expect(")", "to close 'if' condition")
	then := p.parseStmt()
	var els ast.Stmt
	if p.match("else") {
		if p.check("if") {
			els = p.parseIf()
		} else {
			els = p.parseStmt()
		}
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: els, Rng: rangeSpan(start, p.lastRange())}
}

func (p *Parser) parseWhile() *ast.WhileStmt {
	start := p.advance().Range // 'while'
	p.expect("(", "after 'while'")
	cond := p.parseExpr()
	p.expect(")", "to close 'while' condition")
	body := p.parseStmt()
	return &ast.WhileStmt{Cond: cond, Body: body, Rng: rangeSpan(start, p.lastRange())}
}

func (p *Parser) parseFor() *ast.ForStmt {
	start := p.advance().Range // 'for'
	p.expect("(", "after 'for'")
	f := &ast.ForStmt{}
	if !p.check(";") {
		if p.check("var") || p.startsType() || p.isIdentStructType() {
			f.Init = p.parseStmt()
		} else {
			f.Init = p.parseExprStmt()
		}
	} else {
		p.advance()
	}
	if !p.check(";") {
		f.Cond = p.parseExpr()
	}
	p.expect(";", "after 'for' condition")
	if !p.check(")") {
		f.Post = p.parseExpr()
	}
	p.expect(")", "to close 'for' clauses")
	f.Body = p.parseStmt()
	f.Rng = rangeSpan(start, p.lastRange())
	return f
}

func (p *Parser) parseReturn() *ast.ReturnStmt {
	start := p.advance().Range // 'return'
	var v ast.Expr
	if !p.check(";") && !p.check("}") {
		v = p.parseExpr()
	}
	p.eatSemi()
	return &ast.ReturnStmt{Value: v, Rng: rangeSpan(start, p.lastRange())}
}

// parseAsmStmt parses `asm { MNEMONIC operand, operand ... ; ... }`
// (spec.md §4.4); each line is terminated by ';' or a newline-implied
// boundary, recognized here simply as an optional ';'.
func (p *Parser) parseAsmStmt() *ast.AsmStmt {
	start := p.advance().Range // 'asm'
	p.expect("{", "to open asm block")
	lines := p.parseAsmLines()
	end, _ := p.expect("}", "to close asm block")
	return &ast.AsmStmt{Lines: lines, Rng: rangeSpan(start, end.Range)}
}

func (p *Parser) parseAsmLines() []ast.AsmLine {
	var lines []ast.AsmLine
	for !p.check("}") && !p.atEnd() {
		lines = append(lines, p.parseAsmLine())
		p.eatSemi()
	}
	return lines
}

func (p *Parser) parseAsmLine() ast.AsmLine {
	start := p.peek().Range
	name, _, _ := p.expectIdent("asm mnemonic")
	line := ast.AsmLine{Mnemonic: name}
	for !p.check(";") && !p.check("}") && !p.atEnd() {
		line.Operands = append(line.Operands, p.parseAsmOperand())
		if !p.match(",") {
			break
		}
	}
	line.Rng = rangeSpan(start, p.lastRange())
	return line
}

func (p *Parser) parseAsmOperand() ast.AsmOperand {
	if p.match("@") {
		name, _, _ := p.expectIdent("after '@' in asm operand")
		return ast.AsmOperand{IsVar: true, Var: name}
	}
	t := p.advance()
	return ast.AsmOperand{Lit: t.Text}
}

// ============================================================
// Expressions (precedence climbing, C-like)
// ============================================================

func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssign()
}

var compoundOps = map[string]ast.AssignOp{
	"=": ast.AssignSet, "+=": ast.AssignAdd, "-=": ast.AssignSub,
	"*=": ast.AssignMul, "/=": ast.AssignDiv, "&=": ast.AssignAnd,
	"|=": ast.AssignOr, "^=": ast.AssignXor, "<<=": ast.AssignShl, ">>=": ast.AssignShr,
}

func (p *Parser) parseAssign() ast.Expr {
	lhs := p.parseLogicalOr()
	t := p.peek()
	if op, ok := compoundOps[t.Text]; ok && t.Kind == token.Punct {
		p.advance()
		rhs := p.parseAssign()
		e := &ast.AssignExpr{Op: op, LHS: lhs, RHS: rhs}
		e.Rng = rangeSpan(lhs.Range(), rhs.Range())
		return e
	}
	return lhs
}

// mkBinary builds a BinaryExpr spanning its operands' ranges.
func mkBinary(op ast.BinaryOp, l, r ast.Expr) ast.Expr {
	e := &ast.BinaryExpr{Op: op, Left: l, Right: r}
	e.Rng = rangeSpan(l.Range(), r.Range())
	return e
}

func (p *Parser) parseLogicalOr() ast.Expr {
	e := p.parseLogicalAnd()
	for p.match("||") {
		r := p.parseLogicalAnd()
		e = mkBinary(ast.OpLOr, e, r)
	}
	return e
}

func (p *Parser) parseLogicalAnd() ast.Expr {
	e := p.parseBitOr()
	for p.match("&&") {
		r := p.parseBitOr()
		e = mkBinary(ast.OpLAnd, e, r)
	}
	return e
}

func (p *Parser) parseBitOr() ast.Expr {
	e := p.parseBitXor()
	for p.check("|") {
		p.advance()
		r := p.parseBitXor()
		e = mkBinary(ast.OpOr, e, r)
	}
	return e
}

func (p *Parser) parseBitXor() ast.Expr {
	e := p.parseBitAnd()
	for p.check("^") {
		p.advance()
		r := p.parseBitAnd()
		e = mkBinary(ast.OpXor, e, r)
	}
	return e
}

func (p *Parser) parseBitAnd() ast.Expr {
	e := p.parseEquality()
	for p.check("&") {
		p.advance()
		r := p.parseEquality()
		e = mkBinary(ast.OpAnd, e, r)
	}
	return e
}

var equalityOps = map[string]ast.BinaryOp{"==": ast.OpEq, "!=": ast.OpNe}

func (p *Parser) parseEquality() ast.Expr {
	e := p.parseRelational()
	for {
		op, ok := equalityOps[p.peek().Text]
		if !ok || p.peek().Kind != token.Punct {
			return e
		}
		p.advance()
		r := p.parseRelational()
		e = mkBinary(op, e, r)
	}
}

var relOps = map[string]ast.BinaryOp{"<": ast.OpLt, ">": ast.OpGt, "<=": ast.OpLe, ">=": ast.OpGe}

func (p *Parser) parseRelational() ast.Expr {
	e := p.parseShift()
	for {
		op, ok := relOps[p.peek().Text]
		if !ok || p.peek().Kind != token.Punct {
			return e
		}
		p.advance()
		r := p.parseShift()
		e = mkBinary(op, e, r)
	}
}

var shiftOps = map[string]ast.BinaryOp{"<<": ast.OpShl, ">>": ast.OpShr}

func (p *Parser) parseShift() ast.Expr {
	e := p.parseAdditive()
	for {
		op, ok := shiftOps[p.peek().Text]
		if !ok || p.peek().Kind != token.Punct {
			return e
		}
		p.advance()
		r := p.parseAdditive()
		e = mkBinary(op, e, r)
	}
}

func (p *Parser) parseAdditive() ast.Expr {
	e := p.parseMultiplicative()
	for p.check("+") || p.check("-") {
		op := ast.OpAdd
		if p.peek().Text == "-" {
			op = ast.OpSub
		}
		p.advance()
		r := p.parseMultiplicative()
		e = mkBinary(op, e, r)
	}
	return e
}

func (p *Parser) parseMultiplicative() ast.Expr {
	e := p.parseUnary()
	for p.check("*") || p.check("/") || p.check("%") {
		var op ast.BinaryOp
		switch p.peek().Text {
		case "*":
			op = ast.OpMul
		case "/":
			op = ast.OpDiv
		case "%":
			op = ast.OpMod
		}
		p.advance()
		r := p.parseUnary()
		e = mkBinary(op, e, r)
	}
	return e
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.peek().Range
	switch {
	case p.match("-"):
		operand := p.parseUnary()
		e := &ast.UnaryExpr{Op: ast.UnaryNeg, Operand: operand}
		e.Rng = rangeSpan(start, operand.Range())
		return e
	case p.match("~"):
		operand := p.parseUnary()
		e := &ast.UnaryExpr{Op: ast.UnaryNot, Operand: operand}
		e.Rng = rangeSpan(start, operand.Range())
		return e
	case p.match("!"):
		operand := p.parseUnary()
		e := &ast.UnaryExpr{Op: ast.UnaryLNot, Operand: operand}
		e.Rng = rangeSpan(start, operand.Range())
		return e
	case p.check("++") || p.check("--"):
		inc := p.advance().Text == "++"
		operand := p.parseUnary()
		e := &ast.IncDecExpr{Operand: operand, Inc: inc}
		e.Rng = rangeSpan(start, operand.Range())
		return e
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch {
		case p.check("["):
			p.advance()
			idx := p.parseExpr()
			end, _ := p.expect("]", "to close index")
			ix := &ast.IndexExpr{Array: e, Index: idx}
			ix.Rng = rangeSpan(e.Range(), end.Range)
			e = ix
		case p.check("."):
			p.advance()
			name, frng, _ := p.expectIdent("after '.'")
			fe := &ast.FieldExpr{Object: e, Field: name}
			fe.Rng = rangeSpan(e.Range(), frng)
			e = fe
		case p.check("++") || p.check("--"):
			opTok := p.advance()
			ie := &ast.IncDecExpr{Operand: e, Inc: opTok.Text == "++", Postfix: true}
			ie.Rng = rangeSpan(e.Range(), opTok.Range)
			e = ie
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	t := p.peek()
	switch {
	case t.Kind == token.Int:
		p.advance()
		e := &ast.IntLiteral{Value: t.Int}
		e.Rng = t.Range
		return e
	case t.Kind == token.Char:
		p.advance()
		e := &ast.IntLiteral{Value: t.Int}
		e.Rng = t.Range
		return e
	case t.Kind == token.String:
		p.advance()
		e := &ast.StringLiteral{Value: t.Str}
		e.Rng = t.Range
		return e
	case t.Is("true"):
		p.advance()
		e := &ast.BoolLiteral{Value: true}
		e.Rng = t.Range
		return e
	case t.Is("false"):
		p.advance()
		e := &ast.BoolLiteral{Value: false}
		e.Rng = t.Range
		return e
	case t.Is("sizeof"):
		return p.parseSizeof()
	case t.Is("create_pointer"):
		return p.parseCreatePointer()
	case t.Is("embed_file"):
		return p.parseEmbedFile()
	case t.Is("asm"):
		return p.parseAsmExpr()
	case t.Is("("):
		p.advance()
		e := p.parseExpr()
		p.expect(")", "to close parenthesized expression")
		return e
	case t.Kind == token.Ident:
		p.advance()
		if p.check("(") {
			return p.parseCall(t.Text, t.Range)
		}
		e := &ast.IdentExpr{Name: t.Text}
		e.Rng = t.Range
		return e
	default:
		p.error("unexpected token %q in expression", t.Text)
		p.advance()
		e := &ast.IntLiteral{Value: 0}
		e.Rng = t.Range
		return e
	}
}

func (p *Parser) parseCall(name string, start diag.Range) ast.Expr {
	p.advance() // '('
	var args []ast.Expr
	for !p.check(")") && !p.atEnd() {
		args = append(args, p.parseExpr())
		if !p.match(",") {
			break
		}
	}
	end, _ := p.expect(")", "to close call arguments")
	e := &ast.CallExpr{Callee: name, Args: args}
	e.Rng = rangeSpan(start, end.Range)
	return e
}

func (p *Parser) parseSizeof() ast.Expr {
	start := p.advance().Range // 'sizeof'
	p.expect("(", "after 'sizeof'")
	operand := p.parseExpr()
	end, _ := p.expect(")", "to close 'sizeof'")
	e := &ast.SizeofExpr{Operand: operand}
	e.Rng = rangeSpan(start, end.Range)
	return e
}

func (p *Parser) parseCreatePointer() ast.Expr {
	start := p.advance().Range // 'create_pointer'
	p.expect("(", "after 'create_pointer'")
	addr := p.parseExpr()
	var bank ast.Expr
	if p.match(",") {
		bank = p.parseExpr()
	}
	end, _ := p.expect(")", "to close 'create_pointer'")
	e := &ast.CreatePointerExpr{Addr: addr, Bank: bank}
	e.Rng = rangeSpan(start, end.Range)
	return e
}

func (p *Parser) parseEmbedFile() ast.Expr {
	start := p.advance().Range // 'embed_file'
	p.expect("(", "after 'embed_file'")
	path := p.parseExpr()
	p.expect(",", "between embed_file's path and kind")
	kind := p.parseExpr()
	end, _ := p.expect(")", "to close 'embed_file'")
	e := &ast.EmbedFileExpr{Path: path, Kind: kind}
	e.Rng = rangeSpan(start, end.Range)
	return e
}

func (p *Parser) parseAsmExpr() ast.Expr {
	start := p.advance().Range // 'asm'
	p.expect("{", "to open asm block")
	lines := p.parseAsmLines()
	end, _ := p.expect("}", "to close asm block")
	e := &ast.AsmExpr{Lines: lines}
	e.Rng = rangeSpan(start, end.Range)
	return e
}
