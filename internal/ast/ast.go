// Package ast defines the Yabal abstract syntax tree: a discriminated
// union over declaration, statement and expression nodes, each carrying
// a source range (spec.md §4.3). Modeled on the teacher's
// yparse/ast.go, generalized to the richer grammar spec.md describes
// (references, bit-field structs, inline asm, create_pointer, sizeof).
//
// This package is intentionally data-only: the four operations spec.md
// §4.3 requires of every expression (declare/initialize/optimize/build,
// in Design Notes' terms) are implemented as a hand-written type switch
// in package builder, not as methods here, so that ast has no
// dependency on the codegen context.
package ast

import (
	"github.com/astro8/yabal/internal/diag"
	"github.com/astro8/yabal/internal/types"
)

// Program is the AST root: one root file with recursively inlined
// imports (spec.md §1 Non-goals: no separate compilation).
type Program struct {
	Decls []Decl
}

// Decl is any top-level declaration.
type Decl interface {
	declNode()
	Range() diag.Range
}

// Stmt is any statement inside a function body.
type Stmt interface {
	stmtNode()
	Range() diag.Range
}

// Expr is any expression. Type is populated during the builder's
// initialize phase; OverwritesB records whether building this
// expression clobbers register B, so the emitter knows when it must
// reload B rather than assume it still holds a prior value.
type Expr interface {
	exprNode()
	Range() diag.Range
	Type() *types.Type
	SetType(*types.Type)
	OverwritesB() bool
	SetOverwritesB(bool)
}

// ============================================================
// Declarations
// ============================================================

// GlobalVarDecl declares a global variable: `var x = expr;` or
// `<type> x = expr;`.
type GlobalVarDecl struct {
	Name        string
	Declared    *types.Type // nil if inferred from Init ("var")
	Init        Expr        // nil if uninitialized
	IsConst     bool
	Rng         diag.Range
}

func (d *GlobalVarDecl) declNode()      {}
func (d *GlobalVarDecl) Range() diag.Range { return d.Rng }

// Param is one function parameter.
type Param struct {
	Name string
	Type *types.Type
	Rng  diag.Range
}

// FuncDecl declares a function with a software-managed stack frame
// (spec.md §4.4).
type FuncDecl struct {
	Name       string
	Params     []*Param
	ReturnType *types.Type // types.TypeVoid for void functions
	Body       *BlockStmt
	Rng        diag.Range
}

func (d *FuncDecl) declNode()      {}
func (d *FuncDecl) Range() diag.Range { return d.Rng }

// StructDecl declares a struct type, with ordered fields and optional
// bit-field layout (`type name : bits;`).
type StructFieldSyntax struct {
	Name string
	Type *types.Type
	Bits int // 0 if not a bit-field
	Rng  diag.Range
}

type StructDecl struct {
	Name   string
	Fields []StructFieldSyntax
	Rng    diag.Range
}

func (d *StructDecl) declNode()      {}
func (d *StructDecl) Range() diag.Range { return d.Rng }

// TopLevelStmt wraps an executable statement that appears directly at
// file scope, interleaved with declarations (spec.md §8 scenarios 1-7
// all run top-level statements, not just declarations — there is no
// separate "script body" construct).
type TopLevelStmt struct {
	S   Stmt
	Rng diag.Range
}

func (d *TopLevelStmt) declNode()      {}
func (d *TopLevelStmt) Range() diag.Range { return d.Rng }

// ============================================================
// Statements
// ============================================================

// VarDeclStmt is a local variable declaration used as a statement.
type VarDeclStmt struct {
	Name     string
	Declared *types.Type
	Init     Expr
	IsConst  bool
	Rng      diag.Range
}

func (s *VarDeclStmt) stmtNode()      {}
func (s *VarDeclStmt) Range() diag.Range { return s.Rng }

// ExprStmt wraps an expression evaluated for side effects only.
type ExprStmt struct {
	X   Expr
	Rng diag.Range
}

func (s *ExprStmt) stmtNode()      {}
func (s *ExprStmt) Range() diag.Range { return s.Rng }

// BlockStmt is a brace-delimited list of statements; it introduces a
// lexical scope (spec.md §3 BlockStack).
type BlockStmt struct {
	Stmts []Stmt
	Rng   diag.Range
}

func (s *BlockStmt) stmtNode()      {}
func (s *BlockStmt) Range() diag.Range { return s.Rng }

// IfStmt is `if (Cond) Then [else Else]`; Else may itself be an IfStmt
// for `else if` chains.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt
	Rng  diag.Range
}

func (s *IfStmt) stmtNode()      {}
func (s *IfStmt) Range() diag.Range { return s.Rng }

// WhileStmt is `while (Cond) Body`.
type WhileStmt struct {
	Cond Expr
	Body Stmt
	Rng  diag.Range
}

func (s *WhileStmt) stmtNode()      {}
func (s *WhileStmt) Range() diag.Range { return s.Rng }

// ForStmt is the C-style `for (Init; Cond; Post) Body`; any clause may
// be nil.
type ForStmt struct {
	Init Stmt
	Cond Expr
	Post Expr
	Body Stmt
	Rng  diag.Range
}

func (s *ForStmt) stmtNode()      {}
func (s *ForStmt) Range() diag.Range { return s.Rng }

// ReturnStmt is `return [Value];`.
type ReturnStmt struct {
	Value Expr // nil for a void return
	Rng   diag.Range
}

func (s *ReturnStmt) stmtNode()      {}
func (s *ReturnStmt) Range() diag.Range { return s.Rng }

// AsmLine is one line inside an `asm { ... }` block: a mnemonic and its
// operands, where an operand of the form `@name` (AsmOperand.IsVar)
// resolves to the named variable's home pointer (spec.md §4.4).
type AsmOperand struct {
	IsVar bool
	Var   string // set when IsVar
	Lit   string // raw operand text otherwise (register name, immediate, label)
}

type AsmLine struct {
	Mnemonic string
	Operands []AsmOperand
	Rng      diag.Range
}

// AsmStmt is an inline assembly statement/expression: `asm { ... }`.
// It doubles as an expression (AsmExpr below) when used in expression
// position; both share AsmLine.
type AsmStmt struct {
	Lines []AsmLine
	Rng   diag.Range
}

func (s *AsmStmt) stmtNode()      {}
func (s *AsmStmt) Range() diag.Range { return s.Rng }

// ============================================================
// Expressions
// ============================================================

type exprBase struct {
	Typ  *types.Type
	Rng  diag.Range
	OvrB bool
}

func (e *exprBase) Range() diag.Range       { return e.Rng }
func (e *exprBase) Type() *types.Type       { return e.Typ }
func (e *exprBase) SetType(t *types.Type)   { e.Typ = t }
func (e *exprBase) OverwritesB() bool       { return e.OvrB }
func (e *exprBase) SetOverwritesB(b bool)   { e.OvrB = b }

// BinaryOp enumerates binary operators; precedence is encoded in the
// parser, not here.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpLAnd
	OpLOr
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
)

func (op BinaryOp) String() string {
	names := [...]string{"+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>", "&&", "||", "==", "!=", "<", ">", "<=", ">="}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// UnaryOp enumerates unary (and compound-assign-carrying) operators.
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryNot           // bitwise ~
	UnaryLNot          // logical !
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryNeg:
		return "-"
	case UnaryNot:
		return "~"
	case UnaryLNot:
		return "!"
	default:
		return "?"
	}
}

// AssignOp enumerates `=` and the compound assignment operators.
type AssignOp int

const (
	AssignSet AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignAnd
	AssignOr
	AssignXor
	AssignShl
	AssignShr
)

// BinaryExpr is `Left Op Right`.
type BinaryExpr struct {
	exprBase
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (e *BinaryExpr) exprNode() {}

// UnaryExpr is `Op Operand`.
type UnaryExpr struct {
	exprBase
	Op      UnaryOp
	Operand Expr
}

func (e *UnaryExpr) exprNode() {}

// AssignExpr is `LHS Op RHS` for `=` and compound operators; LHS must
// be an l-value.
type AssignExpr struct {
	exprBase
	Op  AssignOp
	LHS Expr
	RHS Expr
}

func (e *AssignExpr) exprNode() {}

// IncDecExpr is `++Operand`/`--Operand` (prefix) or `Operand++`/
// `Operand--` (postfix) — spec.md §8 scenario 7's for-loop post clause
// (`v++`). It lowers to the same code as `Operand += 1` / `Operand -=
// 1` (builder/expr.go): prefix and postfix are not distinguished by
// value, since the language only ever uses this as a bare statement,
// never as a sub-expression whose old/new value would be observed.
type IncDecExpr struct {
	exprBase
	Operand Expr
	Inc     bool // true for ++, false for --
	Postfix bool
}

func (e *IncDecExpr) exprNode() {}

// CallExpr is `Callee(Args...)`.
type CallExpr struct {
	exprBase
	Callee string
	Args   []Expr
}

func (e *CallExpr) exprNode() {}

// IndexExpr is `Array[Index]`.
type IndexExpr struct {
	exprBase
	Array Expr
	Index Expr
}

func (e *IndexExpr) exprNode() {}

// FieldExpr is `Object.Field`.
type FieldExpr struct {
	exprBase
	Object Expr
	Field  string
}

func (e *FieldExpr) exprNode() {}

// IdentExpr is a bare identifier reference.
type IdentExpr struct {
	exprBase
	Name string
}

func (e *IdentExpr) exprNode() {}

// IntLiteral is an integer literal.
type IntLiteral struct {
	exprBase
	Value int64
}

func (e *IntLiteral) exprNode() {}

// BoolLiteral is `true` or `false`.
type BoolLiteral struct {
	exprBase
	Value bool
}

func (e *BoolLiteral) exprNode() {}

// StringLiteral is a string literal; it is pooled by value at link
// time (spec.md §4.5).
type StringLiteral struct {
	exprBase
	Value string
}

func (e *StringLiteral) exprNode() {}

// SizeofExpr is `sizeof(expr)`, where expr's static type supplies the
// size; the operand is never evaluated at runtime.
type SizeofExpr struct {
	exprBase
	Operand Expr
}

func (e *SizeofExpr) exprNode() {}

// CreatePointerExpr is `create_pointer(addr[, bank])`: an absolute
// pointer literal. addr must be a compile-time constant (spec.md §9
// Open Questions); the builder rejects non-constant addr at type-check
// time.
type CreatePointerExpr struct {
	exprBase
	Addr Expr
	Bank Expr // nil for bank 0
}

func (e *CreatePointerExpr) exprNode() {}

// EmbedFileExpr is `embed_file(path, kind)`: both operands must be
// string literals resolved at compile time, naming an external file on
// disk and how it should be decoded (e.g. "raw", "image"). Yields a
// pointer into the binary pool the linker assembles (spec.md §4.5).
type EmbedFileExpr struct {
	exprBase
	Path Expr
	Kind Expr
}

func (e *EmbedFileExpr) exprNode() {}

// AsmExpr is an `asm { ... }` block used in expression position (e.g.
// as a function body's `return asm { ... }`); the last value left in A
// at block exit is the result (spec.md §4.4).
type AsmExpr struct {
	exprBase
	Lines []AsmLine
}

func (e *AsmExpr) exprNode() {}
